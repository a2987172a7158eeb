package biff

// BIFF8 record type codes. Only the records this module decodes or
// must recognise while skipping are listed; unknown codes are handled
// generically by the drivers.
const (
	TypeBOF         uint16 = 0x0809
	TypeEOF         uint16 = 0x000A
	TypeContinue    uint16 = 0x003C
	TypeBoundsheet  uint16 = 0x0085
	TypeFont        uint16 = 0x0031
	TypeFormat      uint16 = 0x041E
	TypeXF          uint16 = 0x00E0
	TypePalette     uint16 = 0x0092
	TypeDatemode    uint16 = 0x0022
	TypeCodepage    uint16 = 0x0042
	TypeCountry     uint16 = 0x008C
	TypeWriteAccess uint16 = 0x005C
	TypeSST         uint16 = 0x00FC
	TypeExtSST      uint16 = 0x00FF
	TypeString      uint16 = 0x0207
	TypeColinfo     uint16 = 0x007D
	TypeStyle       uint16 = 0x0293
	TypeFilepass    uint16 = 0x002F

	TypeDimension   uint16 = 0x0200
	TypeRow         uint16 = 0x0208
	TypeBlank       uint16 = 0x0201
	TypeMulBlank    uint16 = 0x00BE
	TypeNumber      uint16 = 0x0203
	TypeRK          uint16 = 0x027E
	TypeMulRK       uint16 = 0x00BD
	TypeLabel       uint16 = 0x0204
	TypeLabelSST    uint16 = 0x00FD
	TypeBoolErr     uint16 = 0x0205
	TypeFormula     uint16 = 0x0006
	TypeMergedCells uint16 = 0x00E5
	TypeWindow2     uint16 = 0x023E
	TypeIndex       uint16 = 0x020B
)

// MaxRecordPayload is the largest payload a single physical BIFF8
// record may carry; longer logical payloads are split across CONTINUE
// records.
const MaxRecordPayload = 8224

// Stream types carried in the BOF record.
const (
	StreamWorkbookGlobals uint16 = 0x0005
	StreamWorksheet       uint16 = 0x0010
	StreamChart           uint16 = 0x0020
	StreamMacroSheet      uint16 = 0x0040
)

// recordNames maps record type codes to their MS-XLS names, for
// diagnostics and the dump tool.
var recordNames = map[uint16]string{
	TypeBOF:         "BOF",
	TypeEOF:         "EOF",
	TypeContinue:    "CONTINUE",
	TypeBoundsheet:  "BOUNDSHEET",
	TypeFont:        "FONT",
	TypeFormat:      "FORMAT",
	TypeXF:          "XF",
	TypePalette:     "PALETTE",
	TypeDatemode:    "DATEMODE",
	TypeCodepage:    "CODEPAGE",
	TypeCountry:     "COUNTRY",
	TypeWriteAccess: "WRITEACCESS",
	TypeSST:         "SST",
	TypeExtSST:      "EXTSST",
	TypeString:      "STRING",
	TypeColinfo:     "COLINFO",
	TypeStyle:       "STYLE",
	TypeFilepass:    "FILEPASS",
	TypeDimension:   "DIMENSION",
	TypeRow:         "ROW",
	TypeBlank:       "BLANK",
	TypeMulBlank:    "MULBLANK",
	TypeNumber:      "NUMBER",
	TypeRK:          "RK",
	TypeMulRK:       "MULRK",
	TypeLabel:       "LABEL",
	TypeLabelSST:    "LABELSST",
	TypeBoolErr:     "BOOLERR",
	TypeFormula:     "FORMULA",
	TypeMergedCells: "MERGEDCELLS",
	TypeWindow2:     "WINDOW2",
	TypeIndex:       "INDEX",
}

// RecordName returns the MS-XLS name of a record type, or a hex
// placeholder for types this module does not know.
func RecordName(code uint16) string {
	if name, ok := recordNames[code]; ok {
		return name
	}
	return "UNKNOWN_0x" + hexU16(code)
}

func hexU16(v uint16) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{
		digits[v>>12&0xF], digits[v>>8&0xF], digits[v>>4&0xF], digits[v&0xF],
	})
}

// ErrorText maps Excel cell error codes to their display strings.
var ErrorText = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}
