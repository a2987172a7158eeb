package biff

import (
	"fmt"
	"math"
	"strings"
)

// DecodeError reports a payload that violates a record type's layout:
// too short for its fixed fields, a reserved field that is not zero,
// or an enumerated field outside its closed set. Decode errors are
// never silently defaulted; the driver decides whether the failing
// record was essential.
type DecodeError struct {
	Record string
	Detail string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("biff: bad %s record: %s", e.Record, e.Detail)
}

func decodeErrf(record, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Record: record, Detail: fmt.Sprintf(format, args...)}
}

// SheetType is the closed set of BOUNDSHEET dt codes.
type SheetType string

const (
	SheetWorksheet SheetType = "worksheet"
	SheetChart     SheetType = "chart"
	SheetVBModule  SheetType = "vbModule"
)

// SheetVisibility is the closed set of BOUNDSHEET hsState codes.
type SheetVisibility string

const (
	SheetVisible    SheetVisibility = "visible"
	SheetHidden     SheetVisibility = "hidden"
	SheetVeryHidden SheetVisibility = "veryHidden"
)

// BoundsheetRecord describes one sheet: its absolute position in the
// workbook stream, visibility, type and name.
type BoundsheetRecord struct {
	Position   uint32
	Visibility SheetVisibility
	SheetType  SheetType
	Name       string
}

// ParseBoundsheetRecord decodes a BIFF8 BOUNDSHEET payload.
func ParseBoundsheetRecord(data []byte) (*BoundsheetRecord, error) {
	if len(data) < 8 {
		return nil, decodeErrf("BOUNDSHEET", "payload %d bytes, need at least 8", len(data))
	}
	pos, _ := U32(data, 0)
	rec := &BoundsheetRecord{Position: pos}

	switch data[4] & 0x03 {
	case 0x00:
		rec.Visibility = SheetVisible
	case 0x01:
		rec.Visibility = SheetHidden
	case 0x02:
		rec.Visibility = SheetVeryHidden
	default:
		return nil, decodeErrf("BOUNDSHEET", "unknown visibility code 0x%02x", data[4])
	}
	switch data[5] {
	case 0x00:
		rec.SheetType = SheetWorksheet
	case 0x02:
		rec.SheetType = SheetChart
	case 0x06:
		rec.SheetType = SheetVBModule
	default:
		return nil, decodeErrf("BOUNDSHEET", "unknown sheet type code 0x%02x", data[5])
	}

	name, _, err := DecodeShortString(data, 6)
	if err != nil {
		return nil, decodeErrf("BOUNDSHEET", "sheet name: %v", err)
	}
	rec.Name = name
	return rec, nil
}

// UnderlineStyle is the closed set of FONT underline codes.
type UnderlineStyle string

const (
	UnderlineNone             UnderlineStyle = "none"
	UnderlineSingle           UnderlineStyle = "single"
	UnderlineDouble           UnderlineStyle = "double"
	UnderlineSingleAccounting UnderlineStyle = "singleAccounting"
	UnderlineDoubleAccounting UnderlineStyle = "doubleAccounting"
)

// Escapement is the closed set of FONT superscript/subscript codes.
type Escapement string

const (
	EscapementNone        Escapement = "none"
	EscapementSuperscript Escapement = "superscript"
	EscapementSubscript   Escapement = "subscript"
)

// FontRecord is a decoded FONT record.
type FontRecord struct {
	Height       int // twips
	Bold         bool
	Italic       bool
	StruckOut    bool
	ColourIndex  int
	Weight       int
	Escapement   Escapement
	Underline    UnderlineStyle
	Family       int
	CharacterSet int
	Name         string
}

// ParseFontRecord decodes a BIFF8 FONT payload.
func ParseFontRecord(data []byte) (*FontRecord, error) {
	if len(data) < 14 {
		return nil, decodeErrf("FONT", "payload %d bytes, need at least 14", len(data))
	}
	height, _ := U16(data, 0)
	grbit, _ := U16(data, 2)
	colour, _ := U16(data, 4)
	weight, _ := U16(data, 6)
	escapement, _ := U16(data, 8)

	rec := &FontRecord{
		Height:       int(height),
		Bold:         grbit&0x0001 != 0,
		Italic:       grbit&0x0002 != 0,
		StruckOut:    grbit&0x0008 != 0,
		ColourIndex:  int(colour),
		Weight:       int(weight),
		Family:       int(data[11]),
		CharacterSet: int(data[12]),
	}
	switch escapement {
	case 0:
		rec.Escapement = EscapementNone
	case 1:
		rec.Escapement = EscapementSuperscript
	case 2:
		rec.Escapement = EscapementSubscript
	default:
		return nil, decodeErrf("FONT", "unknown escapement code %d", escapement)
	}
	switch data[10] {
	case 0x00:
		rec.Underline = UnderlineNone
	case 0x01:
		rec.Underline = UnderlineSingle
	case 0x02:
		rec.Underline = UnderlineDouble
	case 0x21:
		rec.Underline = UnderlineSingleAccounting
	case 0x22:
		rec.Underline = UnderlineDoubleAccounting
	default:
		return nil, decodeErrf("FONT", "unknown underline code 0x%02x", data[10])
	}
	if data[13] != 0 {
		return nil, decodeErrf("FONT", "reserved byte is 0x%02x, must be zero", data[13])
	}

	name, _, err := DecodeShortString(data, 14)
	if err != nil {
		return nil, decodeErrf("FONT", "font name: %v", err)
	}
	rec.Name = name
	return rec, nil
}

// FormatRecord is a decoded FORMAT record: a number format string and
// the index XF records refer to it by.
type FormatRecord struct {
	Index        int
	FormatString string
}

// ParseFormatRecord decodes a BIFF8 FORMAT payload.
func ParseFormatRecord(data []byte) (*FormatRecord, error) {
	if len(data) < 5 {
		return nil, decodeErrf("FORMAT", "payload %d bytes, need at least 5", len(data))
	}
	idx, _ := U16(data, 0)
	s, _, err := DecodeString(data, 2)
	if err != nil {
		return nil, decodeErrf("FORMAT", "format string: %v", err)
	}
	return &FormatRecord{Index: int(idx), FormatString: s}, nil
}

// ColinfoRecord describes formatting shared by a run of columns.
type ColinfoRecord struct {
	FirstCol     int
	LastCol      int
	Width        int // 1/256ths of a character width
	XFIndex      int
	Hidden       bool
	OutlineLevel int
	Collapsed    bool
}

// ParseColinfoRecord decodes a COLINFO payload.
func ParseColinfoRecord(data []byte) (*ColinfoRecord, error) {
	if len(data) < 12 {
		return nil, decodeErrf("COLINFO", "payload %d bytes, need 12", len(data))
	}
	first, _ := U16(data, 0)
	last, _ := U16(data, 2)
	width, _ := U16(data, 4)
	ixfe, _ := U16(data, 6)
	grbit, _ := U16(data, 8)
	reserved, _ := U16(data, 10)
	if first > last {
		return nil, decodeErrf("COLINFO", "first column %d after last column %d", first, last)
	}
	if reserved&0xFF00 != 0 {
		// The low byte is documented as unused-but-written; the high
		// byte must be zero. A non-zero high byte usually means the
		// record boundary was misidentified.
		return nil, decodeErrf("COLINFO", "reserved field is 0x%04x", reserved)
	}
	return &ColinfoRecord{
		FirstCol:     int(first),
		LastCol:      int(last),
		Width:        int(width),
		XFIndex:      int(ixfe),
		Hidden:       grbit&0x0001 != 0,
		OutlineLevel: int(grbit >> 8 & 0x07),
		Collapsed:    grbit&0x1000 != 0,
	}, nil
}

// PaletteRecord carries the custom colour table. Colours are in
// "AARRGGBB" hex form with an opaque alpha, matching how downstream
// converters expect them.
type PaletteRecord struct {
	Colors []string
}

// ParsePaletteRecord decodes a PALETTE payload: a colour count
// followed by 4-byte RGB+reserved entries.
func ParsePaletteRecord(data []byte) (*PaletteRecord, error) {
	if len(data) < 2 {
		return nil, decodeErrf("PALETTE", "payload %d bytes, need at least 2", len(data))
	}
	count, _ := U16(data, 0)
	if len(data) < 2+4*int(count) {
		return nil, decodeErrf("PALETTE", "declares %d colours but payload holds %d bytes", count, len(data))
	}
	rec := &PaletteRecord{Colors: make([]string, 0, count)}
	for i := 0; i < int(count); i++ {
		off := 2 + 4*i
		r, g, b, reserved := data[off], data[off+1], data[off+2], data[off+3]
		if reserved != 0 {
			return nil, decodeErrf("PALETTE", "colour %d reserved byte is 0x%02x", i, reserved)
		}
		rec.Colors = append(rec.Colors, fmt.Sprintf("FF%02X%02X%02X", r, g, b))
	}
	return rec, nil
}

// DateSystem identifies which epoch serial date numbers count from.
type DateSystem string

const (
	DateSystem1900 DateSystem = "1900"
	DateSystem1904 DateSystem = "1904"
)

// DatemodeRecord records the workbook's date system.
type DatemodeRecord struct {
	DateSystem DateSystem
}

// ParseDatemodeRecord decodes a DATEMODE payload. Any value other
// than 0 or 1 is an error: guessing a date system would silently
// shift every date in the workbook by four years.
func ParseDatemodeRecord(data []byte) (*DatemodeRecord, error) {
	if len(data) != 2 {
		return nil, decodeErrf("DATEMODE", "payload %d bytes, need exactly 2", len(data))
	}
	v, _ := U16(data, 0)
	switch v {
	case 0:
		return &DatemodeRecord{DateSystem: DateSystem1900}, nil
	case 1:
		return &DatemodeRecord{DateSystem: DateSystem1904}, nil
	}
	return nil, decodeErrf("DATEMODE", "value %d is neither 0 nor 1", v)
}

// StringRecord holds the cached result of a string formula.
type StringRecord struct {
	Text string
}

// ParseStringRecord decodes a STRING payload.
func ParseStringRecord(data []byte) (*StringRecord, error) {
	s, _, err := DecodeString(data, 0)
	if err != nil {
		return nil, decodeErrf("STRING", "%v", err)
	}
	return &StringRecord{Text: s}, nil
}

// CodepageRecord carries the byte-string codepage of the file.
type CodepageRecord struct {
	Codepage int
}

// ParseCodepageRecord decodes a CODEPAGE payload.
func ParseCodepageRecord(data []byte) (*CodepageRecord, error) {
	if len(data) < 2 {
		return nil, decodeErrf("CODEPAGE", "payload %d bytes, need 2", len(data))
	}
	v, _ := U16(data, 0)
	return &CodepageRecord{Codepage: int(v)}, nil
}

// CountryRecord carries the UI and regional-settings country codes.
type CountryRecord struct {
	UICountry       int
	RegionalCountry int
}

// ParseCountryRecord decodes a COUNTRY payload.
func ParseCountryRecord(data []byte) (*CountryRecord, error) {
	if len(data) < 4 {
		return nil, decodeErrf("COUNTRY", "payload %d bytes, need 4", len(data))
	}
	ui, _ := U16(data, 0)
	reg, _ := U16(data, 2)
	return &CountryRecord{UICountry: int(ui), RegionalCountry: int(reg)}, nil
}

// WriteAccessRecord records the name of the last user to save the
// file, stored space-padded to a fixed width.
type WriteAccessRecord struct {
	UserName string
}

// ParseWriteAccessRecord decodes a BIFF8 WRITEACCESS payload.
func ParseWriteAccessRecord(data []byte) (*WriteAccessRecord, error) {
	s, _, err := DecodeString(data, 0)
	if err != nil {
		return nil, decodeErrf("WRITEACCESS", "%v", err)
	}
	return &WriteAccessRecord{UserName: strings.TrimRight(s, " \x00")}, nil
}

// FillPattern is the XF fill pattern code, 0 (none) through 18.
type FillPattern int

// XFRecord is a decoded extended-format record. Fill attributes are
// packed into a 32-bit field: pattern in bits 31-26, pattern (fore)
// colour index in bits 6-0, background colour index in bits 13-7.
// The shift and mask constants are dictated by the file format.
type XFRecord struct {
	FontIndex        int
	FormatIndex      int
	Locked           bool
	HiddenFormulas   bool
	IsStyle          bool
	ParentXF         int
	FillPattern      FillPattern
	PatternColour    int
	BackgroundColour int
}

// ParseXFRecord decodes a BIFF8 XF payload.
func ParseXFRecord(data []byte) (*XFRecord, error) {
	if len(data) < 20 {
		return nil, decodeErrf("XF", "payload %d bytes, need 20", len(data))
	}
	ifnt, _ := U16(data, 0)
	ifmt, _ := U16(data, 2)
	prot, _ := U16(data, 4)
	fill, _ := U32(data, 16)

	pattern := FillPattern(fill >> 26 & 0x3F)
	if pattern > 18 {
		return nil, decodeErrf("XF", "fill pattern code %d outside 0-18", pattern)
	}
	return &XFRecord{
		FontIndex:        int(ifnt),
		FormatIndex:      int(ifmt),
		Locked:           prot&0x0001 != 0,
		HiddenFormulas:   prot&0x0002 != 0,
		IsStyle:          prot&0x0004 != 0,
		ParentXF:         int(prot >> 4),
		FillPattern:      pattern,
		PatternColour:    int(fill & 0x7F),
		BackgroundColour: int(fill >> 7 & 0x7F),
	}, nil
}

// BOFRecord is a decoded beginning-of-substream record.
type BOFRecord struct {
	BiffVersion int // 80 for BIFF8, 50/70 for BIFF5/7
	StreamType  uint16
	Build       int
	Year        int
}

// ParseBOFRecord decodes a BOF (0x0809) payload. Workbooks inside a
// compound file are BIFF5 or later; earlier versions never appear
// there and are rejected.
func ParseBOFRecord(data []byte) (*BOFRecord, error) {
	if len(data) < 8 {
		return nil, decodeErrf("BOF", "payload %d bytes, need at least 8", len(data))
	}
	vers, _ := U16(data, 0)
	streamType, _ := U16(data, 2)
	build, _ := U16(data, 4)
	year, _ := U16(data, 6)

	rec := &BOFRecord{StreamType: streamType, Build: int(build), Year: int(year)}
	switch vers {
	case 0x0600:
		rec.BiffVersion = 80
	case 0x0500:
		// Excel 5 and 7 share the version word; the build number and
		// year tell them apart.
		if year < 1994 || build == 2412 || build == 3218 || build == 3321 {
			rec.BiffVersion = 50
		} else {
			rec.BiffVersion = 70
		}
	default:
		return nil, decodeErrf("BOF", "unknown BIFF version word 0x%04x", vers)
	}
	return rec, nil
}

// CellRef addresses one cell by zero-based row and column.
type CellRef struct {
	Row int
	Col int
}

// RKRecord is a numeric cell stored in compressed RK form.
type RKRecord struct {
	Ref     CellRef
	XFIndex int
	Value   float64
}

// DecodeRKValue expands a 32-bit RK-encoded number: bit 0 requests a
// divide-by-100, bit 1 selects a 30-bit integer over a truncated IEEE
// double.
func DecodeRKValue(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

// ParseRKRecord decodes an RK payload.
func ParseRKRecord(data []byte) (*RKRecord, error) {
	if len(data) < 10 {
		return nil, decodeErrf("RK", "payload %d bytes, need 10", len(data))
	}
	row, _ := U16(data, 0)
	col, _ := U16(data, 2)
	ixfe, _ := U16(data, 4)
	rk, _ := U32(data, 6)
	return &RKRecord{
		Ref:     CellRef{Row: int(row), Col: int(col)},
		XFIndex: int(ixfe),
		Value:   DecodeRKValue(rk),
	}, nil
}

// NumberRecord is a numeric cell stored as a full IEEE double.
type NumberRecord struct {
	Ref     CellRef
	XFIndex int
	Value   float64
}

// ParseNumberRecord decodes a NUMBER payload.
func ParseNumberRecord(data []byte) (*NumberRecord, error) {
	if len(data) < 14 {
		return nil, decodeErrf("NUMBER", "payload %d bytes, need 14", len(data))
	}
	row, _ := U16(data, 0)
	col, _ := U16(data, 2)
	ixfe, _ := U16(data, 4)
	v, _ := Float64(data, 6)
	return &NumberRecord{
		Ref:     CellRef{Row: int(row), Col: int(col)},
		XFIndex: int(ixfe),
		Value:   v,
	}, nil
}

// LabelSSTRecord is a text cell referencing the shared string table.
type LabelSSTRecord struct {
	Ref      CellRef
	XFIndex  int
	SSTIndex int
}

// ParseLabelSSTRecord decodes a LABELSST payload.
func ParseLabelSSTRecord(data []byte) (*LabelSSTRecord, error) {
	if len(data) < 10 {
		return nil, decodeErrf("LABELSST", "payload %d bytes, need 10", len(data))
	}
	row, _ := U16(data, 0)
	col, _ := U16(data, 2)
	ixfe, _ := U16(data, 4)
	isst, _ := U32(data, 6)
	return &LabelSSTRecord{
		Ref:      CellRef{Row: int(row), Col: int(col)},
		XFIndex:  int(ixfe),
		SSTIndex: int(isst),
	}, nil
}

// LabelRecord is a text cell with the string stored inline.
type LabelRecord struct {
	Ref     CellRef
	XFIndex int
	Text    string
}

// ParseLabelRecord decodes a LABEL payload.
func ParseLabelRecord(data []byte) (*LabelRecord, error) {
	if len(data) < 9 {
		return nil, decodeErrf("LABEL", "payload %d bytes, need at least 9", len(data))
	}
	row, _ := U16(data, 0)
	col, _ := U16(data, 2)
	ixfe, _ := U16(data, 4)
	s, _, err := DecodeString(data, 6)
	if err != nil {
		return nil, decodeErrf("LABEL", "%v", err)
	}
	return &LabelRecord{
		Ref:     CellRef{Row: int(row), Col: int(col)},
		XFIndex: int(ixfe),
		Text:    s,
	}, nil
}

// MulRKRecord carries a run of RK cells sharing one row.
type MulRKRecord struct {
	Row      int
	FirstCol int
	Cells    []struct {
		XFIndex int
		Value   float64
	}
}

// ParseMulRKRecord decodes a MULRK payload.
func ParseMulRKRecord(data []byte) (*MulRKRecord, error) {
	if len(data) < 12 || (len(data)-6)%6 != 0 {
		return nil, decodeErrf("MULRK", "payload %d bytes does not fit header + n*6 + trailer", len(data))
	}
	row, _ := U16(data, 0)
	first, _ := U16(data, 2)
	last, _ := U16(data, len(data)-2)
	n := (len(data) - 6) / 6
	if int(last)-int(first)+1 != n {
		return nil, decodeErrf("MULRK", "column span %d-%d disagrees with %d entries", first, last, n)
	}
	rec := &MulRKRecord{Row: int(row), FirstCol: int(first)}
	for i := 0; i < n; i++ {
		off := 4 + 6*i
		ixfe, _ := U16(data, off)
		rk, _ := U32(data, off+2)
		rec.Cells = append(rec.Cells, struct {
			XFIndex int
			Value   float64
		}{int(ixfe), DecodeRKValue(rk)})
	}
	return rec, nil
}

// MulBlankRecord carries a run of blank formatted cells sharing one
// row.
type MulBlankRecord struct {
	Row      int
	FirstCol int
	XFs      []int
}

// ParseMulBlankRecord decodes a MULBLANK payload.
func ParseMulBlankRecord(data []byte) (*MulBlankRecord, error) {
	if len(data) < 8 || (len(data)-6)%2 != 0 {
		return nil, decodeErrf("MULBLANK", "payload %d bytes does not fit header + n*2 + trailer", len(data))
	}
	row, _ := U16(data, 0)
	first, _ := U16(data, 2)
	last, _ := U16(data, len(data)-2)
	n := (len(data) - 6) / 2
	if int(last)-int(first)+1 != n {
		return nil, decodeErrf("MULBLANK", "column span %d-%d disagrees with %d entries", first, last, n)
	}
	rec := &MulBlankRecord{Row: int(row), FirstCol: int(first)}
	for i := 0; i < n; i++ {
		ixfe, _ := U16(data, 4+2*i)
		rec.XFs = append(rec.XFs, int(ixfe))
	}
	return rec, nil
}

// FormulaResultKind classifies a FORMULA record's cached result.
type FormulaResultKind int

const (
	FormulaNumber FormulaResultKind = iota
	FormulaString                   // text follows in a STRING record
	FormulaBool
	FormulaError
	FormulaEmpty
)

// FormulaRecord is a formula cell's cached result. The formula
// expression itself (the rgce token stream) is not decoded; only the
// last calculated value is.
type FormulaRecord struct {
	Ref       CellRef
	XFIndex   int
	Kind      FormulaResultKind
	Number    float64
	Bool      bool
	ErrorText string
}

// ParseFormulaRecord decodes the fixed head of a FORMULA payload. A
// cached result whose last two bytes are 0xFFFF is a tagged non-number
// value; anything else is an IEEE double.
func ParseFormulaRecord(data []byte) (*FormulaRecord, error) {
	if len(data) < 16 {
		return nil, decodeErrf("FORMULA", "payload %d bytes, need at least 16", len(data))
	}
	row, _ := U16(data, 0)
	col, _ := U16(data, 2)
	ixfe, _ := U16(data, 4)
	rec := &FormulaRecord{Ref: CellRef{Row: int(row), Col: int(col)}, XFIndex: int(ixfe)}

	if data[12] == 0xFF && data[13] == 0xFF {
		switch data[6] {
		case 0:
			rec.Kind = FormulaString
		case 1:
			if data[8] > 1 {
				return nil, decodeErrf("FORMULA", "boolean result 0x%02x is neither 0 nor 1", data[8])
			}
			rec.Kind = FormulaBool
			rec.Bool = data[8] == 1
		case 2:
			text, ok := ErrorText[data[8]]
			if !ok {
				return nil, decodeErrf("FORMULA", "unknown error result 0x%02x", data[8])
			}
			rec.Kind = FormulaError
			rec.ErrorText = text
		case 3:
			rec.Kind = FormulaEmpty
		default:
			return nil, decodeErrf("FORMULA", "unknown result tag 0x%02x", data[6])
		}
		return rec, nil
	}
	v, _ := Float64(data, 6)
	rec.Kind = FormulaNumber
	rec.Number = v
	return rec, nil
}

// BlankRecord is an empty but formatted cell.
type BlankRecord struct {
	Ref     CellRef
	XFIndex int
}

// ParseBlankRecord decodes a BLANK payload.
func ParseBlankRecord(data []byte) (*BlankRecord, error) {
	if len(data) < 6 {
		return nil, decodeErrf("BLANK", "payload %d bytes, need 6", len(data))
	}
	row, _ := U16(data, 0)
	col, _ := U16(data, 2)
	ixfe, _ := U16(data, 4)
	return &BlankRecord{Ref: CellRef{Row: int(row), Col: int(col)}, XFIndex: int(ixfe)}, nil
}

// BoolErrRecord is a boolean or error cell; exactly one of the two
// value fields is meaningful, selected by the fError discriminator.
type BoolErrRecord struct {
	Ref       CellRef
	XFIndex   int
	IsError   bool
	BoolValue bool
	ErrorText string
}

// ParseBoolErrRecord decodes a BOOLERR payload.
func ParseBoolErrRecord(data []byte) (*BoolErrRecord, error) {
	if len(data) < 8 {
		return nil, decodeErrf("BOOLERR", "payload %d bytes, need 8", len(data))
	}
	row, _ := U16(data, 0)
	col, _ := U16(data, 2)
	ixfe, _ := U16(data, 4)
	rec := &BoolErrRecord{Ref: CellRef{Row: int(row), Col: int(col)}, XFIndex: int(ixfe)}
	switch data[7] {
	case 0:
		if data[6] > 1 {
			return nil, decodeErrf("BOOLERR", "boolean value 0x%02x is neither 0 nor 1", data[6])
		}
		rec.BoolValue = data[6] == 1
	case 1:
		text, ok := ErrorText[data[6]]
		if !ok {
			return nil, decodeErrf("BOOLERR", "unknown error code 0x%02x", data[6])
		}
		rec.IsError = true
		rec.ErrorText = text
	default:
		return nil, decodeErrf("BOOLERR", "discriminator 0x%02x is neither 0 nor 1", data[7])
	}
	return rec, nil
}

// DimensionRecord declares a sheet's used cell range.
type DimensionRecord struct {
	FirstRow, LastRowPlus1 int
	FirstCol, LastColPlus1 int
}

// ParseDimensionRecord decodes a BIFF8 DIMENSION payload.
func ParseDimensionRecord(data []byte) (*DimensionRecord, error) {
	if len(data) < 14 {
		return nil, decodeErrf("DIMENSION", "payload %d bytes, need 14", len(data))
	}
	rwMic, _ := U32(data, 0)
	rwMac, _ := U32(data, 4)
	colMic, _ := U16(data, 8)
	colMac, _ := U16(data, 10)
	reserved, _ := U16(data, 12)
	if reserved != 0 {
		return nil, decodeErrf("DIMENSION", "reserved field is 0x%04x", reserved)
	}
	return &DimensionRecord{
		FirstRow: int(rwMic), LastRowPlus1: int(rwMac),
		FirstCol: int(colMic), LastColPlus1: int(colMac),
	}, nil
}

// RowRecord carries per-row layout.
type RowRecord struct {
	Row      int
	FirstCol int
	LastCol  int
	Height   int // twips, low 15 bits
	Hidden   bool
}

// ParseRowRecord decodes a ROW payload.
func ParseRowRecord(data []byte) (*RowRecord, error) {
	if len(data) < 16 {
		return nil, decodeErrf("ROW", "payload %d bytes, need 16", len(data))
	}
	row, _ := U16(data, 0)
	first, _ := U16(data, 2)
	last, _ := U16(data, 4)
	height, _ := U16(data, 6)
	grbit, _ := U16(data, 12)
	return &RowRecord{
		Row:      int(row),
		FirstCol: int(first),
		LastCol:  int(last),
		Height:   int(height & 0x7FFF),
		Hidden:   grbit&0x0020 != 0,
	}, nil
}
