package xls

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/mtakeda/olebiff/biff"
	"github.com/mtakeda/olebiff/warn"
)

// rec serialises one physical BIFF record.
func rec(code uint16, payload []byte) []byte {
	out := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint16(out, code)
	binary.LittleEndian.PutUint16(out[2:], uint16(len(payload)))
	return append(out, payload...)
}

func bofPayload(streamType uint16) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint16(out, 0x0600)
	binary.LittleEndian.PutUint16(out[2:], streamType)
	binary.LittleEndian.PutUint16(out[4:], 3515)
	binary.LittleEndian.PutUint16(out[6:], 1997)
	return out
}

func xfPayload(formatIndex int) []byte {
	out := make([]byte, 20)
	binary.LittleEndian.PutUint16(out[2:], uint16(formatIndex))
	binary.LittleEndian.PutUint16(out[4:], 0x0001) // locked
	return out
}

func shortString(s string) []byte {
	out := []byte{byte(len(s)), 0x00}
	return append(out, s...)
}

// fixture assembles a workbook stream: globals holding the given extra
// records, one worksheet named Sheet1 holding the given cell records.
func fixture(extraGlobals [][]byte, cellRecords [][]byte) []byte {
	sheet := rec(biff.TypeBOF, bofPayload(biff.StreamWorksheet))
	for _, r := range cellRecords {
		sheet = append(sheet, r...)
	}
	sheet = append(sheet, rec(biff.TypeEOF, nil)...)

	sst := make([]byte, 8)
	binary.LittleEndian.PutUint32(sst, 2)
	binary.LittleEndian.PutUint32(sst[4:], 2)
	for _, s := range []string{"hello", "world"} {
		sst = append(sst, byte(len(s)), 0x00, 0x00)
		sst = append(sst, s...)
	}

	globals := rec(biff.TypeBOF, bofPayload(biff.StreamWorkbookGlobals))
	globals = append(globals, rec(biff.TypeCodepage, []byte{0xB0, 0x04})...) // 1200
	globals = append(globals, rec(biff.TypeDatemode, []byte{0x00, 0x00})...)
	globals = append(globals, rec(biff.TypeXF, xfPayload(0))...)
	globals = append(globals, rec(biff.TypeXF, xfPayload(14))...) // builtin date
	globals = append(globals, rec(biff.TypeSST, sst)...)
	for _, r := range extraGlobals {
		globals = append(globals, r...)
	}

	// BOUNDSHEET position depends on the globals length including the
	// BOUNDSHEET and EOF records themselves.
	bsPayload := append(make([]byte, 6), shortString("Sheet1")...)
	sheetStart := len(globals) + len(rec(biff.TypeBoundsheet, bsPayload)) + len(rec(biff.TypeEOF, nil))
	binary.LittleEndian.PutUint32(bsPayload, uint32(sheetStart))
	globals = append(globals, rec(biff.TypeBoundsheet, bsPayload)...)
	globals = append(globals, rec(biff.TypeEOF, nil)...)

	return append(globals, sheet...)
}

const (
	endOfChain = 0xFFFFFFFE
	freeSector = 0xFFFFFFFF
	fatSector  = 0xFFFFFFFD
)

// wrapCFB embeds a workbook stream in a minimal compound file: one FAT
// sector, one directory sector, then the stream padded to the mini
// cutoff so it lives in regular sectors.
func wrapCFB(t *testing.T, stream []byte) []byte {
	t.Helper()
	if len(stream) > 4096 {
		t.Fatalf("fixture stream %d bytes, builder supports up to 4096", len(stream))
	}
	padded := make([]byte, 4096)
	copy(padded, stream)
	streamSectors := len(padded) / 512 // 8

	le := binary.LittleEndian
	header := make([]byte, 512)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(header[24:], 0x003E) // minor
	le.PutUint16(header[26:], 3)      // major
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1)          // one FAT sector
	le.PutUint32(header[48:], 1)          // directory at sector 1
	le.PutUint32(header[56:], 4096)       // mini cutoff
	le.PutUint32(header[60:], endOfChain) // no MiniFAT
	le.PutUint32(header[68:], endOfChain) // no DIFAT overflow
	le.PutUint32(header[76:], 0)          // DIFAT[0] -> FAT at sector 0
	for i := 1; i < 109; i++ {
		le.PutUint32(header[76+4*i:], freeSector)
	}

	fat := make([]byte, 512)
	for i := 0; i < 128; i++ {
		le.PutUint32(fat[4*i:], freeSector)
	}
	le.PutUint32(fat[0:], fatSector)
	le.PutUint32(fat[4:], endOfChain) // directory
	for i := 0; i < streamSectors; i++ {
		next := uint32(2 + i + 1)
		if i == streamSectors-1 {
			next = endOfChain
		}
		le.PutUint32(fat[4*(2+i):], next)
	}

	dir := make([]byte, 512)
	putDirEntry(dir[0:], "Root Entry", 0x05, endOfChain, 0)
	putDirEntry(dir[128:], "Workbook", 0x02, 2, uint64(len(padded)))

	out := append([]byte{}, header...)
	out = append(out, fat...)
	out = append(out, dir...)
	return append(out, padded...)
}

func putDirEntry(raw []byte, name string, typ byte, start uint32, size uint64) {
	le := binary.LittleEndian
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		le.PutUint16(raw[2*i:], u)
	}
	le.PutUint16(raw[64:], uint16(2*(len(units)+1))) // incl. terminator
	raw[66] = typ
	le.PutUint32(raw[68:], freeSector) // no siblings
	le.PutUint32(raw[72:], freeSector)
	le.PutUint32(raw[76:], freeSector)
	le.PutUint32(raw[116:], start)
	le.PutUint64(raw[120:], size)
}

func numberRec(row, col, xf int, v float64) []byte {
	p := make([]byte, 14)
	binary.LittleEndian.PutUint16(p, uint16(row))
	binary.LittleEndian.PutUint16(p[2:], uint16(col))
	binary.LittleEndian.PutUint16(p[4:], uint16(xf))
	binary.LittleEndian.PutUint64(p[6:], math.Float64bits(v))
	return rec(biff.TypeNumber, p)
}

func rkRec(row, col, xf int, rk uint32) []byte {
	p := make([]byte, 10)
	binary.LittleEndian.PutUint16(p, uint16(row))
	binary.LittleEndian.PutUint16(p[2:], uint16(col))
	binary.LittleEndian.PutUint16(p[4:], uint16(xf))
	binary.LittleEndian.PutUint32(p[6:], rk)
	return rec(biff.TypeRK, p)
}

func labelSSTRec(row, col, xf, idx int) []byte {
	p := make([]byte, 10)
	binary.LittleEndian.PutUint16(p, uint16(row))
	binary.LittleEndian.PutUint16(p[2:], uint16(col))
	binary.LittleEndian.PutUint16(p[4:], uint16(xf))
	binary.LittleEndian.PutUint32(p[6:], uint32(idx))
	return rec(biff.TypeLabelSST, p)
}

func boolErrRec(row, col, xf int, value, isError byte) []byte {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint16(p, uint16(row))
	binary.LittleEndian.PutUint16(p[2:], uint16(col))
	binary.LittleEndian.PutUint16(p[4:], uint16(xf))
	p[6], p[7] = value, isError
	return rec(biff.TypeBoolErr, p)
}

func TestParseWorkbookBasic(t *testing.T) {
	cells := [][]byte{
		numberRec(0, 0, 0, 3.25),
		// Serial 25569 is 1970-01-01 in the 1900 system; 30-bit
		// integer RK form, date XF.
		rkRec(0, 1, 1, 25569<<2|0x02),
		labelSSTRec(1, 0, 0, 1),
		boolErrRec(1, 1, 0, 1, 0),
	}
	data := wrapCFB(t, fixture(nil, cells))

	w, warnings, err := ParseWorkbook(data, Options{})
	if err != nil {
		t.Fatalf("ParseWorkbook failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("clean fixture produced warnings: %v", warnings)
	}
	if w.BiffVersion != 80 || w.DateSystem != biff.DateSystem1900 || w.Codepage != 1200 {
		t.Errorf("globals wrong: version=%d system=%s codepage=%d", w.BiffVersion, w.DateSystem, w.Codepage)
	}
	if len(w.SharedStrings) != 2 || w.SharedStrings[0] != "hello" {
		t.Errorf("shared strings = %v", w.SharedStrings)
	}
	if len(w.Sheets) != 1 || w.Sheets[0].Name != "Sheet1" {
		t.Fatalf("sheets = %v", w.Sheets)
	}

	s := w.Sheets[0]
	if s.NRows != 2 || s.NCols != 2 {
		t.Errorf("grid = %dx%d, want 2x2", s.NRows, s.NCols)
	}
	if c := s.Cell(0, 0); c.Type != CellNumber || c.Value != 3.25 {
		t.Errorf("A1 = %+v", c)
	}
	if c := s.Cell(1, 0); c.Type != CellText || c.Value != "world" {
		t.Errorf("A2 = %+v", c)
	}
	if c := s.Cell(1, 1); c.Type != CellBoolean || c.Value != true {
		t.Errorf("B2 = %+v", c)
	}

	date := s.Cell(0, 1)
	if date.Type != CellDate {
		t.Fatalf("B1 type = %v, want date", date.Type)
	}
	when, err := w.CellTime(date)
	if err != nil {
		t.Fatalf("CellTime failed: %v", err)
	}
	if want := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC); !when.Equal(want) {
		t.Errorf("B1 = %v, want %v", when, want)
	}

	if c := s.Cell(5, 5); c.Type != CellEmpty {
		t.Errorf("untouched cell = %+v", c)
	}
}

func TestBadGlobalRecordContained(t *testing.T) {
	// A FONT record with an impossible escapement code. Lenient mode
	// loses that record alone; strict mode fails the parse.
	badFont := make([]byte, 16)
	binary.LittleEndian.PutUint16(badFont[8:], 5) // escapement
	badFont = append(badFont[:14], shortString("Arial")...)
	extra := [][]byte{rec(biff.TypeFont, badFont)}
	data := wrapCFB(t, fixture(extra, [][]byte{numberRec(0, 0, 0, 1)}))

	w, warnings, err := ParseWorkbook(data, Options{})
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != warn.XlsRecordSkipped {
		t.Fatalf("warnings = %v, want one XLS_RECORD_SKIPPED", warnings)
	}
	if len(w.Fonts) != 0 {
		t.Errorf("bad font record was kept: %v", w.Fonts)
	}
	if len(w.Sheets) != 1 || w.Sheets[0].Cell(0, 0).Type != CellNumber {
		t.Error("damage was not contained to the font record")
	}

	if _, _, err := ParseWorkbook(data, Options{Mode: warn.Strict}); err == nil {
		t.Error("strict mode accepted a bad FONT record")
	}
}

func TestSharedStringFallback(t *testing.T) {
	data := wrapCFB(t, fixture(nil, [][]byte{labelSSTRec(0, 0, 0, 99)}))

	w, warnings, err := ParseWorkbook(data, Options{})
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != warn.XlsStringFallback {
		t.Fatalf("warnings = %v, want one XLS_STRING_FALLBACK", warnings)
	}
	if c := w.Sheets[0].Cell(0, 0); c.Type != CellText || c.Value != "" {
		t.Errorf("fallback cell = %+v, want empty text", c)
	}

	if _, _, err := ParseWorkbook(data, Options{Mode: warn.Strict}); err == nil {
		t.Error("strict mode accepted an out-of-range SST index")
	}
}

func TestCorruptSheetSkipped(t *testing.T) {
	// Point the BOUNDSHEET at offset 0 (the globals BOF) so the sheet
	// substream check fails. Scan the stream to find the record.
	raw := fixture(nil, [][]byte{numberRec(0, 0, 0, 1)})
	off := 0
	for off < len(raw) {
		code := binary.LittleEndian.Uint16(raw[off:])
		length := int(binary.LittleEndian.Uint16(raw[off+2:]))
		if code == biff.TypeBoundsheet {
			binary.LittleEndian.PutUint32(raw[off+4:], 0)
			break
		}
		off += 4 + length
	}
	data := wrapCFB(t, raw)

	w, warnings, err := ParseWorkbook(data, Options{})
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != warn.XlsSheetSkipped {
		t.Fatalf("warnings = %v, want one XLS_SHEET_SKIPPED", warnings)
	}
	if len(w.Sheets) != 0 {
		t.Errorf("corrupt sheet was kept")
	}

	if _, _, err := ParseWorkbook(data, Options{Mode: warn.Strict}); err == nil {
		t.Error("strict mode accepted a corrupt sheet substream")
	}
}

func TestEncryptedWorkbookFatal(t *testing.T) {
	extra := [][]byte{rec(biff.TypeFilepass, make([]byte, 6))}
	data := wrapCFB(t, fixture(extra, nil))

	for _, mode := range []warn.Mode{warn.Lenient, warn.Strict} {
		_, _, err := ParseWorkbook(data, Options{Mode: mode})
		var enc *EncryptedError
		if !errors.As(err, &enc) {
			t.Errorf("mode %v: err = %v, want EncryptedError", mode, err)
		}
	}
}

func TestNotExcelInput(t *testing.T) {
	_, _, err := ParseWorkbook([]byte("PK\x03\x04 not a compound file"), Options{})
	var ne *NotExcelError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want NotExcelError", err)
	}
}

func TestColname(t *testing.T) {
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for col, want := range cases {
		if got := Colname(col); got != want {
			t.Errorf("Colname(%d) = %q, want %q", col, got, want)
		}
	}
}
