// Package xls reads legacy Excel 97-2003 (.xls) workbooks: a BIFF8
// record stream stored inside a CFB compound file.
//
// Parsing is lenient by default. Local damage such as an undecodable
// FONT record or one corrupt sheet is reported as a warning and the
// rest of the workbook is still returned; Options.Mode selects strict
// behaviour where any anomaly fails the parse.
package xls

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mtakeda/olebiff/biff"
	"github.com/mtakeda/olebiff/cfb"
	"github.com/mtakeda/olebiff/props"
	"github.com/mtakeda/olebiff/warn"
)

// Options configures a workbook parse.
type Options struct {
	Mode warn.Mode
}

// Workbook is a fully parsed .xls file.
type Workbook struct {
	BiffVersion int
	DateSystem  biff.DateSystem
	Codepage    int
	UserName    string
	Country     *biff.CountryRecord

	Fonts   []*biff.FontRecord
	Formats map[int]*biff.FormatRecord
	XFs     []*biff.XFRecord
	Palette []string

	SharedStrings []string
	Properties    map[string]string
	Sheets        []*Sheet
}

// NotExcelError reports input that is not an .xls compound file.
type NotExcelError struct {
	Format string // as described by cfb.FormatDescriptions, or empty
}

func (e *NotExcelError) Error() string {
	if desc, ok := cfb.FormatDescriptions[e.Format]; ok {
		return fmt.Sprintf("xls: input is %s, not a legacy .xls workbook", desc)
	}
	return "xls: input is not a compound file"
}

// EncryptedError reports a password protected workbook. Decryption is
// out of scope, so this is fatal in both modes.
type EncryptedError struct{}

func (e *EncryptedError) Error() string {
	return "xls: workbook is password protected"
}

// Open reads and parses the workbook at path.
func Open(path string, opts Options) (*Workbook, []warn.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ParseWorkbook(data, opts)
}

// ParseWorkbook parses an in-memory .xls file. The returned warnings
// are everything the lenient parse recovered from; in strict mode the
// slice holds whatever was collected before the fatal error. A non-nil
// Workbook is returned only with a nil error.
func ParseWorkbook(data []byte, opts Options) (*Workbook, []warn.Warning, error) {
	col := warn.NewCollector(opts.Mode)

	if format := cfb.Sniff(data); format != "cfb" {
		return nil, nil, &NotExcelError{Format: format}
	}
	cf, err := cfb.Parse(data, col)
	if err != nil {
		return nil, col.Warnings(), err
	}

	stream, err := workbookStream(cf, col)
	if err != nil {
		return nil, col.Warnings(), err
	}

	w := &Workbook{
		DateSystem: biff.DateSystem1900,
		Codepage:   1252,
		Formats:    make(map[int]*biff.FormatRecord),
	}
	boundsheets, err := w.parseGlobals(stream, col)
	if err != nil {
		return nil, col.Warnings(), err
	}

	for _, bs := range boundsheets {
		if bs.SheetType != biff.SheetWorksheet {
			continue
		}
		sheet, err := w.parseSheet(stream, bs, col)
		if err != nil {
			if col.Strict() {
				return nil, col.Warnings(), err
			}
			col.Add(warn.XlsSheetSkipped, "Workbook/"+bs.Name, "%v", err)
			continue
		}
		w.Sheets = append(w.Sheets, sheet)
	}

	w.Properties = props.Read(cf, col)
	return w, col.Warnings(), nil
}

// workbookStream locates the BIFF stream. BIFF8 writers name it
// "Workbook"; BIFF5 writers used "Book", and some tools preserve that
// name even for BIFF8 content.
func workbookStream(cf *cfb.File, col *warn.Collector) ([]byte, error) {
	for _, name := range []string{"Workbook", "Book"} {
		stream, err := cf.GetStream(name, col)
		var notFound *cfb.StreamNotFoundError
		if errors.As(err, &notFound) {
			continue
		}
		return stream, err
	}
	return nil, &cfb.StreamNotFoundError{Name: "Workbook"}
}

// parseGlobals walks the workbook globals substream: everything from
// the leading BOF to its EOF. It fills the workbook-wide tables and
// returns the BOUNDSHEET records in file order.
//
// The BOF record is essential; any failure there is fatal in both
// modes. Every other record is non-essential: in lenient mode a decode
// failure is recorded as XLS_RECORD_SKIPPED and that record's
// contribution is simply absent.
func (w *Workbook) parseGlobals(stream []byte, col *warn.Collector) ([]*biff.BoundsheetRecord, error) {
	rec, next, err := biff.ReadRecord(stream, 0)
	if err != nil {
		return nil, fmt.Errorf("xls: workbook globals: %w", err)
	}
	if rec.Type != biff.TypeBOF {
		return nil, fmt.Errorf("xls: workbook stream starts with %s, not BOF", rec.Name())
	}
	bof, err := biff.ParseBOFRecord(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("xls: workbook globals: %w", err)
	}
	if bof.StreamType != biff.StreamWorkbookGlobals {
		return nil, fmt.Errorf("xls: workbook stream starts with substream type 0x%04x, not globals", bof.StreamType)
	}
	if bof.BiffVersion != 80 {
		return nil, fmt.Errorf("xls: BIFF%d workbooks are not supported, only BIFF8", bof.BiffVersion)
	}
	w.BiffVersion = bof.BiffVersion

	var boundsheets []*biff.BoundsheetRecord
	off := next
	for i := 1; off < len(stream); i++ {
		where := fmt.Sprintf("Workbook/record[%d]@0x%x", i, off)

		rec, continues, next, err := biff.ReadRecordWithContinues(stream, off)
		if err != nil {
			if col.Strict() {
				return nil, err
			}
			col.Add(warn.XlsRecordTruncated, where, "%v", err)
			if rec.Data == nil {
				break
			}
			// A truncated trailing CONTINUE still leaves a usable merged
			// prefix; decode it, then stop iterating.
			off = len(stream)
		} else {
			off = next
		}

		if rec.Type == biff.TypeEOF {
			break
		}
		if rec.Type == biff.TypeFilepass {
			return nil, &EncryptedError{}
		}

		if derr := w.applyGlobalRecord(rec, continues, boundsheetSink(&boundsheets)); derr != nil {
			if col.Strict() {
				return nil, derr
			}
			col.Add(warn.XlsRecordSkipped, where, "%v", derr)
		}
	}
	return boundsheets, nil
}

func boundsheetSink(dst *[]*biff.BoundsheetRecord) func(*biff.BoundsheetRecord) {
	return func(bs *biff.BoundsheetRecord) { *dst = append(*dst, bs) }
}

// applyGlobalRecord decodes one globals record into the workbook.
// Record types outside the handled set are not an anomaly; BIFF
// streams are full of records a reader is expected to skip.
func (w *Workbook) applyGlobalRecord(rec biff.Record, continues []biff.Record, addSheet func(*biff.BoundsheetRecord)) error {
	switch rec.Type {
	case biff.TypeBoundsheet:
		bs, err := biff.ParseBoundsheetRecord(rec.Data)
		if err != nil {
			return err
		}
		addSheet(bs)
	case biff.TypeFont:
		font, err := biff.ParseFontRecord(rec.Data)
		if err != nil {
			return err
		}
		w.Fonts = append(w.Fonts, font)
	case biff.TypeFormat:
		format, err := biff.ParseFormatRecord(rec.Data)
		if err != nil {
			return err
		}
		w.Formats[format.Index] = format
	case biff.TypeXF:
		xf, err := biff.ParseXFRecord(rec.Data)
		if err != nil {
			return err
		}
		w.XFs = append(w.XFs, xf)
	case biff.TypePalette:
		palette, err := biff.ParsePaletteRecord(rec.Data)
		if err != nil {
			return err
		}
		w.Palette = palette.Colors
	case biff.TypeDatemode:
		dm, err := biff.ParseDatemodeRecord(rec.Data)
		if err != nil {
			return err
		}
		w.DateSystem = dm.DateSystem
	case biff.TypeCodepage:
		cp, err := biff.ParseCodepageRecord(rec.Data)
		if err != nil {
			return err
		}
		w.Codepage = cp.Codepage
	case biff.TypeCountry:
		country, err := biff.ParseCountryRecord(rec.Data)
		if err != nil {
			return err
		}
		w.Country = country
	case biff.TypeWriteAccess:
		wa, err := biff.ParseWriteAccessRecord(rec.Data)
		if err != nil {
			return err
		}
		w.UserName = wa.UserName
	case biff.TypeSST:
		sst, err := biff.ParseSSTRecord(rec.Data, biff.ContinueBoundaries(rec, continues))
		if err != nil {
			return err
		}
		w.SharedStrings = sst.Strings
	}
	return nil
}

// parseSheet walks one worksheet substream, from the BOF at the
// BOUNDSHEET's recorded position to the matching EOF. Cell records are
// decoded into the sheet grid; an undecodable cell record loses only
// itself in lenient mode.
func (w *Workbook) parseSheet(stream []byte, bs *biff.BoundsheetRecord, col *warn.Collector) (*Sheet, error) {
	off := int(bs.Position)
	if off < 0 || off >= len(stream) {
		return nil, fmt.Errorf("xls: sheet %q starts at 0x%x, beyond the %d-byte stream", bs.Name, bs.Position, len(stream))
	}
	rec, next, err := biff.ReadRecord(stream, off)
	if err != nil {
		return nil, fmt.Errorf("xls: sheet %q: %w", bs.Name, err)
	}
	if rec.Type != biff.TypeBOF {
		return nil, fmt.Errorf("xls: sheet %q starts with %s, not BOF", bs.Name, rec.Name())
	}
	bof, err := biff.ParseBOFRecord(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("xls: sheet %q: %w", bs.Name, err)
	}
	if bof.StreamType != biff.StreamWorksheet {
		return nil, fmt.Errorf("xls: sheet %q has substream type 0x%04x, not worksheet", bs.Name, bof.StreamType)
	}

	sheet := newSheet(bs.Name, bs.Visibility)

	// A string formula's text arrives in a STRING record directly after
	// its FORMULA record.
	var pendingString *biff.CellRef

	off = next
	for i := 1; off < len(stream); i++ {
		where := fmt.Sprintf("Workbook/%s/record[%d]@0x%x", bs.Name, i, off)

		rec, _, next, err := biff.ReadRecordWithContinues(stream, off)
		if err != nil {
			if col.Strict() {
				return nil, err
			}
			col.Add(warn.XlsRecordTruncated, where, "%v", err)
			break
		}
		off = next

		if rec.Type == biff.TypeEOF {
			break
		}
		if derr := w.applySheetRecord(sheet, rec, &pendingString, col, where); derr != nil {
			if col.Strict() {
				return nil, derr
			}
			col.Add(warn.XlsRecordSkipped, where, "%v", derr)
		}
	}
	return sheet, nil
}

func (w *Workbook) applySheetRecord(sheet *Sheet, rec biff.Record, pendingString **biff.CellRef, col *warn.Collector, where string) error {
	if rec.Type != biff.TypeString {
		*pendingString = nil
	}
	switch rec.Type {
	case biff.TypeNumber:
		num, err := biff.ParseNumberRecord(rec.Data)
		if err != nil {
			return err
		}
		sheet.putCell(num.Ref, w.numberCell(num.Value, num.XFIndex))
	case biff.TypeRK:
		rk, err := biff.ParseRKRecord(rec.Data)
		if err != nil {
			return err
		}
		sheet.putCell(rk.Ref, w.numberCell(rk.Value, rk.XFIndex))
	case biff.TypeMulRK:
		mul, err := biff.ParseMulRKRecord(rec.Data)
		if err != nil {
			return err
		}
		for i, c := range mul.Cells {
			ref := biff.CellRef{Row: mul.Row, Col: mul.FirstCol + i}
			sheet.putCell(ref, w.numberCell(c.Value, c.XFIndex))
		}
	case biff.TypeLabelSST:
		lbl, err := biff.ParseLabelSSTRecord(rec.Data)
		if err != nil {
			return err
		}
		text, err := w.sharedString(lbl.SSTIndex)
		if err != nil {
			if col.Strict() {
				return err
			}
			col.Add(warn.XlsStringFallback, where, "%v", err)
		}
		sheet.putCell(lbl.Ref, Cell{Type: CellText, Value: text, XFIndex: lbl.XFIndex})
	case biff.TypeLabel:
		lbl, err := biff.ParseLabelRecord(rec.Data)
		if err != nil {
			return err
		}
		sheet.putCell(lbl.Ref, Cell{Type: CellText, Value: lbl.Text, XFIndex: lbl.XFIndex})
	case biff.TypeBlank:
		blank, err := biff.ParseBlankRecord(rec.Data)
		if err != nil {
			return err
		}
		sheet.putCell(blank.Ref, Cell{Type: CellBlank, XFIndex: blank.XFIndex})
	case biff.TypeMulBlank:
		mul, err := biff.ParseMulBlankRecord(rec.Data)
		if err != nil {
			return err
		}
		for i, ixfe := range mul.XFs {
			ref := biff.CellRef{Row: mul.Row, Col: mul.FirstCol + i}
			sheet.putCell(ref, Cell{Type: CellBlank, XFIndex: ixfe})
		}
	case biff.TypeBoolErr:
		be, err := biff.ParseBoolErrRecord(rec.Data)
		if err != nil {
			return err
		}
		if be.IsError {
			sheet.putCell(be.Ref, Cell{Type: CellError, Value: be.ErrorText, XFIndex: be.XFIndex})
		} else {
			sheet.putCell(be.Ref, Cell{Type: CellBoolean, Value: be.BoolValue, XFIndex: be.XFIndex})
		}
	case biff.TypeFormula:
		f, err := biff.ParseFormulaRecord(rec.Data)
		if err != nil {
			return err
		}
		switch f.Kind {
		case biff.FormulaNumber:
			sheet.putCell(f.Ref, w.numberCell(f.Number, f.XFIndex))
		case biff.FormulaBool:
			sheet.putCell(f.Ref, Cell{Type: CellBoolean, Value: f.Bool, XFIndex: f.XFIndex})
		case biff.FormulaError:
			sheet.putCell(f.Ref, Cell{Type: CellError, Value: f.ErrorText, XFIndex: f.XFIndex})
		case biff.FormulaEmpty:
			sheet.putCell(f.Ref, Cell{Type: CellBlank, XFIndex: f.XFIndex})
		case biff.FormulaString:
			// Placeholder until the STRING record arrives.
			sheet.putCell(f.Ref, Cell{Type: CellText, Value: "", XFIndex: f.XFIndex})
			ref := f.Ref
			*pendingString = &ref
		}
	case biff.TypeString:
		if *pendingString == nil {
			return fmt.Errorf("xls: STRING record with no preceding string FORMULA")
		}
		s, err := biff.ParseStringRecord(rec.Data)
		if err != nil {
			return err
		}
		cell := sheet.Cell((*pendingString).Row, (*pendingString).Col)
		cell.Value = s.Text
		sheet.putCell(**pendingString, cell)
		*pendingString = nil
	case biff.TypeRow:
		row, err := biff.ParseRowRecord(rec.Data)
		if err != nil {
			return err
		}
		sheet.RowInfo[row.Row] = row
	case biff.TypeColinfo:
		ci, err := biff.ParseColinfoRecord(rec.Data)
		if err != nil {
			return err
		}
		sheet.ColInfo = append(sheet.ColInfo, ci)
	case biff.TypeDimension:
		if _, err := biff.ParseDimensionRecord(rec.Data); err != nil {
			return err
		}
		// The declared range is advisory; the grid is sized from the
		// cells actually present.
	}
	return nil
}

func (w *Workbook) sharedString(idx int) (string, error) {
	if idx < 0 || idx >= len(w.SharedStrings) {
		return "", fmt.Errorf("xls: shared string index %d outside table of %d", idx, len(w.SharedStrings))
	}
	return w.SharedStrings[idx], nil
}

func (w *Workbook) numberCell(v float64, xfIndex int) Cell {
	t := CellNumber
	if w.xfIsDate(xfIndex) {
		t = CellDate
	}
	return Cell{Type: t, Value: v, XFIndex: xfIndex}
}

// xfIsDate reports whether the XF at the given index applies a date or
// time number format, either a reserved builtin index or a custom
// format string with date tokens.
func (w *Workbook) xfIsDate(xfIndex int) bool {
	if xfIndex < 0 || xfIndex >= len(w.XFs) {
		return false
	}
	fmtIdx := w.XFs[xfIndex].FormatIndex
	if builtinDateFormats[fmtIdx] {
		return true
	}
	if f, ok := w.Formats[fmtIdx]; ok {
		return formatLooksLikeDate(f.FormatString)
	}
	return false
}

// CellTime converts a date cell's serial value under the workbook's
// date system.
func (w *Workbook) CellTime(c Cell) (time.Time, error) {
	serial, ok := c.Value.(float64)
	if !ok {
		return time.Time{}, &DateError{Detail: "cell holds no serial number"}
	}
	return SerialToTime(serial, w.DateSystem)
}

// SheetByName returns the named sheet, matched exactly, or nil.
func (w *Workbook) SheetByName(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}
