package xls

import "github.com/mtakeda/olebiff/biff"

// CellType classifies a cell's value.
type CellType int

const (
	CellEmpty CellType = iota
	CellText
	CellNumber
	CellDate
	CellBoolean
	CellError
	CellBlank
)

func (t CellType) String() string {
	switch t {
	case CellEmpty:
		return "empty"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	case CellBoolean:
		return "boolean"
	case CellError:
		return "error"
	case CellBlank:
		return "blank"
	}
	return "unknown"
}

// Cell is one decoded cell. Value holds a string for CellText, a
// float64 for CellNumber and CellDate (the raw serial; convert with
// Workbook.CellTime), a bool for CellBoolean, and the Excel error
// text for CellError. Empty and blank cells carry no value.
type Cell struct {
	Type    CellType
	Value   interface{}
	XFIndex int
}

// Sheet holds one worksheet's decoded contents. Cells are stored
// sparsely; Cell returns CellEmpty for anything never written.
type Sheet struct {
	Name       string
	Visibility biff.SheetVisibility

	// NRows and NCols are one past the highest row and column index
	// holding a cell.
	NRows int
	NCols int

	// ColInfo and RowInfo carry layout records, keyed as found.
	ColInfo []*biff.ColinfoRecord
	RowInfo map[int]*biff.RowRecord

	cells map[biff.CellRef]Cell
}

func newSheet(name string, visibility biff.SheetVisibility) *Sheet {
	return &Sheet{
		Name:       name,
		Visibility: visibility,
		RowInfo:    make(map[int]*biff.RowRecord),
		cells:      make(map[biff.CellRef]Cell),
	}
}

func (s *Sheet) putCell(ref biff.CellRef, c Cell) {
	s.cells[ref] = c
	if ref.Row+1 > s.NRows {
		s.NRows = ref.Row + 1
	}
	if ref.Col+1 > s.NCols {
		s.NCols = ref.Col + 1
	}
}

// Cell returns the cell at the given zero-based row and column.
func (s *Sheet) Cell(row, col int) Cell {
	if c, ok := s.cells[biff.CellRef{Row: row, Col: col}]; ok {
		return c
	}
	return Cell{Type: CellEmpty}
}

// Row returns the cells of one row, padded with empty cells out to
// NCols.
func (s *Sheet) Row(row int) []Cell {
	out := make([]Cell, s.NCols)
	for col := range out {
		out[col] = s.Cell(row, col)
	}
	return out
}

// Colname returns the spreadsheet-style name of a zero-based column
// index: 0 -> "A", 25 -> "Z", 26 -> "AA".
func Colname(col int) string {
	if col < 0 {
		return ""
	}
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	name := ""
	for {
		quot, rem := col/26, col%26
		name = string(alphabet[rem]) + name
		if quot == 0 {
			return name
		}
		col = quot - 1
	}
}
