package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid is a read-only view of a worksheet. Rows and columns are 1-indexed and
// cells outside the used range read as "".
type Grid interface {
	Cell(row, col int) string
	LastRow() int
}

// MemoryGrid is a Grid backed by a slice of rows.
type MemoryGrid struct {
	rows [][]string
}

func NewMemoryGrid(rows [][]string) *MemoryGrid {
	return &MemoryGrid{rows: rows}
}

func (g *MemoryGrid) Cell(row, col int) string {
	if row < 1 || row > len(g.rows) {
		return ""
	}
	cells := g.rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col-1])
}

func (g *MemoryGrid) LastRow() int {
	return len(g.rows)
}

// ReadExcel loads the first worksheet of an xlsx workbook into memory.
func ReadExcel(r io.Reader) (*MemoryGrid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", sheets[0], err)
	}
	return NewMemoryGrid(rows), nil
}

// record is one data row copied out of the grid.
type record struct {
	num   int
	cells []string
}

func (r record) cell(col int) string {
	if col < 1 || col > len(r.cells) {
		return ""
	}
	return r.cells[col-1]
}

func (r record) anyFilled(cols ...int) bool {
	for _, c := range cols {
		if r.cell(c) != "" {
			return true
		}
	}
	return false
}

// readRecords copies rows FirstDataRow..LastRow in ascending order.
func readRecords(g Grid, width int) []record {
	last := g.LastRow()
	if last < FirstDataRow {
		return nil
	}
	out := make([]record, 0, last-FirstDataRow+1)
	for row := FirstDataRow; row <= last; row++ {
		cells := make([]string, width)
		for col := 1; col <= width; col++ {
			cells[col-1] = g.Cell(row, col)
		}
		out = append(out, record{num: row, cells: cells})
	}
	return out
}
