package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

func columnsFor(kind SheetType) ([]column, error) {
	switch kind {
	case SheetReading:
		return readingLayout.columns(), nil
	case SheetListening:
		return listeningLayout.columns(), nil
	case SheetGrammar:
		return grammarLayout.columns(), nil
	case SheetWriting:
		return writingLayout.columns(), nil
	case SheetSpeaking:
		return speakingLayout.columns(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownSheetType, kind)
}

func instructionLines(kind SheetType) []string {
	lines := []string{
		fmt.Sprintf("Question import template: %s", kind),
		fmt.Sprintf("Do not edit cell A%d or the header row %d. Data starts at row %d.", TypeRow, HeaderRow, FirstDataRow),
		"Level is an integer from 1 to 5.",
	}
	switch kind {
	case SheetReading, SheetListening:
		lines = append(lines,
			"Start a group with a row holding Title and body; the question rows below it belong to that group.",
			"Each question needs at least 2 options and a Correct value (1-4) pointing at a filled option.")
	case SheetGrammar:
		lines = append(lines,
			"Every row is one question.",
			"Each question needs at least 2 options and a Correct value (1-4) pointing at a filled option.")
	default:
		lines = append(lines,
			"Every row is one prompt. The hint is appended to the prompt.",
			"The sample answer is kept as grading reference and is not shown before submission.")
	}
	return lines
}

// Template builds a blank workbook for kind: instructions, the type cell,
// headers and one example row.
func Template(kind SheetType) (*excelize.File, error) {
	cols, err := columnsFor(kind)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, line := range instructionLines(kind) {
		if err := setCell(f, sheet, 1, i+1, line); err != nil {
			return nil, err
		}
	}
	if err := setCell(f, sheet, TypeCol, TypeRow, kind.Discriminator()); err != nil {
		return nil, err
	}

	for _, c := range cols {
		if err := setCell(f, sheet, c.index, HeaderRow, c.header); err != nil {
			return nil, err
		}
		if c.example == "" {
			continue
		}
		if err := setCell(f, sheet, c.index, FirstDataRow, c.example); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	first, _ := excelize.CoordinatesToCellName(1, HeaderRow)
	last, _ := excelize.CoordinatesToCellName(maxColumn(cols), HeaderRow)
	if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(maxColumn(cols))
	if err := f.SetColWidth(sheet, "A", lastCol, 28); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteTemplate streams the xlsx template for kind to w.
func WriteTemplate(w io.Writer, kind SheetType) error {
	f, err := Template(kind)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
