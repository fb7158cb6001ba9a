package internal

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of an Excel workbook. The first row with
// any non-blank cell is the header; every later non-blank row is a record.
// Cells go through the same coercion as CSV cells.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	table := &Table{}
	headerFound := false
	for _, row := range rows {
		if isBlankXLSXRow(row) {
			continue
		}
		if !headerFound {
			for _, cell := range row {
				table.Headers = append(table.Headers, strings.TrimSpace(cell))
			}
			headerFound = true
			continue
		}
		table.Records = append(table.Records, recordFromCells(table.Headers, row))
	}
	return table, nil
}

// isBlankXLSXRow matches rows excelize returns for formatted but empty lines
func isBlankXLSXRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func init() {
	RegisterParser("xlsx", ParserFunc(ParseXLSX), ".xlsx", ".xlsm")
}
