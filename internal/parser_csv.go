package internal

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// numericPattern matches cells that are coerced to numbers: plain or
// exponent decimal notation with optional sign and surrounding space.
var numericPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// ParseCSV reads CSV text whose first row is the header. Blank lines are
// skipped by encoding/csv, numeric-looking cells become numbers and empty
// cells become EmptyValue. Short rows leave the missing columns empty;
// extra cells are ignored.
func ParseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	table := &Table{Headers: header}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		table.Records = append(table.Records, recordFromCells(header, row))
	}
	return table, nil
}

func recordFromCells(header []string, cells []string) RawRecord {
	rec := make(RawRecord, len(header))
	for i, name := range header {
		if i < len(cells) {
			rec[name] = CoerceCell(cells[i])
		} else {
			rec[name] = EmptyValue
		}
	}
	return rec
}

// CoerceCell turns a raw cell into a Value
func CoerceCell(cell string) Value {
	if cell == "" {
		return EmptyValue
	}
	if numericPattern.MatchString(cell) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			return NumberValue(f, cell)
		}
	}
	return StringValue(cell)
}
