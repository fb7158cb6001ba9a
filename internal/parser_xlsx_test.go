package internal

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet of a new workbook, starting
// at startRow, and returns the encoded bytes
func buildWorkbook(t *testing.T, startRow int, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := buildWorkbook(t, 1, [][]any{
		{"Date", "payment", "status", "name"},
		{"2024-06-01", 100, "paid", "A. Rao"},
		{"2024-06-02", 75.5, "denied", "B. Shah"},
	})

	tbl, err := ParseXLSX(data)
	if err != nil {
		t.Fatalf("ParseXLSX() error = %v", err)
	}
	if len(tbl.Headers) != 4 || tbl.Headers[1] != "payment" {
		t.Errorf("Headers = %v", tbl.Headers)
	}
	if len(tbl.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(tbl.Records))
	}
	if v := tbl.Records[0]["payment"]; v.Kind != KindNumber || v.Num != 100 {
		t.Errorf("payment = %+v, want number 100", v)
	}
	if got := tbl.Records[1]["name"].String(); got != "B. Shah" {
		t.Errorf("name = %q, want B. Shah", got)
	}
}

func TestParseXLSX_HeaderAfterBlankRows(t *testing.T) {
	data := buildWorkbook(t, 3, [][]any{
		{"date", "amount"},
		{"2024-06-01", 10},
	})

	tbl, err := ParseXLSX(data)
	if err != nil {
		t.Fatalf("ParseXLSX() error = %v", err)
	}
	if len(tbl.Headers) != 2 || tbl.Headers[0] != "date" {
		t.Errorf("Headers = %v, want [date amount]", tbl.Headers)
	}
	if len(tbl.Records) != 1 {
		t.Errorf("got %d records, want 1", len(tbl.Records))
	}
}

func TestParseXLSX_ShortRows(t *testing.T) {
	data := buildWorkbook(t, 1, [][]any{
		{"date", "amount", "patient"},
		{"2024-06-01"},
	})

	tbl, err := ParseXLSX(data)
	if err != nil {
		t.Fatalf("ParseXLSX() error = %v", err)
	}
	if len(tbl.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(tbl.Records))
	}
	if !tbl.Records[0]["patient"].IsEmpty() {
		t.Errorf("patient should be empty, got %+v", tbl.Records[0]["patient"])
	}
}

func TestParseXLSX_InvalidData(t *testing.T) {
	if _, err := ParseXLSX([]byte("date,amount\n")); err == nil {
		t.Error("expected error for non-xlsx data")
	}
}
