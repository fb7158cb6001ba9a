package internal

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	snap := sampleSnapshot(t)
	if err := ExportXLSX(path, snap, GetCurrency("INR")); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetSummary, SheetPaymentsByDay, SheetClaims}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want[i])
		}
	}

	rate := findSummaryValue(t, f, "Gross collection rate (%)")
	if rate != "10.00" {
		t.Errorf("collection rate cell = %q, want 10.00", rate)
	}

	days, err := f.GetRows(SheetPaymentsByDay)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 || days[1][0] != "2024-06-01" || days[1][1] != "100" {
		t.Errorf("payments rows = %v", days)
	}

	claims, err := f.GetRows(SheetClaims)
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 3 {
		t.Fatalf("got %d claim rows, want header + 2", len(claims))
	}
	if claims[2][0] != "2" || claims[2][4] != "B. Shah" {
		t.Errorf("second claim row = %v", claims[2])
	}
}

func TestExportXLSX_ReadableByParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	snap := sampleSnapshot(t)
	if err := ExportXLSX(path, snap, GetCurrency("INR")); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// The summary sheet comes first, so parsing the report reads it as a table
	tbl, err := ParseXLSX(mustWorkbookBytes(t, f))
	if err != nil {
		t.Fatalf("ParseXLSX() error = %v", err)
	}
	if len(tbl.Headers) != 2 || tbl.Headers[0] != "Metric" {
		t.Errorf("Headers = %v, want [Metric Value]", tbl.Headers)
	}
}

func findSummaryValue(t *testing.T, f *excelize.File, metric string) string {
	t.Helper()
	rows, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if len(row) >= 2 && row[0] == metric {
			return row[1]
		}
	}
	t.Fatalf("metric %q not found in summary", metric)
	return ""
}

func mustWorkbookBytes(t *testing.T, f *excelize.File) []byte {
	t.Helper()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
