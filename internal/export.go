package internal

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX report
const (
	SheetSummary       = "Summary"
	SheetPaymentsByDay = "Payments by day"
	SheetClaims        = "Claims"
)

// ExportXLSX writes the snapshot as a workbook with a summary sheet, the
// daily payment totals and the normalized claims
func ExportXLSX(path string, snap Snapshot, currency Currency) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{SheetPaymentsByDay, SheetClaims} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", name, err)
		}
	}

	if err := writeRows(f, SheetSummary, summaryRows(snap, currency)); err != nil {
		return err
	}

	days := [][]any{{"Date", "Amount"}}
	for _, d := range snap.Metrics.PaymentsByDay {
		days = append(days, []any{d.Date, d.Amount.InexactFloat64()})
	}
	if err := writeRows(f, SheetPaymentsByDay, days); err != nil {
		return err
	}

	claims := [][]any{{"ID", "Date", "Amount", "Claim Status", "Patient"}}
	for _, c := range snap.Records {
		claims = append(claims, []any{c.ID, c.Date, c.Amount.InexactFloat64(), c.ClaimStatus, c.Patient})
	}
	if err := writeRows(f, SheetClaims, claims); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func summaryRows(snap Snapshot, currency Currency) [][]any {
	m := snap.Metrics
	rows := [][]any{
		{"Metric", "Value"},
		{"Snapshot", snap.ID.String()},
		{"Source", snap.Source},
		{"Currency", currency.Code},
		{"Window start (exclusive)", m.WindowStart.Format(DayLayout)},
		{"Window end", m.Now.Format(DayLayout)},
		{"Rows", snap.RowCount},
		{"Skipped rows", snap.Skipped()},
		{"Total payments", m.TotalPayments.InexactFloat64()},
		{"Total claims", m.TotalClaims},
		{"Gross collection rate (%)", m.CollectionRate.StringFixed(2)},
		{"Denial rate (%, estimate)", m.Estimates.DenialRate.InexactFloat64()},
		{"AR+ 90 days (estimate)", m.Estimates.Aging90Plus.Round(2).InexactFloat64()},
	}
	for _, p := range m.Estimates.Providers {
		rows = append(rows, []any{p.Name + " (estimate)", p.Amount.Round(2).InexactFloat64()})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
