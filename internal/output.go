package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

// OutputOptions controls how a snapshot is displayed
type OutputOptions struct {
	Currency Currency
	Claims   int // number of claims listed under the chart
	BarWidth int // chart bar length at the peak day; 0 means the default
}

const defaultBarWidth = 30

// JSONOutput is the root JSON output object
type JSONOutput struct {
	SnapshotID    string         `json:"snapshot_id"`
	Source        string         `json:"source"`
	Format        string         `json:"format"`
	LoadedAt      string         `json:"loaded_at"`
	Rows          int            `json:"rows"`
	Skipped       int            `json:"skipped"`
	Currency      string         `json:"currency"`
	Window        JSONWindow     `json:"window"`
	Summary       JSONSummary    `json:"summary"`
	PaymentsByDay []JSONDayTotal `json:"payments_by_day"`
	Estimates     JSONEstimates  `json:"estimates"`
	Claims        []JSONClaim    `json:"claims"`
	Suggestions   []JSONAlias    `json:"alias_suggestions,omitempty"`
}

type JSONWindow struct {
	Days  int    `json:"days"`
	Start string `json:"start"` // exclusive
	End   string `json:"end"`
}

// JSONSummary contains the windowed KPIs. The collection rate is a string
// with exactly two decimals.
type JSONSummary struct {
	TotalPayments  decimal.Decimal `json:"total_payments"`
	TotalClaims    int             `json:"total_claims"`
	CollectionRate string          `json:"collection_rate"`
}

type JSONDayTotal struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type JSONEstimates struct {
	Aging90Plus decimal.Decimal     `json:"aging_90_plus"`
	DenialRate  decimal.Decimal     `json:"denial_rate"`
	Providers   []JSONProviderTotal `json:"providers"`
}

type JSONProviderTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type JSONClaim struct {
	ID          int             `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	ClaimStatus string          `json:"claim_status"`
	Patient     string          `json:"patient"`
}

type JSONAlias struct {
	Column string `json:"column"`
	Field  string `json:"field"`
}

// NewJSONOutput builds the JSON document for a snapshot. All normalized
// claims are included.
func NewJSONOutput(snap Snapshot, currency Currency) JSONOutput {
	m := snap.Metrics
	out := JSONOutput{
		SnapshotID: snap.ID.String(),
		Source:     snap.Source,
		Format:     snap.Format,
		LoadedAt:   snap.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Rows:       snap.RowCount,
		Skipped:    snap.Skipped(),
		Currency:   currency.Code,
		Window: JSONWindow{
			Days:  m.WindowDays,
			Start: m.WindowStart.Format(DayLayout),
			End:   m.Now.Format(DayLayout),
		},
		Summary: JSONSummary{
			TotalPayments:  m.TotalPayments,
			TotalClaims:    m.TotalClaims,
			CollectionRate: m.CollectionRate.StringFixed(2),
		},
		PaymentsByDay: make([]JSONDayTotal, 0, len(m.PaymentsByDay)),
		Estimates: JSONEstimates{
			Aging90Plus: m.Estimates.Aging90Plus.Round(2),
			DenialRate:  m.Estimates.DenialRate,
			Providers:   make([]JSONProviderTotal, 0, len(m.Estimates.Providers)),
		},
		Claims: make([]JSONClaim, 0, len(snap.Records)),
	}
	for _, d := range m.PaymentsByDay {
		out.PaymentsByDay = append(out.PaymentsByDay, JSONDayTotal{Date: d.Date, Amount: d.Amount})
	}
	for _, p := range m.Estimates.Providers {
		out.Estimates.Providers = append(out.Estimates.Providers, JSONProviderTotal{Name: p.Name, Amount: p.Amount.Round(2)})
	}
	for _, c := range snap.Records {
		out.Claims = append(out.Claims, JSONClaim{
			ID:          c.ID,
			Date:        c.Date,
			Amount:      c.Amount,
			ClaimStatus: c.ClaimStatus,
			Patient:     c.Patient,
		})
	}
	for _, s := range snap.Suggestions {
		out.Suggestions = append(out.Suggestions, JSONAlias{Column: s.Column, Field: s.Field})
	}
	return out
}

// PrintDashboardJSON outputs the snapshot in JSON format
func PrintDashboardJSON(w io.Writer, snap Snapshot, currency Currency) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewJSONOutput(snap, currency)); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// PrintDashboardTable outputs the KPI cards, the payments chart and the
// first claims as terminal tables
func PrintDashboardTable(w io.Writer, snap Snapshot, opts OutputOptions) {
	m := snap.Metrics
	cur := opts.Currency

	fmt.Fprintf(w, "Loaded %d rows from %s (%d skipped without a date)\n",
		snap.RowCount, snap.Source, snap.Skipped())
	if !snap.Coverage.IsZero() {
		fmt.Fprintf(w, "Data range: %s to %s\n",
			snap.Coverage.Start.Format(DayLayout), snap.Coverage.End.Format(DayLayout))
	}
	fmt.Fprintf(w, "Window: last %d days (%s to %s)\n\n",
		m.WindowDays, m.WindowStart.Format(DayLayout), m.Now.Format(DayLayout))

	printKPIs(w, m, cur)
	fmt.Fprintln(w)
	printPaymentsByDay(w, m, cur, opts.BarWidth)
	if opts.Claims > 0 && len(snap.Records) > 0 {
		fmt.Fprintln(w)
		printClaims(w, snap.Records, opts.Claims, cur)
	}
	for _, s := range snap.Suggestions {
		fmt.Fprintf(w, "\nHint: column %q looks like %q; add it to aliases.%s in the config\n",
			s.Column, s.Field, s.Field)
	}
}

func printKPIs(w io.Writer, m Metrics, cur Currency) {
	windowNote := fmt.Sprintf("Last %d days", m.WindowDays)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"KPI", "Value", "Note"})
	t.AppendRow(table.Row{
		"Gross Collection Rate",
		text.FgGreen.Sprint(m.CollectionRate.StringFixed(2) + "%"),
		fmt.Sprintf("%s · %d claims", windowNote, m.TotalClaims),
	})
	t.AppendRow(table.Row{"Total Payments", cur.FormatDecimal(m.TotalPayments), windowNote})
	t.AppendRow(table.Row{"Denial Rate", m.Estimates.DenialRate.String() + "%", windowNote + " (estimate)"})
	t.AppendRow(table.Row{"AR+ 90 days", cur.Format(m.Estimates.Aging90Plus.InexactFloat64()), "Aging bucket (estimate)"})
	if len(m.Estimates.Providers) > 0 {
		t.AppendSeparator()
		for _, p := range m.Estimates.Providers {
			t.AppendRow(table.Row{p.Name, cur.FormatDecimal(p.Amount), "Top providers (estimate)"})
		}
	}

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()
}

func printPaymentsByDay(w io.Writer, m Metrics, cur Currency, barWidth int) {
	if len(m.PaymentsByDay) == 0 {
		fmt.Fprintf(w, "No payments in the last %d days\n", m.WindowDays)
		return
	}
	if barWidth <= 0 {
		barWidth = defaultBarWidth
	}

	peak := decimal.Zero
	for _, d := range m.PaymentsByDay {
		if d.Amount.GreaterThan(peak) {
			peak = d.Amount
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Payments (last %d days)", m.WindowDays))
	t.AppendHeader(table.Row{"Date", "Amount", ""})
	for _, d := range m.PaymentsByDay {
		t.AppendRow(table.Row{d.Date, cur.FormatDecimal(d.Amount), text.FgCyan.Sprint(bar(d.Amount, peak, barWidth))})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), text.Bold.Sprint(cur.FormatDecimal(m.TotalPayments)), ""})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()
}

// bar scales amount against peak. Non-positive amounts get no bar.
func bar(amount, peak decimal.Decimal, width int) string {
	if !peak.IsPositive() || !amount.IsPositive() {
		return ""
	}
	n := int(amount.Div(peak).Mul(decimal.NewFromInt(int64(width))).Ceil().IntPart())
	if n > width {
		n = width
	}
	return strings.Repeat("█", n)
}

func printClaims(w io.Writer, claims []ClaimRecord, limit int, cur Currency) {
	if limit > len(claims) {
		limit = len(claims)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Date", "Patient", "Status", "Amount"})
	for _, c := range claims[:limit] {
		t.AppendRow(table.Row{c.ID, c.Date, c.Patient, claimStatus(c.ClaimStatus), cur.FormatDecimal(c.Amount)})
	}
	if limit < len(claims) {
		t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d more", len(claims)-limit)})
	}

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func claimStatus(s string) string {
	switch strings.ToLower(s) {
	case "paid":
		return text.FgGreen.Sprint(s)
	case "denied", "rejected":
		return text.FgRed.Sprint(s)
	default:
		return s
	}
}
