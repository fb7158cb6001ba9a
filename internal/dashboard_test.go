package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rcmtools/billing-dashboard/internal/logger"
)

const sampleCSV = "date,amount,status,patient\n" +
	"2024-06-01,100,paid,A. Rao\n" +
	"2024-05-01,50,paid,B. Shah\n" +
	",25,denied,C. Iyer\n"

// stubLoader returns queued responses in order
type stubLoader struct {
	responses []stubResponse
	calls     []string
}

type stubResponse struct {
	data string
	err  error
}

func (s *stubLoader) Load(_ context.Context, location string) ([]byte, error) {
	s.calls = append(s.calls, location)
	r := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.data), nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDashboard_Refresh(t *testing.T) {
	loader := &stubLoader{responses: []stubResponse{{data: sampleCSV}}}
	d := NewDashboard(Pipeline{
		Source: "claims.csv",
		Clock:  fixedClock(date(2024, 6, 15)),
		Loader: loader.Load,
	})

	if _, ok := d.Current(); ok {
		t.Fatal("Current() before Refresh should report no snapshot")
	}

	snap, err := d.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if snap.RowCount != 3 || len(snap.Records) != 2 || snap.Skipped() != 1 {
		t.Errorf("RowCount = %d, Records = %d, Skipped = %d; want 3, 2, 1",
			snap.RowCount, len(snap.Records), snap.Skipped())
	}
	if snap.Metrics.TotalClaims != 1 || snap.Metrics.CollectionRate.StringFixed(2) != "10.00" {
		t.Errorf("Metrics = %+v", snap.Metrics)
	}
	if snap.Format != "csv" || snap.Source != "claims.csv" {
		t.Errorf("Format = %q, Source = %q", snap.Format, snap.Source)
	}

	current, ok := d.Current()
	if !ok || current.ID != snap.ID {
		t.Errorf("Current() = %v, %v; want snapshot %s", current.ID, ok, snap.ID)
	}
}

func TestDashboard_PartialOptions(t *testing.T) {
	loader := &stubLoader{responses: []stubResponse{{data: "date,amount\n2024-06-01,100\n"}}}
	d := NewDashboard(Pipeline{
		Source:  "claims.csv",
		Options: AggregateOptions{WindowDays: 30},
		Clock:   fixedClock(date(2024, 6, 15)),
		Loader:  loader.Load,
	})

	snap, err := d.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	m := snap.Metrics
	if m.TotalClaims != 1 || m.TotalPayments.String() != "100" {
		t.Errorf("TotalClaims = %d, TotalPayments = %s; want 1, 100", m.TotalClaims, m.TotalPayments)
	}
	if got := m.CollectionRate.StringFixed(2); got != "10.00" {
		t.Errorf("CollectionRate = %s, want 10.00", got)
	}
	if m.Estimates.Aging90Plus.String() != "12" {
		t.Errorf("Aging90Plus = %s, want default estimate 12", m.Estimates.Aging90Plus)
	}
}

func TestDashboard_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	loadErr := errors.New("connection refused")
	loader := &stubLoader{responses: []stubResponse{
		{data: `[{"date": "2024-06-01", "amount": 100}]`},
		{err: loadErr},
		{data: "date,amount\n2024-06-02,5\n"},
	}}
	d := NewDashboard(Pipeline{
		Source: "https://example.com/claims.json",
		Clock:  fixedClock(date(2024, 6, 15)),
		Loader: loader.Load,
	})

	first, err := d.Refresh(context.Background())
	if err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}

	if _, err := d.Refresh(context.Background()); !errors.Is(err, loadErr) {
		t.Errorf("second Refresh() error = %v, want %v", err, loadErr)
	}
	if current, _ := d.Current(); current.ID != first.ID {
		t.Errorf("snapshot replaced after failed load")
	}

	if _, err := d.Refresh(context.Background()); err == nil {
		t.Error("third Refresh() should fail to parse")
	}
	if current, _ := d.Current(); current.ID != first.ID {
		t.Errorf("snapshot replaced after failed parse")
	}
}

func TestDashboard_RefreshReplacesSnapshot(t *testing.T) {
	loader := &stubLoader{responses: []stubResponse{
		{data: sampleCSV},
		{data: "date,amount\n2024-06-10,500\n"},
	}}
	d := NewDashboard(Pipeline{
		Source: "claims.csv",
		Clock:  fixedClock(date(2024, 6, 15)),
		Loader: loader.Load,
	})

	first, _ := d.Refresh(context.Background())
	second, err := d.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("each snapshot should get a new id")
	}
	if current, _ := d.Current(); current.Metrics.TotalPayments.String() != "500" {
		t.Errorf("current total = %s, want 500", current.Metrics.TotalPayments)
	}
	// The earlier snapshot is untouched
	if first.Metrics.TotalPayments.String() != "100" {
		t.Errorf("first total = %s, want 100", first.Metrics.TotalPayments)
	}
}

func TestDashboard_FormatResolution(t *testing.T) {
	loader := &stubLoader{responses: []stubResponse{{data: `[{"date": "2024-06-01", "amount": 10}]`}}}
	d := NewDashboard(Pipeline{
		Source: "json:https://example.com/export",
		Clock:  fixedClock(date(2024, 6, 15)),
		Loader: loader.Load,
	})

	snap, err := d.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if snap.Format != "json" {
		t.Errorf("Format = %q, want json", snap.Format)
	}
	if loader.calls[0] != "https://example.com/export" {
		t.Errorf("loaded %q, want the location without prefix", loader.calls[0])
	}

	bad := NewDashboard(Pipeline{Source: "claims.csv", Format: "parquet", Loader: loader.Load})
	if _, err := bad.Refresh(context.Background()); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDashboard_LogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&buf))

	loader := &stubLoader{responses: []stubResponse{{data: "Service Date,amount\n2024-06-01,5\n"}}}
	d := NewDashboard(Pipeline{
		Source: "claims.csv",
		Clock:  fixedClock(date(2024, 6, 15)),
		Loader: loader.Load,
	})
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "snapshot ready") {
		t.Errorf("missing snapshot log line in %s", out)
	}
	if !strings.Contains(out, `"source":"claims.csv"`) || !strings.Contains(out, `"format":"csv"`) {
		t.Errorf("log lines should carry source and format in %s", out)
	}
	if !strings.Contains(out, `"column":"Service Date"`) {
		t.Errorf("missing alias suggestion in %s", out)
	}
}

func TestBuildSnapshot(t *testing.T) {
	tbl, err := ParseCSV([]byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	snap := BuildSnapshot("claims.csv", "csv", tbl, DefaultColumnAliases, now, DefaultAggregateOptions())

	if !snap.LoadedAt.Equal(now) {
		t.Errorf("LoadedAt = %v, want %v", snap.LoadedAt, now)
	}
	if !snap.Coverage.Start.Equal(date(2024, 5, 1)) || !snap.Coverage.End.Equal(date(2024, 6, 1)) {
		t.Errorf("Coverage = %+v", snap.Coverage)
	}
	if len(snap.Suggestions) != 0 {
		t.Errorf("Suggestions = %+v, want none", snap.Suggestions)
	}

	empty := BuildSnapshot("none", "csv", nil, DefaultColumnAliases, now, DefaultAggregateOptions())
	if empty.RowCount != 0 || empty.Metrics.CollectionRate.StringFixed(2) != "0.00" {
		t.Errorf("empty snapshot = %+v", empty)
	}
}
