package internal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rcmtools/billing-dashboard/internal/logger"
)

// Pipeline describes where a dashboard loads from and how it derives metrics
type Pipeline struct {
	Source  string
	Format  string // empty to detect from the source
	Aliases ColumnAliases
	Options AggregateOptions

	// Clock returns the current instant. Defaults to time.Now.
	Clock func() time.Time
	// Loader fetches the raw bytes. Defaults to Load.
	Loader func(ctx context.Context, location string) ([]byte, error)
}

// Dashboard holds the latest successful snapshot. Readers always see a
// complete snapshot; a failed refresh leaves the previous one in place.
type Dashboard struct {
	pipeline Pipeline
	current  atomic.Pointer[Snapshot]
}

// NewDashboard creates a dashboard with no snapshot yet. Unset pipeline
// fields get their defaults; options are defaulted field by field.
func NewDashboard(p Pipeline) *Dashboard {
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.Loader == nil {
		p.Loader = Load
	}
	if p.Aliases.Date == nil && p.Aliases.Amount == nil && p.Aliases.ClaimStatus == nil && p.Aliases.Patient == nil {
		p.Aliases = DefaultColumnAliases
	}
	p.Options = p.Options.withDefaults()
	return &Dashboard{pipeline: p}
}

// Current returns the latest snapshot. ok is false until the first
// successful Refresh.
func (d *Dashboard) Current() (Snapshot, bool) {
	snap := d.current.Load()
	if snap == nil {
		return Snapshot{}, false
	}
	return *snap, true
}

// Refresh runs load, parse, normalize and aggregate, and installs the
// result as the current snapshot
func (d *Dashboard) Refresh(ctx context.Context) (Snapshot, error) {
	p := d.pipeline

	format, location, err := ResolveFormat(p.Format, p.Source)
	if err != nil {
		return Snapshot{}, err
	}
	parser, err := GetParser(format)
	if err != nil {
		return Snapshot{}, err
	}

	log := logger.WithFields(logger.FromContext(ctx), map[string]string{
		"source": location,
		"format": format,
	})
	log.Debug().Msg("loading")
	data, err := p.Loader(ctx, location)
	if err != nil {
		log.Warn().Err(err).Msg("load failed, keeping previous snapshot")
		return Snapshot{}, fmt.Errorf("loading %s: %w", location, err)
	}

	tbl, err := parser.Parse(data)
	if err != nil {
		log.Warn().Err(err).Msg("parse failed, keeping previous snapshot")
		return Snapshot{}, fmt.Errorf("parsing %s as %s: %w", location, format, err)
	}

	snap := BuildSnapshot(location, format, tbl, p.Aliases, p.Clock(), p.Options)
	d.current.Store(&snap)

	log.Info().
		Str("snapshot", snap.ID.String()).
		Int("rows", snap.RowCount).
		Int("skipped", snap.Skipped()).
		Int("claims_in_window", snap.Metrics.TotalClaims).
		Str("total_payments", snap.Metrics.TotalPayments.String()).
		Msg("snapshot ready")
	for _, s := range snap.Suggestions {
		log.Warn().Str("column", s.Column).Str("field", s.Field).Msg("unmapped column looks like a known field")
	}
	return snap, nil
}

// BuildSnapshot derives a snapshot from a parsed table. It does no I/O.
func BuildSnapshot(source, format string, tbl *Table, aliases ColumnAliases, now time.Time, opts AggregateOptions) Snapshot {
	if tbl == nil {
		tbl = &Table{}
	}
	claims := Normalize(tbl.Records, aliases)
	return Snapshot{
		ID:          uuid.New(),
		Source:      source,
		Format:      format,
		LoadedAt:    now,
		RowCount:    len(tbl.Records),
		Records:     claims,
		Coverage:    AnalyzeCoverage(claims, now.Location()),
		Suggestions: SuggestAliases(tbl.Headers, aliases),
		Metrics:     Aggregate(claims, now, opts),
	}
}
