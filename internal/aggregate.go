package internal

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the key format of PaymentsByDay
const DayLayout = "2006-01-02"

// DefaultWindowDays is the trailing window the dashboard reports on
const DefaultWindowDays = 30

// ProviderShare is a configured fraction of total payments attributed to a provider
type ProviderShare struct {
	Name  string  `yaml:"name"`
	Share float64 `yaml:"share"`
}

// EstimateRules are fixed placeholder multipliers, not derived from claim
// data. They need product sign-off before anyone reads them as real
// receivables figures.
type EstimateRules struct {
	AgingShare float64
	DenialRate float64
	Providers  []ProviderShare
}

// AggregateOptions controls the window and the placeholder formulas
type AggregateOptions struct {
	WindowDays int
	// PerClaimBilled is the assumed billed amount per claim used as the
	// collection rate denominator.
	PerClaimBilled decimal.Decimal
	Estimates      EstimateRules
}

// DefaultProviderShares are the placeholder "Top Providers" splits
var DefaultProviderShares = []ProviderShare{
	{Name: "Provider A", Share: 0.30},
	{Name: "Provider B", Share: 0.18},
	{Name: "Provider C", Share: 0.12},
}

func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{
		WindowDays:     DefaultWindowDays,
		PerClaimBilled: decimal.NewFromInt(1000),
		Estimates: EstimateRules{
			AgingShare: 0.12,
			DenialRate: 4.2,
			Providers:  append([]ProviderShare(nil), DefaultProviderShares...),
		},
	}
}

// withDefaults fills each unset field from DefaultAggregateOptions. Estimates
// are replaced only when no rule is set at all.
func (o AggregateOptions) withDefaults() AggregateOptions {
	def := DefaultAggregateOptions()
	if o.WindowDays <= 0 {
		o.WindowDays = def.WindowDays
	}
	if o.PerClaimBilled.IsZero() {
		o.PerClaimBilled = def.PerClaimBilled
	}
	if o.Estimates.AgingShare == 0 && o.Estimates.DenialRate == 0 && o.Estimates.Providers == nil {
		o.Estimates = def.Estimates
	}
	return o
}

// dateLayouts are tried in order when parsing a claim date. Zone-less
// layouts are read in the location of the current instant.
var dateLayouts = []string{
	DayLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseClaimDate parses a claim date string as a calendar date or instant.
// ok is false when no known layout matches.
func ParseClaimDate(s string, loc *time.Location) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(loc), true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WindowStart returns the exclusive lower bound of the trailing window
func WindowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// datedClaim pairs a claim with its parsed date
type datedClaim struct {
	claim ClaimRecord
	at    time.Time
}

// filterWindow keeps claims dated strictly after the window start.
// Claims with unparseable dates are never in the window.
func filterWindow(claims []ClaimRecord, now time.Time, days int) []datedClaim {
	start := WindowStart(now, days)
	var out []datedClaim
	for _, c := range claims {
		at, ok := ParseClaimDate(c.Date, now.Location())
		if !ok || !at.After(start) {
			continue
		}
		out = append(out, datedClaim{claim: c, at: at})
	}
	return out
}

// CollectionRate computes total / (claims × perClaimBilled) as a percentage
// rounded to two decimals. Zero claims yield zero.
func CollectionRate(total decimal.Decimal, claims int, perClaimBilled decimal.Decimal) decimal.Decimal {
	if claims == 0 || perClaimBilled.IsZero() {
		return decimal.Zero
	}
	billed := perClaimBilled.Mul(decimal.NewFromInt(int64(claims)))
	return total.Div(billed).Mul(decimal.NewFromInt(100)).Round(2)
}

// Aggregate computes the dashboard metrics over the trailing window ending
// at now. It is a pure function of its arguments. Unset options fall back to
// their defaults.
func Aggregate(claims []ClaimRecord, now time.Time, opts AggregateOptions) Metrics {
	opts = opts.withDefaults()

	windowed := filterWindow(claims, now, opts.WindowDays)

	total := decimal.Zero
	byDay := make(map[string]decimal.Decimal)
	for _, d := range windowed {
		total = total.Add(d.claim.Amount)
		key := d.at.Format(DayLayout)
		if sum, ok := byDay[key]; ok {
			byDay[key] = sum.Add(d.claim.Amount)
		} else {
			byDay[key] = d.claim.Amount
		}
	}

	days := make([]DailyTotal, 0, len(byDay))
	for day, sum := range byDay {
		days = append(days, DailyTotal{Date: day, Amount: sum})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	return Metrics{
		Now:            now,
		WindowStart:    WindowStart(now, opts.WindowDays),
		WindowDays:     opts.WindowDays,
		TotalPayments:  total,
		TotalClaims:    len(windowed),
		CollectionRate: CollectionRate(total, len(windowed), opts.PerClaimBilled),
		PaymentsByDay:  days,
		Estimates:      estimate(total, opts.Estimates),
	}
}

func estimate(total decimal.Decimal, rules EstimateRules) Estimates {
	est := Estimates{
		Aging90Plus: total.Mul(decimal.NewFromFloat(rules.AgingShare)),
		DenialRate:  decimal.NewFromFloat(rules.DenialRate),
	}
	for _, p := range rules.Providers {
		est.Providers = append(est.Providers, ProviderEstimate{
			Name:   p.Name,
			Amount: total.Mul(decimal.NewFromFloat(p.Share)),
		})
	}
	return est
}

// AnalyzeCoverage returns the earliest and latest parseable claim dates
// across the whole working set, not just the window.
func AnalyzeCoverage(claims []ClaimRecord, loc *time.Location) DateRange {
	var r DateRange
	for _, c := range claims {
		at, ok := ParseClaimDate(c.Date, loc)
		if !ok {
			continue
		}
		if r.Start.IsZero() || at.Before(r.Start) {
			r.Start = at
		}
		if r.End.IsZero() || at.After(r.End) {
			r.End = at
		}
	}
	return r
}
