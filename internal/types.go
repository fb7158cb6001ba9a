package internal

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValueKind describes what a parsed cell holds
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindString
	KindNumber
)

// Value is a loosely typed cell: empty, a string, or a number.
// Numbers keep their source text so amounts convert to decimals exactly.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// EmptyValue is the value of a blank cell
var EmptyValue = Value{}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func NumberValue(f float64, raw string) Value {
	return Value{Kind: KindNumber, Num: f, Str: raw}
}

// IsEmpty reports whether the value would be skipped by an alias chain
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty || (v.Kind == KindString && v.Str == "")
}

// String returns the textual form of the value ("" when empty)
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		if v.Str != "" {
			return strings.TrimSpace(v.Str)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Decimal converts the value to a decimal amount. ok is false for empty
// values and strings that are not plain decimal numbers.
func (v Value) Decimal() (d decimal.Decimal, ok bool) {
	switch v.Kind {
	case KindNumber:
		if v.Str != "" {
			if d, err := decimal.NewFromString(strings.TrimSpace(v.Str)); err == nil {
				return d, true
			}
		}
		return decimal.NewFromFloat(v.Num), true
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// RawRecord is one input row keyed by header name
type RawRecord map[string]Value

// Table is the parser output: header names in column order plus the rows
type Table struct {
	Headers []string
	Records []RawRecord
}

// ClaimRecord is the canonical shape every input row is normalized to
type ClaimRecord struct {
	ID          int
	Date        string
	Amount      decimal.Decimal
	ClaimStatus string
	Patient     string
}

// DailyTotal is the summed payment amount for one calendar day
type DailyTotal struct {
	Date   string // YYYY-MM-DD
	Amount decimal.Decimal
}

// DateRange spans the earliest to latest parseable claim date
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether no parseable date contributed to the range
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// ProviderEstimate is a placeholder per-provider payment split
type ProviderEstimate struct {
	Name   string
	Amount decimal.Decimal
}

// Estimates holds the placeholder KPIs that are not derived from claim data
// but from fixed configured multipliers.
type Estimates struct {
	Aging90Plus decimal.Decimal
	DenialRate  decimal.Decimal
	Providers   []ProviderEstimate
}

// Metrics are the aggregates over the trailing window
type Metrics struct {
	Now            time.Time
	WindowStart    time.Time
	WindowDays     int
	TotalPayments  decimal.Decimal
	TotalClaims    int
	CollectionRate decimal.Decimal // percent, rounded to 2 decimal places
	PaymentsByDay  []DailyTotal
	Estimates      Estimates
}

// Snapshot is the immutable result of one load. It is handed to renderers
// by value; a newer load replaces it wholesale.
type Snapshot struct {
	ID          uuid.UUID
	Source      string
	Format      string
	LoadedAt    time.Time
	RowCount    int
	Records     []ClaimRecord
	Coverage    DateRange
	Suggestions []AliasSuggestion
	Metrics     Metrics
}

// Skipped returns how many input rows were dropped for lacking a date
func (s Snapshot) Skipped() int {
	return s.RowCount - len(s.Records)
}
