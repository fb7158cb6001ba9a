package internal

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical field names, also used as YAML keys in the aliases config
const (
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldClaimStatus = "claim_status"
	FieldPatient     = "patient"
)

// Defaults substituted when no alias column has a value
const (
	DefaultClaimStatus = "paid"
	DefaultPatient     = "Unknown"
)

// ColumnAliases lists, per canonical field, the source columns tried in
// order. The first column holding a non-empty value wins.
type ColumnAliases struct {
	Date        []string `yaml:"date,omitempty"`
	Amount      []string `yaml:"amount,omitempty"`
	ClaimStatus []string `yaml:"claim_status,omitempty"`
	Patient     []string `yaml:"patient,omitempty"`
}

// DefaultColumnAliases are the header spellings understood out of the box
var DefaultColumnAliases = ColumnAliases{
	Date:        []string{"date", "Date"},
	Amount:      []string{"amount", "payment"},
	ClaimStatus: []string{"claim_status", "status"},
	Patient:     []string{"patient", "name"},
}

// Merge returns a copy with extra's columns appended after the receiver's.
// Columns already present are not repeated.
func (a ColumnAliases) Merge(extra ColumnAliases) ColumnAliases {
	return ColumnAliases{
		Date:        appendUnique(a.Date, extra.Date),
		Amount:      appendUnique(a.Amount, extra.Amount),
		ClaimStatus: appendUnique(a.ClaimStatus, extra.ClaimStatus),
		Patient:     appendUnique(a.Patient, extra.Patient),
	}
}

// Chains returns the alias chains keyed by canonical field name
func (a ColumnAliases) Chains() map[string][]string {
	return map[string][]string{
		FieldDate:        a.Date,
		FieldAmount:      a.Amount,
		FieldClaimStatus: a.ClaimStatus,
		FieldPatient:     a.Patient,
	}
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, col := range list {
			if col == "" || seen[col] {
				continue
			}
			seen[col] = true
			out = append(out, col)
		}
	}
	return out
}

// firstNonEmpty walks an alias chain and returns the first non-empty value
func firstNonEmpty(rec RawRecord, chain []string) (Value, bool) {
	for _, col := range chain {
		if v, ok := rec[col]; ok && !v.IsEmpty() {
			return v, true
		}
	}
	return EmptyValue, false
}

// NormalizeRecord maps one raw row onto the canonical shape. id is the
// 1-based position of the row in the input.
func NormalizeRecord(id int, rec RawRecord, aliases ColumnAliases) ClaimRecord {
	claim := ClaimRecord{
		ID:          id,
		Amount:      decimal.Zero,
		ClaimStatus: DefaultClaimStatus,
		Patient:     DefaultPatient,
	}
	if v, ok := firstNonEmpty(rec, aliases.Date); ok {
		claim.Date = v.String()
	}
	if v, ok := firstNonEmpty(rec, aliases.Amount); ok {
		if d, ok := v.Decimal(); ok {
			claim.Amount = d
		}
	}
	if v, ok := firstNonEmpty(rec, aliases.ClaimStatus); ok {
		claim.ClaimStatus = v.String()
	}
	if v, ok := firstNonEmpty(rec, aliases.Patient); ok {
		claim.Patient = v.String()
	}
	return claim
}

// Normalize converts raw rows to claims, dropping rows without a date.
// Ids come from the input row position, so dropped rows leave gaps.
// Missing or malformed fields never fail; defaults are substituted.
func Normalize(records []RawRecord, aliases ColumnAliases) []ClaimRecord {
	claims := make([]ClaimRecord, 0, len(records))
	for i, rec := range records {
		claim := NormalizeRecord(i+1, rec, aliases)
		if claim.Date == "" {
			continue
		}
		claims = append(claims, claim)
	}
	return claims
}

// AliasSuggestion flags a header that looks like a canonical field but is
// not in that field's alias chain
type AliasSuggestion struct {
	Column string
	Field  string
}

// fieldHints are extra spellings, after folding, that point at a field
var fieldHints = map[string]string{
	"servicedate":   FieldDate,
	"paymentdate":   FieldDate,
	"dateofservice": FieldDate,
	"paid":          FieldAmount,
	"paidamount":    FieldAmount,
	"amountpaid":    FieldAmount,
	"payments":      FieldAmount,
	"claimstatus":   FieldClaimStatus,
	"status":        FieldClaimStatus,
	"patientname":   FieldPatient,
	"name":          FieldPatient,
}

// foldHeader lowercases and drops separators: "Claim Status" → "claimstatus"
func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SuggestAliases reports headers that no alias chain covers but whose
// folded spelling matches a canonical field (or one of its aliases), so
// the operator can add them to the config. A suggestion is only made for
// fields whose chain matches none of the headers.
func SuggestAliases(headers []string, aliases ColumnAliases) []AliasSuggestion {
	chains := aliases.Chains()

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	covered := make(map[string]bool)
	known := make(map[string]bool)
	for field, chain := range chains {
		for _, col := range chain {
			known[col] = true
			if present[col] {
				covered[field] = true
			}
		}
	}

	folded := make(map[string]string)
	for field, chain := range chains {
		folded[foldHeader(field)] = field
		for _, col := range chain {
			folded[foldHeader(col)] = field
		}
	}
	for hint, field := range fieldHints {
		if _, ok := folded[hint]; !ok {
			folded[hint] = field
		}
	}

	var out []AliasSuggestion
	suggested := make(map[string]bool)
	for _, h := range headers {
		if known[h] {
			continue
		}
		field, ok := folded[foldHeader(h)]
		if !ok || covered[field] || suggested[field] {
			continue
		}
		suggested[field] = true
		out = append(out, AliasSuggestion{Column: h, Field: field})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})
	return out
}
