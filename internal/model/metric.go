package model

import (
	"strings"
	"time"
)

// MetricKind identifies a category of configured metric.
type MetricKind string

const (
	MetricHoldings          MetricKind = "holdings"
	MetricBurnRate          MetricKind = "burn_rate"
	MetricSharesOutstanding MetricKind = "shares_outstanding"
	MetricStakingAPY        MetricKind = "staking_apy"
	MetricDividendTerms     MetricKind = "dividend_terms"
	MetricMarketCap         MetricKind = "market_cap"
)

// Unit is the unit or currency context of a metric value
// (e.g. "BTC", "ETH", "USD", "USD/yr", "shares", "pct").
type Unit string

// Canonical normalizes unit spellings so that equivalent units compare equal.
func (u Unit) Canonical() Unit {
	s := strings.ToLower(strings.TrimSpace(string(u)))
	switch s {
	case "$", "usd", "dollars":
		return "usd"
	case "%", "pct", "percent":
		return "pct"
	case "share", "shares":
		return "shares"
	case "usd/yr", "usd/year", "$/yr":
		return "usd/yr"
	}
	return Unit(s)
}

// Commensurable reports whether two units can be compared directly.
// Comparison never coerces across units; a currency mismatch or a
// shares-vs-dollars mixup must fail, not convert.
func Commensurable(a, b Unit) bool {
	return a.Canonical() == b.Canonical()
}

// MetricValue is a configured or extracted value. Numeric metrics carry
// Number+Unit; structured metrics (dividend terms) carry Terms instead.
type MetricValue struct {
	Number float64           `json:"number,omitempty"`
	Unit   Unit              `json:"unit,omitempty"`
	Terms  map[string]string `json:"terms,omitempty"`
}

// Structural reports whether the value is a structured term set rather
// than a single number.
func (v MetricValue) Structural() bool {
	return len(v.Terms) > 0
}

// NormalizedTerms returns the term set with trimmed, lowercased keys and
// trimmed values, for field-wise structural comparison.
func (v MetricValue) NormalizedTerms() map[string]string {
	if len(v.Terms) == 0 {
		return nil
	}
	out := make(map[string]string, len(v.Terms))
	for k, val := range v.Terms {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(val)
	}
	return out
}

// MetricSpec is one configured metric for one company. Immutable input to
// a reconciliation run.
type MetricSpec struct {
	Ticker string      `json:"ticker" yaml:"ticker"`
	Kind   MetricKind  `json:"kind" yaml:"kind"`
	Value  MetricValue `json:"value" yaml:"value"`
	AsOf   *time.Time  `json:"as_of,omitempty" yaml:"as_of,omitempty"`
}
