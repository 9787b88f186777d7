// Package staleness derives freshness verdicts from the as-of date of a
// resolved source value.
package staleness

import (
	"time"

	"github.com/sells-group/treasury-audit/internal/model"
)

// DefaultMaxAgeDays is the freshness window when no per-kind override is
// configured.
const DefaultMaxAgeDays = 30

// Policy holds the freshness windows, in days, per metric kind. The
// original verification cadence: holdings monthly, burn rate quarterly,
// market data daily.
type Policy struct {
	DefaultMaxAgeDays int                      `yaml:"default_max_age_days" mapstructure:"default_max_age_days"`
	PerKind           map[model.MetricKind]int `yaml:"per_kind" mapstructure:"per_kind"`
}

// DefaultPolicy returns the standard freshness windows.
func DefaultPolicy() Policy {
	return Policy{
		DefaultMaxAgeDays: DefaultMaxAgeDays,
		PerKind: map[model.MetricKind]int{
			model.MetricHoldings:          30,
			model.MetricBurnRate:          90,
			model.MetricSharesOutstanding: 90,
			model.MetricMarketCap:         1,
		},
	}
}

// MaxAge returns the freshness window for a metric kind.
func (p Policy) MaxAge(kind model.MetricKind) int {
	if days, ok := p.PerKind[kind]; ok && days > 0 {
		return days
	}
	if p.DefaultMaxAgeDays > 0 {
		return p.DefaultMaxAgeDays
	}
	return DefaultMaxAgeDays
}

// Evaluate derives the staleness flag for a value dated asOf at runTime.
// Age is measured in whole days; a value exactly at the window is still
// fresh, one day past is stale.
func Evaluate(asOf, runTime time.Time, maxAgeDays int) model.StalenessFlag {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	age := int(runTime.Sub(asOf).Hours() / 24)
	if age < 0 {
		age = 0
	}

	status := model.FreshnessFresh
	if age > maxAgeDays {
		status = model.FreshnessStale
	}
	return model.StalenessFlag{Status: status, AgeDays: age}
}
