// Package compare classifies the gap between configured and extracted
// metric values into tiered verdicts.
package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/treasury-audit/internal/model"
)

// Thresholds are the tier boundaries for numeric comparison, expressed as
// relative fractions. EpsilonFloor is the absolute floor applied to the
// delta denominator so a zero extracted value never divides by zero.
type Thresholds struct {
	Warning      float64 `yaml:"warning" mapstructure:"warning"`
	Error        float64 `yaml:"error" mapstructure:"error"`
	EpsilonFloor float64 `yaml:"epsilon_floor" mapstructure:"epsilon_floor"`
}

// DefaultThresholds returns the audit policy tiers: under 1% matches,
// 1-5% warns, over 5% errors.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 0.01, Error: 0.05, EpsilonFloor: 1e-9}
}

// Result is the outcome of one comparison.
type Result struct {
	Verdict model.Verdict
	Delta   *float64 // relative delta; nil for structural comparisons
	Rule    string   // the threshold rule that fired
}

// Compare classifies configured against extracted. Numeric values compare
// by relative delta against the tier thresholds; structural values
// compare field-wise with no warning tier.
func Compare(configured, extracted model.MetricValue, th Thresholds) Result {
	if configured.Structural() || extracted.Structural() {
		return compareStructural(configured, extracted)
	}
	return compareNumeric(configured.Number, extracted.Number, th)
}

func compareNumeric(configured, extracted float64, th Thresholds) Result {
	delta := relativeDelta(configured, extracted, th.EpsilonFloor)
	r := Result{Delta: &delta}

	switch {
	case delta > th.Error:
		r.Verdict = model.VerdictError
		r.Rule = fmt.Sprintf("delta %.2f%% exceeds %.0f%% error threshold", delta*100, th.Error*100)
	case delta >= th.Warning:
		// The warning band is inclusive on both ends: exactly 1% warns,
		// exactly 5% warns.
		r.Verdict = model.VerdictWarning
		r.Rule = fmt.Sprintf("delta %.2f%% within %.0f%%-%.0f%% warning band", delta*100, th.Warning*100, th.Error*100)
	default:
		r.Verdict = model.VerdictMatch
		r.Rule = fmt.Sprintf("delta %.2f%% under %.0f%% match threshold", delta*100, th.Warning*100)
	}
	return r
}

// relativeDelta computes |configured - extracted| / denom where denom is
// max(|extracted|, |configured|, floor). Including the configured value in
// the denominator keeps the delta finite when a source reports zero.
func relativeDelta(configured, extracted, floor float64) float64 {
	if floor <= 0 {
		floor = 1e-9
	}
	denom := math.Max(math.Max(math.Abs(extracted), math.Abs(configured)), floor)
	return math.Abs(configured-extracted) / denom
}

// compareStructural compares normalized term sets field by field. Any
// mismatch is an error; there is no warning tier for term structures.
func compareStructural(configured, extracted model.MetricValue) Result {
	ct := configured.NormalizedTerms()
	et := extracted.NormalizedTerms()

	var mismatched []string
	for k, cv := range ct {
		if ev, ok := et[k]; !ok || ev != cv {
			mismatched = append(mismatched, k)
		}
	}
	for k := range et {
		if _, ok := ct[k]; !ok {
			mismatched = append(mismatched, k)
		}
	}

	if len(mismatched) > 0 {
		sort.Strings(mismatched)
		return Result{
			Verdict: model.VerdictError,
			Rule:    "term fields differ: " + strings.Join(mismatched, ", "),
		}
	}
	return Result{Verdict: model.VerdictMatch, Rule: "all term fields equal"}
}
