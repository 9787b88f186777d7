package report

import (
	"reflect"

	"github.com/sells-group/treasury-audit/internal/model"
)

// Change records a field whose extracted value moved between two runs.
type Change struct {
	Ticker string            `json:"ticker"`
	Kind   model.MetricKind  `json:"kind"`
	Source string            `json:"source"`
	From   model.MetricValue `json:"from"`
	To     model.MetricValue `json:"to"`
}

// Changes diffs the previous verification log against the current run's
// records. A change is reported only when both runs extracted a value for
// the same ticker and field; fields appearing for the first time, or that
// went unverifiable on either side, are not changes.
func Changes(prev, curr []model.FieldRecord) []Change {
	type key struct {
		ticker string
		kind   model.MetricKind
	}
	before := make(map[key]*model.ExtractedValue, len(prev))
	for i := range prev {
		if prev[i].Extracted == nil {
			continue
		}
		before[key{prev[i].Ticker, prev[i].Kind}] = prev[i].Extracted
	}

	var out []Change
	for _, rec := range curr {
		if rec.Extracted == nil {
			continue
		}
		old, ok := before[key{rec.Ticker, rec.Kind}]
		if !ok {
			continue
		}
		if valuesEqual(old.Value, rec.Extracted.Value) {
			continue
		}
		out = append(out, Change{
			Ticker: rec.Ticker,
			Kind:   rec.Kind,
			Source: rec.Extracted.Source,
			From:   old.Value,
			To:     rec.Extracted.Value,
		})
	}
	return out
}

func valuesEqual(a, b model.MetricValue) bool {
	if a.Structural() || b.Structural() {
		return reflect.DeepEqual(a.NormalizedTerms(), b.NormalizedTerms())
	}
	return a.Number == b.Number && a.Unit.Canonical() == b.Unit.Canonical()
}
