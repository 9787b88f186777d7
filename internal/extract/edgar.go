package extract

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/sells-group/treasury-audit/internal/fetch"
	"github.com/sells-group/treasury-audit/internal/model"
)

// companyFacts is the subset of the SEC XBRL companyfacts payload the
// extractor reads.
type companyFacts struct {
	Facts map[string]map[string]factConcept `json:"facts"`
}

type factConcept struct {
	Units map[string][]factEntry `json:"units"`
}

type factEntry struct {
	End   string      `json:"end"`
	Val   json.Number `json:"val"`
	Form  string      `json:"form"`
	Filed string      `json:"filed"`
	FY    int         `json:"fy"`
	FP    string      `json:"fp"`
}

// factConcepts maps a metric kind to candidate XBRL concepts, in
// preference order, and the taxonomy they live under.
var factConcepts = map[model.MetricKind][]struct {
	taxonomy string
	concept  string
}{
	model.MetricSharesOutstanding: {
		{"dei", "EntityCommonStockSharesOutstanding"},
		{"us-gaap", "CommonStockSharesOutstanding"},
	},
	model.MetricBurnRate: {
		{"us-gaap", "OperatingExpenses"},
		{"us-gaap", "CostsAndExpenses"},
	},
	model.MetricHoldings: {
		{"us-gaap", "CryptoAssetNumberOfUnits"},
	},
}

// extractCompanyFacts pulls the most recent fact for the metric's concept
// out of an EDGAR companyfacts payload.
func extractCompanyFacts(res fetch.Result, spec model.MetricSpec) (*model.ExtractedValue, error) {
	var facts companyFacts
	if err := json.Unmarshal(res.Payload, &facts); err != nil {
		return nil, failf(ReasonMalformed, "companyfacts: %v", err)
	}

	concepts, ok := factConcepts[spec.Kind]
	if !ok {
		return nil, failf(ReasonNoValue, "no filing concept for %s", spec.Kind)
	}

	for _, c := range concepts {
		concept, ok := facts.Facts[c.taxonomy][c.concept]
		if !ok {
			continue
		}
		for _, unit := range unitsPreferred(concept.Units, spec.Value.Unit) {
			entry, found := latestFact(concept.Units[unit])
			if !found {
				continue
			}
			n, err := entry.Val.Float64()
			if err != nil {
				continue
			}

			value := model.MetricValue{Number: n, Unit: model.Unit(unit)}
			citation := entry.Form
			if entry.Filed != "" {
				citation += " filed " + entry.Filed
			}

			// Burn rate is configured per year; quarterly operating
			// expenses are annualized.
			if spec.Kind == model.MetricBurnRate {
				value.Unit = "usd/yr"
				if entry.FP != "" && entry.FP != "FY" {
					value.Number = n * 4
					citation += " (quarterly, annualized)"
				}
			}

			asOf, _ := time.Parse("2006-01-02", entry.End)
			return &model.ExtractedValue{
				Value:    value,
				AsOf:     asOf,
				Citation: citation,
			}, nil
		}
	}

	return nil, failf(ReasonNoValue, "no %s fact in filing data", spec.Kind)
}

// unitsPreferred orders a concept's unit keys deterministically, a unit
// commensurable with the configured one first. Some concepts report under
// several units; picking by map order could land on one the comparator
// rejects while a matching unit sits unread.
func unitsPreferred(units map[string][]factEntry, want model.Unit) []string {
	keys := make([]string, 0, len(units))
	for k := range units {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return model.Commensurable(model.Unit(keys[i]), want) &&
			!model.Commensurable(model.Unit(keys[j]), want)
	})
	return keys
}

// latestFact returns the entry with the most recent period end.
func latestFact(entries []factEntry) (factEntry, bool) {
	if len(entries) == 0 {
		return factEntry{}, false
	}
	sorted := make([]factEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].End > sorted[j].End
	})
	return sorted[0], true
}
