package report

import (
	"fmt"
	"time"

	"github.com/sells-group/treasury-audit/internal/model"
)

// CompanyHealth is the per-company rollup surfaced to the dashboard.
type CompanyHealth struct {
	Name   string                           `json:"name"`
	Asset  string                           `json:"asset"`
	Status string                           `json:"status"` // healthy, attention, unverified
	Fields map[model.MetricKind]FieldHealth `json:"fields"`
}

// FieldHealth is one field's state in the health summary.
type FieldHealth struct {
	Verdict model.Verdict `json:"verdict"`
	AgeDays *int          `json:"age_days,omitempty"`
	Stale   bool          `json:"stale,omitempty"`
}

// StaleItem flags a field needing attention.
type StaleItem struct {
	Ticker string           `json:"ticker"`
	Field  model.MetricKind `json:"field"`
	Reason string           `json:"reason"`
}

// HealthSummary is the dashboard-facing digest of a run.
type HealthSummary struct {
	GeneratedAt      time.Time                `json:"generated_at"`
	RunID            string                   `json:"run_id"`
	TotalCompanies   int                      `json:"total_companies"`
	HealthyCompanies int                      `json:"healthy_companies"`
	Companies        map[string]CompanyHealth `json:"companies"`
	StaleItems       []StaleItem              `json:"stale_items"`
}

// Health digests a run report into the dashboard health summary. A
// company is healthy when every field matched and none were stale.
func Health(rr *model.RunReport) HealthSummary {
	hs := HealthSummary{
		GeneratedAt:    rr.Summary.FinishedAt,
		RunID:          rr.Summary.RunID,
		TotalCompanies: len(rr.Companies),
		Companies:      make(map[string]CompanyHealth, len(rr.Companies)),
	}

	for _, rep := range rr.Companies {
		ch := CompanyHealth{
			Name:   rep.Company.Name,
			Asset:  rep.Company.Asset,
			Fields: make(map[model.MetricKind]FieldHealth, len(rep.Records)),
		}

		healthy := true
		anyVerified := false
		for _, rec := range rep.Records {
			fh := FieldHealth{Verdict: rec.Verdict}
			if rec.Staleness != nil {
				age := rec.Staleness.AgeDays
				fh.AgeDays = &age
				fh.Stale = rec.Staleness.Status == model.FreshnessStale
			}
			ch.Fields[rec.Kind] = fh

			switch rec.Verdict {
			case model.VerdictUnverifiable:
				healthy = false
				hs.StaleItems = append(hs.StaleItems, StaleItem{
					Ticker: rep.Company.Ticker,
					Field:  rec.Kind,
					Reason: rec.Citation,
				})
			case model.VerdictWarning, model.VerdictError:
				healthy = false
				anyVerified = true
			default:
				anyVerified = true
			}
			if fh.Stale {
				healthy = false
				hs.StaleItems = append(hs.StaleItems, StaleItem{
					Ticker: rep.Company.Ticker,
					Field:  rec.Kind,
					Reason: staleReason(rec),
				})
			}
		}

		switch {
		case !anyVerified:
			ch.Status = "unverified"
		case healthy:
			ch.Status = "healthy"
			hs.HealthyCompanies++
		default:
			ch.Status = "attention"
		}
		hs.Companies[rep.Company.Ticker] = ch
	}

	return hs
}

func staleReason(rec model.FieldRecord) string {
	if rec.Staleness == nil {
		return "stale"
	}
	return fmt.Sprintf("source value is %d days old", rec.Staleness.AgeDays)
}
