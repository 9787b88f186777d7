// Package report aggregates field records into company reports and the
// run-level summary, and renders the audit report.
package report

import (
	"sort"
	"time"

	"github.com/sells-group/treasury-audit/internal/model"
)

// Assemble builds a company report from its field records. The
// recommended-updates list is derived from warning and error verdicts;
// unverifiable fields are never recommendations, since there is no value
// to recommend.
func Assemble(company model.Company, records []model.FieldRecord) model.CompanyReport {
	rep := model.CompanyReport{Company: company, Records: records}
	for _, rec := range records {
		if rec.Verdict != model.VerdictWarning && rec.Verdict != model.VerdictError {
			continue
		}
		if rec.Extracted == nil {
			continue
		}
		rep.Recommended = append(rep.Recommended, model.RecommendedUpdate{
			Kind:    rec.Kind,
			From:    rec.Configured,
			To:      rec.Extracted.Value,
			Verdict: rec.Verdict,
			Source:  rec.Extracted.Source,
		})
	}
	return rep
}

// Summarize rolls company reports up into the run summary. Counts are the
// sum of per-company verdict counts by construction.
func Summarize(runID string, started, finished time.Time, reports []model.CompanyReport, visits []model.SourceVisit, incomplete bool) model.RunSummary {
	summary := model.RunSummary{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Companies:  len(reports),
		Incomplete: incomplete,
		Sources:    visits,
	}
	for _, rep := range reports {
		summary.Counts.Add(Counts(rep))
	}
	return summary
}

// Counts tallies one company's records by verdict.
func Counts(rep model.CompanyReport) model.VerdictCounts {
	var c model.VerdictCounts
	for _, rec := range rep.Records {
		switch rec.Verdict {
		case model.VerdictMatch:
			c.Match++
		case model.VerdictWarning:
			c.Warning++
		case model.VerdictError:
			c.Error++
		case model.VerdictUnverifiable:
			c.Unverifiable++
		}
	}
	return c
}

// sortRecords orders records by metric kind for stable rendering.
func sortRecords(records []model.FieldRecord) []model.FieldRecord {
	out := make([]model.FieldRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
