package report

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/treasury-audit/internal/model"
)

var statusGlyphs = map[model.Verdict]string{
	model.VerdictMatch:        "OK",
	model.VerdictWarning:      "WARN",
	model.VerdictError:        "ERROR",
	model.VerdictUnverifiable: "UNVERIFIED",
}

// FormatMarkdown renders the full audit report: one section per company
// with a field table, recommended updates, and the sources-consulted list.
func FormatMarkdown(rr *model.RunReport) string {
	var b strings.Builder
	p := message.NewPrinter(language.English)

	fmt.Fprintf(&b, "# Treasury Audit Report\n")
	fmt.Fprintf(&b, "Run: %s\n", rr.Summary.RunID)
	fmt.Fprintf(&b, "Generated: %s\n\n", rr.Summary.FinishedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Companies audited: %d\n", rr.Summary.Companies)
	fmt.Fprintf(&b, "- Match: %d / Warning: %d / Error: %d / Unverifiable: %d\n",
		rr.Summary.Counts.Match, rr.Summary.Counts.Warning,
		rr.Summary.Counts.Error, rr.Summary.Counts.Unverifiable)
	if rr.Summary.Incomplete {
		b.WriteString("- **Run incomplete**: cancelled before all fields resolved\n")
	}
	b.WriteString("\n")

	for _, rep := range rr.Companies {
		name := rep.Company.Name
		if name == "" {
			name = rep.Company.Ticker
		}
		fmt.Fprintf(&b, "## %s (%s)\n\n", name, rep.Company.Ticker)

		b.WriteString("| Field | Configured | Source Value | Status | Freshness | Citation |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, rec := range sortRecords(rep.Records) {
			sourceVal := "-"
			if rec.Extracted != nil {
				sourceVal = formatValue(p, rec.Extracted.Value)
			}
			freshness := "-"
			if rec.Staleness != nil {
				freshness = fmt.Sprintf("%s (%dd)", rec.Staleness.Status, rec.Staleness.AgeDays)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				rec.Kind, formatValue(p, rec.Configured), sourceVal,
				statusGlyphs[rec.Verdict], freshness, rec.Citation)
		}
		b.WriteString("\n")

		if len(rep.Recommended) > 0 {
			b.WriteString("### Recommended updates\n")
			for _, upd := range rep.Recommended {
				fmt.Fprintf(&b, "- Update %s from %s to %s (per %s)\n",
					upd.Kind, formatValue(p, upd.From), formatValue(p, upd.To), upd.Source)
			}
			b.WriteString("\n")
		}

		for _, rec := range rep.Records {
			if len(rec.Attempts) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### Failed attempts: %s\n", rec.Kind)
			for _, att := range rec.Attempts {
				fmt.Fprintf(&b, "- rank %d %s (%s): %s\n", att.Rank, att.Source, att.Type, att.Reason)
			}
			b.WriteString("\n")
		}
	}

	if len(rr.Summary.Sources) > 0 {
		b.WriteString("## Sources consulted\n")
		for _, v := range rr.Summary.Sources {
			mark := "unusable"
			if v.Usable {
				mark = "ok"
			}
			fmt.Fprintf(&b, "- %s %s [%s] (%s)\n",
				v.Source, v.URL, mark, v.RetrievedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return b.String()
}

// formatValue renders a metric value with grouped digits, e.g. 672,497 BTC.
func formatValue(p *message.Printer, v model.MetricValue) string {
	if v.Structural() {
		terms := v.NormalizedTerms()
		keys := make([]string, 0, len(terms))
		for k := range terms {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+terms[k])
		}
		return strings.Join(parts, ", ")
	}

	if v.Number == float64(int64(v.Number)) {
		return strings.TrimSpace(p.Sprintf("%d %s", int64(v.Number), v.Unit))
	}
	return strings.TrimSpace(p.Sprintf("%.2f %s", v.Number, v.Unit))
}
