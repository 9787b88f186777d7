// Package extract normalizes raw fetch payloads into comparable metric
// values. Parsing is source-type-specific; every failure is a Failure
// value the orchestrator can fall back on, never a run-fatal error.
package extract

import (
	"fmt"

	"github.com/sells-group/treasury-audit/internal/fetch"
	"github.com/sells-group/treasury-audit/internal/model"
)

// FailureReason classifies why a source's payload yielded no usable value.
type FailureReason string

const (
	ReasonUnavailable  FailureReason = "source_unavailable"
	ReasonNoValue      FailureReason = "value_not_found"
	ReasonMalformed    FailureReason = "malformed_payload"
	ReasonUnitMismatch FailureReason = "unit_mismatch"
)

// Failure is a non-fatal extraction error; the orchestrator advances to
// the next ranked source when it sees one.
type Failure struct {
	Reason FailureReason
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

func failf(reason FailureReason, format string, args ...any) *Failure {
	return &Failure{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Extract parses a fetch result into a normalized value for the given
// metric. The extracted unit must be commensurable with the configured unit;
// a mismatch is a Failure, never a coercion.
func Extract(res fetch.Result, desc model.SourceDescriptor, spec model.MetricSpec, company model.Company) (*model.ExtractedValue, error) {
	if res.Unavailable {
		return nil, failf(ReasonUnavailable, "%s (%s)", res.Reason, res.Detail)
	}
	if len(res.Payload) == 0 {
		return nil, failf(ReasonUnavailable, "empty payload")
	}

	var (
		ev  *model.ExtractedValue
		err error
	)
	switch {
	case spec.Kind == model.MetricDividendTerms:
		ev, err = extractTerms(res)
	case desc.Type == model.SourceFiling:
		ev, err = extractCompanyFacts(res, spec)
	case desc.Type == model.SourceAggregator:
		ev, err = extractAggregate(res, desc, spec, company)
	case desc.Type == model.SourceMarketData, desc.Type == model.SourceMarketDataSecondary:
		ev, err = extractQuote(res, spec)
	case desc.Type == model.SourceOfficialDisclosure:
		ev, err = extractDisclosurePage(res, spec)
	default:
		return nil, failf(ReasonMalformed, "no extractor for source type %s", desc.Type)
	}
	if err != nil {
		return nil, err
	}

	if !ev.Value.Structural() && !model.Commensurable(ev.Value.Unit, spec.Value.Unit) {
		return nil, failf(ReasonUnitMismatch, "extracted %s, configured %s", ev.Value.Unit, spec.Value.Unit)
	}

	ev.Source = desc.Name
	ev.SourceURL = res.URL
	if ev.AsOf.IsZero() {
		// No as-of in the payload; the retrieval time is the best bound.
		ev.AsOf = res.RetrievedAt
	}
	return ev, nil
}
