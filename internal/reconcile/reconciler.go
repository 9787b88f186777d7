// Package reconcile drives the per-metric audit pipeline: walk the ranked
// source chain, stop at the first usable value, classify it against the
// configured value, and assemble evidence-backed field records.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/treasury-audit/internal/compare"
	"github.com/sells-group/treasury-audit/internal/extract"
	"github.com/sells-group/treasury-audit/internal/fetch"
	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/registry"
	"github.com/sells-group/treasury-audit/internal/staleness"
)

// Options holds the audit policy knobs.
type Options struct {
	Thresholds             compare.Thresholds
	Staleness              staleness.Policy
	MaxConcurrentCompanies int
}

// DefaultOptions returns the standard audit policy.
func DefaultOptions() Options {
	return Options{
		Thresholds:             compare.DefaultThresholds(),
		Staleness:              staleness.DefaultPolicy(),
		MaxConcurrentCompanies: 4,
	}
}

// Reconciler resolves configured metrics against ranked authoritative
// sources.
type Reconciler struct {
	registry *registry.Registry
	fetcher  fetch.Fetcher
	opts     Options
	now      time.Time // injectable for testing
}

// New creates a Reconciler.
func New(reg *registry.Registry, fetcher fetch.Fetcher, opts Options) *Reconciler {
	if opts.MaxConcurrentCompanies <= 0 {
		opts.MaxConcurrentCompanies = 4
	}
	if opts.Thresholds == (compare.Thresholds{}) {
		opts.Thresholds = compare.DefaultThresholds()
	}
	return &Reconciler{
		registry: reg,
		fetcher:  fetcher,
		opts:     opts,
		now:      time.Now().UTC(),
	}
}

// WithNow sets a fixed run time for testing.
func (r *Reconciler) WithNow(t time.Time) *Reconciler {
	r.now = t
	return r
}

// fieldOutcome is the result of one field's pipeline pass.
type fieldOutcome struct {
	record model.FieldRecord
	visits []model.SourceVisit
}

// reconcileField runs the per-metric state machine. The walk is strictly
// sequential in rank order: the first usable source wins, never the
// fastest. Returns ok=false only when the context was cancelled before
// the field resolved.
func (r *Reconciler) reconcileField(ctx context.Context, company model.Company, spec model.MetricSpec) (fieldOutcome, bool) {
	log := zap.L().With(
		zap.String("ticker", company.Ticker),
		zap.String("kind", string(spec.Kind)),
	)

	out := fieldOutcome{record: model.FieldRecord{
		Ticker:     company.Ticker,
		Kind:       spec.Kind,
		Configured: spec.Value,
	}}

	sources, err := r.registry.SourcesFor(spec.Kind, company)
	if err != nil {
		// Unknown metric kind is fatal to this field only.
		out.record.Verdict = model.VerdictUnverifiable
		out.record.Citation = "no registered source for metric kind " + string(spec.Kind)
		log.Warn("no registered source", zap.Error(err))
		return out, true
	}

	for _, desc := range sources {
		if ctx.Err() != nil {
			return out, false
		}

		res := r.fetcher.Fetch(ctx, desc, company)
		out.visits = append(out.visits, model.SourceVisit{
			Source:      desc.Name,
			URL:         res.URL,
			RetrievedAt: r.now,
			Usable:      !res.Unavailable,
		})

		ev, err := extract.Extract(res, desc, spec, company)
		if err != nil {
			out.record.Attempts = append(out.record.Attempts, model.AttemptFailure{
				Source: desc.Name,
				Type:   desc.Type,
				Rank:   desc.Rank,
				Reason: err.Error(),
			})
			log.Debug("source attempt failed",
				zap.String("source", desc.Name),
				zap.Int("rank", desc.Rank),
				zap.Error(err),
			)
			continue
		}

		r.resolve(&out.record, spec, ev)
		return out, true
	}

	// Exhausted the chain; never fabricate a delta for a value no source
	// could supply.
	out.record.Verdict = model.VerdictUnverifiable
	out.record.Citation = fmt.Sprintf("no source returned a usable value (%d attempted)", len(sources))
	return out, true
}

// resolve fills a record from a winning extracted value.
func (r *Reconciler) resolve(rec *model.FieldRecord, spec model.MetricSpec, ev *model.ExtractedValue) {
	cmp := compare.Compare(spec.Value, ev.Value, r.opts.Thresholds)
	rec.Extracted = ev
	rec.Verdict = cmp.Verdict
	rec.Delta = cmp.Delta
	rec.Rule = cmp.Rule
	rec.Citation = fmt.Sprintf("%s: %s (%s)", ev.Source, ev.Citation, ev.SourceURL)

	flag := staleness.Evaluate(ev.AsOf, r.now, r.opts.Staleness.MaxAge(spec.Kind))
	rec.Staleness = &flag
}

// reconcileCompany resolves every configured metric for one company.
// Cancellation is safe at field boundaries: records resolved so far are
// returned with complete=false.
func (r *Reconciler) reconcileCompany(ctx context.Context, company model.Company) ([]model.FieldRecord, []model.SourceVisit, bool) {
	records := make([]model.FieldRecord, 0, len(company.Metrics))
	var visits []model.SourceVisit

	for _, spec := range company.Metrics {
		if ctx.Err() != nil {
			return records, visits, false
		}
		out, ok := r.reconcileField(ctx, company, spec)
		visits = append(visits, out.visits...)
		if !ok {
			return records, visits, false
		}
		records = append(records, out.record)
	}
	return records, visits, true
}

// ValidateConfig rejects configurations no field of which can be
// interpreted. This is the only condition allowed to abort a run, and the
// diagnostic names the offending company and field.
func ValidateConfig(companies []model.Company) error {
	if len(companies) == 0 {
		return eris.New("reconcile: no companies configured")
	}
	for _, c := range companies {
		if c.Ticker == "" {
			return eris.Errorf("reconcile: company %q has no ticker", c.Name)
		}
		if len(c.Metrics) == 0 {
			return eris.Errorf("reconcile: company %s has no metrics", c.Ticker)
		}
		for _, m := range c.Metrics {
			if m.Kind == "" {
				return eris.Errorf("reconcile: company %s has a metric with no kind", c.Ticker)
			}
			if !m.Value.Structural() && m.Value.Unit == "" {
				return eris.Errorf("reconcile: %s.%s has neither a unit nor a term set", c.Ticker, m.Kind)
			}
		}
	}
	return nil
}
