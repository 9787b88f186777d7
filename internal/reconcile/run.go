package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/report"
)

// RunAll reconciles every configured metric of every company and returns
// the full audit report. Companies run concurrently up to the configured
// limit; each worker writes only its own slot, so the merge after Wait is
// the single synchronization point. Per-field failures become records; the
// only error returned is an uninterpretable configuration.
func (r *Reconciler) RunAll(ctx context.Context, companies []model.Company) (*model.RunReport, error) {
	return r.RunWithID(ctx, uuid.NewString(), companies)
}

// RunWithID is RunAll under a caller-supplied run ID, for callers that
// register the run in a store before starting it.
func (r *Reconciler) RunWithID(ctx context.Context, runID string, companies []model.Company) (*model.RunReport, error) {
	if err := ValidateConfig(companies); err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("run_id", runID))
	log.Info("starting reconciliation run",
		zap.Int("companies", len(companies)),
		zap.Int("concurrency", r.opts.MaxConcurrentCompanies),
	)

	type companyResult struct {
		records  []model.FieldRecord
		visits   []model.SourceVisit
		complete bool
	}
	results := make([]companyResult, len(companies))

	g := new(errgroup.Group)
	g.SetLimit(r.opts.MaxConcurrentCompanies)
	for i, company := range companies {
		g.Go(func() error {
			records, visits, complete := r.reconcileCompany(ctx, company)
			results[i] = companyResult{records: records, visits: visits, complete: complete}
			return nil
		})
	}
	_ = g.Wait() // workers fold all failures into records

	reports := make([]model.CompanyReport, 0, len(companies))
	var visits []model.SourceVisit
	incomplete := false
	for i, res := range results {
		if !res.complete {
			incomplete = true
		}
		visits = append(visits, res.visits...)
		reports = append(reports, report.Assemble(companies[i], res.records))
	}

	summary := report.Summarize(runID, r.now, time.Now().UTC(), reports, visits, incomplete)

	log.Info("reconciliation run finished",
		zap.Int("match", summary.Counts.Match),
		zap.Int("warning", summary.Counts.Warning),
		zap.Int("error", summary.Counts.Error),
		zap.Int("unverifiable", summary.Counts.Unverifiable),
		zap.Bool("incomplete", summary.Incomplete),
	)

	return &model.RunReport{Summary: summary, Companies: reports}, nil
}
