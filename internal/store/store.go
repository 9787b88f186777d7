package store

import (
	"context"

	"github.com/sells-group/treasury-audit/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the audit engine:
// run lifecycle plus the append-only verification log behind the
// staleness sweep.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, message string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Verification log
	LogRecords(ctx context.Context, runID string, records []model.FieldRecord) error
	LatestRecords(ctx context.Context) ([]model.FieldRecord, error)
	RecordHistory(ctx context.Context, ticker string, kind model.MetricKind, limit int) ([]model.FieldRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
