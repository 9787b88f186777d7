package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/treasury-audit/internal/db"
	"github.com/sells-group/treasury-audit/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
	"update_run_status": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"complete_run":      `UPDATE runs SET summary = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, status, summary, error, created_at, updated_at FROM runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status     TEXT NOT NULL DEFAULT 'queued',
	summary    JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verifications (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	ticker     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	record     JSONB NOT NULL,
	checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_verifications_run_id ON verifications(run_id);
CREATE INDEX IF NOT EXISTS idx_verifications_field ON verifications(ticker, kind, checked_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET summary = $1, status = $2, updated_at = $3 WHERE id = $4`,
		summaryJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		message, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var summaryNull *[]byte
	var errNull *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, summary, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Status, &summaryNull, &errNull, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if summaryNull != nil {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(*summaryNull, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	if errNull != nil {
		r.Error = *errNull
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, summary, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryNull *[]byte
		var errNull *string

		if err := rows.Scan(&r.ID, &r.Status, &summaryNull, &errNull, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if summaryNull != nil {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal(*summaryNull, r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal summary")
			}
		}
		if errNull != nil {
			r.Error = *errNull
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// verificationColumns is the column order used for COPY inserts.
var verificationColumns = []string{"id", "run_id", "ticker", "kind", "verdict", "record", "checked_at"}

func (s *PostgresStore) LogRecords(ctx context.Context, runID string, records []model.FieldRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal record")
		}
		rows = append(rows, []any{
			uuid.New().String(), runID, rec.Ticker, string(rec.Kind),
			string(rec.Verdict), recordJSON, now,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "verifications", verificationColumns, rows)
	return eris.Wrapf(err, "postgres: log records for run %s", runID)
}

func (s *PostgresStore) LatestRecords(ctx context.Context) ([]model.FieldRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (ticker, kind) record
		 FROM verifications
		 ORDER BY ticker, kind, checked_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest records")
	}
	defer rows.Close()
	return scanPgRecords(rows)
}

func (s *PostgresStore) RecordHistory(ctx context.Context, ticker string, kind model.MetricKind, limit int) ([]model.FieldRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM verifications
		 WHERE ticker = $1 AND kind = $2
		 ORDER BY checked_at DESC LIMIT $3`,
		ticker, string(kind), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: record history %s.%s", ticker, kind)
	}
	defer rows.Close()
	return scanPgRecords(rows)
}

func scanPgRecords(rows pgx.Rows) ([]model.FieldRecord, error) {
	var records []model.FieldRecord
	for rows.Next() {
		var recordJSON []byte
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var rec model.FieldRecord
		if err := json.Unmarshal(recordJSON, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}
