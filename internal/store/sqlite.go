package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/treasury-audit/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	summary    TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS verifications (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	ticker     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	record     TEXT NOT NULL,
	checked_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_verifications_run_id ON verifications(run_id);
CREATE INDEX IF NOT EXISTS idx_verifications_field ON verifications(ticker, kind, checked_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(summaryJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		message, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, summary, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, summary, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) LogRecords(ctx context.Context, runID string, records []model.FieldRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin log records")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, rec := range records {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal record")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO verifications (id, run_id, ticker, kind, verdict, record, checked_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, rec.Ticker, string(rec.Kind), string(rec.Verdict),
			string(recordJSON), now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: log record %s.%s", rec.Ticker, rec.Kind)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit log records")
}

func (s *SQLiteStore) LatestRecords(ctx context.Context) ([]model.FieldRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM verifications v
		 WHERE checked_at = (
			SELECT MAX(checked_at) FROM verifications
			WHERE ticker = v.ticker AND kind = v.kind
		 )
		 ORDER BY ticker, kind`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest records")
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *SQLiteStore) RecordHistory(ctx context.Context, ticker string, kind model.MetricKind, limit int) ([]model.FieldRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM verifications
		 WHERE ticker = ? AND kind = ?
		 ORDER BY checked_at DESC LIMIT ?`,
		ticker, string(kind), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: record history %s.%s", ticker, kind)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON, errMsg sql.NullString

	err := row.Scan(&r.ID, &r.Status, &summaryJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	r.Error = errMsg.String
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]model.FieldRecord, error) {
	var records []model.FieldRecord
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var rec model.FieldRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}
