// Package postgres persists relevance run records. Runs are keyed by
// their content fingerprint, so replaying an unchanged suite leaves
// the table untouched.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/relevance"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS relevance_runs (
	run_id TEXT PRIMARY KEY,
	engine_name TEXT NOT NULL,
	ran_at TIMESTAMPTZ NOT NULL,
	outcomes JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_relevance_runs_engine ON relevance_runs(engine_name, ran_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SaveRun inserts a run record. A run whose fingerprint is already
// stored is skipped and reported as not inserted.
func (r *RunRepository) SaveRun(ctx context.Context, record relevance.RunRecord) (bool, error) {
	outcomesJSON, err := json.Marshal(record.Outcomes)
	if err != nil {
		return false, fmt.Errorf("marshal outcomes: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
INSERT INTO relevance_runs (run_id, engine_name, ran_at, outcomes)
VALUES ($1,$2,$3,$4)
ON CONFLICT (run_id) DO NOTHING
`, string(record.RunID), record.EngineName, record.RanAt, outcomesJSON)
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert run rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *RunRepository) GetRun(ctx context.Context, runID domain.Identifier) (*relevance.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT run_id, engine_name, ran_at, outcomes
FROM relevance_runs
WHERE run_id = $1
`, string(runID))

	record, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get run",
				fmt.Errorf("run not found: %s", runID))
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &record, nil
}

func (r *RunRepository) ListRuns(ctx context.Context, engineName string, limit int) ([]relevance.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT run_id, engine_name, ran_at, outcomes
FROM relevance_runs
WHERE engine_name = $1
ORDER BY ran_at DESC
LIMIT $2
`, engineName, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]relevance.RunRecord, 0)
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

type runScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row runScanner) (relevance.RunRecord, error) {
	var record relevance.RunRecord
	var runID string
	var outcomesRaw []byte

	if err := row.Scan(&runID, &record.EngineName, &record.RanAt, &outcomesRaw); err != nil {
		return relevance.RunRecord{}, err
	}
	if err := json.Unmarshal(outcomesRaw, &record.Outcomes); err != nil {
		return relevance.RunRecord{}, fmt.Errorf("unmarshal outcomes: %w", err)
	}
	record.RunID = domain.Identifier(runID)
	return record, nil
}
