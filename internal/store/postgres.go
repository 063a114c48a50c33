package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists runs through database/sql on the pgx driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens the pool, verifies connectivity, and ensures the schema.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// EnsureSchema creates the run-history tables if they do not exist. Kept as
// inline DDL: two tables do not warrant a migration tool.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS optimization_runs (
    id          UUID PRIMARY KEY,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    algorithm   TEXT NOT NULL,
    request     JSONB NOT NULL,
    response    JSONB NOT NULL,
    compute_ms  BIGINT NOT NULL,
    unassigned  INT NOT NULL,
    distance_mi DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS solve_metrics (
    run_id    UUID NOT NULL REFERENCES optimization_runs(id) ON DELETE CASCADE,
    algorithm TEXT NOT NULL,
    metrics   JSONB NOT NULL,
    PRIMARY KEY (run_id, algorithm)
);
CREATE INDEX IF NOT EXISTS optimization_runs_created_idx ON optimization_runs (created_at DESC);
`)
	return err
}

func (p *Postgres) SaveRun(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO optimization_runs (id, created_at, algorithm, request, response, compute_ms, unassigned, distance_mi)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET response = EXCLUDED.response`,
		rec.ID, rec.CreatedAt, rec.Algorithm, []byte(rec.Request), []byte(rec.Response),
		rec.ComputeTimeMs, rec.UnassignedCount, rec.TotalDistanceMiles)
	return err
}

func (p *Postgres) GetRun(ctx context.Context, id string) (RunRecord, error) {
	var rec RunRecord
	var req, resp []byte
	err := p.db.QueryRowContext(ctx, `
SELECT id, created_at, algorithm, request, response, compute_ms, unassigned, distance_mi
FROM optimization_runs WHERE id = $1`, id).
		Scan(&rec.ID, &rec.CreatedAt, &rec.Algorithm, &req, &resp,
			&rec.ComputeTimeMs, &rec.UnassignedCount, &rec.TotalDistanceMiles)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}
	rec.Request = json.RawMessage(req)
	rec.Response = json.RawMessage(resp)
	return rec, nil
}

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT id, created_at, algorithm, compute_ms, unassigned, distance_mi
FROM optimization_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RunRecord{}
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Algorithm,
			&rec.ComputeTimeMs, &rec.UnassignedCount, &rec.TotalDistanceMiles); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveSolveMetrics(ctx context.Context, runID, algorithm string, metrics json.RawMessage) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO solve_metrics (run_id, algorithm, metrics) VALUES ($1, $2, $3)
ON CONFLICT (run_id, algorithm) DO UPDATE SET metrics = EXCLUDED.metrics`,
		runID, algorithm, []byte(metrics))
	return err
}

func (p *Postgres) ListSolveMetrics(ctx context.Context, runID string) (map[string]json.RawMessage, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT algorithm, metrics FROM solve_metrics WHERE run_id = $1`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]json.RawMessage{}
	for rows.Next() {
		var algo string
		var raw []byte
		if err := rows.Scan(&algo, &raw); err != nil {
			return nil, err
		}
		out[algo] = json.RawMessage(raw)
	}
	return out, rows.Err()
}
