package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// RunRecord is one persisted optimization run: the raw request and response
// plus the headline numbers used for listings.
type RunRecord struct {
	ID                 string
	CreatedAt          time.Time
	Algorithm          string
	Request            json.RawMessage
	Response           json.RawMessage
	ComputeTimeMs      int64
	UnassignedCount    int
	TotalDistanceMiles float64
}

// Store is the persistence interface used by the API server. The engine
// itself never touches it; runs are recorded at the boundary after solving.
type Store interface {
	// Ping reports backend reachability for readiness probes.
	Ping(ctx context.Context) error

	SaveRun(ctx context.Context, rec RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// Per-algorithm solve metrics (iterations, acceptance counts, costs)
	// keyed by run.
	SaveSolveMetrics(ctx context.Context, runID, algorithm string, metrics json.RawMessage) error
	ListSolveMetrics(ctx context.Context, runID string) (map[string]json.RawMessage, error)
}

var ErrNotFound = errors.New("not found")
