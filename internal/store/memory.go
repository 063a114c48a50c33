package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is the in-process store used when DATABASE_URL is unset: tests,
// local development, and deployments that do not need run history to
// survive a restart.
type Memory struct {
	mu      sync.Mutex
	runs    map[string]RunRecord
	order   []string
	metrics map[string]map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{
		runs:    map[string]RunRecord{},
		metrics: map[string]map[string]json.RawMessage{},
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) SaveRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[rec.ID]; !exists {
		m.order = append(m.order, rec.ID)
	}
	m.runs[rec.ID] = rec
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.runs[id]
	if !ok {
		return RunRecord{}, ErrNotFound
	}
	return rec, nil
}

// ListRuns returns the most recent runs first.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := []RunRecord{}
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[m.order[i]])
	}
	return out, nil
}

func (m *Memory) SaveSolveMetrics(_ context.Context, runID, algorithm string, metrics json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metrics[runID] == nil {
		m.metrics[runID] = map[string]json.RawMessage{}
	}
	m.metrics[runID][algorithm] = metrics
	return nil
}

func (m *Memory) ListSolveMetrics(_ context.Context, runID string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]json.RawMessage{}
	for algo, v := range m.metrics[runID] {
		out[algo] = v
	}
	return out, nil
}
