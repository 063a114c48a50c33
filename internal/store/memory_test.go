package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMemoryRunLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRun missing: got %v, want ErrNotFound", err)
	}

	for i := 0; i < 5; i++ {
		rec := RunRecord{
			ID:        fmt.Sprintf("run-%d", i),
			CreatedAt: time.Now(),
			Algorithm: "greedy",
			Request:   json.RawMessage(`{}`),
			Response:  json.RawMessage(`{}`),
		}
		if err := m.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	got, err := m.GetRun(ctx, "run-3")
	if err != nil || got.Algorithm != "greedy" {
		t.Fatalf("GetRun: %v %+v", err, got)
	}

	runs, err := m.ListRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-4" || runs[2].ID != "run-2" {
		t.Fatalf("ListRuns order: %+v", runs)
	}
}

func TestMemorySolveMetrics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.SaveSolveMetrics(ctx, "r1", "vrp", json.RawMessage(`{"iterations":10}`)); err != nil {
		t.Fatalf("SaveSolveMetrics: %v", err)
	}
	if err := m.SaveSolveMetrics(ctx, "r1", "genetic", json.RawMessage(`{"generations":4}`)); err != nil {
		t.Fatalf("SaveSolveMetrics: %v", err)
	}
	got, err := m.ListSolveMetrics(ctx, "r1")
	if err != nil || len(got) != 2 {
		t.Fatalf("ListSolveMetrics: %v %v", err, got)
	}
	if string(got["vrp"]) != `{"iterations":10}` {
		t.Fatalf("vrp metrics: %s", got["vrp"])
	}
	if other, _ := m.ListSolveMetrics(ctx, "r2"); len(other) != 0 {
		t.Fatalf("unexpected metrics for other run: %v", other)
	}
}
