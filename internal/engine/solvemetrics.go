package engine

import "sync"

// SolveMetrics captures how an iterative solver spent its budget. The
// greedy baseline records only iterations and final cost.
type SolveMetrics struct {
	Iterations       int        `json:"iterations"`
	Improvements     int        `json:"improvements"`
	AcceptedWorse    int        `json:"acceptedWorse"`
	Generations      int        `json:"generations,omitempty"`
	BestCost         float64    `json:"bestCost"`
	FinalCost        float64    `json:"finalCost"`
	RemovalWeights   [2]float64 `json:"removalWeights,omitempty"`
	InsertionWeights [2]float64 `json:"insertionWeights,omitempty"`
}

type metricsKey struct {
	RunID string
	Algo  string
}

var (
	metricsMu    sync.Mutex
	metricsStore = map[metricsKey]SolveMetrics{}
)

// RecordSolveMetrics stores the metrics of one solver invocation, keyed by
// run and algorithm. A run with an empty ID is not recorded.
func RecordSolveMetrics(runID, algo string, m SolveMetrics) {
	if runID == "" {
		return
	}
	metricsMu.Lock()
	metricsStore[metricsKey{RunID: runID, Algo: algo}] = m
	metricsMu.Unlock()
}

// SolveMetricsFor returns all recorded metrics for a run, by algorithm.
func SolveMetricsFor(runID string) map[string]SolveMetrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	out := map[string]SolveMetrics{}
	for k, v := range metricsStore {
		if k.RunID == runID {
			out[k.Algo] = v
		}
	}
	return out
}

// DropSolveMetrics releases a run's metrics once they are persisted.
func DropSolveMetrics(runID string) {
	metricsMu.Lock()
	for k := range metricsStore {
		if k.RunID == runID {
			delete(metricsStore, k)
		}
	}
	metricsMu.Unlock()
}
