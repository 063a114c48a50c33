package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolverRuns counts solver invocations by algorithm and outcome.
	SolverRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_runs_total", Help: "Solver invocations by algorithm and status."},
		[]string{"algorithm", "status"},
	)
	// SolveDuration tracks wall-clock solve time per algorithm in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "Solve wall-clock duration in seconds.", Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 150, 300, 600}},
		[]string{"algorithm"},
	)
	// SolveUnassigned tracks how many stops each run failed to place.
	SolveUnassigned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solver_unassigned_stops", Help: "Unassigned stops per optimization run.", Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100}},
		[]string{"algorithm"},
	)
)

// RegisterDefault registers all collectors on the registry, once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolverRuns)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolveUnassigned)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
