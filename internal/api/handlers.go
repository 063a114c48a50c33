package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"fieldroute/internal/buildinfo"
	"fieldroute/internal/engine"
	"fieldroute/internal/metrics"
	"fieldroute/internal/model"
	"fieldroute/internal/store"
)

// OptimizeHandler runs one optimization. The default is synchronous: the
// response carries the full result. With ?async=true it returns 202 and the
// run id immediately; clients follow progress on /v1/runs/{id}/stream and
// fetch the result from /v1/runs/{id} once run.completed arrives.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "use POST", r.URL.Path)
		return
	}
	var req model.OptimizeRequest
	body := json.NewDecoder(r.Body)
	if err := body.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateOptimizeRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}

	runID := uuid.NewString()
	// Solver progress can fire thousands of times per second; throttle what
	// reaches subscribers. Iterative improvements are monotone so dropped
	// events lose no information.
	limiter := rate.NewLimiter(rate.Limit(s.Cfg.ProgressEventsPerSec), 1)
	progress := func(ev engine.ProgressEvent) {
		if !limiter.Allow() {
			return
		}
		s.Broker.Publish(runID, RunEvent{Type: "run.progress", Data: map[string]any{
			"runId":     runID,
			"algorithm": ev.Algorithm,
			"iteration": ev.Iteration,
			"bestCost":  ev.BestCost,
			"assigned":  ev.Assigned,
			"elapsedMs": ev.Elapsed.Milliseconds(),
		}})
	}

	p, err := buildProblem(&req, s.Cfg, runID, progress)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			writeProblem(w, http.StatusBadRequest, "invalid request", verr.Error(), r.URL.Path)
			return
		}
		if errors.Is(err, engine.ErrNoTechnicians) {
			writeProblem(w, http.StatusUnprocessableEntity, "infeasible problem", err.Error(), r.URL.Path)
			return
		}
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}

	rawReq, _ := json.Marshal(req)
	if async := r.URL.Query().Get("async"); async == "true" || async == "1" {
		go func() {
			// The request context dies with the 202; the run gets its own.
			if _, err := s.executeRun(context.Background(), runID, rawReq, p); err != nil {
				log.Printf("async run %s failed: %v", runID, err)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID, "status": "running"})
		return
	}

	resp, err := s.executeRun(r.Context(), runID, rawReq, p)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "optimization failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// executeRun solves, records Prometheus and per-run solver metrics, persists
// the run, and publishes the terminal event.
func (s *Server) executeRun(ctx context.Context, runID string, rawReq []byte, p *engine.Problem) (model.OptimizeResponse, error) {
	started := time.Now()
	out, err := engine.Run(ctx, p)
	if err != nil {
		metrics.SolverRuns.WithLabelValues(p.Config.Algorithm, "error").Inc()
		s.Broker.Publish(runID, RunEvent{Type: "run.failed", Data: map[string]any{"runId": runID, "error": err.Error()}})
		engine.DropSolveMetrics(runID)
		return model.OptimizeResponse{}, err
	}
	for _, res := range out.Results {
		metrics.SolverRuns.WithLabelValues(res.Algorithm, "ok").Inc()
		metrics.SolveDuration.WithLabelValues(res.Algorithm).Observe(res.ComputeTime.Seconds())
		metrics.SolveUnassigned.WithLabelValues(res.Algorithm).Observe(float64(len(res.Unassigned)))
	}

	resp := toResponse(runID, out)
	rawResp, _ := json.Marshal(resp)
	rec := store.RunRecord{
		ID:            runID,
		CreatedAt:     started.UTC(),
		Algorithm:     p.Config.Algorithm,
		Request:       rawReq,
		Response:      rawResp,
		ComputeTimeMs: time.Since(started).Milliseconds(),
	}
	if out.Result != nil {
		rec.UnassignedCount = len(out.Result.Unassigned)
		rec.TotalDistanceMiles = out.Result.TotalDistanceMiles
	}
	if err := s.Store.SaveRun(ctx, rec); err != nil {
		log.Printf("save run %s: %v", runID, err)
	}
	for algo, m := range engine.SolveMetricsFor(runID) {
		data, _ := json.Marshal(m)
		if err := s.Store.SaveSolveMetrics(ctx, runID, algo, data); err != nil {
			log.Printf("save solve metrics %s/%s: %v", runID, algo, err)
		}
	}
	engine.DropSolveMetrics(runID)

	s.Broker.Publish(runID, RunEvent{Type: "run.completed", Data: map[string]any{
		"runId":         runID,
		"algorithm":     resp.Algorithm,
		"computeTimeMs": resp.ComputeTimeMs,
		"unassigned":    len(resp.Unassigned),
	}})
	log.Printf("run %s algo=%s routes=%d unassigned=%d dist=%.1fmi in %s",
		runID, resp.Algorithm, len(resp.Routes), len(resp.Unassigned), resp.TotalDistanceMiles, time.Since(started).Round(time.Millisecond))
	return resp, nil
}

// RunsHandler lists recent runs, newest first. ?limit caps the page.
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "use GET", r.URL.Path)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "invalid request", "limit must be a positive integer", r.URL.Path)
			return
		}
		limit = n
	}
	recs, err := s.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "list runs failed", err.Error(), r.URL.Path)
		return
	}
	out := make([]model.RunSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, runSummary(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

// RunByIDHandler serves GET /v1/runs/{id} and the WebSocket upgrade on
// GET /v1/runs/{id}/stream.
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if id, ok := strings.CutSuffix(rest, "/stream"); ok {
		s.StreamHandler(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "use GET", r.URL.Path)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeProblem(w, http.StatusNotFound, "not found", "", r.URL.Path)
		return
	}
	rec, err := s.Store.GetRun(r.Context(), rest)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "run not found", rest, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "get run failed", err.Error(), r.URL.Path)
		return
	}
	sm, err := s.Store.ListSolveMetrics(r.Context(), rest)
	if err != nil {
		log.Printf("list solve metrics %s: %v", rest, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":          runSummary(rec),
		"response":     json.RawMessage(rec.Response),
		"solveMetrics": sm,
	})
}

func runSummary(rec store.RunRecord) model.RunSummary {
	return model.RunSummary{
		ID:                 rec.ID,
		CreatedAt:          rec.CreatedAt.Format(time.RFC3339),
		Algorithm:          rec.Algorithm,
		ComputeTimeMs:      rec.ComputeTimeMs,
		UnassignedCount:    rec.UnassignedCount,
		TotalDistanceMiles: rec.TotalDistanceMiles,
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
