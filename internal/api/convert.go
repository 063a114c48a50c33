package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fieldroute/internal/config"
	"fieldroute/internal/engine"
	"fieldroute/internal/geo"
	"fieldroute/internal/model"
)

// parseClock turns "HH:MM" into minutes since midnight.
func parseClock(s string) (float64, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return float64(h*60 + m), nil
}

// formatClock renders minutes since midnight as "HH:MM". Hours keep growing
// past 24 so a route ending after midnight stays readable.
func formatClock(min float64) string {
	total := int(min + 0.5)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// buildProblem maps the request DTOs onto the engine's domain types, filling
// unset config knobs from the server defaults.
func buildProblem(req *model.OptimizeRequest, defaults *config.Config, runID string, progress func(engine.ProgressEvent)) (*engine.Problem, error) {
	orders := make([]engine.WorkOrder, 0, len(req.WorkOrders))
	for i, in := range req.WorkOrders {
		o := engine.WorkOrder{
			ID:             in.ID,
			RequiredSkills: in.RequiredSkills,
			Priority:       engine.Priority(in.Priority),
			ServiceMinutes: in.EstimatedDurationMinutes,
		}
		if in.Coordinates != nil {
			o.Coord = geo.Coordinate{Lng: in.Coordinates.Lng, Lat: in.Coordinates.Lat}
		}
		if in.TimeWindowStart != "" || in.TimeWindowEnd != "" {
			start, err := parseClock(in.TimeWindowStart)
			if err != nil {
				return nil, &engine.ValidationError{Field: fmt.Sprintf("workOrders[%d].timeWindowStart", i), Detail: err.Error()}
			}
			end, err := parseClock(in.TimeWindowEnd)
			if err != nil {
				return nil, &engine.ValidationError{Field: fmt.Sprintf("workOrders[%d].timeWindowEnd", i), Detail: err.Error()}
			}
			o.Window = &engine.Window{Start: start, End: end}
		}
		orders = append(orders, o)
	}

	techs := make([]engine.Technician, 0, len(req.Technicians))
	for _, in := range req.Technicians {
		t := engine.Technician{
			ID:                    in.ID,
			Skills:                in.Skills,
			MaxDailyHours:         in.MaxDailyHours,
			MaxDailyDistanceMiles: in.MaxDailyDistanceMiles,
			HourlyCost:            in.HourlyCost,
		}
		if in.HomeBaseCoordinates != nil {
			t.HomeBase = geo.Coordinate{Lng: in.HomeBaseCoordinates.Lng, Lat: in.HomeBaseCoordinates.Lat}
		}
		techs = append(techs, t)
	}

	cfg := engine.Config{
		RunID:                runID,
		Algorithm:            req.Config.Algorithm,
		SpeedMph:             req.Config.SpeedMph,
		MaxStopsPerRoute:     req.Config.MaxStopsPerRoute,
		MaxDistanceMiles:     req.Config.MaxDistanceMiles,
		BalanceWorkload:      req.Config.BalanceWorkload,
		WaitPenaltyPerMinute: req.Config.WaitPenaltyPerMinute,
		Seed:                 req.Config.Seed,
		Progress:             progress,
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = engine.AlgorithmVRP
	}
	maxTime := req.Config.MaxTimeSeconds
	if maxTime <= 0 {
		maxTime = defaults.MaxTimeSeconds
	}
	cfg.MaxTime = time.Duration(maxTime * float64(time.Second))
	if cfg.SpeedMph <= 0 {
		cfg.SpeedMph = defaults.SpeedMph
	}
	dayStart := req.Config.DayStart
	if dayStart == "" {
		dayStart = defaults.DayStart
	}
	start, err := parseClock(dayStart)
	if err != nil {
		return nil, &engine.ValidationError{Field: "config.dayStart", Detail: err.Error()}
	}
	cfg.DayStartMinutes = start

	return engine.NewProblem(orders, techs, cfg)
}

func toResponse(runID string, out *engine.RunOutput) model.OptimizeResponse {
	resp := model.OptimizeResponse{RunID: runID, Algorithm: out.Algorithm}
	if out.Result != nil {
		fillResult(&resp, out.Result)
	}
	if out.Comparison != nil {
		resp.Comparison = toComparison(out.Comparison)
	}
	return resp
}

func fillResult(resp *model.OptimizeResponse, res *engine.Result) {
	if resp.Algorithm == engine.AlgorithmAll {
		resp.Algorithm = res.Algorithm
	}
	resp.TotalDistanceMiles = res.TotalDistanceMiles
	resp.TotalDurationMinutes = res.TotalDurationMinutes
	resp.AvgUtilization = res.AvgUtilization
	resp.ComputeTimeMs = res.ComputeTime.Milliseconds()
	resp.Routes = make([]model.RouteOut, 0, len(res.Routes))
	for _, r := range res.Routes {
		out := model.RouteOut{
			TechnicianID: r.TechnicianID,
			Stops:        make([]model.StopOut, 0, len(r.Stops)),
			Summary: model.RouteSummaryOut{
				TotalDistanceMiles:   r.Summary.TotalDistanceMiles,
				TotalDurationMinutes: r.Summary.TotalDurationMinutes,
				WorkMinutes:          r.Summary.WorkMinutes,
				TravelMinutes:        r.Summary.TravelMinutes,
				WaitMinutes:          r.Summary.WaitMinutes,
				Utilization:          r.Summary.Utilization,
				LaborCost:            r.Summary.LaborCost,
			},
		}
		for _, s := range r.Stops {
			out.Stops = append(out.Stops, model.StopOut{
				Sequence:              s.Sequence,
				WorkOrderID:           s.WorkOrderID,
				ArrivalTime:           formatClock(s.ArrivalMinutes),
				DepartureTime:         formatClock(s.DepartureMinutes),
				WaitMinutes:           s.WaitMinutes,
				TravelDistanceMiles:   s.TravelDistanceMiles,
				TravelDurationMinutes: s.TravelDurationMinutes,
			})
		}
		resp.Routes = append(resp.Routes, out)
	}
	resp.Unassigned = make([]model.UnassignedOut, 0, len(res.Unassigned))
	for _, u := range res.Unassigned {
		resp.Unassigned = append(resp.Unassigned, model.UnassignedOut{WorkOrderID: u.WorkOrderID, Reason: string(u.Reason)})
	}
}

func toComparison(cmp *engine.Comparison) *model.ComparisonOut {
	out := &model.ComparisonOut{
		BestDistance:    cmp.BestDistance,
		BestDuration:    cmp.BestDuration,
		BestUtilization: cmp.BestUtilization,
		BestUnassigned:  cmp.BestUnassigned,
		Overall:         cmp.Overall,
	}
	for _, e := range cmp.Entries {
		out.Entries = append(out.Entries, model.ComparisonEntryOut{
			Algorithm:            e.Algorithm,
			TotalDistanceMiles:   e.TotalDistanceMiles,
			TotalDurationMinutes: e.TotalDurationMinutes,
			AvgUtilization:       e.AvgUtilization,
			UnassignedCount:      e.UnassignedCount,
			SolveTimeMs:          e.SolveTime.Milliseconds(),
			Failed:               e.Failed,
			Error:                e.Error,
		})
	}
	return out
}
