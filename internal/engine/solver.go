package engine

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Algorithm identifiers accepted by ForAlgorithm and the run config.
const (
	AlgorithmGreedy  = "greedy"
	AlgorithmVRP     = "vrp"
	AlgorithmGenetic = "genetic"
	AlgorithmAll     = "all"
)

// Reason explains why a work order ended up unassigned.
type Reason string

const (
	ReasonSkillMismatch        Reason = "SkillMismatch"
	ReasonTimeWindowViolation  Reason = "TimeWindowViolation"
	ReasonCapacityExceeded     Reason = "CapacityExceeded"
	ReasonNoFeasibleTechnician Reason = "NoFeasibleTechnician"
	ReasonNoFeasibleInsertion  Reason = "NoFeasibleInsertion"
)

// StopVisit is one sequenced stop of a finished route. Times are minutes
// since midnight.
type StopVisit struct {
	Sequence              int
	WorkOrderID           string
	ArrivalMinutes        float64
	DepartureMinutes      float64
	WaitMinutes           float64
	TravelDistanceMiles   float64
	TravelDurationMinutes float64
}

// RouteSummary aggregates one route. LaborCost is reporting only.
type RouteSummary struct {
	TotalDistanceMiles   float64
	TotalDurationMinutes float64
	WorkMinutes          float64
	TravelMinutes        float64
	WaitMinutes          float64
	Utilization          float64
	LaborCost            float64
}

// Route is the ordered visit plan for one technician, home base to home base.
type Route struct {
	TechnicianID string
	Stops        []StopVisit
	Summary      RouteSummary
}

// Unassigned records a work order no solver placement could serve.
type Unassigned struct {
	WorkOrderID string
	Reason      Reason
}

// Result is the immutable outcome of one solver invocation. Every input
// order appears exactly once, either in a route or in Unassigned.
type Result struct {
	Algorithm            string
	Routes               []Route
	Unassigned           []Unassigned
	TotalDistanceMiles   float64
	TotalDurationMinutes float64
	AvgUtilization       float64
	ComputeTime          time.Duration
}

// Solver is the uniform contract each strategy implements. Solve must honor
// the problem's wall-clock budget and return the best solution found so far
// when it expires; ctx cancellation is treated the same way.
type Solver interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (*Result, error)
}

// ForAlgorithm returns the solver registered under name.
func ForAlgorithm(name string) (Solver, error) {
	switch name {
	case AlgorithmGreedy:
		return &GreedySolver{}, nil
	case AlgorithmVRP:
		return &VRPSolver{}, nil
	case AlgorithmGenetic:
		return &GeneticSolver{}, nil
	}
	return nil, fmt.Errorf("unknown algorithm %q", name)
}

// solution is a solver's working state: one route per technician (order
// indices) plus the unassigned pool. Each solver owns its own solution;
// nothing here is shared across solvers.
type solution struct {
	routes     [][]int
	unassigned map[int]Reason
}

func newSolution(p *Problem) *solution {
	return &solution{
		routes:     make([][]int, len(p.Technicians)),
		unassigned: map[int]Reason{},
	}
}

func (s *solution) clone() *solution {
	c := &solution{
		routes:     make([][]int, len(s.routes)),
		unassigned: make(map[int]Reason, len(s.unassigned)),
	}
	for i, r := range s.routes {
		c.routes[i] = append([]int(nil), r...)
	}
	for k, v := range s.unassigned {
		c.unassigned[k] = v
	}
	return c
}

func (s *solution) assignedCount() int {
	n := 0
	for _, r := range s.routes {
		n += len(r)
	}
	return n
}

// cost is the shared objective: total travel distance plus the priority
// weight of every unassigned order plus the optional wait penalty. When
// workload balancing is requested the duration spread across non-empty
// routes is charged as well.
func (p *Problem) cost(s *solution) float64 {
	total := 0.0
	minDur, maxDur := 0.0, 0.0
	seen := false
	for ti, route := range s.routes {
		sched, _ := p.scheduleRoute(ti, route)
		total += sched.totalMiles
		total += p.Config.WaitPenaltyPerMinute * sched.waitMin
		if len(route) > 0 {
			d := sched.totalMinutes()
			if !seen || d < minDur {
				minDur = d
			}
			if !seen || d > maxDur {
				maxDur = d
			}
			seen = true
		}
	}
	for oi := range s.unassigned {
		total += p.Orders[oi].Priority.Weight()
	}
	if p.Config.BalanceWorkload && seen {
		total += balanceSpreadWeightFrac * (maxDur - minDur)
	}
	return total
}

// classifyRejection maps the verdicts gathered while trying to place one
// order into a reason code: unanimous failures keep their specific code,
// mixed failures fall back to the solver's generic reason.
func classifyRejection(verdicts []Verdict, fallback Reason) Reason {
	if len(verdicts) == 0 {
		return fallback
	}
	allSkill, allWindow, allCapacity := true, true, true
	for _, v := range verdicts {
		if v != SkillMismatch {
			allSkill = false
		}
		if v != TimeWindowViolation {
			allWindow = false
		}
		if v != MaxHoursExceeded && v != MaxDistanceExceeded && v != MaxStopsExceeded {
			allCapacity = false
		}
	}
	switch {
	case allSkill:
		return ReasonSkillMismatch
	case allWindow:
		return ReasonTimeWindowViolation
	case allCapacity:
		return ReasonCapacityExceeded
	}
	return fallback
}

// buildResult renders a solver's working solution into the immutable
// normalized Result. Unassigned entries are sorted by work-order ID so
// identical inputs produce identical output.
func (p *Problem) buildResult(algorithm string, s *solution, started time.Time) *Result {
	res := &Result{Algorithm: algorithm, ComputeTime: time.Since(started)}
	utilSum, utilRoutes := 0.0, 0
	for ti, route := range s.routes {
		tech := p.Technicians[ti]
		out := Route{TechnicianID: tech.ID}
		sched, _ := p.scheduleRoute(ti, route)
		for i, v := range sched.visits {
			out.Stops = append(out.Stops, StopVisit{
				Sequence:              i + 1,
				WorkOrderID:           p.Orders[v.order].ID,
				ArrivalMinutes:        v.arrival,
				DepartureMinutes:      v.departure,
				WaitMinutes:           v.wait,
				TravelDistanceMiles:   v.travelMiles,
				TravelDurationMinutes: v.travelMin,
			})
		}
		out.Summary = RouteSummary{
			TotalDistanceMiles:   sched.totalMiles,
			TotalDurationMinutes: sched.totalMinutes(),
			WorkMinutes:          sched.workMin,
			TravelMinutes:        sched.travelMin,
			WaitMinutes:          sched.waitMin,
			Utilization:          sched.utilization(),
			LaborCost:            tech.HourlyCost * sched.totalMinutes() / 60,
		}
		res.TotalDistanceMiles += sched.totalMiles
		res.TotalDurationMinutes += sched.totalMinutes()
		if len(route) > 0 {
			utilSum += sched.utilization()
			utilRoutes++
		}
		res.Routes = append(res.Routes, out)
	}
	if utilRoutes > 0 {
		res.AvgUtilization = utilSum / float64(utilRoutes)
	}
	for oi, reason := range s.unassigned {
		res.Unassigned = append(res.Unassigned, Unassigned{WorkOrderID: p.Orders[oi].ID, Reason: reason})
	}
	sort.Slice(res.Unassigned, func(i, j int) bool {
		return res.Unassigned[i].WorkOrderID < res.Unassigned[j].WorkOrderID
	})
	return res
}

// deadlineFor combines the config time budget with the caller's context.
func deadlineFor(ctx context.Context, p *Problem) time.Time {
	d := time.Now().Add(p.Config.MaxTime)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		d = cd
	}
	return d
}
