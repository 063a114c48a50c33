package engine

import (
	"context"
	"math"
	"sort"
	"time"
)

// GreedySolver is the deterministic baseline: cheapest feasible append in
// priority order, no backtracking. It doubles as the fast fallback when a
// metaheuristic has no time to improve anything.
type GreedySolver struct{}

func (g *GreedySolver) Name() string { return AlgorithmGreedy }

func (g *GreedySolver) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()
	sol := g.solve(ctx, p)
	return p.buildResult(AlgorithmGreedy, sol, started), nil
}

// solve returns the working solution so the constrained-routing solver can
// reuse greedy output as a fallback seed.
func (g *GreedySolver) solve(ctx context.Context, p *Problem) *solution {
	sol := newSolution(p)
	order := make([]int, len(p.Orders))
	for i := range order {
		order[i] = i
	}
	// Priority weight descending, then window start ascending (windowless
	// stops last), then ID for a deterministic total order.
	sort.Slice(order, func(a, b int) bool {
		oa, ob := p.Orders[order[a]], p.Orders[order[b]]
		if oa.Priority.Weight() != ob.Priority.Weight() {
			return oa.Priority.Weight() > ob.Priority.Weight()
		}
		sa, sb := math.Inf(1), math.Inf(1)
		if oa.Window != nil {
			sa = oa.Window.Start
		}
		if ob.Window != nil {
			sb = ob.Window.Start
		}
		if sa != sb {
			return sa < sb
		}
		return oa.ID < ob.ID
	})

	for _, oi := range order {
		if ctx.Err() != nil {
			// Remaining stops stay unplaced rather than blocking.
			sol.unassigned[oi] = ReasonNoFeasibleTechnician
			continue
		}
		bestTech := -1
		bestDelta := math.MaxFloat64
		var verdicts []Verdict
		for ti := range p.Technicians {
			pos := len(sol.routes[ti])
			if v := p.CheckInsertion(ti, sol.routes[ti], oi, pos); v != Feasible {
				verdicts = append(verdicts, v)
				continue
			}
			delta := p.insertionDelta(ti, sol.routes[ti], oi, pos)
			if p.Config.BalanceWorkload {
				sched, _ := p.scheduleRoute(ti, sol.routes[ti])
				delta += balanceSpreadWeightFrac * sched.totalMinutes()
			}
			if delta < bestDelta-1e-9 ||
				(math.Abs(delta-bestDelta) <= 1e-9 && bestTech >= 0 && p.Technicians[ti].ID < p.Technicians[bestTech].ID) {
				bestDelta = delta
				bestTech = ti
			}
		}
		if bestTech < 0 {
			sol.unassigned[oi] = classifyRejection(verdicts, ReasonNoFeasibleTechnician)
			continue
		}
		sol.routes[bestTech] = append(sol.routes[bestTech], oi)
	}
	return sol
}
