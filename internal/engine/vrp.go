package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"
)

// VRPSolver models the run as a multi-vehicle routing problem with time
// windows: cheapest-insertion construction followed by an iterated local
// search that removes and reinserts stops (random or relatedness-based
// removal, greedy or regret-2 reinsertion), polishes routes with
// relocate / inter-route swap / 2-opt moves, and accepts worsening moves
// under a simulated-annealing criterion. Operator weights adapt to what
// keeps paying off. The wall-clock budget is a hard stop: the best
// solution found so far is returned when it expires.
type VRPSolver struct{}

func (v *VRPSolver) Name() string { return AlgorithmVRP }

func (v *VRPSolver) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()
	deadline := deadlineFor(ctx, p)
	seed := p.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	curr := cheapestInsertionSeed(p)
	improveRoutes(p, curr, deadline)
	currCost := p.cost(curr)
	// The greedy baseline doubles as a fallback seed: if construction plus
	// a first improvement pass cannot beat it, start from it instead. The
	// returned solution can then never be worse than greedy's.
	if fallback := (&GreedySolver{}).solve(ctx, p); p.cost(fallback) < currCost {
		curr = fallback
		currCost = p.cost(curr)
	}
	best := curr.clone()
	bestCost := currCost

	remW := [2]float64{1, 1} // random, shaw
	insW := [2]float64{1, 1} // greedy, regret-2
	temp := p.Config.InitialTemp
	cool := p.Config.Cooling
	noImprove := 0
	m := SolveMetrics{BestCost: bestCost}

	for time.Now().Before(deadline) && ctx.Err() == nil {
		if noImprove >= p.Config.MaxNoImprove {
			break // early convergence
		}
		m.Iterations++
		cand := curr.clone()

		k := 1 + rng.Intn(3)
		op := selectOperator(remW[:], rng)
		var removed []int
		switch op {
		case 0:
			removed = randomRemoval(cand, k, rng)
		case 1:
			removed = shawRemoval(p, cand, k, rng)
		}
		dropStops(cand, removed)

		// Reinsert the removed stops together with everything currently
		// unassigned; the penalty term makes rescuing them worthwhile.
		pool := removed
		for oi := range cand.unassigned {
			pool = append(pool, oi)
		}
		cand.unassigned = map[int]Reason{}
		sort.Ints(pool)
		ip := selectOperator(insW[:], rng)
		switch ip {
		case 0:
			greedyReinsert(p, cand, pool)
		case 1:
			regretReinsert(p, cand, pool)
		}
		improveRoutes(p, cand, deadline)

		c := p.cost(cand)
		delta := c - currCost
		if delta < 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9)) {
			curr, currCost = cand, c
			if c < bestCost-1e-9 {
				best, bestCost = cand.clone(), c
				remW[op] += 0.1
				insW[ip] += 0.1
				m.Improvements++
				m.BestCost = bestCost
				noImprove = 0
				p.progress(ProgressEvent{
					Algorithm: AlgorithmVRP, Iteration: m.Iterations,
					BestCost: bestCost, Assigned: best.assignedCount(),
					Elapsed: time.Since(started),
				})
			} else {
				remW[op] += 0.01
				insW[ip] += 0.01
				m.AcceptedWorse++
				noImprove++
			}
		} else {
			remW[op] = math.Max(0.01, remW[op]*0.999)
			insW[ip] = math.Max(0.01, insW[ip]*0.999)
			noImprove++
		}
		temp *= cool
	}

	m.FinalCost = currCost
	m.BestCost = bestCost
	m.RemovalWeights = remW
	m.InsertionWeights = insW
	RecordSolveMetrics(p.Config.RunID, AlgorithmVRP, m)
	return p.buildResult(AlgorithmVRP, best, started), nil
}

// cheapestInsertionSeed builds the initial assignment: stops in priority
// order, each inserted at its lowest-added-distance feasible position
// across all routes.
func cheapestInsertionSeed(p *Problem) *solution {
	sol := newSolution(p)
	order := make([]int, len(p.Orders))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		oa, ob := p.Orders[order[a]], p.Orders[order[b]]
		if oa.Priority.Weight() != ob.Priority.Weight() {
			return oa.Priority.Weight() > ob.Priority.Weight()
		}
		return oa.ID < ob.ID
	})
	pool := make([]int, 0, len(order))
	pool = append(pool, order...)
	greedyReinsert(p, sol, pool)
	return sol
}

// greedyReinsert places each pool stop at the cheapest feasible position;
// stops with no feasible position land in the unassigned set with a
// classified reason.
func greedyReinsert(p *Problem, sol *solution, pool []int) {
	for len(pool) > 0 {
		bestNode, bestTech, bestPos := -1, -1, -1
		bestDelta := math.MaxFloat64
		for ni, oi := range pool {
			ti, pos, delta := bestInsertion(p, sol, oi)
			if ti < 0 {
				continue
			}
			if delta < bestDelta {
				bestDelta = delta
				bestNode, bestTech, bestPos = ni, ti, pos
			}
		}
		if bestNode < 0 {
			for _, oi := range pool {
				sol.unassigned[oi] = rejectionReason(p, sol, oi)
			}
			return
		}
		insertStop(sol, bestTech, bestPos, pool[bestNode])
		pool = append(pool[:bestNode], pool[bestNode+1:]...)
	}
}

// regretReinsert picks, at every step, the stop whose second-best insertion
// is most expensive relative to its best (regret-2), then inserts it at its
// best position.
func regretReinsert(p *Problem, sol *solution, pool []int) {
	for len(pool) > 0 {
		bestNode, bestTech, bestPos := -1, -1, -1
		bestRegret := -1.0
		bestPrimary := math.MaxFloat64
		for ni, oi := range pool {
			first, second := math.MaxFloat64, math.MaxFloat64
			fTech, fPos := -1, -1
			for ti := range sol.routes {
				if !p.HasSkills(ti, oi) {
					continue
				}
				for pos := 0; pos <= len(sol.routes[ti]); pos++ {
					if p.CheckInsertion(ti, sol.routes[ti], oi, pos) != Feasible {
						continue
					}
					d := p.insertionDelta(ti, sol.routes[ti], oi, pos)
					if d < first {
						second = first
						first, fTech, fPos = d, ti, pos
					} else if d < second {
						second = d
					}
				}
			}
			if fTech < 0 {
				continue
			}
			regret := second - first
			if second == math.MaxFloat64 {
				// Only one feasible slot left: grab it before it disappears.
				regret = math.MaxFloat64
			}
			if regret > bestRegret || (regret == bestRegret && first < bestPrimary) {
				bestRegret = regret
				bestPrimary = first
				bestNode, bestTech, bestPos = ni, fTech, fPos
			}
		}
		if bestNode < 0 {
			for _, oi := range pool {
				sol.unassigned[oi] = rejectionReason(p, sol, oi)
			}
			return
		}
		insertStop(sol, bestTech, bestPos, pool[bestNode])
		pool = append(pool[:bestNode], pool[bestNode+1:]...)
	}
}

// bestInsertion returns the cheapest feasible (tech, pos) for oi, or
// (-1,-1,+inf) when nothing fits.
func bestInsertion(p *Problem, sol *solution, oi int) (int, int, float64) {
	bestTech, bestPos := -1, -1
	bestDelta := math.MaxFloat64
	for ti := range sol.routes {
		if !p.HasSkills(ti, oi) {
			continue
		}
		for pos := 0; pos <= len(sol.routes[ti]); pos++ {
			if p.CheckInsertion(ti, sol.routes[ti], oi, pos) != Feasible {
				continue
			}
			d := p.insertionDelta(ti, sol.routes[ti], oi, pos)
			if d < bestDelta {
				bestDelta = d
				bestTech, bestPos = ti, pos
			}
		}
	}
	return bestTech, bestPos, bestDelta
}

// rejectionReason probes every technician once to classify why oi cannot
// be placed anywhere in the current solution.
func rejectionReason(p *Problem, sol *solution, oi int) Reason {
	verdicts := make([]Verdict, 0, len(sol.routes))
	for ti := range sol.routes {
		if !p.HasSkills(ti, oi) {
			verdicts = append(verdicts, SkillMismatch)
			continue
		}
		v := p.CheckInsertion(ti, sol.routes[ti], oi, len(sol.routes[ti]))
		for pos := 0; v != Feasible && pos < len(sol.routes[ti]); pos++ {
			if p.CheckInsertion(ti, sol.routes[ti], oi, pos) == Feasible {
				v = Feasible
			}
		}
		verdicts = append(verdicts, v)
	}
	return classifyRejection(verdicts, ReasonNoFeasibleInsertion)
}

func insertStop(sol *solution, ti, pos, oi int) {
	route := sol.routes[ti]
	if pos >= len(route) {
		sol.routes[ti] = append(route, oi)
		return
	}
	route = append(route[:pos+1], route[pos:]...)
	route[pos] = oi
	sol.routes[ti] = route
}

func randomRemoval(sol *solution, k int, rng *rand.Rand) []int {
	all := []int{}
	for _, route := range sol.routes {
		all = append(all, route...)
	}
	if len(all) == 0 {
		return nil
	}
	removed := []int{}
	for i := 0; i < k && len(all) > 0; i++ {
		j := rng.Intn(len(all))
		removed = append(removed, all[j])
		all = append(all[:j], all[j+1:]...)
	}
	return removed
}

// shawRemoval removes stops related to a random seed stop: close in
// geography and with overlapping time windows.
func shawRemoval(p *Problem, sol *solution, k int, rng *rand.Rand) []int {
	assigned := []int{}
	for _, route := range sol.routes {
		assigned = append(assigned, route...)
	}
	if len(assigned) == 0 {
		return nil
	}
	seedStop := assigned[rng.Intn(len(assigned))]
	type scored struct {
		oi    int
		score float64
	}
	rel := []scored{}
	sOrd := p.Orders[seedStop]
	for _, oi := range assigned {
		if oi == seedStop {
			continue
		}
		o := p.Orders[oi]
		score := p.Matrix.DistanceMiles(p.orderLoc(seedStop), p.orderLoc(oi))
		if sOrd.Window != nil && o.Window != nil {
			score -= windowOverlap(*sOrd.Window, *o.Window) / 10
		}
		rel = append(rel, scored{oi: oi, score: score})
	}
	sort.Slice(rel, func(i, j int) bool { return rel[i].score < rel[j].score })
	removed := []int{seedStop}
	for i := 0; i < len(rel) && len(removed) < k; i++ {
		removed = append(removed, rel[i].oi)
	}
	return removed
}

func windowOverlap(a, b Window) float64 {
	start := math.Max(a.Start, b.Start)
	end := math.Min(a.End, b.End)
	if end < start {
		return 0
	}
	return end - start
}

func dropStops(sol *solution, removed []int) {
	if len(removed) == 0 {
		return
	}
	rm := map[int]bool{}
	for _, oi := range removed {
		rm[oi] = true
	}
	for ti, route := range sol.routes {
		kept := route[:0]
		for _, oi := range route {
			if !rm[oi] {
				kept = append(kept, oi)
			}
		}
		sol.routes[ti] = kept
	}
}

// improveRoutes runs the local-search moves until none of them improves:
// intra-route 2-opt, single-stop relocation across routes, and pairwise
// swaps between routes. All moves keep schedules feasible. Each pass also
// checks the deadline internally, since a single pass over a large instance
// evaluates many candidate schedules.
func improveRoutes(p *Problem, sol *solution, deadline time.Time) {
	for improved := true; improved; {
		if !time.Now().Before(deadline) {
			return
		}
		improved = false
		if twoOptPass(p, sol, deadline) {
			improved = true
		}
		if relocatePass(p, sol, deadline) {
			improved = true
		}
		if swapPass(p, sol, deadline) {
			improved = true
		}
	}
}

// twoOptPass reverses route segments when that shortens the route and keeps
// it feasible.
func twoOptPass(p *Problem, sol *solution, deadline time.Time) bool {
	any := false
	for ti, route := range sol.routes {
		n := len(route)
		if n < 3 {
			continue
		}
		sched, _ := p.scheduleRoute(ti, route)
		base := sched.totalMiles
		for i := 0; i < n-1; i++ {
			if !time.Now().Before(deadline) {
				sol.routes[ti] = route
				return any
			}
			for k := i + 1; k < n; k++ {
				cand := append([]int(nil), route...)
				for a, b := i, k; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				cs, verdict := p.scheduleRoute(ti, cand)
				if verdict != Feasible {
					continue
				}
				if cs.totalMiles+1e-6 < base {
					route = cand
					base = cs.totalMiles
					any = true
				}
			}
		}
		sol.routes[ti] = route
	}
	return any
}

// relocatePass moves single stops to a cheaper position in any route.
func relocatePass(p *Problem, sol *solution, deadline time.Time) bool {
	any := false
	for a := range sol.routes {
		for i := 0; i < len(sol.routes[a]); i++ {
			if !time.Now().Before(deadline) {
				return any
			}
			oi := sol.routes[a][i]
			without := append([]int(nil), sol.routes[a][:i]...)
			without = append(without, sol.routes[a][i+1:]...)
			removedGain := routeMiles(p, a, sol.routes[a]) - routeMiles(p, a, without)
			bestTech, bestPos := -1, -1
			bestDelta := removedGain - 1e-6
			for b := range sol.routes {
				if !p.HasSkills(b, oi) {
					continue
				}
				target := sol.routes[b]
				if b == a {
					target = without
				}
				for pos := 0; pos <= len(target); pos++ {
					if b == a && pos == i {
						continue
					}
					if p.CheckInsertion(b, target, oi, pos) != Feasible {
						continue
					}
					d := p.insertionDelta(b, target, oi, pos)
					if d < bestDelta {
						bestDelta = d
						bestTech, bestPos = b, pos
					}
				}
			}
			if bestTech >= 0 {
				sol.routes[a] = without
				target := sol.routes[bestTech]
				if bestPos >= len(target) {
					sol.routes[bestTech] = append(target, oi)
				} else {
					target = append(target[:bestPos+1], target[bestPos:]...)
					target[bestPos] = oi
					sol.routes[bestTech] = target
				}
				any = true
				i-- // the slot now holds the next stop
			}
		}
	}
	return any
}

// swapPass exchanges stop pairs between two routes when the combined
// distance drops.
func swapPass(p *Problem, sol *solution, deadline time.Time) bool {
	any := false
	for a := 0; a < len(sol.routes); a++ {
		for b := a + 1; b < len(sol.routes); b++ {
			for i := 0; i < len(sol.routes[a]); i++ {
				if !time.Now().Before(deadline) {
					return any
				}
				for j := 0; j < len(sol.routes[b]); j++ {
					ra := append([]int(nil), sol.routes[a]...)
					rb := append([]int(nil), sol.routes[b]...)
					ra[i], rb[j] = rb[j], ra[i]
					if p.checkRoute(a, ra) != Feasible || p.checkRoute(b, rb) != Feasible {
						continue
					}
					before := routeMiles(p, a, sol.routes[a]) + routeMiles(p, b, sol.routes[b])
					after := routeMiles(p, a, ra) + routeMiles(p, b, rb)
					if after+1e-6 < before {
						sol.routes[a], sol.routes[b] = ra, rb
						any = true
					}
				}
			}
		}
	}
	return any
}

func routeMiles(p *Problem, ti int, route []int) float64 {
	sched, _ := p.scheduleRoute(ti, route)
	return sched.totalMiles
}

func selectOperator(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}
	r := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}
