package engine

import (
	"context"
	"math/rand"
	"sort"
	"time"
)

// GeneticSolver searches the assignment+sequencing space with a genetic
// algorithm. A chromosome is a permutation of all stop indices plus a
// technician assignment per stop; skill feasibility is repaired at creation
// and reassignment time (a skill mismatch is never acceptable), capacity
// feasibility is enforced when a chromosome is decoded into routes.
type GeneticSolver struct{}

func (g *GeneticSolver) Name() string { return AlgorithmGenetic }

// chromosome: perm orders the stops, assign[stop] is the technician index
// serving that stop (-1 = unassigned). Fitness is the shared objective,
// lower is better.
type chromosome struct {
	perm    []int
	assign  []int
	fitness float64
}

func (c *chromosome) clone() *chromosome {
	return &chromosome{
		perm:    append([]int(nil), c.perm...),
		assign:  append([]int(nil), c.assign...),
		fitness: c.fitness,
	}
}

func (g *GeneticSolver) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()
	deadline := deadlineFor(ctx, p)
	seed := p.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	cfg := p.Config

	pop := make([]*chromosome, cfg.PopulationSize)
	for i := range pop {
		pop[i] = randomChromosome(p, rng)
		pop[i].fitness = p.cost(decode(p, pop[i]))
	}
	best := fittest(pop).clone()
	plateau := 0
	m := SolveMetrics{BestCost: best.fitness}

	for time.Now().Before(deadline) && ctx.Err() == nil {
		if plateau >= cfg.MaxPlateauGenerations {
			break
		}
		m.Generations++
		next := make([]*chromosome, 0, len(pop))
		next = append(next, fittest(pop).clone()) // elitism
		for len(next) < len(pop) {
			// Breeding one generation costs many decode calls; a big
			// population on a big instance must not overshoot the deadline.
			if !time.Now().Before(deadline) {
				break
			}
			a := tournament(pop, cfg.TournamentSize, rng)
			b := tournament(pop, cfg.TournamentSize, rng)
			child := orderCrossover(a, b, rng)
			if rng.Float64() < cfg.MutationRate {
				mutateSwap(p, child, rng)
			}
			child.fitness = p.cost(decode(p, child))
			next = append(next, child)
		}
		pop = next
		genBest := fittest(pop)
		if genBest.fitness < best.fitness-1e-9 {
			best = genBest.clone()
			plateau = 0
			m.Improvements++
			m.BestCost = best.fitness
			sol := decode(p, best)
			p.progress(ProgressEvent{
				Algorithm: AlgorithmGenetic, Iteration: m.Generations,
				BestCost: best.fitness, Assigned: sol.assignedCount(),
				Elapsed: time.Since(started),
			})
		} else {
			plateau++
		}
	}

	sol := decode(p, best)
	m.Iterations = m.Generations
	m.FinalCost = best.fitness
	RecordSolveMetrics(p.Config.RunID, AlgorithmGenetic, m)
	return p.buildResult(AlgorithmGenetic, sol, started), nil
}

// randomChromosome draws a random permutation and a skill-compatible random
// technician per stop. Stops nobody is qualified for start unassigned.
func randomChromosome(p *Problem, rng *rand.Rand) *chromosome {
	c := &chromosome{
		perm:   rng.Perm(len(p.Orders)),
		assign: make([]int, len(p.Orders)),
	}
	for oi := range p.Orders {
		c.assign[oi] = randomCompatibleTech(p, oi, rng)
	}
	return c
}

func randomCompatibleTech(p *Problem, oi int, rng *rand.Rand) int {
	compatible := []int{}
	for ti := range p.Technicians {
		if p.HasSkills(ti, oi) {
			compatible = append(compatible, ti)
		}
	}
	if len(compatible) == 0 {
		return -1
	}
	return compatible[rng.Intn(len(compatible))]
}

// decode materializes the chromosome into per-technician routes in
// permutation order, demoting any stop that would break the schedule to the
// unassigned pool. The repair keeps every decoded solution feasible.
func decode(p *Problem, c *chromosome) *solution {
	sol := newSolution(p)
	for _, oi := range c.perm {
		ti := c.assign[oi]
		if ti < 0 {
			sol.unassigned[oi] = ReasonSkillMismatch
			continue
		}
		route := sol.routes[ti]
		if p.CheckInsertion(ti, route, oi, len(route)) != Feasible {
			sol.unassigned[oi] = rejectionReason(p, sol, oi)
			continue
		}
		sol.routes[ti] = append(route, oi)
	}
	return sol
}

func fittest(pop []*chromosome) *chromosome {
	best := pop[0]
	for _, c := range pop[1:] {
		if c.fitness < best.fitness {
			best = c
		}
	}
	return best
}

// tournament returns the fittest of k randomly sampled individuals.
func tournament(pop []*chromosome, k int, rng *rand.Rand) *chromosome {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < k; i++ {
		c := pop[rng.Intn(len(pop))]
		if c.fitness < best.fitness {
			best = c
		}
	}
	return best
}

// orderCrossover (OX) copies a random contiguous slice of parent A into the
// child at the same positions, then fills the gaps with parent B's genes in
// their relative order. Technician assignments travel with the parent that
// contributed the gene.
func orderCrossover(a, b *chromosome, rng *rand.Rand) *chromosome {
	n := len(a.perm)
	child := &chromosome{perm: make([]int, n), assign: make([]int, n)}
	if n == 0 {
		return child
	}
	lo := rng.Intn(n)
	hi := lo + rng.Intn(n-lo)
	inSlice := make([]bool, n)
	for i := lo; i <= hi; i++ {
		gene := a.perm[i]
		child.perm[i] = gene
		child.assign[gene] = a.assign[gene]
		inSlice[gene] = true
	}
	fill := hi + 1
	for i := 0; i < n; i++ {
		gene := b.perm[(hi+1+i)%n]
		if inSlice[gene] {
			continue
		}
		child.perm[fill%n] = gene
		child.assign[gene] = b.assign[gene]
		fill++
	}
	return child
}

// mutateSwap exchanges two permutation positions. A swap cannot break skill
// feasibility (assignments are untouched) but can break capacity; in that
// case the swap is rejected and retried a few times rather than keeping an
// infeasible-leaning ordering.
func mutateSwap(p *Problem, c *chromosome, rng *rand.Rand) {
	n := len(c.perm)
	if n < 2 {
		return
	}
	beforeUnassigned := len(decode(p, c).unassigned)
	for attempt := 0; attempt < 5; attempt++ {
		i, j := rng.Intn(n), rng.Intn(n)
		if i == j {
			continue
		}
		c.perm[i], c.perm[j] = c.perm[j], c.perm[i]
		// A swap that knocks previously served stops out of the plan broke
		// a capacity or window constraint: undo and retry.
		if len(decode(p, c).unassigned) <= beforeUnassigned {
			return
		}
		c.perm[i], c.perm[j] = c.perm[j], c.perm[i]
	}
}

// sortedStops is a test hook: the decoded stop set in deterministic order.
func sortedStops(sol *solution) []int {
	out := []int{}
	for _, r := range sol.routes {
		out = append(out, r...)
	}
	for oi := range sol.unassigned {
		out = append(out, oi)
	}
	sort.Ints(out)
	return out
}
