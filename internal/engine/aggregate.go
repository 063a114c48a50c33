package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ComparisonEntry is one algorithm's scorecard in an all-algorithms run.
// Failed entries keep their slot so one crashing solver never hides the
// others' results.
type ComparisonEntry struct {
	Algorithm            string
	TotalDistanceMiles   float64
	TotalDurationMinutes float64
	AvgUtilization       float64
	UnassignedCount      int
	SolveTime            time.Duration
	Failed               bool
	Error                string
}

// Comparison ranks the algorithms per metric and overall. Overall best is
// the run's priority metric: fewest unassigned, ties broken by lowest total
// distance.
type Comparison struct {
	Entries         []ComparisonEntry
	BestDistance    string
	BestDuration    string
	BestUtilization string
	BestUnassigned  string
	Overall         string
}

// RunOutput is what the aggregator hands back to the boundary: the selected
// result (or the overall best of a comparison) plus all per-algorithm
// results.
type RunOutput struct {
	Algorithm  string
	Result     *Result
	Results    []*Result
	Comparison *Comparison
}

var comparisonOrder = []string{AlgorithmGreedy, AlgorithmVRP, AlgorithmGenetic}

// Run invokes the configured solver, or all three concurrently for
// algorithm "all". Solvers share the immutable problem and matrix and own
// their working state, so the comparison fan-out needs no locking beyond
// the join.
func Run(ctx context.Context, p *Problem) (*RunOutput, error) {
	algo := p.Config.Algorithm
	if algo == "" {
		algo = AlgorithmVRP
	}
	if algo != AlgorithmAll {
		solver, err := ForAlgorithm(algo)
		if err != nil {
			return nil, err
		}
		res, err := runSolver(ctx, p, solver)
		if err != nil {
			return nil, err
		}
		return &RunOutput{Algorithm: algo, Result: res, Results: []*Result{res}}, nil
	}

	results := make([]*Result, len(comparisonOrder))
	errs := make([]error, len(comparisonOrder))
	var wg sync.WaitGroup
	for i, name := range comparisonOrder {
		solver, err := ForAlgorithm(name)
		if err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(slot int, s Solver) {
			defer wg.Done()
			results[slot], errs[slot] = runSolver(ctx, p, s)
		}(i, solver)
	}
	wg.Wait()

	cmp := compare(results, errs)
	out := &RunOutput{Algorithm: AlgorithmAll, Comparison: cmp}
	for i, res := range results {
		if res == nil {
			continue
		}
		out.Results = append(out.Results, res)
		if comparisonOrder[i] == cmp.Overall {
			out.Result = res
		}
	}
	if out.Result == nil && len(out.Results) > 0 {
		out.Result = out.Results[0]
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("all solvers failed: %v", errs)
	}
	return out, nil
}

// runSolver isolates a single solver invocation: a panic inside one
// algorithm becomes that slot's error instead of taking down the run.
func runSolver(ctx context.Context, p *Problem, s Solver) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("solver %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Solve(ctx, p)
}

func compare(results []*Result, errs []error) *Comparison {
	cmp := &Comparison{}
	type best struct {
		algo  string
		value float64
		set   bool
	}
	var dist, dur, util, unas best
	var overall struct {
		algo       string
		unassigned int
		distance   float64
		set        bool
	}
	for i, name := range comparisonOrder {
		res := results[i]
		if res == nil {
			msg := "solver returned no result"
			if errs[i] != nil {
				msg = errs[i].Error()
			}
			cmp.Entries = append(cmp.Entries, ComparisonEntry{Algorithm: name, Failed: true, Error: msg})
			continue
		}
		e := ComparisonEntry{
			Algorithm:            name,
			TotalDistanceMiles:   res.TotalDistanceMiles,
			TotalDurationMinutes: res.TotalDurationMinutes,
			AvgUtilization:       res.AvgUtilization,
			UnassignedCount:      len(res.Unassigned),
			SolveTime:            res.ComputeTime,
		}
		cmp.Entries = append(cmp.Entries, e)
		if !dist.set || e.TotalDistanceMiles < dist.value {
			dist = best{algo: name, value: e.TotalDistanceMiles, set: true}
		}
		if !dur.set || e.TotalDurationMinutes < dur.value {
			dur = best{algo: name, value: e.TotalDurationMinutes, set: true}
		}
		if !util.set || e.AvgUtilization > util.value {
			util = best{algo: name, value: e.AvgUtilization, set: true}
		}
		if !unas.set || float64(e.UnassignedCount) < unas.value {
			unas = best{algo: name, value: float64(e.UnassignedCount), set: true}
		}
		if !overall.set ||
			e.UnassignedCount < overall.unassigned ||
			(e.UnassignedCount == overall.unassigned && e.TotalDistanceMiles < overall.distance) {
			overall.algo = name
			overall.unassigned = e.UnassignedCount
			overall.distance = e.TotalDistanceMiles
			overall.set = true
		}
	}
	cmp.BestDistance = dist.algo
	cmp.BestDuration = dur.algo
	cmp.BestUtilization = util.algo
	cmp.BestUnassigned = unas.algo
	cmp.Overall = overall.algo
	return cmp
}
