package engine

import (
	"context"
	"math"
	"reflect"
	"testing"
)

// Scenario: one qualified technician, two stops at the same site five miles
// from the home base, no windows. Both are assigned and the total distance
// is the round trip.
func TestGreedyRoundTrip(t *testing.T) {
	orders := []WorkOrder{
		{ID: "wo-1", Coord: coordAtMilesNorth(5), Priority: PriorityMedium, ServiceMinutes: 60, RequiredSkills: []string{"general"}},
		{ID: "wo-2", Coord: coordAtMilesNorth(5), Priority: PriorityMedium, ServiceMinutes: 60, RequiredSkills: []string{"general"}},
	}
	p := mustProblem(t, orders, []Technician{testTech("t1", "general")}, Config{})
	res, err := (&GreedySolver{}).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	checkInvariants(t, p, res)
	if len(res.Unassigned) != 0 {
		t.Fatalf("unassigned: %v", res.Unassigned)
	}
	oneWay := p.Matrix.DistanceMiles(p.techLoc(0), p.orderLoc(0))
	if math.Abs(res.TotalDistanceMiles-2*oneWay) > 0.01 {
		t.Fatalf("total distance: got %v, want %v", res.TotalDistanceMiles, 2*oneWay)
	}
	sum := res.Routes[0].Summary
	wantUtil := sum.WorkMinutes / (sum.WorkMinutes + sum.TravelMinutes)
	if math.Abs(sum.Utilization-wantUtil) > 1e-9 {
		t.Fatalf("utilization: got %v, want %v", sum.Utilization, wantUtil)
	}
}

// Scenario: the only technician lacks the required skill.
func TestGreedySkillMismatch(t *testing.T) {
	orders := []WorkOrder{{
		ID: "wo-1", Coord: coordAtMilesNorth(3), Priority: PriorityHigh,
		ServiceMinutes: 45, RequiredSkills: []string{"electrical"},
	}}
	p := mustProblem(t, orders, []Technician{testTech("t1", "plumbing")}, Config{})
	res, err := (&GreedySolver{}).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	checkInvariants(t, p, res)
	if len(res.Unassigned) != 1 || res.Unassigned[0].Reason != ReasonSkillMismatch {
		t.Fatalf("got %+v, want one SkillMismatch entry", res.Unassigned)
	}
}

func TestGreedyPriorityOrdering(t *testing.T) {
	// Capacity for only one stop; the emergency must win even though the
	// low-priority stop is closer.
	tech := testTech("t1")
	tech.MaxDailyHours = 2.5
	orders := []WorkOrder{
		{ID: "near-low", Coord: coordAtMilesNorth(5), Priority: PriorityLow, ServiceMinutes: 60},
		{ID: "far-emergency", Coord: coordAtMilesNorth(25), Priority: PriorityEmergency, ServiceMinutes: 30},
	}
	p := mustProblem(t, orders, []Technician{tech}, Config{})
	res, _ := (&GreedySolver{}).Solve(context.Background(), p)
	checkInvariants(t, p, res)
	if len(res.Routes[0].Stops) != 1 || res.Routes[0].Stops[0].WorkOrderID != "far-emergency" {
		t.Fatalf("emergency not placed first: %+v", res.Routes[0].Stops)
	}
}

func TestGreedyTechnicianTieBreak(t *testing.T) {
	// Two identical technicians: the lexicographically smaller ID wins.
	orders := []WorkOrder{testOrder("wo-1", 5)}
	p := mustProblem(t, orders, []Technician{testTech("t-b"), testTech("t-a")}, Config{})
	res, _ := (&GreedySolver{}).Solve(context.Background(), p)
	for _, r := range res.Routes {
		if len(r.Stops) > 0 && r.TechnicianID != "t-a" {
			t.Fatalf("tie broken to %s, want t-a", r.TechnicianID)
		}
	}
}

func TestGreedyDeterministic(t *testing.T) {
	orders := []WorkOrder{
		testOrder("wo-3", 4), testOrder("wo-1", 9), testOrder("wo-2", 2),
		{ID: "wo-4", Coord: coordAtMilesNorth(7), Priority: PriorityEmergency, ServiceMinutes: 20},
		{ID: "wo-5", Coord: coordAtMilesNorth(12), Priority: PriorityHigh, ServiceMinutes: 40, Window: &Window{Start: 9 * 60, End: 12 * 60}},
	}
	techs := []Technician{testTech("t1"), testTech("t2")}
	var prev *Result
	for i := 0; i < 3; i++ {
		p := mustProblem(t, orders, techs, Config{})
		res, err := (&GreedySolver{}).Solve(context.Background(), p)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		res.ComputeTime = 0
		if prev != nil && !reflect.DeepEqual(prev, res) {
			t.Fatalf("greedy output differs across runs:\n%+v\n%+v", prev, res)
		}
		prev = res
	}
}
