package engine

import (
	"math"
	"testing"
)

func TestCheckInsertionSkillMismatch(t *testing.T) {
	orders := []WorkOrder{{
		ID: "wo-1", Coord: coordAtMilesNorth(2), Priority: PriorityHigh,
		ServiceMinutes: 30, RequiredSkills: []string{"electrical"},
	}}
	p := mustProblem(t, orders, []Technician{testTech("t1", "plumbing")}, Config{})
	if v := p.CheckInsertion(0, nil, 0, 0); v != SkillMismatch {
		t.Fatalf("got %v, want SkillMismatch", v)
	}
}

func TestCheckInsertionTimeWindow(t *testing.T) {
	// Day starts 08:00; the stop is 30 miles out, 60 minutes at 30 mph.
	mk := func(w *Window) *Problem {
		orders := []WorkOrder{{
			ID: "wo-1", Coord: coordAtMilesNorth(30), Priority: PriorityHigh,
			ServiceMinutes: 30, Window: w,
		}}
		return mustProblem(t, orders, []Technician{testTech("t1")}, Config{})
	}

	// Window closes before the technician can arrive.
	p := mk(&Window{Start: 8 * 60, End: 8*60 + 30})
	if v := p.CheckInsertion(0, nil, 0, 0); v != TimeWindowViolation {
		t.Fatalf("got %v, want TimeWindowViolation", v)
	}

	// Arriving early waits until the window opens instead of failing.
	p = mk(&Window{Start: 10 * 60, End: 11 * 60})
	if v := p.CheckInsertion(0, nil, 0, 0); v != Feasible {
		t.Fatalf("got %v, want Feasible (wait-if-early)", v)
	}
	sched, verdict := p.scheduleRoute(0, []int{0})
	if verdict != Feasible {
		t.Fatalf("schedule verdict: %v", verdict)
	}
	v := sched.visits[0]
	if math.Abs(v.arrival-(9*60)) > 0.5 {
		t.Fatalf("arrival: got %v, want ~540", v.arrival)
	}
	if math.Abs(v.wait-60) > 0.5 {
		t.Fatalf("wait: got %v, want ~60", v.wait)
	}
	if math.Abs(v.departure-(10*60+30)) > 0.5 {
		t.Fatalf("departure: got %v, want ~630", v.departure)
	}
	// Waiting counts toward duration but not travel and not the hours cap.
	if sched.waitMin < 59 || sched.travelMin > 121 {
		t.Fatalf("wait/travel accounting off: wait=%v travel=%v", sched.waitMin, sched.travelMin)
	}
}

func TestCheckInsertionDailyCaps(t *testing.T) {
	tech := testTech("t1")
	tech.MaxDailyHours = 3 // 180 minutes
	orders := []WorkOrder{
		testOrder("wo-1", 30), // 120 min round-trip travel + 30 service
		testOrder("wo-2", 30),
	}
	p := mustProblem(t, orders, []Technician{tech}, Config{})
	if v := p.CheckInsertion(0, nil, 0, 0); v != Feasible {
		t.Fatalf("first stop: got %v, want Feasible", v)
	}
	if v := p.CheckInsertion(0, []int{0}, 1, 1); v != MaxHoursExceeded {
		t.Fatalf("second stop: got %v, want MaxHoursExceeded", v)
	}

	tight := testTech("t2")
	tight.MaxDailyDistanceMiles = 50
	p = mustProblem(t, orders, []Technician{tight}, Config{})
	if v := p.CheckInsertion(0, nil, 0, 0); v != MaxDistanceExceeded {
		t.Fatalf("got %v, want MaxDistanceExceeded", v)
	}
}

func TestCheckInsertionRouteDistanceCap(t *testing.T) {
	// Technician's own limit is generous; the run-level cap binds first.
	orders := []WorkOrder{testOrder("wo-1", 30)} // 60-mile round trip
	p := mustProblem(t, orders, []Technician{testTech("t1")}, Config{MaxDistanceMiles: 50})
	if v := p.CheckInsertion(0, nil, 0, 0); v != MaxDistanceExceeded {
		t.Fatalf("got %v, want MaxDistanceExceeded", v)
	}

	p = mustProblem(t, orders, []Technician{testTech("t1")}, Config{MaxDistanceMiles: 70})
	if v := p.CheckInsertion(0, nil, 0, 0); v != Feasible {
		t.Fatalf("got %v, want Feasible under a 70-mile cap", v)
	}
}

func TestCheckInsertionMaxStops(t *testing.T) {
	orders := []WorkOrder{testOrder("wo-1", 1), testOrder("wo-2", 2)}
	p := mustProblem(t, orders, []Technician{testTech("t1")}, Config{MaxStopsPerRoute: 1})
	if v := p.CheckInsertion(0, nil, 0, 0); v != Feasible {
		t.Fatalf("first stop: got %v", v)
	}
	if v := p.CheckInsertion(0, []int{0}, 1, 1); v != MaxStopsExceeded {
		t.Fatalf("got %v, want MaxStopsExceeded", v)
	}
}

func TestInsertionDeltaRoundTrip(t *testing.T) {
	orders := []WorkOrder{testOrder("wo-1", 5)}
	p := mustProblem(t, orders, []Technician{testTech("t1")}, Config{})
	delta := p.insertionDelta(0, nil, 0, 0)
	oneWay := p.Matrix.DistanceMiles(p.techLoc(0), p.orderLoc(0))
	if math.Abs(delta-2*oneWay) > 1e-9 {
		t.Fatalf("empty-route insertion should cost the round trip: got %v, want %v", delta, 2*oneWay)
	}
}
