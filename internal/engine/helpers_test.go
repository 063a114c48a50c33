package engine

import (
	"testing"
	"time"

	"fieldroute/internal/geo"
)

// milesPerDegLat converts a mile offset into degrees of latitude for test
// geometry (2*pi*3959/360).
const milesPerDegLat = 69.086

func coordAtMilesNorth(miles float64) geo.Coordinate {
	return geo.Coordinate{Lng: 0, Lat: miles / milesPerDegLat}
}

func testTech(id string, skills ...string) Technician {
	return Technician{
		ID:                    id,
		HomeBase:              geo.Coordinate{Lng: 0, Lat: 0},
		Skills:                skills,
		MaxDailyHours:         8,
		MaxDailyDistanceMiles: 500,
		HourlyCost:            45,
	}
}

func testOrder(id string, miles float64) WorkOrder {
	return WorkOrder{
		ID:             id,
		Coord:          coordAtMilesNorth(miles),
		Priority:       PriorityMedium,
		ServiceMinutes: 30,
	}
}

func mustProblem(t *testing.T, orders []WorkOrder, techs []Technician, cfg Config) *Problem {
	t.Helper()
	if cfg.MaxTime == 0 {
		cfg.MaxTime = 2 * time.Second
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	p, err := NewProblem(orders, techs, cfg)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	return p
}

// checkInvariants asserts the cross-solver properties: stop conservation,
// dense sequence numbers, schedule monotonicity, skill subsets, and daily
// caps.
func checkInvariants(t *testing.T, p *Problem, res *Result) {
	t.Helper()
	seen := map[string]int{}
	for _, r := range res.Routes {
		var ti int
		for i, tech := range p.Technicians {
			if tech.ID == r.TechnicianID {
				ti = i
			}
		}
		prevDeparture := p.Config.DayStartMinutes
		for i, s := range r.Stops {
			seen[s.WorkOrderID]++
			if s.Sequence != i+1 {
				t.Fatalf("route %s: sequence %d at position %d", r.TechnicianID, s.Sequence, i)
			}
			wantArrival := prevDeparture + s.TravelDurationMinutes
			if diff := s.ArrivalMinutes - wantArrival; diff > 1e-6 || diff < -1e-6 {
				t.Fatalf("route %s stop %d: arrival %v, want %v", r.TechnicianID, i, s.ArrivalMinutes, wantArrival)
			}
			if s.DepartureMinutes < s.ArrivalMinutes {
				t.Fatalf("route %s stop %d: departure before arrival", r.TechnicianID, i)
			}
			prevDeparture = s.DepartureMinutes
			var oi = -1
			for j, o := range p.Orders {
				if o.ID == s.WorkOrderID {
					oi = j
				}
			}
			if oi < 0 {
				t.Fatalf("unknown work order %s in route", s.WorkOrderID)
			}
			if !p.HasSkills(ti, oi) {
				t.Fatalf("route %s: stop %s assigned without required skills", r.TechnicianID, s.WorkOrderID)
			}
		}
		tech := p.Technicians[ti]
		if r.Summary.WorkMinutes+r.Summary.TravelMinutes > tech.MaxDailyHours*60+1e-6 {
			t.Fatalf("route %s exceeds daily hours", r.TechnicianID)
		}
		if r.Summary.TotalDistanceMiles > tech.MaxDailyDistanceMiles+1e-6 {
			t.Fatalf("route %s exceeds daily distance", r.TechnicianID)
		}
		if limit := p.Config.MaxDistanceMiles; limit > 0 && r.Summary.TotalDistanceMiles > limit+1e-6 {
			t.Fatalf("route %s exceeds route distance cap", r.TechnicianID)
		}
	}
	for _, u := range res.Unassigned {
		seen[u.WorkOrderID]++
	}
	if len(seen) != len(p.Orders) {
		t.Fatalf("stop conservation: %d distinct stops in output, %d in input", len(seen), len(p.Orders))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("stop %s appears %d times", id, n)
		}
	}
}
