package engine

import (
	"errors"
	"testing"

	"fieldroute/internal/geo"
)

func TestNewProblemValidation(t *testing.T) {
	valid := testOrder("wo-1", 5)
	tech := testTech("tech-1")

	cases := []struct {
		name   string
		orders []WorkOrder
		techs  []Technician
	}{
		{"missing order id", []WorkOrder{{Coord: coordAtMilesNorth(1), Priority: PriorityLow, ServiceMinutes: 10}}, []Technician{tech}},
		{"duplicate order id", []WorkOrder{valid, valid}, []Technician{tech}},
		{"bad coordinate", []WorkOrder{{ID: "x", Coord: geo.Coordinate{Lng: 200}, Priority: PriorityLow, ServiceMinutes: 10}}, []Technician{tech}},
		{"unknown priority", []WorkOrder{{ID: "x", Priority: "urgent", ServiceMinutes: 10}}, []Technician{tech}},
		{"non-positive duration", []WorkOrder{{ID: "x", Priority: PriorityLow, ServiceMinutes: 0}}, []Technician{tech}},
		{"inverted window", []WorkOrder{{ID: "x", Priority: PriorityLow, ServiceMinutes: 10, Window: &Window{Start: 600, End: 600}}}, []Technician{tech}},
		{"missing tech id", []WorkOrder{valid}, []Technician{{MaxDailyHours: 8, MaxDailyDistanceMiles: 100}}},
		{"non-positive hours", []WorkOrder{valid}, []Technician{{ID: "t", MaxDailyDistanceMiles: 100}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProblem(tc.orders, tc.techs, Config{})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestNewProblemNoTechnicians(t *testing.T) {
	_, err := NewProblem([]WorkOrder{testOrder("wo-1", 5)}, nil, Config{})
	if !errors.Is(err, ErrNoTechnicians) {
		t.Fatalf("got %v, want ErrNoTechnicians", err)
	}
	// An empty problem is valid: nothing to do is not an error.
	if _, err := NewProblem(nil, nil, Config{}); err != nil {
		t.Fatalf("empty problem: %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	p := mustProblem(t, nil, []Technician{testTech("t1")}, Config{MaxTime: -1, Seed: 1})
	cfg := p.Config
	if cfg.MaxTime != DefaultMaxTime {
		t.Fatalf("MaxTime default: %v", cfg.MaxTime)
	}
	if cfg.SpeedMph != geo.DefaultSpeedMph {
		t.Fatalf("SpeedMph default: %v", cfg.SpeedMph)
	}
	if cfg.DayStartMinutes != DefaultDayStartMinutes {
		t.Fatalf("DayStartMinutes default: %v", cfg.DayStartMinutes)
	}
	if cfg.PopulationSize != defaultPopulationSize || cfg.TournamentSize != defaultTournamentSize {
		t.Fatalf("genetic defaults not applied: %+v", cfg)
	}
}

func TestPriorityWeightsDescending(t *testing.T) {
	order := []Priority{PriorityEmergency, PriorityHigh, PriorityMedium, PriorityLow}
	for i := 1; i < len(order); i++ {
		if order[i].Weight() >= order[i-1].Weight() {
			t.Fatalf("priority weights not strictly descending at %s", order[i])
		}
	}
	if order[0].Weight() != 10000 || order[len(order)-1].Weight() != 100 {
		t.Fatalf("boundary weights changed: %v %v", order[0].Weight(), order[len(order)-1].Weight())
	}
}

func TestHasSkills(t *testing.T) {
	techs := []Technician{testTech("t1", "plumbing"), testTech("t2", "electrical", "plumbing")}
	orders := []WorkOrder{
		{ID: "any", Coord: coordAtMilesNorth(1), Priority: PriorityLow, ServiceMinutes: 10},
		{ID: "elec", Coord: coordAtMilesNorth(1), Priority: PriorityLow, ServiceMinutes: 10, RequiredSkills: []string{"electrical"}},
	}
	p := mustProblem(t, orders, techs, Config{})
	if !p.HasSkills(0, 0) || !p.HasSkills(1, 0) {
		t.Fatal("empty requirement set should always match")
	}
	if p.HasSkills(0, 1) {
		t.Fatal("t1 should not cover electrical")
	}
	if !p.HasSkills(1, 1) {
		t.Fatal("t2 should cover electrical")
	}
}
