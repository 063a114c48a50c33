package engine

import (
	"errors"
	"fmt"
	"time"

	"fieldroute/internal/geo"
)

// Priority is the business priority of a work order. The numeric weight is
// the objective penalty for leaving the order unassigned, so emergency work
// is effectively mandatory while low-priority work may be dropped last.
type Priority string

const (
	PriorityEmergency Priority = "emergency"
	PriorityHigh      Priority = "high"
	PriorityMedium    Priority = "medium"
	PriorityLow       Priority = "low"
)

func (p Priority) Weight() float64 {
	switch p {
	case PriorityEmergency:
		return 10000
	case PriorityHigh:
		return 1000
	case PriorityMedium:
		return 500
	case PriorityLow:
		return 100
	}
	return 0
}

func (p Priority) Valid() bool { return p.Weight() > 0 }

// Window is a [Start, End) service window in minutes since midnight.
type Window struct {
	Start float64
	End   float64
}

// WorkOrder is a stop to be visited. Read-only to the engine: solvers record
// assignments in routes and never mutate the order itself.
type WorkOrder struct {
	ID             string
	Coord          geo.Coordinate
	RequiredSkills []string
	Priority       Priority
	ServiceMinutes float64
	Window         *Window
}

// Technician is a vehicle in VRP terms: it starts and ends its day at the
// home base. HourlyCost feeds reporting only, never the objective.
type Technician struct {
	ID                    string
	HomeBase              geo.Coordinate
	Skills                []string
	MaxDailyHours         float64
	MaxDailyDistanceMiles float64
	HourlyCost            float64
}

// ProgressEvent is emitted by iterative solvers as the search advances.
type ProgressEvent struct {
	Algorithm string
	Iteration int
	BestCost  float64
	Assigned  int
	Elapsed   time.Duration
}

// Config carries the tuning knobs for one optimization run.
type Config struct {
	// RunID keys recorded solve metrics; empty disables recording.
	RunID            string
	Algorithm        string
	MaxTime          time.Duration
	SpeedMph         float64
	MaxStopsPerRoute int
	// MaxDistanceMiles caps every route's total distance regardless of the
	// technician's own daily limit; 0 disables the cap.
	MaxDistanceMiles float64
	BalanceWorkload  bool
	// DayStartMinutes is when technicians leave their home base, in minutes
	// since midnight.
	DayStartMinutes      float64
	WaitPenaltyPerMinute float64
	Seed                 int64

	// Constrained-routing solver knobs.
	InitialTemp  float64
	Cooling      float64
	MaxNoImprove int

	// Genetic solver knobs.
	PopulationSize        int
	TournamentSize        int
	MutationRate          float64
	MaxPlateauGenerations int

	// Progress, when set, receives best-cost snapshots from iterative
	// solvers. Must be safe for concurrent use when Algorithm is "all".
	Progress func(ProgressEvent)
}

const (
	DefaultMaxTime          = 300 * time.Second
	DefaultDayStartMinutes  = 8 * 60
	defaultInitialTemp      = 1.0
	defaultCooling          = 0.995
	defaultMaxNoImprove     = 2000
	defaultPopulationSize   = 50
	defaultTournamentSize   = 3
	defaultMutationRate     = 0.2
	defaultPlateauGens      = 50
	balanceSpreadWeightFrac = 0.1
)

func (c Config) withDefaults() Config {
	if c.MaxTime <= 0 {
		c.MaxTime = DefaultMaxTime
	}
	if c.SpeedMph <= 0 {
		c.SpeedMph = geo.DefaultSpeedMph
	}
	if c.DayStartMinutes <= 0 {
		c.DayStartMinutes = DefaultDayStartMinutes
	}
	if c.InitialTemp <= 0 {
		c.InitialTemp = defaultInitialTemp
	}
	if c.Cooling <= 0 || c.Cooling >= 1 {
		c.Cooling = defaultCooling
	}
	if c.MaxNoImprove <= 0 {
		c.MaxNoImprove = defaultMaxNoImprove
	}
	if c.PopulationSize <= 0 {
		c.PopulationSize = defaultPopulationSize
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = defaultTournamentSize
	}
	if c.MutationRate <= 0 || c.MutationRate > 1 {
		c.MutationRate = defaultMutationRate
	}
	if c.MaxPlateauGenerations <= 0 {
		c.MaxPlateauGenerations = defaultPlateauGens
	}
	return c
}

// Problem is an immutable snapshot of one optimization run: orders,
// technicians, the shared distance matrix, and the run config. Solvers read
// it concurrently and never write to it; each solver owns its working
// routes.
type Problem struct {
	Orders      []WorkOrder
	Technicians []Technician
	Matrix      *geo.Matrix
	Config      Config
}

// ValidationError reports malformed input rejected before any solving.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// ErrNoTechnicians marks a problem with work to do and nobody to do it.
var ErrNoTechnicians = errors.New("no technicians available")

// NewProblem validates the inputs, builds the shared distance matrix, and
// returns the immutable problem snapshot. Location indexing: technician home
// bases occupy matrix slots 0..T-1, order coordinates T..T+S-1.
func NewProblem(orders []WorkOrder, techs []Technician, cfg Config) (*Problem, error) {
	cfg = cfg.withDefaults()
	if err := validateInputs(orders, techs); err != nil {
		return nil, err
	}
	if len(techs) == 0 && len(orders) > 0 {
		return nil, ErrNoTechnicians
	}
	points := make([]geo.Coordinate, 0, len(techs)+len(orders))
	for _, t := range techs {
		points = append(points, t.HomeBase)
	}
	for _, o := range orders {
		points = append(points, o.Coord)
	}
	matrix, err := geo.BuildMatrix(points, cfg.SpeedMph)
	if err != nil {
		return nil, &ValidationError{Field: "coordinates", Detail: err.Error()}
	}
	return &Problem{Orders: orders, Technicians: techs, Matrix: matrix, Config: cfg}, nil
}

func validateInputs(orders []WorkOrder, techs []Technician) error {
	seen := map[string]bool{}
	for i, o := range orders {
		if o.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("workOrders[%d].id", i), Detail: "must be non-empty"}
		}
		if seen[o.ID] {
			return &ValidationError{Field: fmt.Sprintf("workOrders[%d].id", i), Detail: "duplicate id " + o.ID}
		}
		seen[o.ID] = true
		if err := geo.Check(o.Coord); err != nil {
			return &ValidationError{Field: fmt.Sprintf("workOrders[%d].coordinates", i), Detail: err.Error()}
		}
		if !o.Priority.Valid() {
			return &ValidationError{Field: fmt.Sprintf("workOrders[%d].priority", i), Detail: "unknown priority " + string(o.Priority)}
		}
		if o.ServiceMinutes <= 0 {
			return &ValidationError{Field: fmt.Sprintf("workOrders[%d].estimatedDurationMinutes", i), Detail: "must be > 0"}
		}
		if w := o.Window; w != nil && w.End <= w.Start {
			return &ValidationError{Field: fmt.Sprintf("workOrders[%d].timeWindow", i), Detail: "end must be after start"}
		}
	}
	seen = map[string]bool{}
	for i, t := range techs {
		if t.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("technicians[%d].id", i), Detail: "must be non-empty"}
		}
		if seen[t.ID] {
			return &ValidationError{Field: fmt.Sprintf("technicians[%d].id", i), Detail: "duplicate id " + t.ID}
		}
		seen[t.ID] = true
		if err := geo.Check(t.HomeBase); err != nil {
			return &ValidationError{Field: fmt.Sprintf("technicians[%d].homeBaseCoordinates", i), Detail: err.Error()}
		}
		if t.MaxDailyHours <= 0 {
			return &ValidationError{Field: fmt.Sprintf("technicians[%d].maxDailyHours", i), Detail: "must be > 0"}
		}
		if t.MaxDailyDistanceMiles <= 0 {
			return &ValidationError{Field: fmt.Sprintf("technicians[%d].maxDailyDistanceMiles", i), Detail: "must be > 0"}
		}
	}
	return nil
}

// techLoc and orderLoc map arena indices to matrix location slots.
func (p *Problem) techLoc(ti int) int  { return ti }
func (p *Problem) orderLoc(oi int) int { return len(p.Technicians) + oi }

// HasSkills reports whether technician ti covers every required skill of
// order oi. An empty requirement set is satisfied by anyone.
func (p *Problem) HasSkills(ti, oi int) bool {
	req := p.Orders[oi].RequiredSkills
	if len(req) == 0 {
		return true
	}
	have := p.Technicians[ti].Skills
	for _, r := range req {
		found := false
		for _, s := range have {
			if s == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (p *Problem) progress(ev ProgressEvent) {
	if p.Config.Progress != nil {
		p.Config.Progress(ev)
	}
}
