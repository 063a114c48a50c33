package engine

// Verdict is the outcome of a feasibility probe. Purely advisory: callers
// decide whether to accept or reject the candidate insertion.
type Verdict int

const (
	Feasible Verdict = iota
	SkillMismatch
	TimeWindowViolation
	MaxHoursExceeded
	MaxDistanceExceeded
	MaxStopsExceeded
)

func (v Verdict) String() string {
	switch v {
	case Feasible:
		return "Feasible"
	case SkillMismatch:
		return "SkillMismatch"
	case TimeWindowViolation:
		return "TimeWindowViolation"
	case MaxHoursExceeded:
		return "MaxHoursExceeded"
	case MaxDistanceExceeded:
		return "MaxDistanceExceeded"
	case MaxStopsExceeded:
		return "MaxStopsExceeded"
	}
	return "Unknown"
}

// CheckInsertion tests inserting order oi at position pos of technician
// ti's route. pos == len(route) appends. No side effects; the route slice
// is not modified.
func (p *Problem) CheckInsertion(ti int, route []int, oi, pos int) Verdict {
	if !p.HasSkills(ti, oi) {
		return SkillMismatch
	}
	if pos < 0 || pos > len(route) {
		return TimeWindowViolation
	}
	cand := make([]int, 0, len(route)+1)
	cand = append(cand, route[:pos]...)
	cand = append(cand, oi)
	cand = append(cand, route[pos:]...)
	_, verdict := p.scheduleRoute(ti, cand)
	return verdict
}

// checkRoute validates a whole route as-is.
func (p *Problem) checkRoute(ti int, route []int) Verdict {
	for _, oi := range route {
		if !p.HasSkills(ti, oi) {
			return SkillMismatch
		}
	}
	_, verdict := p.scheduleRoute(ti, route)
	return verdict
}

// insertionDelta is the added travel distance of inserting oi at pos, the
// classic prev->new + new->next - prev->next term. Positions beyond the
// last stop account for the changed return leg.
func (p *Problem) insertionDelta(ti int, route []int, oi, pos int) float64 {
	home := p.techLoc(ti)
	newLoc := p.orderLoc(oi)
	prev := home
	if pos > 0 {
		prev = p.orderLoc(route[pos-1])
	}
	next := home
	if pos < len(route) {
		next = p.orderLoc(route[pos])
	}
	return p.Matrix.DistanceMiles(prev, newLoc) +
		p.Matrix.DistanceMiles(newLoc, next) -
		p.Matrix.DistanceMiles(prev, next)
}
