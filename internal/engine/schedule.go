package engine

// visit is one scheduled stop inside a route, all times in minutes since
// midnight.
type visit struct {
	order       int
	arrival     float64
	departure   float64
	wait        float64
	travelMiles float64
	travelMin   float64
}

// schedule is the fully propagated timing of one route, including the
// return leg to the technician's home base.
type schedule struct {
	visits      []visit
	returnMiles float64
	returnMin   float64
	totalMiles  float64
	travelMin   float64
	workMin     float64
	waitMin     float64
	// endTime is when the technician is back at the home base.
	endTime float64
}

func (s schedule) totalMinutes() float64 { return s.travelMin + s.workMin + s.waitMin }

// utilization is productive work time over total route time.
func (s schedule) utilization() float64 {
	total := s.totalMinutes()
	if total <= 0 {
		return 0
	}
	return s.workMin / total
}

// scheduleRoute propagates arrival/departure times along route for
// technician ti, starting and ending at the home base. Arriving before a
// window opens waits; arriving after it closes is infeasible. The verdict
// reports the first violated constraint, checking the time window during
// propagation and the daily hour/distance caps at the end.
func (p *Problem) scheduleRoute(ti int, route []int) (schedule, Verdict) {
	var s schedule
	if p.Config.MaxStopsPerRoute > 0 && len(route) > p.Config.MaxStopsPerRoute {
		return s, MaxStopsExceeded
	}
	tech := p.Technicians[ti]
	clock := p.Config.DayStartMinutes
	loc := p.techLoc(ti)
	for _, oi := range route {
		o := p.Orders[oi]
		dest := p.orderLoc(oi)
		dMiles := p.Matrix.DistanceMiles(loc, dest)
		dMin := p.Matrix.DurationMinutes(loc, dest)
		clock += dMin
		v := visit{order: oi, arrival: clock, travelMiles: dMiles, travelMin: dMin}
		if w := o.Window; w != nil {
			if clock > w.End {
				return s, TimeWindowViolation
			}
			if clock < w.Start {
				v.wait = w.Start - clock
				clock = w.Start
			}
		}
		v.departure = clock + o.ServiceMinutes
		clock = v.departure
		s.visits = append(s.visits, v)
		s.totalMiles += dMiles
		s.travelMin += dMin
		s.workMin += o.ServiceMinutes
		s.waitMin += v.wait
		loc = dest
	}
	if len(route) > 0 {
		home := p.techLoc(ti)
		s.returnMiles = p.Matrix.DistanceMiles(loc, home)
		s.returnMin = p.Matrix.DurationMinutes(loc, home)
		s.totalMiles += s.returnMiles
		s.travelMin += s.returnMin
		clock += s.returnMin
	}
	s.endTime = clock
	// Daily caps: hours count service + travel (waiting is idle time),
	// distance counts every leg including the return.
	if s.workMin+s.travelMin > tech.MaxDailyHours*60 {
		return s, MaxHoursExceeded
	}
	if s.totalMiles > tech.MaxDailyDistanceMiles {
		return s, MaxDistanceExceeded
	}
	if limit := p.Config.MaxDistanceMiles; limit > 0 && s.totalMiles > limit {
		return s, MaxDistanceExceeded
	}
	return s, Feasible
}
