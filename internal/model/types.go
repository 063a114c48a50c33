package model

// Boundary request/response types for the optimization API. Field semantics
// mirror the engine's domain types; clock fields use "HH:MM".

type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

type WorkOrderIn struct {
	ID                       string    `json:"id"`
	Coordinates              *GeoPoint `json:"coordinates"`
	RequiredSkills           []string  `json:"requiredSkills,omitempty"`
	Priority                 string    `json:"priority"`
	EstimatedDurationMinutes float64   `json:"estimatedDurationMinutes"`
	TimeWindowStart          string    `json:"timeWindowStart,omitempty"`
	TimeWindowEnd            string    `json:"timeWindowEnd,omitempty"`
}

type TechnicianIn struct {
	ID                    string    `json:"id"`
	HomeBaseCoordinates   *GeoPoint `json:"homeBaseCoordinates"`
	Skills                []string  `json:"skills,omitempty"`
	MaxDailyHours         float64   `json:"maxDailyHours"`
	MaxDailyDistanceMiles float64   `json:"maxDailyDistanceMiles"`
	HourlyCost            float64   `json:"hourlyCost,omitempty"`
}

type ConfigIn struct {
	Algorithm            string  `json:"algorithm,omitempty"`
	MaxTimeSeconds       float64 `json:"maxTimeSeconds,omitempty"`
	SpeedMph             float64 `json:"speedMph,omitempty"`
	MaxStopsPerRoute     int     `json:"maxStopsPerRoute,omitempty"`
	MaxDistanceMiles     float64 `json:"maxDistanceMiles,omitempty"`
	BalanceWorkload      bool    `json:"balanceWorkload,omitempty"`
	DayStart             string  `json:"dayStart,omitempty"`
	WaitPenaltyPerMinute float64 `json:"waitPenaltyPerMinute,omitempty"`
	Seed                 int64   `json:"seed,omitempty"`
}

type OptimizeRequest struct {
	WorkOrders  []WorkOrderIn  `json:"workOrders"`
	Technicians []TechnicianIn `json:"technicians"`
	Config      ConfigIn       `json:"config"`
}

type StopOut struct {
	Sequence              int     `json:"sequence"`
	WorkOrderID           string  `json:"workOrderId"`
	ArrivalTime           string  `json:"arrivalTime"`
	DepartureTime         string  `json:"departureTime"`
	WaitMinutes           float64 `json:"waitMinutes,omitempty"`
	TravelDistanceMiles   float64 `json:"travelDistanceMiles"`
	TravelDurationMinutes float64 `json:"travelDurationMinutes"`
}

type RouteSummaryOut struct {
	TotalDistanceMiles   float64 `json:"totalDistanceMiles"`
	TotalDurationMinutes float64 `json:"totalDurationMinutes"`
	WorkMinutes          float64 `json:"workMinutes"`
	TravelMinutes        float64 `json:"travelMinutes"`
	WaitMinutes          float64 `json:"waitMinutes"`
	Utilization          float64 `json:"utilization"`
	LaborCost            float64 `json:"laborCost,omitempty"`
}

type RouteOut struct {
	TechnicianID string          `json:"technicianId"`
	Stops        []StopOut       `json:"stops"`
	Summary      RouteSummaryOut `json:"summary"`
}

type UnassignedOut struct {
	WorkOrderID string `json:"workOrderId"`
	Reason      string `json:"reason"`
}

type ComparisonEntryOut struct {
	Algorithm            string  `json:"algorithm"`
	TotalDistanceMiles   float64 `json:"totalDistanceMiles"`
	TotalDurationMinutes float64 `json:"totalDurationMinutes"`
	AvgUtilization       float64 `json:"avgUtilization"`
	UnassignedCount      int     `json:"unassignedCount"`
	SolveTimeMs          int64   `json:"solveTimeMs"`
	Failed               bool    `json:"failed,omitempty"`
	Error                string  `json:"error,omitempty"`
}

type ComparisonOut struct {
	Entries         []ComparisonEntryOut `json:"entries"`
	BestDistance    string               `json:"bestDistance"`
	BestDuration    string               `json:"bestDuration"`
	BestUtilization string               `json:"bestUtilization"`
	BestUnassigned  string               `json:"bestUnassigned"`
	Overall         string               `json:"overall"`
}

type OptimizeResponse struct {
	RunID                string          `json:"runId"`
	Algorithm            string          `json:"algorithm"`
	Routes               []RouteOut      `json:"routes"`
	Unassigned           []UnassignedOut `json:"unassigned"`
	TotalDistanceMiles   float64         `json:"totalDistanceMiles"`
	TotalDurationMinutes float64         `json:"totalDurationMinutes"`
	AvgUtilization       float64         `json:"avgUtilization"`
	ComputeTimeMs        int64           `json:"computeTimeMs"`
	Comparison           *ComparisonOut  `json:"comparison,omitempty"`
}

// RunSummary is the run-history listing shape.
type RunSummary struct {
	ID                 string  `json:"id"`
	CreatedAt          string  `json:"createdAt"`
	Algorithm          string  `json:"algorithm"`
	ComputeTimeMs      int64   `json:"computeTimeMs"`
	UnassignedCount    int     `json:"unassignedCount"`
	TotalDistanceMiles float64 `json:"totalDistanceMiles"`
}
