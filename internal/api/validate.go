package api

import (
	"fmt"

	"fieldroute/internal/engine"
	"fieldroute/internal/model"
)

// validateOptimizeRequest checks request shape before the engine's own input
// validation: required objects present, enums known, clock fields parseable.
func validateOptimizeRequest(req *model.OptimizeRequest) error {
	if len(req.WorkOrders) == 0 {
		return fmt.Errorf("workOrders must not be empty")
	}
	switch req.Config.Algorithm {
	case "", engine.AlgorithmGreedy, engine.AlgorithmVRP, engine.AlgorithmGenetic, engine.AlgorithmAll:
	default:
		return fmt.Errorf("config.algorithm must be one of greedy, vrp, genetic, all")
	}
	if req.Config.MaxTimeSeconds < 0 {
		return fmt.Errorf("config.maxTimeSeconds must be >= 0")
	}
	if req.Config.SpeedMph < 0 {
		return fmt.Errorf("config.speedMph must be >= 0")
	}
	if req.Config.MaxStopsPerRoute < 0 {
		return fmt.Errorf("config.maxStopsPerRoute must be >= 0")
	}
	if req.Config.MaxDistanceMiles < 0 {
		return fmt.Errorf("config.maxDistanceMiles must be >= 0")
	}
	for i, o := range req.WorkOrders {
		if o.Coordinates == nil {
			return fmt.Errorf("workOrders[%d].coordinates is required", i)
		}
		if (o.TimeWindowStart == "") != (o.TimeWindowEnd == "") {
			return fmt.Errorf("workOrders[%d]: timeWindowStart and timeWindowEnd must be set together", i)
		}
	}
	for i, t := range req.Technicians {
		if t.HomeBaseCoordinates == nil {
			return fmt.Errorf("technicians[%d].homeBaseCoordinates is required", i)
		}
	}
	return nil
}
