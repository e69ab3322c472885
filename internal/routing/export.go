package routing

import (
	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
)

// BuildResult converts a solution into the exported routing result.
// Every vehicle gets a route, empty ones included, so indices match vehicle IDs.
func BuildResult(p *problem.Problem, s *Solution) *models.RoutingResult {
	routes := make([]models.CalculatedRoute, len(s.Routes))
	summary := models.RoutingSummary{
		TotalStaff:    len(p.StaffIndices()),
		TotalCapacity: p.TotalCapacity(),
		TotalVehicles: p.NumVehicles(),
	}

	for v, r := range s.Routes {
		veh := p.Vehicle(v)
		loads := RouteLoads(p, r)
		stops := make([]models.RouteStop, len(r.Stops))
		cumulative := 0.0

		for i, idx := range r.Stops {
			leg := 0.0
			if i > 0 {
				leg = p.Distance(r.Stops[i-1], idx)
			}
			cumulative += leg

			loc := p.Location(idx)
			kind := loc.Kind
			if i == len(r.Stops)-1 {
				kind = models.KindDepot
			}
			stops[i] = models.RouteStop{
				Order:              i,
				LocationIndex:      idx,
				Kind:               kind,
				Coords:             loc.Coords,
				DistanceFromPrev:   leg,
				CumulativeDistance: cumulative,
				Load:               loads[i],
			}
		}

		routes[v] = models.CalculatedRoute{
			VehicleID:     veh.ID,
			Capacity:      veh.Capacity,
			Stops:         stops,
			TotalDistance: cumulative,
		}
		if len(loads) > 0 {
			routes[v].Load = loads[len(loads)-1]
		}

		summary.TotalDistance += cumulative
		if !r.Empty() {
			summary.VehiclesUsed++
		}
	}

	return &models.RoutingResult{
		Routes:   routes,
		Summary:  summary,
		Warnings: []string{},
	}
}
