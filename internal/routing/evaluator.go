package routing

import (
	"fmt"

	"shuttle-router/internal/problem"
)

// Evaluation is the scored view of a solution
type Evaluation struct {
	TotalDistance  float64
	RouteDistances []float64
	// Loads holds, per route, the cumulative demand after each stop. The depot adds nothing.
	Loads      [][]int
	Feasible   bool
	Violations []string
}

// RouteDistance sums consecutive-pair distances along a route, closing depot leg included
func RouteDistance(p *problem.Problem, r Route) float64 {
	total := 0.0
	for i := 1; i < len(r.Stops); i++ {
		total += p.Distance(r.Stops[i-1], r.Stops[i])
	}
	return total
}

// TotalDistance sums RouteDistance over every route
func TotalDistance(p *problem.Problem, s *Solution) float64 {
	total := 0.0
	for _, r := range s.Routes {
		total += RouteDistance(p, r)
	}
	return total
}

// RouteLoads returns the prefix demand at every stop of the route
func RouteLoads(p *problem.Problem, r Route) []int {
	loads := make([]int, len(r.Stops))
	load := 0
	for i, stop := range r.Stops {
		if stop > problem.DepotIndex && stop < p.NumLocations() {
			load += p.Demand(stop)
		}
		loads[i] = load
	}
	return loads
}

// Evaluate scores a solution and checks it against the routing invariants
func Evaluate(p *problem.Problem, s *Solution) Evaluation {
	ev := Evaluation{
		RouteDistances: make([]float64, len(s.Routes)),
		Loads:          make([][]int, len(s.Routes)),
	}

	if len(s.Routes) != p.NumVehicles() {
		ev.Violations = append(ev.Violations,
			fmt.Sprintf("solution has %d routes for %d vehicles", len(s.Routes), p.NumVehicles()))
	}

	visits := make(map[int]int, len(p.StaffIndices()))
	for v, r := range s.Routes {
		ev.RouteDistances[v] = RouteDistance(p, r)
		ev.TotalDistance += ev.RouteDistances[v]
		ev.Loads[v] = RouteLoads(p, r)

		if v >= p.NumVehicles() {
			continue
		}
		veh := p.Vehicle(v)

		if r.Vehicle != v {
			ev.Violations = append(ev.Violations, fmt.Sprintf("route %d is labelled vehicle %d", v, r.Vehicle))
		}
		if len(r.Stops) < 2 {
			ev.Violations = append(ev.Violations, fmt.Sprintf("route %d has %d stops, need start and depot", v, len(r.Stops)))
			continue
		}
		if r.Stops[0] != veh.Start {
			ev.Violations = append(ev.Violations, fmt.Sprintf("route %d starts at %d, vehicle starts at %d", v, r.Stops[0], veh.Start))
		}
		if last := r.Stops[len(r.Stops)-1]; last != problem.DepotIndex {
			ev.Violations = append(ev.Violations, fmt.Sprintf("route %d ends at %d, not the depot", v, last))
		}
		for pos, stop := range r.Staff() {
			if stop < 0 || stop >= p.NumLocations() || p.Demand(stop) == 0 {
				ev.Violations = append(ev.Violations, fmt.Sprintf("route %d position %d visits non-staff location %d", v, pos+1, stop))
				continue
			}
			visits[stop]++
		}
		for pos, load := range ev.Loads[v] {
			if load > veh.Capacity {
				ev.Violations = append(ev.Violations,
					fmt.Sprintf("route %d exceeds capacity at position %d (load=%d capacity=%d)", v, pos, load, veh.Capacity))
				break
			}
		}
	}

	for _, idx := range p.StaffIndices() {
		if n := visits[idx]; n != 1 {
			ev.Violations = append(ev.Violations, fmt.Sprintf("staff location %d visited %d times", idx, n))
		}
	}

	ev.Feasible = len(ev.Violations) == 0
	return ev
}
