package routing

import (
	"shuttle-router/internal/problem"
)

// Route is the ordered list of location indices visited by one vehicle.
// Stops[0] is the vehicle start and the last stop is the depot.
type Route struct {
	Vehicle int
	Stops   []int
}

// Staff returns the interior stops of the route
func (r *Route) Staff() []int {
	if len(r.Stops) < 2 {
		return nil
	}
	return r.Stops[1 : len(r.Stops)-1]
}

// Empty reports whether the route picks nobody up
func (r *Route) Empty() bool {
	return len(r.Stops) <= 2
}

// Solution holds one route per vehicle, indexed by vehicle ID
type Solution struct {
	Routes []Route
}

// newSolution returns trivial start -> depot routes for every vehicle
func newSolution(p *problem.Problem) *Solution {
	s := &Solution{Routes: make([]Route, p.NumVehicles())}
	for v, veh := range p.Vehicles() {
		s.Routes[v] = Route{Vehicle: v, Stops: []int{veh.Start, problem.DepotIndex}}
	}
	return s
}

// Clone returns a deep copy of the solution
func (s *Solution) Clone() *Solution {
	out := &Solution{Routes: make([]Route, len(s.Routes))}
	for i, r := range s.Routes {
		stops := make([]int, len(r.Stops))
		copy(stops, r.Stops)
		out.Routes[i] = Route{Vehicle: r.Vehicle, Stops: stops}
	}
	return out
}

// load returns the demand carried by route v when it reaches the depot
func (s *Solution) load(p *problem.Problem, v int) int {
	total := 0
	for _, stop := range s.Routes[v].Staff() {
		total += p.Demand(stop)
	}
	return total
}

// insertAt inserts loc before position pos
func insertAt(stops []int, loc, pos int) []int {
	out := make([]int, 0, len(stops)+1)
	out = append(out, stops[:pos]...)
	out = append(out, loc)
	out = append(out, stops[pos:]...)
	return out
}

// removeAt removes the element at position pos
func removeAt(stops []int, pos int) []int {
	out := make([]int, 0, len(stops)-1)
	out = append(out, stops[:pos]...)
	out = append(out, stops[pos+1:]...)
	return out
}

// reverse reverses stops[i..j] in place
func reverse(stops []int, i, j int) {
	for i < j {
		stops[i], stops[j] = stops[j], stops[i]
		i++
		j--
	}
}
