package routing

import (
	"fmt"
	"log"
	"math"
	"time"

	"shuttle-router/internal/problem"
)

// Construct builds an initial feasible solution with the given strategy.
// Staff left over once every vehicle is full yields an InfeasibleError.
func Construct(p *problem.Problem, strategy Strategy) (*Solution, error) {
	start := time.Now()

	var s *Solution
	switch strategy {
	case StrategyNearestArc, "":
		s = nearestArc(p)
	case StrategyRoundRobinArc:
		s = roundRobinArc(p)
	case StrategyCheapestInsertion:
		s = cheapestInsertion(p)
	default:
		return nil, fmt.Errorf("unknown construction strategy %q", strategy)
	}

	assigned := 0
	for v := range s.Routes {
		assigned += len(s.Routes[v].Staff())
	}
	if unassigned := len(p.StaffIndices()) - assigned; unassigned > 0 {
		log.Printf("[CONSTRUCT] Infeasible: strategy=%s unassigned=%d", strategy, unassigned)
		return nil, &problem.InfeasibleError{
			Reason:        "staff left unassigned after every vehicle was filled",
			TotalDemand:   p.TotalDemand(),
			TotalCapacity: p.TotalCapacity(),
			Unassigned:    unassigned,
		}
	}

	log.Printf("[TIMING] Construction (%s): %v", strategy, time.Since(start))
	return s, nil
}

// nearestFit returns the unassigned staff location nearest to from whose demand fits
// in the remaining capacity. Ties go to the lowest location index. Returns -1 if none fits.
func nearestFit(p *problem.Problem, from int, remaining int, staff []int, assigned []bool) int {
	best := -1
	bestDist := math.Inf(1)
	for _, idx := range staff {
		if assigned[idx] || p.Demand(idx) > remaining {
			continue
		}
		// staff is ascending, so strict < keeps the lowest index on ties
		if d := p.Distance(from, idx); d < bestDist {
			best = idx
			bestDist = d
		}
	}
	return best
}

// nearestArc fills vehicles one after another in declaration order
func nearestArc(p *problem.Problem) *Solution {
	s := newSolution(p)
	staff := p.StaffIndices()
	assigned := make([]bool, p.NumLocations())
	left := len(staff)

	for v, veh := range p.Vehicles() {
		tail := veh.Start
		remaining := veh.Capacity
		body := []int{veh.Start}
		for left > 0 {
			next := nearestFit(p, tail, remaining, staff, assigned)
			if next < 0 {
				break
			}
			assigned[next] = true
			left--
			remaining -= p.Demand(next)
			body = append(body, next)
			tail = next
		}
		s.Routes[v].Stops = append(body, problem.DepotIndex)
	}
	return s
}

// roundRobinArc gives each open vehicle one nearest pick per round until nothing fits
func roundRobinArc(p *problem.Problem) *Solution {
	vehicles := p.Vehicles()
	staff := p.StaffIndices()
	assigned := make([]bool, p.NumLocations())
	left := len(staff)

	bodies := make([][]int, len(vehicles))
	remaining := make([]int, len(vehicles))
	open := make([]bool, len(vehicles))
	for v, veh := range vehicles {
		bodies[v] = []int{veh.Start}
		remaining[v] = veh.Capacity
		open[v] = true
	}

	for progress := true; progress && left > 0; {
		progress = false
		for v := range vehicles {
			if !open[v] || left == 0 {
				continue
			}
			tail := bodies[v][len(bodies[v])-1]
			next := nearestFit(p, tail, remaining[v], staff, assigned)
			if next < 0 {
				open[v] = false
				continue
			}
			assigned[next] = true
			left--
			remaining[v] -= p.Demand(next)
			bodies[v] = append(bodies[v], next)
			progress = true
		}
	}

	s := newSolution(p)
	for v := range vehicles {
		s.Routes[v].Stops = append(bodies[v], problem.DepotIndex)
	}
	return s
}

// cheapestInsertion repeatedly commits the (staff, vehicle, position) insertion that adds the
// least distance. Ties go to the lowest staff index, then vehicle, then position.
func cheapestInsertion(p *problem.Problem) *Solution {
	s := newSolution(p)
	staff := p.StaffIndices()
	assigned := make([]bool, p.NumLocations())
	loads := make([]int, p.NumVehicles())

	for left := len(staff); left > 0; left-- {
		bestCost := math.Inf(1)
		bestLoc, bestVehicle, bestPos := -1, -1, -1

		for _, loc := range staff {
			if assigned[loc] {
				continue
			}
			for v := range s.Routes {
				if loads[v]+p.Demand(loc) > p.Vehicle(v).Capacity {
					continue
				}
				stops := s.Routes[v].Stops
				for pos := 1; pos < len(stops); pos++ {
					cost := insertionDelta(p, stops[pos-1], loc, stops[pos])
					if cost < bestCost {
						bestCost = cost
						bestLoc, bestVehicle, bestPos = loc, v, pos
					}
				}
			}
		}

		if bestLoc < 0 {
			// every vehicle is full
			break
		}
		s.Routes[bestVehicle].Stops = insertAt(s.Routes[bestVehicle].Stops, bestLoc, bestPos)
		assigned[bestLoc] = true
		loads[bestVehicle] += p.Demand(bestLoc)
	}
	return s
}

// insertionDelta is the added distance of visiting loc between a and b
func insertionDelta(p *problem.Problem, a, loc, b int) float64 {
	return p.Distance(a, loc) + p.Distance(loc, b) - p.Distance(a, b)
}
