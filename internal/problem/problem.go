// Package problem holds the immutable description of a pickup routing instance:
// one depot, staff locations with unit demand, and a fleet of capacitated vehicles
// that each start at their own location and finish at the depot.
package problem

import (
	"context"
	"errors"
	"fmt"
	"log"

	"shuttle-router/internal/distance"
	"shuttle-router/internal/models"
)

// StaffDemand is the passenger count contributed by every staff location
const StaffDemand = 1

// DepotIndex is the location index of the depot
const DepotIndex = 0

// VehicleInput describes one vehicle as read from configuration
type VehicleInput struct {
	Capacity int
	// Start is where the vehicle begins; nil means the depot.
	Start *models.Coordinates
}

// Input is the raw instance handed over by the configuration layer
type Input struct {
	Depot    models.Coordinates
	Staff    []models.Coordinates
	Vehicles []VehicleInput
}

// Options controls how the problem model is built
type Options struct {
	Distance distance.Options
}

// Location is a point of the instance
type Location struct {
	Index  int
	Coords models.Coordinates
	Demand int
	Kind   models.LocationKind
}

// Vehicle is a capacitated vehicle with a fixed start location
type Vehicle struct {
	ID       int
	Capacity int
	Start    int
}

// Problem is a validated, read-only routing instance
type Problem struct {
	locations     []Location
	vehicles      []Vehicle
	staff         []int
	matrix        *distance.Matrix
	totalDemand   int
	totalCapacity int
}

// New validates the input and builds the location table and distance matrix.
// Locations are laid out as depot, staff in input order, then vehicle starts
// for vehicles that do not start at the depot.
func New(ctx context.Context, in Input, opts Options) (*Problem, error) {
	if len(in.Vehicles) == 0 {
		return nil, &MalformedInputError{Field: "vehicles", Reason: "at least one vehicle is required"}
	}
	if !distance.ValidCoordinates(in.Depot) {
		return nil, &MalformedInputError{Field: "depot", Reason: "coordinates must be finite"}
	}
	for i, s := range in.Staff {
		if !distance.ValidCoordinates(s) {
			return nil, &MalformedInputError{Field: fmt.Sprintf("staff[%d]", i), Reason: "coordinates must be finite"}
		}
	}
	for i, v := range in.Vehicles {
		if v.Capacity <= 0 {
			return nil, &MalformedInputError{
				Field:  fmt.Sprintf("vehicles[%d].capacity", i),
				Reason: fmt.Sprintf("must be positive, got %d", v.Capacity),
			}
		}
		if v.Start != nil && !distance.ValidCoordinates(*v.Start) {
			return nil, &MalformedInputError{Field: fmt.Sprintf("vehicles[%d].start", i), Reason: "coordinates must be finite"}
		}
	}

	p := &Problem{
		locations: make([]Location, 0, 1+len(in.Staff)+len(in.Vehicles)),
		vehicles:  make([]Vehicle, len(in.Vehicles)),
		staff:     make([]int, len(in.Staff)),
	}

	p.locations = append(p.locations, Location{Index: DepotIndex, Coords: in.Depot, Kind: models.KindDepot})
	for i, s := range in.Staff {
		idx := len(p.locations)
		p.locations = append(p.locations, Location{Index: idx, Coords: s, Demand: StaffDemand, Kind: models.KindStaff})
		p.staff[i] = idx
		p.totalDemand += StaffDemand
	}
	for i, v := range in.Vehicles {
		start := DepotIndex
		if v.Start != nil {
			start = len(p.locations)
			p.locations = append(p.locations, Location{Index: start, Coords: *v.Start, Kind: models.KindVehicleStart})
		}
		p.vehicles[i] = Vehicle{ID: i, Capacity: v.Capacity, Start: start}
		p.totalCapacity += v.Capacity
	}

	if err := p.checkDepot(); err != nil {
		return nil, err
	}

	if p.totalDemand > p.totalCapacity {
		log.Printf("[PROBLEM] Infeasible: demand=%d capacity=%d vehicles=%d", p.totalDemand, p.totalCapacity, len(p.vehicles))
		return nil, &InfeasibleError{
			Reason:        "total staff demand exceeds total vehicle capacity",
			TotalDemand:   p.totalDemand,
			TotalCapacity: p.totalCapacity,
		}
	}

	points := make([]models.Coordinates, len(p.locations))
	for i, loc := range p.locations {
		points[i] = loc.Coords
	}
	matrix, err := distance.NewMatrix(ctx, points, opts.Distance)
	if err != nil {
		if errors.Is(err, distance.ErrInvalidCoordinates) {
			return nil, &MalformedInputError{Field: "coordinates", Reason: "distance matrix", Err: err}
		}
		return nil, err
	}
	p.matrix = matrix

	log.Printf("[PROBLEM] Built: locations=%d staff=%d vehicles=%d demand=%d capacity=%d",
		len(p.locations), len(p.staff), len(p.vehicles), p.totalDemand, p.totalCapacity)

	return p, nil
}

func (p *Problem) checkDepot() error {
	depots := 0
	for _, loc := range p.locations {
		if loc.Kind == models.KindDepot {
			depots++
			if loc.Demand != 0 {
				return &MalformedInputError{Field: "depot", Reason: "depot must have zero demand"}
			}
		}
	}
	if depots != 1 || p.locations[DepotIndex].Kind != models.KindDepot {
		return &MalformedInputError{Field: "depot", Reason: fmt.Sprintf("exactly one depot at index %d required, found %d", DepotIndex, depots)}
	}
	return nil
}

// NumLocations returns the number of locations, depot and vehicle starts included
func (p *Problem) NumLocations() int { return len(p.locations) }

// NumVehicles returns the fleet size
func (p *Problem) NumVehicles() int { return len(p.vehicles) }

// Location returns location i
func (p *Problem) Location(i int) Location { return p.locations[i] }

// Locations returns a copy of the location table
func (p *Problem) Locations() []Location {
	out := make([]Location, len(p.locations))
	copy(out, p.locations)
	return out
}

// Depot returns the depot location
func (p *Problem) Depot() Location { return p.locations[DepotIndex] }

// Vehicle returns vehicle v
func (p *Problem) Vehicle(v int) Vehicle { return p.vehicles[v] }

// Vehicles returns a copy of the fleet
func (p *Problem) Vehicles() []Vehicle {
	out := make([]Vehicle, len(p.vehicles))
	copy(out, p.vehicles)
	return out
}

// StaffIndices returns the location indices that carry demand, in ascending order
func (p *Problem) StaffIndices() []int {
	out := make([]int, len(p.staff))
	copy(out, p.staff)
	return out
}

// Demand returns the demand of location i
func (p *Problem) Demand(i int) int { return p.locations[i].Demand }

// Distance returns the precomputed distance between locations i and j
func (p *Problem) Distance(i, j int) float64 { return p.matrix.At(i, j) }

// Matrix returns the distance matrix
func (p *Problem) Matrix() *distance.Matrix { return p.matrix }

// TotalDemand returns the sum of staff demand
func (p *Problem) TotalDemand() int { return p.totalDemand }

// TotalCapacity returns the sum of vehicle capacities
func (p *Problem) TotalCapacity() int { return p.totalCapacity }
