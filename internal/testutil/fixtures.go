package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
)

// LineInput places the depot at the origin and three staff at (1,0), (2,0), (3,0).
// One depot-start vehicle is added per capacity.
func LineInput(capacities ...int) problem.Input {
	in := problem.Input{
		Depot: models.Coordinates{X: 0, Y: 0},
		Staff: []models.Coordinates{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}},
	}
	for _, c := range capacities {
		in.Vehicles = append(in.Vehicles, problem.VehicleInput{Capacity: c})
	}
	return in
}

// GridInput lays staff on a deterministic scattered pattern with vehicles starting
// around the depot. Useful for property tests that need more than a handful of stops.
func GridInput(staff, vehicles, capacity int) problem.Input {
	in := problem.Input{Depot: models.Coordinates{X: 0, Y: 0}}
	for i := 0; i < staff; i++ {
		in.Staff = append(in.Staff, models.Coordinates{
			X: float64((i*37)%23) - 11.5,
			Y: float64((i*53)%19) - 9.25,
		})
	}
	for v := 0; v < vehicles; v++ {
		vi := problem.VehicleInput{Capacity: capacity}
		if v%2 == 1 {
			vi.Start = &models.Coordinates{X: float64(v*3 - 6), Y: float64(7 - v*2)}
		}
		in.Vehicles = append(in.Vehicles, vi)
	}
	return in
}

// NewProblem builds a problem and fails the test on error
func NewProblem(t testing.TB, in problem.Input) *problem.Problem {
	t.Helper()
	p, err := problem.New(context.Background(), in, problem.Options{})
	require.NoError(t, err)
	return p
}

// SampleResult returns a small two-vehicle routing result with the given run ID
func SampleResult(id string) *models.RoutingResult {
	return &models.RoutingResult{
		RunID:     id,
		CreatedAt: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
		Routes: []models.CalculatedRoute{
			{
				VehicleID: 0,
				Capacity:  2,
				Stops: []models.RouteStop{
					{Order: 0, LocationIndex: 0, Kind: models.KindDepot, Coords: models.Coordinates{X: 0, Y: 0}},
					{Order: 1, LocationIndex: 1, Kind: models.KindStaff, Coords: models.Coordinates{X: 1, Y: 0}, DistanceFromPrev: 1, CumulativeDistance: 1, Load: 1},
					{Order: 2, LocationIndex: 0, Kind: models.KindDepot, Coords: models.Coordinates{X: 0, Y: 0}, DistanceFromPrev: 1, CumulativeDistance: 2, Load: 1},
				},
				TotalDistance: 2,
				Load:          1,
			},
			{
				VehicleID: 1,
				Capacity:  2,
				Stops: []models.RouteStop{
					{Order: 0, LocationIndex: 0, Kind: models.KindDepot, Coords: models.Coordinates{X: 0, Y: 0}},
					{Order: 1, LocationIndex: 2, Kind: models.KindStaff, Coords: models.Coordinates{X: 2, Y: 0}, DistanceFromPrev: 2, CumulativeDistance: 2, Load: 1},
					{Order: 2, LocationIndex: 3, Kind: models.KindStaff, Coords: models.Coordinates{X: 3, Y: 0}, DistanceFromPrev: 1, CumulativeDistance: 3, Load: 2},
					{Order: 3, LocationIndex: 0, Kind: models.KindDepot, Coords: models.Coordinates{X: 0, Y: 0}, DistanceFromPrev: 3, CumulativeDistance: 6, Load: 2},
				},
				TotalDistance: 6,
				Load:          2,
			},
		},
		Summary: models.RoutingSummary{
			TotalStaff:      3,
			TotalCapacity:   4,
			TotalVehicles:   2,
			VehiclesUsed:    2,
			TotalDistance:   8,
			InitialDistance: 10,
			Strategy:        "nearest_arc",
			Iterations:      2,
			MovesApplied:    1,
			StopReason:      "local_optimum",
			ElapsedMillis:   3,
		},
		Warnings: []string{},
	}
}
