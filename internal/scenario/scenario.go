// Package scenario generates reproducible synthetic pickup instances.
package scenario

import (
	"fmt"
	"math/rand"

	"shuttle-router/internal/config"
	"shuttle-router/internal/models"
)

// Box is an axis-aligned sampling area. X is longitude, Y is latitude.
type Box struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Config describes a synthetic instance
type Config struct {
	Seed        int64
	Staff       int
	Vehicles    int
	MinCapacity int
	MaxCapacity int
	Depot       models.Coordinates
	Area        Box
	// DepotStarts puts every vehicle at the depot instead of a random start
	DepotStarts bool
}

// Default mirrors the reference data set: 30 staff and 6 vehicles of capacity 5 to 10
// around a depot in Ebene, Mauritius, seeded with 3.
func Default() Config {
	return Config{
		Seed:        3,
		Staff:       30,
		Vehicles:    6,
		MinCapacity: 5,
		MaxCapacity: 10,
		Depot:       models.Coordinates{X: 57.4924, Y: -20.2430},
		Area:        Box{MinX: 57.3, MaxX: 57.8, MinY: -20.5, MaxY: -20.0},
	}
}

func (c Config) validate() error {
	switch {
	case c.Staff < 0:
		return fmt.Errorf("staff count must not be negative, got %d", c.Staff)
	case c.Vehicles < 1:
		return fmt.Errorf("at least one vehicle is required, got %d", c.Vehicles)
	case c.MinCapacity < 1:
		return fmt.Errorf("minimum capacity must be positive, got %d", c.MinCapacity)
	case c.MaxCapacity < c.MinCapacity:
		return fmt.Errorf("maximum capacity %d is below minimum %d", c.MaxCapacity, c.MinCapacity)
	case c.Area.MaxX < c.Area.MinX || c.Area.MaxY < c.Area.MinY:
		return fmt.Errorf("invalid sampling area %+v", c.Area)
	}
	return nil
}

// Generate builds an instance. Staff are drawn first, then vehicle starts, then
// capacities, so the same seed always yields the same instance.
func Generate(c Config) (*config.Instance, error) {
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	rng := rand.New(rand.NewSource(c.Seed))
	point := func() config.Point {
		y := c.Area.MinY + rng.Float64()*(c.Area.MaxY-c.Area.MinY)
		x := c.Area.MinX + rng.Float64()*(c.Area.MaxX-c.Area.MinX)
		return config.NewPoint(x, y)
	}

	depot := config.NewPoint(c.Depot.X, c.Depot.Y)
	inst := &config.Instance{
		Notes:    fmt.Sprintf("synthetic seed=%d staff=%d vehicles=%d", c.Seed, c.Staff, c.Vehicles),
		Depot:    &depot,
		Staff:    make([]config.Point, c.Staff),
		Vehicles: make([]config.Vehicle, c.Vehicles),
	}

	for i := range inst.Staff {
		inst.Staff[i] = point()
	}
	if !c.DepotStarts {
		for v := range inst.Vehicles {
			start := point()
			inst.Vehicles[v].Start = &start
		}
	}
	for v := range inst.Vehicles {
		inst.Vehicles[v].Capacity = c.MinCapacity + rng.Intn(c.MaxCapacity-c.MinCapacity+1)
	}

	return inst, nil
}
