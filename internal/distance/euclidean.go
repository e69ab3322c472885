package distance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"shuttle-router/internal/models"
)

// ErrInvalidCoordinates is returned when a point has a NaN or infinite component,
// or when points lie so far apart that distances or route totals overflow
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Options controls how a distance matrix is built
type Options struct {
	// Workers bounds the goroutines filling matrix rows. Zero means GOMAXPROCS.
	Workers int
	// Scale multiplies every distance. Zero means 1.
	Scale float64
	// Truncate drops the fractional part after scaling.
	Truncate bool
}

// Euclidean returns the straight-line distance between two points
func Euclidean(a, b models.Coordinates) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// ValidCoordinates reports whether both components are finite
func ValidCoordinates(c models.Coordinates) bool {
	return !math.IsNaN(c.X) && !math.IsNaN(c.Y) && !math.IsInf(c.X, 0) && !math.IsInf(c.Y, 0)
}

// Matrix is a dense symmetric distance matrix with a zero diagonal
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix computes all pairwise Euclidean distances between points.
// Rows are filled concurrently; each goroutine owns the upper-triangle cells of its rows.
func NewMatrix(ctx context.Context, points []models.Coordinates, opts Options) (*Matrix, error) {
	for i, p := range points {
		if !ValidCoordinates(p) {
			return nil, fmt.Errorf("point %d (%v, %v): %w", i, p.X, p.Y, ErrInvalidCoordinates)
		}
	}

	n := len(points)
	m := &Matrix{n: n, data: make([]float64, n*n)}
	if n < 2 {
		return m, nil
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n-1; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				d := Euclidean(points[i], points[j]) * scale
				if opts.Truncate {
					d = math.Trunc(d)
				}
				if math.IsInf(d, 0) || math.IsNaN(d) {
					return fmt.Errorf("distance between points %d and %d overflows: %w", i, j, ErrInvalidCoordinates)
				}
				m.data[i*n+j] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build distance matrix: %w", err)
	}

	// Mirror after all writers finished so every reader sees an exactly symmetric matrix
	longest := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.data[j*n+i] = m.data[i*n+j]
			longest = math.Max(longest, m.data[i*n+j])
		}
	}

	// no route visits more than n+1 arcs, so this bounds every route total and move delta
	if math.IsInf(longest*float64(n+1), 0) {
		return nil, fmt.Errorf("longest distance %g overflows route totals: %w", longest, ErrInvalidCoordinates)
	}

	return m, nil
}

// Size returns the number of points in the matrix
func (m *Matrix) Size() int {
	return m.n
}

// At returns the distance between points i and j
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.n+j]
}

// Row returns a copy of row i
func (m *Matrix) Row(i int) []float64 {
	row := make([]float64, m.n)
	copy(row, m.data[i*m.n:(i+1)*m.n])
	return row
}

// Rows returns the whole matrix as nested slices
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}
