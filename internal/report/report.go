// Package report renders problem data and routing results for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
)

// PrintData dumps the instance: matrix, demands, capacities, start and end indices, locations
func PrintData(w io.Writer, p *problem.Problem) error {
	var b strings.Builder

	b.WriteString("Distance Matrix:\n")
	for _, row := range p.Matrix().Rows() {
		b.WriteString(formatFloats(row))
		b.WriteByte('\n')
	}

	locations := p.Locations()
	demands := make([]int, len(locations))
	for i, loc := range locations {
		demands[i] = loc.Demand
	}
	vehicles := p.Vehicles()
	capacities := make([]int, len(vehicles))
	starts := make([]int, len(vehicles))
	ends := make([]int, len(vehicles))
	for i, v := range vehicles {
		capacities[i] = v.Capacity
		starts[i] = v.Start
		ends[i] = problem.DepotIndex
	}

	fmt.Fprintf(&b, "\nDemands:\n%s\n", formatInts(demands))
	fmt.Fprintf(&b, "\nVehicle Capacities:\n%s\n", formatInts(capacities))
	fmt.Fprintf(&b, "\nNumber of Vehicles:\n%d\n", len(vehicles))
	fmt.Fprintf(&b, "\nDepot Index:\n%d\n", problem.DepotIndex)
	fmt.Fprintf(&b, "\nVehicle Start Indices:\n%s\n", formatInts(starts))
	fmt.Fprintf(&b, "\nVehicle End Indices:\n%s\n", formatInts(ends))

	b.WriteString("\nLocations:\n")
	for _, loc := range locations {
		fmt.Fprintf(&b, "%d %s (%g, %g)\n", loc.Index, loc.Kind, loc.Coords.X, loc.Coords.Y)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// PrintSolution writes one block per vehicle with its legs, distance and load, then fleet totals
func PrintSolution(w io.Writer, result *models.RoutingResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Total staff: %d\n", result.Summary.TotalStaff)
	fmt.Fprintf(&b, "Total vehicle capacity: %d\n\n", result.Summary.TotalCapacity)

	total := 0.0
	for _, route := range result.Routes {
		fmt.Fprintf(&b, "------ Vehicle %d (capacity: %d) ------\n\n", route.VehicleID, route.Capacity)
		for i := 1; i < len(route.Stops); i++ {
			prev, cur := route.Stops[i-1], route.Stops[i]
			fmt.Fprintf(&b, " #%d : %d -> %d (distance: %.4f, load: %d)\n",
				i, prev.LocationIndex, cur.LocationIndex, cur.DistanceFromPrev, cur.Load)
		}
		fmt.Fprintf(&b, "Total distance: %.4f\n", route.TotalDistance)
		fmt.Fprintf(&b, "Total Load: %d\n\n", route.Load)
		total += route.TotalDistance
	}

	fmt.Fprintf(&b, "Total distance of all routes: %.4f\n", total)
	if result.Summary.StopReason != "" {
		fmt.Fprintf(&b, "Search: strategy=%s initial=%.4f moves=%d stop=%s elapsed=%dms\n",
			result.Summary.Strategy, result.Summary.InitialDistance, result.Summary.MovesApplied,
			result.Summary.StopReason, result.Summary.ElapsedMillis)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", warning)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the result as indented JSON
func WriteJSON(w io.Writer, result *models.RoutingResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
