package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shuttle-router/internal/database"
	"shuttle-router/internal/models"
)

type runRepository struct {
	store *Store
}

func (r *runRepository) List(ctx context.Context, limit, offset int) ([]models.RunSummary, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var total int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	query := `SELECT id, created_at, notes, strategy, total_staff, vehicles_used, total_distance, stop_reason
	          FROM runs
	          ORDER BY created_at DESC, id
	          LIMIT ? OFFSET ?`

	rows, err := r.store.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunSummary{}
	for rows.Next() {
		var run models.RunSummary
		var notes sql.NullString
		if err := rows.Scan(&run.ID, &run.CreatedAt, &notes, &run.Strategy, &run.TotalStaff,
			&run.VehiclesUsed, &run.TotalDistance, &run.StopReason); err != nil {
			return nil, 0, fmt.Errorf("failed to scan run: %w", err)
		}
		if notes.Valid {
			run.Notes = notes.String
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, total, nil
}

func (r *runRepository) GetByID(ctx context.Context, id string) (*models.RoutingResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	runQuery := `SELECT id, created_at, strategy, stop_reason, total_staff, total_capacity, total_vehicles,
	                    vehicles_used, total_distance, initial_distance, iterations, moves_applied,
	                    elapsed_ms, warnings
	             FROM runs WHERE id = ?`

	var result models.RoutingResult
	var warnings string
	sm := &result.Summary
	err := r.store.db.QueryRowContext(ctx, runQuery, id).Scan(
		&result.RunID, &result.CreatedAt, &sm.Strategy, &sm.StopReason, &sm.TotalStaff, &sm.TotalCapacity,
		&sm.TotalVehicles, &sm.VehiclesUsed, &sm.TotalDistance, &sm.InitialDistance, &sm.Iterations,
		&sm.MovesApplied, &sm.ElapsedMillis, &warnings,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &result.Warnings); err != nil {
		return nil, fmt.Errorf("failed to decode run warnings: %w", err)
	}

	routeRows, err := r.store.db.QueryContext(ctx,
		`SELECT vehicle_id, capacity, total_distance, load FROM run_routes WHERE run_id = ? ORDER BY vehicle_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run routes: %w", err)
	}
	defer routeRows.Close()

	byVehicle := map[int]int{}
	for routeRows.Next() {
		var route models.CalculatedRoute
		if err := routeRows.Scan(&route.VehicleID, &route.Capacity, &route.TotalDistance, &route.Load); err != nil {
			return nil, fmt.Errorf("failed to scan run route: %w", err)
		}
		route.Stops = []models.RouteStop{}
		byVehicle[route.VehicleID] = len(result.Routes)
		result.Routes = append(result.Routes, route)
	}
	if err := routeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run routes: %w", err)
	}

	stopQuery := `SELECT vehicle_id, stop_order, location_index, kind, x, y,
	                     distance_from_prev, cumulative_distance, load
	              FROM run_stops
	              WHERE run_id = ?
	              ORDER BY vehicle_id, stop_order`

	stopRows, err := r.store.db.QueryContext(ctx, stopQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run stops: %w", err)
	}
	defer stopRows.Close()

	for stopRows.Next() {
		var vehicleID int
		var stop models.RouteStop
		if err := stopRows.Scan(&vehicleID, &stop.Order, &stop.LocationIndex, &stop.Kind,
			&stop.Coords.X, &stop.Coords.Y, &stop.DistanceFromPrev, &stop.CumulativeDistance, &stop.Load); err != nil {
			return nil, fmt.Errorf("failed to scan run stop: %w", err)
		}
		idx, ok := byVehicle[vehicleID]
		if !ok {
			return nil, fmt.Errorf("run %s has a stop for unknown vehicle %d", id, vehicleID)
		}
		result.Routes[idx].Stops = append(result.Routes[idx].Stops, stop)
	}
	if err := stopRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run stops: %w", err)
	}

	if result.Routes == nil {
		result.Routes = []models.CalculatedRoute{}
	}
	return &result, nil
}

func (r *runRepository) Create(ctx context.Context, result *models.RoutingResult, notes string) error {
	if result.RunID == "" {
		return fmt.Errorf("failed to create run: missing run id")
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to encode run warnings: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sm := result.Summary
	runQuery := `INSERT INTO runs
	             (id, created_at, notes, strategy, stop_reason, total_staff, total_capacity, total_vehicles,
	              vehicles_used, total_distance, initial_distance, iterations, moves_applied, elapsed_ms, warnings)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, runQuery,
		result.RunID, result.CreatedAt, notes, sm.Strategy, sm.StopReason, sm.TotalStaff, sm.TotalCapacity,
		sm.TotalVehicles, sm.VehiclesUsed, sm.TotalDistance, sm.InitialDistance, sm.Iterations,
		sm.MovesApplied, sm.ElapsedMillis, string(warningsJSON),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("run %s: %w", result.RunID, database.ErrDuplicateRun)
		}
		return fmt.Errorf("failed to create run: %w", err)
	}

	routeQuery := `INSERT INTO run_routes (run_id, vehicle_id, capacity, total_distance, load) VALUES (?, ?, ?, ?, ?)`
	stopQuery := `INSERT INTO run_stops
	              (run_id, vehicle_id, stop_order, location_index, kind, x, y,
	               distance_from_prev, cumulative_distance, load)
	              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, route := range result.Routes {
		if _, err := tx.ExecContext(ctx, routeQuery,
			result.RunID, route.VehicleID, route.Capacity, route.TotalDistance, route.Load); err != nil {
			return fmt.Errorf("failed to create run route: %w", err)
		}
		for _, stop := range route.Stops {
			if _, err := tx.ExecContext(ctx, stopQuery,
				result.RunID, route.VehicleID, stop.Order, stop.LocationIndex, string(stop.Kind),
				stop.Coords.X, stop.Coords.Y, stop.DistanceFromPrev, stop.CumulativeDistance, stop.Load); err != nil {
				return fmt.Errorf("failed to create run stop: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *runRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Foreign key cascade will delete routes and stops
	result, err := r.store.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return database.ErrNotFound
	}

	return nil
}
