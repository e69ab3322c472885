package routing

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"shuttle-router/internal/metrics"
	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
)

// solver runs construction followed by local search
type solver struct {
	opts Options
}

// NewRouter creates a router with the given solver options
func NewRouter(opts Options) Router {
	metrics.RegisterDefault()
	return &solver{opts: opts.withDefaults()}
}

func (r *solver) CalculateRoutes(ctx context.Context, p *problem.Problem) (*models.RoutingResult, error) {
	totalStart := time.Now()
	strategy := string(r.opts.Strategy)
	log.Printf("[ROUTING] Starting calculation: staff=%d vehicles=%d strategy=%s policy=%s",
		len(p.StaffIndices()), p.NumVehicles(), r.opts.Strategy, r.opts.Policy)

	s, err := Construct(p, r.opts.Strategy)
	if err != nil {
		metrics.SolveRuns.WithLabelValues(strategy, "infeasible").Inc()
		return nil, err
	}

	initial := Evaluate(p, s)
	if !initial.Feasible {
		metrics.SolveRuns.WithLabelValues(strategy, "error").Inc()
		return nil, fmt.Errorf("construction produced an infeasible solution: %s", strings.Join(initial.Violations, "; "))
	}
	log.Printf("[ROUTING] Constructed: distance=%.4f", initial.TotalDistance)

	stats := SearchStats{
		MovesByKind:     map[string]int{},
		InitialDistance: initial.TotalDistance,
		FinalDistance:   initial.TotalDistance,
		StopReason:      StopLocalOptimum,
	}
	if !r.opts.SkipLocalSearch {
		searchStart := time.Now()
		stats = NewLocalSearch(r.opts).Optimize(ctx, p, s)
		log.Printf("[TIMING] Local search: %v (passes=%d)", time.Since(searchStart), stats.Passes)
	}

	final := Evaluate(p, s)
	if !final.Feasible {
		metrics.SolveRuns.WithLabelValues(strategy, "error").Inc()
		return nil, fmt.Errorf("local search produced an infeasible solution: %s", strings.Join(final.Violations, "; "))
	}

	result := BuildResult(p, s)
	result.RunID = uuid.NewString()
	result.CreatedAt = time.Now().UTC()
	result.Summary.InitialDistance = initial.TotalDistance
	result.Summary.Strategy = strategy
	result.Summary.Iterations = stats.Passes
	result.Summary.MovesApplied = stats.MovesApplied
	result.Summary.StopReason = string(stats.StopReason)
	result.Summary.ElapsedMillis = time.Since(totalStart).Milliseconds()
	if stats.StopReason.BudgetExhausted() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("search stopped early (%s); returning the best solution found", stats.StopReason))
	}

	r.record(stats, initial.TotalDistance, final.TotalDistance, time.Since(totalStart))

	log.Printf("[ROUTING] Complete: run=%s vehicles_used=%d total_distance=%.4f",
		result.RunID, result.Summary.VehiclesUsed, result.Summary.TotalDistance)
	log.Printf("[TIMING] TOTAL: %v", time.Since(totalStart))

	return result, nil
}

func (r *solver) record(stats SearchStats, initial, final float64, elapsed time.Duration) {
	strategy := string(r.opts.Strategy)
	metrics.SolveRuns.WithLabelValues(strategy, "ok").Inc()
	metrics.SolveDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	metrics.SearchStops.WithLabelValues(string(stats.StopReason)).Inc()
	for kind, n := range stats.MovesByKind {
		metrics.MovesApplied.WithLabelValues(kind).Add(float64(n))
	}
	if initial > 0 {
		metrics.Improvement.Observe((initial - final) / initial)
	}
}
