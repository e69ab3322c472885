package routing

import (
	"context"
	"fmt"
	"time"

	"shuttle-router/internal/models"
	"shuttle-router/internal/problem"
)

// Strategy selects how the initial solution is constructed
type Strategy string

const (
	StrategyNearestArc        Strategy = "nearest_arc"        // one vehicle at a time, nearest fitting staff from the tail
	StrategyRoundRobinArc     Strategy = "round_robin_arc"    // one nearest pick per vehicle per round
	StrategyCheapestInsertion Strategy = "cheapest_insertion" // global cheapest (staff, vehicle, position) insertion
)

// ParseStrategy maps a configuration string to a Strategy. Empty means the default.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyNearestArc, nil
	case StrategyNearestArc, StrategyRoundRobinArc, StrategyCheapestInsertion:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown construction strategy %q", s)
}

// Policy selects which improving move the local search commits each pass
type Policy string

const (
	PolicyBestImprovement  Policy = "best_improvement"
	PolicyFirstImprovement Policy = "first_improvement"
)

// ParsePolicy maps a configuration string to a Policy. Empty means the default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyBestImprovement, nil
	case PolicyBestImprovement, PolicyFirstImprovement:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown search policy %q", s)
}

// StopReason tells why the local search ended
type StopReason string

const (
	StopLocalOptimum    StopReason = "local_optimum"
	StopIterationBudget StopReason = "iteration_budget"
	StopTimeBudget      StopReason = "time_budget"
	StopCancelled       StopReason = "cancelled"
)

// BudgetExhausted reports whether the search ended before reaching a local optimum
func (r StopReason) BudgetExhausted() bool {
	return r == StopIterationBudget || r == StopTimeBudget || r == StopCancelled
}

const (
	// DefaultTimeLimit bounds a search when no limit is configured
	DefaultTimeLimit = 30 * time.Second
	// DefaultEpsilon is the smallest cost decrease counted as an improvement
	DefaultEpsilon = 1e-9
)

// Options is the explicit solver configuration handed to a Router
type Options struct {
	Strategy Strategy
	Policy   Policy
	// MaxIterations caps applied moves. Zero means unlimited.
	MaxIterations int
	// TimeLimit bounds the local search. Zero means DefaultTimeLimit, negative means unlimited.
	TimeLimit time.Duration
	// Workers bounds concurrent candidate scanning. Zero means GOMAXPROCS.
	Workers int
	Epsilon float64
	// SkipLocalSearch returns the constructed solution unchanged.
	SkipLocalSearch bool
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyNearestArc
	}
	if o.Policy == "" {
		o.Policy = PolicyBestImprovement
	}
	if o.TimeLimit == 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	return o
}

// Router provides route optimization
type Router interface {
	CalculateRoutes(ctx context.Context, p *problem.Problem) (*models.RoutingResult, error)
}
