package routing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-router/internal/testutil"
)

func TestOptimize_TwoVehicleScenario(t *testing.T) {
	p := testutil.NewProblem(t, testutil.LineInput(2, 2))
	s := constructed(t, p)

	stats := NewLocalSearch(Options{}).Optimize(context.Background(), p, s)

	ev := Evaluate(p, s)
	require.True(t, ev.Feasible, "violations: %v", ev.Violations)
	for v, loads := range ev.Loads {
		assert.LessOrEqual(t, loads[len(loads)-1], 2, "vehicle %d", v)
	}
	// one vehicle takes (1,0) alone, the other sweeps (2,0) and (3,0)
	assert.InDelta(t, 8.0, ev.TotalDistance, 1e-9)
	assert.LessOrEqual(t, ev.TotalDistance, 10.0)
	assert.Equal(t, StopLocalOptimum, stats.StopReason)
	assert.InDelta(t, ev.TotalDistance, stats.FinalDistance, 1e-12)
}

func TestOptimize_LineScenarioAlreadyOptimal(t *testing.T) {
	p := testutil.NewProblem(t, testutil.LineInput(3))
	s, err := Construct(p, StrategyNearestArc)
	require.NoError(t, err)

	stats := NewLocalSearch(Options{}).Optimize(context.Background(), p, s)

	assert.Equal(t, []int{0, 1, 2, 3, 0}, s.Routes[0].Stops)
	assert.Equal(t, 0, stats.MovesApplied)
	assert.Equal(t, 1, stats.Passes)
	assert.InDelta(t, 6.0, stats.FinalDistance, 1e-9)
}

func TestOptimize_Monotonic(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(30, 6, 6))

	for _, strategy := range allStrategies {
		for _, policy := range []Policy{PolicyBestImprovement, PolicyFirstImprovement} {
			t.Run(string(strategy)+"/"+string(policy), func(t *testing.T) {
				s, err := Construct(p, strategy)
				require.NoError(t, err)
				before := TotalDistance(p, s)

				stats := NewLocalSearch(Options{Policy: policy}).Optimize(context.Background(), p, s)

				ev := Evaluate(p, s)
				require.True(t, ev.Feasible, "violations: %v", ev.Violations)
				assert.LessOrEqual(t, ev.TotalDistance, before+1e-9)
				assert.InDelta(t, before, stats.InitialDistance, 1e-12)
				assert.Equal(t, StopLocalOptimum, stats.StopReason)
			})
		}
	}
}

func TestOptimize_EveryMoveImproves(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(20, 4, 6))
	s := constructed(t, p)

	// step one move at a time and check the total strictly drops
	prev := TotalDistance(p, s)
	for i := 0; i < 200; i++ {
		stats := NewLocalSearch(Options{MaxIterations: 1}).Optimize(context.Background(), p, s)
		cur := TotalDistance(p, s)
		if stats.MovesApplied == 0 {
			assert.Equal(t, StopLocalOptimum, stats.StopReason)
			break
		}
		assert.Less(t, cur, prev)
		require.True(t, Evaluate(p, s).Feasible)
		prev = cur
	}
}

func TestOptimize_DeterministicAcrossWorkerCounts(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(30, 6, 6))

	run := func(workers int) (*Solution, SearchStats) {
		s := constructed(t, p)
		stats := NewLocalSearch(Options{Workers: workers}).Optimize(context.Background(), p, s)
		return s, stats
	}

	serial, serialStats := run(1)
	for _, workers := range []int{2, 8} {
		parallel, parallelStats := run(workers)
		assert.Equal(t, serial, parallel, "workers=%d", workers)
		assert.Equal(t, serialStats.MovesApplied, parallelStats.MovesApplied)
		assert.Equal(t, serialStats.FinalDistance, parallelStats.FinalDistance)
	}
}

func TestOptimize_IterationBudget(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(30, 6, 6))
	s := constructed(t, p)
	before := TotalDistance(p, s)

	stats := NewLocalSearch(Options{MaxIterations: 2}).Optimize(context.Background(), p, s)

	assert.Equal(t, StopIterationBudget, stats.StopReason)
	assert.True(t, stats.StopReason.BudgetExhausted())
	assert.Equal(t, 2, stats.MovesApplied)
	assert.Less(t, stats.FinalDistance, before)
	assert.True(t, Evaluate(p, s).Feasible)
}

func TestOptimize_TimeBudget(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(30, 6, 6))
	s := constructed(t, p)
	before := s.Clone()

	ls := NewLocalSearch(Options{TimeLimit: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ls.clock = func() time.Time {
		now = now.Add(time.Hour)
		return now
	}

	stats := ls.Optimize(context.Background(), p, s)

	assert.Equal(t, StopTimeBudget, stats.StopReason)
	assert.Equal(t, 0, stats.MovesApplied)
	assert.Equal(t, before, s)
}

func TestOptimize_Cancelled(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(30, 6, 6))
	s := constructed(t, p)
	before := TotalDistance(p, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := NewLocalSearch(Options{}).Optimize(ctx, p, s)

	assert.Equal(t, StopCancelled, stats.StopReason)
	assert.Equal(t, before, stats.FinalDistance)
}

func TestOptimize_RespectsCapacityWithVehicleStarts(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(18, 6, 3))
	s := constructed(t, p)

	NewLocalSearch(Options{}).Optimize(context.Background(), p, s)

	ev := Evaluate(p, s)
	require.True(t, ev.Feasible, "violations: %v", ev.Violations)
	for v, loads := range ev.Loads {
		for _, l := range loads {
			assert.LessOrEqual(t, l, p.Vehicle(v).Capacity)
		}
		assert.Equal(t, p.Vehicle(v).Start, s.Routes[v].Stops[0])
	}
}

func TestOptimize_ReachesLocalOptimum(t *testing.T) {
	p := testutil.NewProblem(t, testutil.GridInput(16, 4, 5))
	s := constructed(t, p)

	NewLocalSearch(Options{}).Optimize(context.Background(), p, s)

	loads := make([]int, len(s.Routes))
	for v := range s.Routes {
		loads[v] = s.load(p, v)
	}
	for _, m := range enumerateMoves(s) {
		if r, ok := m.(Relocate); ok && loads[r.To]+1 > p.Vehicle(r.To).Capacity {
			continue
		}
		assert.GreaterOrEqual(t, m.Delta(p, s), -DefaultEpsilon, "%s %+v", m.Kind(), m)
	}
}
