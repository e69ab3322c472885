package routing

import (
	"context"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"shuttle-router/internal/problem"
)

// SearchStats describes one local search run
type SearchStats struct {
	Passes          int
	MovesApplied    int
	MovesByKind     map[string]int
	InitialDistance float64
	FinalDistance   float64
	StopReason      StopReason
	Elapsed         time.Duration
}

// LocalSearch improves a feasible solution with 2-opt, relocate and swap moves
type LocalSearch struct {
	opts  Options
	clock func() time.Time
}

// NewLocalSearch creates a local search with the given options
func NewLocalSearch(opts Options) *LocalSearch {
	return &LocalSearch{opts: opts.withDefaults(), clock: time.Now}
}

type candidate struct {
	move  Move
	delta float64
}

// Optimize mutates s in place until no move improves it or a budget runs out.
// Budgets and ctx are only checked between passes; s stays feasible throughout.
func (ls *LocalSearch) Optimize(ctx context.Context, p *problem.Problem, s *Solution) SearchStats {
	start := ls.clock()
	stats := SearchStats{
		MovesByKind:     map[string]int{},
		InitialDistance: TotalDistance(p, s),
	}

	for {
		if ctx.Err() != nil {
			stats.StopReason = StopCancelled
			break
		}
		if ls.opts.MaxIterations > 0 && stats.MovesApplied >= ls.opts.MaxIterations {
			stats.StopReason = StopIterationBudget
			break
		}
		if ls.opts.TimeLimit > 0 && ls.clock().Sub(start) >= ls.opts.TimeLimit {
			stats.StopReason = StopTimeBudget
			break
		}

		stats.Passes++
		best, found := ls.scan(p, s)
		if !found {
			stats.StopReason = StopLocalOptimum
			break
		}

		best.move.Apply(s)
		stats.MovesApplied++
		stats.MovesByKind[best.move.Kind().String()]++
		log.Printf("[SEARCH] Applied %s: key=%+v delta=%.6f", best.move.Kind(), best.move.Key(), best.delta)
	}

	stats.FinalDistance = TotalDistance(p, s)
	stats.Elapsed = ls.clock().Sub(start)
	log.Printf("[SEARCH] Done: reason=%s passes=%d moves=%d initial=%.4f final=%.4f",
		stats.StopReason, stats.Passes, stats.MovesApplied, stats.InitialDistance, stats.FinalDistance)
	return stats
}

// scan evaluates every feasible move and returns the one the policy commits.
// Routes are scanned concurrently against a solution nobody mutates until scan returns.
func (ls *LocalSearch) scan(p *problem.Problem, s *Solution) (candidate, bool) {
	loads := make([]int, len(s.Routes))
	for v := range s.Routes {
		loads[v] = s.load(p, v)
	}

	workers := ls.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]candidate, len(s.Routes))
	found := make([]bool, len(s.Routes))

	var g errgroup.Group
	g.SetLimit(workers)
	for r := range s.Routes {
		g.Go(func() error {
			results[r], found[r] = ls.scanRoute(p, s, loads, r)
			return nil
		})
	}
	_ = g.Wait()

	var best candidate
	ok := false
	for r := range results {
		if found[r] && (!ok || ls.prefer(results[r], best)) {
			best = results[r]
			ok = true
		}
	}
	return best, ok
}

// prefer reports whether a should be committed over b. Best improvement ranks by delta
// then key; first improvement ranks by key alone. Both are total orders, so merging
// per-route winners gives the same result as a serial scan.
func (ls *LocalSearch) prefer(a, b candidate) bool {
	if ls.opts.Policy == PolicyFirstImprovement {
		return a.move.Key().Less(b.move.Key())
	}
	if a.delta != b.delta {
		return a.delta < b.delta
	}
	return a.move.Key().Less(b.move.Key())
}

// scanRoute considers every move whose first key component is route r
func (ls *LocalSearch) scanRoute(p *problem.Problem, s *Solution, loads []int, r int) (candidate, bool) {
	var best candidate
	ok := false
	consider := func(m Move) {
		d := m.Delta(p, s)
		if d >= -ls.opts.Epsilon {
			return
		}
		c := candidate{move: m, delta: d}
		if !ok || ls.prefer(c, best) {
			best = c
			ok = true
		}
	}

	src := s.Routes[r].Stops
	last := len(src) - 2

	for i := 1; i <= last; i++ {
		for j := i + 1; j <= last; j++ {
			consider(TwoOpt{Route: r, I: i, J: j})
		}
	}

	for pos := 1; pos <= last; pos++ {
		x := src[pos]
		dx := p.Demand(x)

		for to := range s.Routes {
			if to == r || loads[to]+dx > p.Vehicle(to).Capacity {
				continue
			}
			for ins := 1; ins < len(s.Routes[to].Stops); ins++ {
				consider(Relocate{From: r, Pos: pos, To: to, Insert: ins})
			}
		}

		for other := r + 1; other < len(s.Routes); other++ {
			dst := s.Routes[other].Stops
			for opos := 1; opos <= len(dst)-2; opos++ {
				dy := p.Demand(dst[opos])
				if loads[r]-dx+dy > p.Vehicle(r).Capacity || loads[other]-dy+dx > p.Vehicle(other).Capacity {
					continue
				}
				consider(Swap{RouteA: r, PosA: pos, RouteB: other, PosB: opos})
			}
		}
	}

	return best, ok
}
