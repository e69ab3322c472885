package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the router
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveRuns counts routing runs by construction strategy and outcome
	SolveRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "router_solve_runs_total", Help: "Routing runs by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// SolveDuration records end-to-end solve time in seconds
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "router_solve_duration_seconds", Help: "Routing run duration in seconds.", Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60}},
		[]string{"strategy"},
	)
	// MovesApplied counts local search moves committed, by kind
	MovesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "router_moves_applied_total", Help: "Local search moves applied by kind."},
		[]string{"kind"},
	)
	// SearchStops counts why local search runs ended
	SearchStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "router_search_stops_total", Help: "Local search terminations by reason."},
		[]string{"reason"},
	)
	// Improvement records the relative distance saved by local search
	Improvement = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "router_search_improvement_ratio", Help: "Fraction of the constructed distance removed by local search.", Buckets: []float64{0, 0.01, 0.02, 0.05, 0.1, 0.2, 0.3, 0.5}},
	)
)

var regOnce sync.Once

// RegisterDefault registers every collector on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveRuns)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(MovesApplied)
		Registry.MustRegister(SearchStops)
		Registry.MustRegister(Improvement)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
