// Package metrics provides the centralized Prometheus registry for the parlay builder.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ev_parlay"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "builds_total",
		Help:      "Total number of portfolio builds by outcome",
	}, []string{"outcome"})
	TicketsBuiltTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_built_total",
		Help:      "Total number of tickets emitted by size",
	}, []string{"size"})
	OddsFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "odds_fetch_total",
		Help:      "Total number of odds loads by source",
	}, []string{"source"})
	SolverFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "solver_fallbacks_total",
		Help:      "Total number of solves that returned a non-optimal incumbent",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of odds API circuit breaker trips",
	})
)

// Gauge metrics
var (
	LastBuildTotalEV = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_build_total_ev",
		Help:      "Sum of stake-weighted EV of the most recent build",
	})
	LastBuildTicketCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_build_ticket_count",
		Help:      "Number of tickets in the most recent build",
	})
)

// Histogram metrics
var (
	BuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Duration of portfolio builds in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	SolverDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "solver_duration_seconds",
		Help:      "Duration of integer program solves in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simulation_duration_seconds",
		Help:      "Duration of Monte Carlo simulations in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BuildsTotal)
		registry.MustRegister(TicketsBuiltTotal)
		registry.MustRegister(OddsFetchTotal)
		registry.MustRegister(SolverFallbacks)
		registry.MustRegister(CircuitBreakerTripsTotal)

		registry.MustRegister(LastBuildTotalEV)
		registry.MustRegister(LastBuildTicketCount)

		registry.MustRegister(BuildDuration)
		registry.MustRegister(SolverDuration)
		registry.MustRegister(SimulationDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
