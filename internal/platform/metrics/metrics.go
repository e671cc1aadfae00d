// Package metrics exposes Prometheus metrics for match boards.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/matchboard/internal/platform/resilience"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

// BoardMetrics records collection fetches, discarded stale results, board
// sessions and the upstream circuit breaker state.
type BoardMetrics struct {
	registry *prometheus.Registry

	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	StaleTotal    *prometheus.CounterVec
	ActiveBoards  prometheus.Gauge
	BreakerState  *prometheus.GaugeVec
}

var (
	_ usecase.BoardRecorder        = (*BoardMetrics)(nil)
	_ usecase.BoardSessionRecorder = (*BoardMetrics)(nil)
)

func NewBoardMetrics() *BoardMetrics {
	registry := prometheus.NewRegistry()

	m := &BoardMetrics{
		registry: registry,

		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchboard_collection_fetches_total",
				Help: "Collection fetches by collection and outcome",
			},
			[]string{"collection", "outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matchboard_collection_fetch_duration_seconds",
				Help:    "Time spent fetching and normalizing one collection",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"collection"},
		),
		StaleTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchboard_stale_results_total",
				Help: "Fetch results dropped because the selection changed while in flight",
			},
			[]string{"collection"},
		),
		ActiveBoards: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "matchboard_active_boards",
				Help: "Board sessions currently held in memory",
			},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "matchboard_upstream_circuit_state",
				Help: "1 for the current circuit breaker state of the match API, 0 otherwise",
			},
			[]string{"state"},
		),
	}

	registry.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.StaleTotal,
		m.ActiveBoards,
		m.BreakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.ObserveBreakerState(resilience.CircuitStateClosed)

	return m
}

func (m *BoardMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *BoardMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *BoardMetrics) ObserveFetch(kind usecase.CollectionKind, outcome string, elapsed time.Duration) {
	m.FetchesTotal.WithLabelValues(string(kind), outcome).Inc()
	if elapsed > 0 {
		m.FetchDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	}
}

func (m *BoardMetrics) ObserveStale(kind usecase.CollectionKind) {
	m.StaleTotal.WithLabelValues(string(kind)).Inc()
}

func (m *BoardMetrics) ObserveActiveBoards(n int) {
	m.ActiveBoards.Set(float64(n))
}

func (m *BoardMetrics) ObserveBreakerState(state resilience.CircuitState) {
	for _, s := range []resilience.CircuitState{
		resilience.CircuitStateClosed,
		resilience.CircuitStateOpen,
		resilience.CircuitStateHalfOpen,
	} {
		value := 0.0
		if s == state {
			value = 1
		}
		m.BreakerState.WithLabelValues(string(s)).Set(value)
	}
}

// WatchBreaker keeps the breaker gauge in sync with b.
func (m *BoardMetrics) WatchBreaker(b *resilience.CircuitBreaker) {
	b.OnStateChange(func(_, to resilience.CircuitState) {
		m.ObserveBreakerState(to)
	})
}
