// Package prom implements the observability hooks with Prometheus
// collectors.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/flamecast/pkg/observability"
)

// Keys for flamecast metrics.
const (
	SolvesTotalKey             = "flamecast_solves_total"
	SolveDurationSecondsKey    = "flamecast_solve_duration_seconds"
	SolveImprovementRatioKey   = "flamecast_solve_improvement_ratio"
	IterationsTotalKey         = "flamecast_anneal_iterations_total"
	AcceptedNeighborsTotalKey  = "flamecast_anneal_accepted_total"
	CurrentCostKey             = "flamecast_anneal_current_cost"
	CacheRequestsTotalKey      = "flamecast_cache_requests_total"
	CacheWrittenBytesTotalKey  = "flamecast_cache_written_bytes_total"
	HTTPRequestsTotalKey       = "flamecast_http_requests_total"
	HTTPRequestDurationSecsKey = "flamecast_http_request_duration_seconds"
)

// Metrics holds one set of collectors and implements every hook interface.
type Metrics struct {
	SolvesTotal            *prometheus.CounterVec
	SolveDurationSeconds   prometheus.Histogram
	SolveImprovementRatio  prometheus.Histogram
	IterationsTotal        prometheus.Counter
	AcceptedNeighborsTotal prometheus.Counter
	CurrentCost            prometheus.Gauge
	CacheRequestsTotal     *prometheus.CounterVec
	CacheWrittenBytesTotal prometheus.Counter
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		SolvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: SolvesTotalKey,
			Help: "Cumulative number of finished solves by outcome.",
		}, []string{"outcome"}),
		SolveDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    SolveDurationSecondsKey,
			Help:    "Wall time of a complete annealing run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		SolveImprovementRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    SolveImprovementRatioKey,
			Help:    "Final cost divided by initial cost of successful solves.",
			Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
		}),
		IterationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: IterationsTotalKey,
			Help: "Cumulative number of annealing iterations.",
		}),
		AcceptedNeighborsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: AcceptedNeighborsTotalKey,
			Help: "Cumulative number of accepted neighbor moves.",
		}),
		CurrentCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: CurrentCostKey,
			Help: "Committed cost after the most recent iteration of any run.",
		}),
		CacheRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: CacheRequestsTotalKey,
			Help: "Cumulative number of cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheWrittenBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: CacheWrittenBytesTotalKey,
			Help: "Cumulative number of bytes written to the cache.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestsTotalKey,
			Help: "Cumulative number of served HTTP requests.",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSecsKey,
			Help: "Latency of served HTTP requests.",
		}, []string{"method", "route"}),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SolvesTotal,
		m.SolveDurationSeconds,
		m.SolveImprovementRatio,
		m.IterationsTotal,
		m.AcceptedNeighborsTotal,
		m.CurrentCost,
		m.CacheRequestsTotal,
		m.CacheWrittenBytesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	}
}

// Install registers the collectors with reg and the hooks with the global
// observability registry.
func (m *Metrics) Install(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	observability.Register(m)
	return nil
}

func (m *Metrics) OnSolveStart(context.Context, int, int) {}

func (m *Metrics) OnIteration(_ context.Context, accepted bool, _, cost float64, _ int) {
	m.IterationsTotal.Inc()
	if accepted {
		m.AcceptedNeighborsTotal.Inc()
	}
	m.CurrentCost.Set(cost)
}

func (m *Metrics) OnSolveComplete(_ context.Context, initialCost, finalCost float64, d time.Duration, err error) {
	if err != nil {
		m.SolvesTotal.WithLabelValues("error").Inc()
		return
	}
	m.SolvesTotal.WithLabelValues("ok").Inc()
	m.SolveDurationSeconds.Observe(d.Seconds())
	if initialCost > 0 {
		m.SolveImprovementRatio.Observe(finalCost / initialCost)
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, _ string, size int) {
	m.CacheWrittenBytesTotal.Add(float64(size))
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.SolveHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)
