// Package telemetry exports Prometheus metrics for the blog-thumbs service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jameskolean/blog-thumbs/infrastructure/metrics"
)

const namespace = "blog_thumbs"

// Vote outcomes, used as the "result" label.
const (
	ResultAccepted    = "accepted"
	ResultBot         = "bot"
	ResultDropped     = "dropped"
	ResultInvalid     = "invalid"
	ResultUnknownSlug = "unknown_slug"
)

// Metrics holds all service metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP instruments the router.
	HTTP *metrics.HTTPMetrics

	// Ingestion metrics
	Votes       *prometheus.CounterVec
	BufferDepth prometheus.GaugeFunc

	// Flush metrics
	FlushBatches  prometheus.Counter
	FlushErrors   prometheus.Counter
	FlushDuration prometheus.Histogram
	FlushSize     prometheus.Histogram

	// Stream metrics
	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
}

// New registers all metrics. depth, when non-nil, reports the number of
// votes waiting in the buffer at scrape time.
func New(depth func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg, HTTP: metrics.NewHTTPMetrics(reg, namespace)}
	factory := promauto.With(reg)
	initVoteMetrics(factory, m, depth)
	initFlushMetrics(factory, m)
	initStreamMetrics(factory, m)
	return m
}

func initVoteMetrics(factory promauto.Factory, m *Metrics, depth func() int) {
	m.Votes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_total",
		Help:      "Vote requests by direction and result",
	}, []string{"direction", "result"})

	if depth != nil {
		m.BufferDepth = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_depth",
			Help:      "Votes waiting to be flushed",
		}, func() float64 { return float64(depth()) })
	}
}

func initFlushMetrics(factory promauto.Factory, m *Metrics) {
	m.FlushBatches = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flush_batches_total",
		Help:      "Flushes that reached the repository",
	})

	m.FlushErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flush_errors_total",
		Help:      "Flushes that failed after retries",
	})

	m.FlushDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "flush_duration_seconds",
		Help:      "Time to apply one aggregated batch",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	})

	m.FlushSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "flush_votes",
		Help:      "Votes per flush",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 500, 1000},
	})
}

func initStreamMetrics(factory promauto.Factory, m *Metrics) {
	m.EventsPublished = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "thumbs:updated events handed to the SSE broker",
	})

	m.EventsDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "thumbs:updated events rejected by a full broker",
	})
}

// RecordVote counts one vote request.
func (m *Metrics) RecordVote(direction, result string) {
	m.Votes.WithLabelValues(direction, result).Inc()
}

// ObserveFlush records the outcome of one flush.
func (m *Metrics) ObserveFlush(votes int, elapsed time.Duration, err error) {
	m.FlushBatches.Inc()
	m.FlushDuration.Observe(elapsed.Seconds())
	m.FlushSize.Observe(float64(votes))
	if err != nil {
		m.FlushErrors.Inc()
	}
}

// RecordEvent counts one SSE publish attempt.
func (m *Metrics) RecordEvent(published bool) {
	if published {
		m.EventsPublished.Inc()
		return
	}
	m.EventsDropped.Inc()
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
