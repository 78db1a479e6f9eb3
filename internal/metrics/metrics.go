package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	DeliveriesSent    *prometheus.CounterVec
	DeliveriesFailed  *prometheus.CounterVec
	DeliveryLatency   prometheus.Histogram
	EndpointsActive   prometheus.Gauge
	EndpointsInactive prometheus.Gauge
	CacheSize         prometheus.Gauge
	BatchesInFlight   prometheus.Gauge
	CrawlCycles       prometheus.Counter
	CrawlErrors       prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DeliveriesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliveries_sent_total",
			Help: "Total number of successfully delivered webhook notices, labeled by endpoint id.",
		}, []string{"endpoint_id"}),

		DeliveriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliveries_failed_total",
			Help: "Total number of failed webhook deliveries, labeled by failure category.",
		}, []string{"category"}),

		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "delivery_processing_seconds",
			Help:    "End-to-end latency from dispatch to provider response.",
			Buckets: prometheus.DefBuckets,
		}),

		EndpointsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "endpoints_active",
			Help: "Current number of active webhook endpoints.",
		}),
		EndpointsInactive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "endpoints_inactive",
			Help: "Current number of deactivated webhook endpoints awaiting cleanup.",
		}),

		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recency_cache_size",
			Help: "Current number of notices held in the recency cache.",
		}),

		BatchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_batches_in_flight",
			Help: "Current number of notification batches being executed.",
		}),

		CrawlCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawl_cycles_total",
			Help: "Total number of completed crawl ticks.",
		}),
		CrawlErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawl_errors_total",
			Help: "Total number of crawl ticks that failed to fetch the index.",
		}),
	}

	reg.MustRegister(
		m.DeliveriesSent,
		m.DeliveriesFailed,
		m.DeliveryLatency,
		m.EndpointsActive,
		m.EndpointsInactive,
		m.CacheSize,
		m.BatchesInFlight,
		m.CrawlCycles,
		m.CrawlErrors,
	)

	return m
}

// DispatchHooks returns the metric callback functions the dispatch
// coordinator invokes after each per-endpoint send attempt. Centralizes the
// Prometheus observation calls so dispatch.Coordinator stays import-free of
// the metrics package beyond these two closures.
func (m *Metrics) DispatchHooks() (
	onSent func(endpointID int64, latency time.Duration),
	onFailed func(category domain.Category),
) {
	onSent = func(endpointID int64, latency time.Duration) {
		m.DeliveriesSent.WithLabelValues(strconv.FormatInt(endpointID, 10)).Inc()
		m.DeliveryLatency.Observe(latency.Seconds())
	}
	onFailed = func(category domain.Category) {
		m.DeliveriesFailed.WithLabelValues(string(category)).Inc()
	}
	return
}

// SetEndpointStats mirrors a repository.Stats snapshot onto the endpoint
// gauges; called by the health monitor each time one of its schedules reads
// repository stats.
func (m *Metrics) SetEndpointStats(active, inactive int) {
	m.EndpointsActive.Set(float64(active))
	m.EndpointsInactive.Set(float64(inactive))
}
