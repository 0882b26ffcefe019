// Package metrics exposes scan and delivery counters over an ops HTTP server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "rent_bot"

// Delivery outcome label values.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
	ResultRetried   = "retried"
)

// Metrics holds the bot's Prometheus collectors on a private registry.
type Metrics struct {
	Registry           *prometheus.Registry
	PagesFetched       prometheus.Counter
	ScansBlocked       prometheus.Counter
	ListingsFound      prometheus.Counter
	Deliveries         *prometheus.CounterVec
	SubscribersRemoved prometheus.Counter
	PassDuration       prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Result pages fetched from the source site.",
		}),
		ScansBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_blocked_total",
			Help:      "Scans aborted on a challenge page.",
		}),
		ListingsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_found_total",
			Help:      "Unseen listings returned by scans.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Listing sends by outcome.",
		}, []string{"result"}),
		SubscribersRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribers_removed_total",
			Help:      "Subscribers removed after a permanent delivery failure.",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of a full scan pass.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	m.Registry.MustRegister(
		m.PagesFetched,
		m.ScansBlocked,
		m.ListingsFound,
		m.Deliveries,
		m.SubscribersRemoved,
		m.PassDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveScan records one subscriber scan.
func (m *Metrics) ObserveScan(pages, found int, blocked bool) {
	m.PagesFetched.Add(float64(pages))
	m.ListingsFound.Add(float64(found))
	if blocked {
		m.ScansBlocked.Inc()
	}
}

// ObserveDelivery records the outcome of delivering to one subscriber.
func (m *Metrics) ObserveDelivery(delivered, failed, retries int) {
	m.Deliveries.WithLabelValues(ResultDelivered).Add(float64(delivered))
	m.Deliveries.WithLabelValues(ResultFailed).Add(float64(failed))
	m.Deliveries.WithLabelValues(ResultRetried).Add(float64(retries))
}

// ObserveRemoved records removed subscribers.
func (m *Metrics) ObserveRemoved(n int) {
	m.SubscribersRemoved.Add(float64(n))
}

// ObservePass records the duration of a pass.
func (m *Metrics) ObservePass(d time.Duration) {
	m.PassDuration.Observe(d.Seconds())
}
