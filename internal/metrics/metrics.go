// Package metrics exposes Prometheus metrics for the ledger service:
//
//	listingd_invocations_total{type,result}  invocations by instruction and outcome
//	listingd_units_sold_total                sell-asset units bought from listings
//	listingd_apply_seconds{type}             apply latency
//	listingd_active_listings                 listings with units remaining
//	listingd_ws_subscribers                  open event subscriptions
//
// Each Metrics owns its registry so several services can coexist in one
// process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "listingd"

type Metrics struct {
	registry *prometheus.Registry

	invocations    *prometheus.CounterVec
	unitsSold      prometheus.Counter
	applySeconds   *prometheus.HistogramVec
	activeListings prometheus.Gauge
	subscribers    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Invocations by instruction type and result",
			},
			[]string{"type", "result"},
		),
		unitsSold: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_sold_total",
				Help:      "Sell-asset units transferred to buyers",
			},
		),
		applySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "apply_seconds",
				Help:      "Time spent applying an invocation, lock wait included",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"type"},
		),
		activeListings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_listings",
				Help:      "Listings with units remaining",
			},
		),
		subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_subscribers",
				Help:      "Open event stream subscriptions",
			},
		),
	}
	m.registry.MustRegister(
		m.invocations, m.unitsSold, m.applySeconds, m.activeListings, m.subscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveInvocation records one submitted invocation.
func (m *Metrics) ObserveInvocation(txType, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(txType, result).Inc()
	m.applySeconds.WithLabelValues(txType).Observe(elapsed.Seconds())
}

func (m *Metrics) AddUnitsSold(n uint64) {
	if m == nil {
		return
	}
	m.unitsSold.Add(float64(n))
}

func (m *Metrics) SetActiveListings(n int) {
	if m == nil {
		return
	}
	m.activeListings.Set(float64(n))
}

func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
