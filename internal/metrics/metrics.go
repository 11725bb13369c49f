// Package metrics exposes Prometheus collectors for the portal client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Registry holds the client collectors on a private Prometheus registry
type Registry struct {
	reg *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	bootstraps     *prometheus.CounterVec
	transactions   *prometheus.CounterVec
}

// NewRegistry creates and registers every collector
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Outgoing HTTP requests by client, method and status.",
			},
			[]string{"client", "method", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of outgoing HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"client", "method"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Session cache lookups by resource and result.",
			},
			[]string{"resource", "result"},
		),
		bootstraps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "bootstraps_total",
				Help:      "Session bootstrap runs by outcome.",
			},
			[]string{"outcome"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chain",
				Name:      "transactions_total",
				Help:      "Marketplace transactions by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
	}
	r.reg.MustRegister(r.requests, r.requestLatency, r.cacheLookups, r.bootstraps, r.transactions)
	return r
}

// Handler exposes the registry over HTTP
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRequest records one outgoing request; status 0 means no response
func (r *Registry) ObserveRequest(client, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(client, method, label).Inc()
	r.requestLatency.WithLabelValues(client, method).Observe(d.Seconds())
}

// CacheHit records a fresh cache read
func (r *Registry) CacheHit(resource string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(resource, "hit").Inc()
}

// CacheMiss records a cache read that had to fetch
func (r *Registry) CacheMiss(resource string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(resource, "miss").Inc()
}

// Bootstrap records a bootstrap outcome: authenticated, challenged or anonymous
func (r *Registry) Bootstrap(outcome string) {
	if r == nil {
		return
	}
	r.bootstraps.WithLabelValues(outcome).Inc()
}

// Transaction records a marketplace transaction result
func (r *Registry) Transaction(action string, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.transactions.WithLabelValues(action, outcome).Inc()
}
