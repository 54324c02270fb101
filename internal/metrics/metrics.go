// Package metrics exposes ledger counters through Prometheus.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "klingnet_stake"

// Result labels.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds the ledger collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	claimed  prometheus.Counter
	accounts prometheus.Gauge
	rpc      *prometheus.CounterVec
}

// New creates collectors registered on a private registry. Go runtime and
// process collectors are included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent in ledger operations, storage included.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"op"}),
		claimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_claimed_total",
			Help:      "Points paid out by claims.",
		}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Stake accounts in the active namespace.",
		}),
		rpc: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests by method and outcome code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(
		m.ops, m.duration, m.claimed, m.accounts, m.rpc,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOp records one ledger operation.
func (m *Metrics) ObserveOp(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// AddClaimed adds paid-out points.
func (m *Metrics) AddClaimed(points uint64) {
	if m == nil || points == 0 {
		return
	}
	m.claimed.Add(float64(points))
}

// SetAccounts sets the account gauge.
func (m *Metrics) SetAccounts(n int) {
	if m == nil {
		return
	}
	m.accounts.Set(float64(n))
}

// IncAccounts bumps the account gauge after a create.
func (m *Metrics) IncAccounts() {
	if m == nil {
		return
	}
	m.accounts.Inc()
}

// ObserveRPC records one JSON-RPC call. code is 0 on success.
func (m *Metrics) ObserveRPC(method string, code int) {
	if m == nil {
		return
	}
	m.rpc.WithLabelValues(method, codeLabel(code)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func codeLabel(code int) string {
	if code == 0 {
		return "ok"
	}
	return strconv.Itoa(code)
}
