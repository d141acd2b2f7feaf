package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on their own registry.
type Metrics struct {
	Registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	ledgerMutations *prometheus.CounterVec
	budgetAlerts    *prometheus.CounterVec
}

// New registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitebooks",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitebooks",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ledgerMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitebooks",
			Name:      "ledger_mutations_total",
			Help:      "Committed ledger mutations by ledger and operation.",
		}, []string{"ledger", "op"}),
		budgetAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitebooks",
			Name:      "budget_alerts_total",
			Help:      "Budget alert pushes by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.ledgerMutations, m.budgetAlerts,
	)
	return m
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// LedgerMutation counts a committed ledger write. Safe on a nil receiver.
func (m *Metrics) LedgerMutation(ledger, op string) {
	if m == nil {
		return
	}
	m.ledgerMutations.WithLabelValues(ledger, op).Inc()
}

// BudgetAlert counts an alert outcome: sent, failed, expired or dropped. Safe on a nil receiver.
func (m *Metrics) BudgetAlert(outcome string) {
	if m == nil {
		return
	}
	m.budgetAlerts.WithLabelValues(outcome).Inc()
}

// BudgetAlerts exposes the alert counter to tests.
func (m *Metrics) BudgetAlerts() *prometheus.CounterVec { return m.budgetAlerts }
