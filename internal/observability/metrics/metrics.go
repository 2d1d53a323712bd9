package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the platform.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	wsConnections   prometheus.Gauge
	wsSubscriptions prometheus.Gauge
	fanoutMessages  *prometheus.CounterVec
	fanoutDropped   *prometheus.CounterVec
	invitesIssued   *prometheus.CounterVec
	invitesAccepted prometheus.Counter
}

// New registers and returns the Prometheus metrics set.
func New() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "steeple_http_requests_total",
		Help: "Counts HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "steeple_http_request_duration_seconds",
		Help:    "HTTP request latency per method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	wsConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "steeple_ws_connections",
		Help: "Number of live WebSocket connections.",
	})

	wsSubscriptions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "steeple_ws_subscriptions",
		Help: "Number of active channel subscriptions across all connections.",
	})

	fanoutMessages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "steeple_fanout_messages_total",
		Help: "Counts messages delivered to subscribers by channel kind.",
	}, []string{"kind"})

	fanoutDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "steeple_fanout_dropped_total",
		Help: "Counts messages dropped because a subscriber buffer was full.",
	}, []string{"kind"})

	invitesIssued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "steeple_invitations_issued_total",
		Help: "Counts invitations issued by outcome.",
	}, []string{"outcome"})

	invitesAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "steeple_invitations_accepted_total",
		Help: "Counts invitations accepted.",
	})

	for _, collector := range []prometheus.Collector{
		httpRequests,
		httpDuration,
		wsConnections,
		wsSubscriptions,
		fanoutMessages,
		fanoutDropped,
		invitesIssued,
		invitesAccepted,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}

	return &Metrics{
		httpRequests:    httpRequests,
		httpDuration:    httpDuration,
		wsConnections:   wsConnections,
		wsSubscriptions: wsSubscriptions,
		fanoutMessages:  fanoutMessages,
		fanoutDropped:   fanoutDropped,
		invitesIssued:   invitesIssued,
		invitesAccepted: invitesAccepted,
	}
}

// GinMiddleware records request counts and latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.httpRequests.WithLabelValues(method, route, status).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ConnectionOpened increments the live connection gauge.
func (m *Metrics) ConnectionOpened() {
	m.wsConnections.Inc()
}

// ConnectionClosed decrements the live connection gauge.
func (m *Metrics) ConnectionClosed() {
	m.wsConnections.Dec()
}

// SubscriptionAdded increments the active subscription gauge.
func (m *Metrics) SubscriptionAdded() {
	m.wsSubscriptions.Inc()
}

// SubscriptionRemoved decrements the active subscription gauge by n.
func (m *Metrics) SubscriptionRemoved(n int) {
	m.wsSubscriptions.Sub(float64(n))
}

// MessageDelivered counts one delivered fanout message.
func (m *Metrics) MessageDelivered(kind string) {
	m.fanoutMessages.WithLabelValues(kind).Inc()
}

// MessageDropped counts one dropped fanout message.
func (m *Metrics) MessageDropped(kind string) {
	m.fanoutDropped.WithLabelValues(kind).Inc()
}

// InviteIssued counts an invitation issue attempt by outcome.
func (m *Metrics) InviteIssued(outcome string) {
	m.invitesIssued.WithLabelValues(outcome).Inc()
}

// InviteAccepted counts one accepted invitation.
func (m *Metrics) InviteAccepted() {
	m.invitesAccepted.Inc()
}
