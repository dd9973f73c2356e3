package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Join results recorded by Metrics.Joins.
const (
	joinAccepted = "accepted"
	joinInvalid  = "invalid"
	joinConflict = "conflict"
)

// Metrics holds the relay's Prometheus collectors on a private registry so
// several hubs can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive   prometheus.Gauge
	Joins            *prometheus.CounterVec
	Relayed          *prometheus.CounterVec
	Malformed        prometheus.Counter
	DeliveryFailures prometheus.Counter
}

// NewMetrics registers the relay collectors plus the Go runtime collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat",
			Name:      "sessions_active",
			Help:      "Number of joined sessions.",
		}),
		Joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "joins_total",
			Help:      "Join attempts by result.",
		}, []string{"result"}),
		Relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "messages_relayed_total",
			Help:      "Messages broadcast to a room, by type.",
		}, []string{"type"}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "messages_malformed_total",
			Help:      "Inbound frames that could not be decoded.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "delivery_failures_total",
			Help:      "Per-recipient deliveries skipped because the peer was closing or backed up.",
		}),
	}

	reg.MustRegister(
		m.SessionsActive,
		m.Joins,
		m.Relayed,
		m.Malformed,
		m.DeliveryFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the metrics at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
