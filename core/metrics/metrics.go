// Package metrics declares the bot's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "notebot"

var (
	UpdatesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "updates_received_total", Help: "Telegram updates received by event kind."},
		[]string{"kind"},
	)
	HandlerResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "handler_results_total", Help: "Routed events by route and outcome (ok, error, limited, denied)."},
		[]string{"route", "outcome"},
	)
	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "handler_duration_seconds", Help: "Handler latency by route.", Buckets: prometheus.DefBuckets},
		[]string{"route"},
	)
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "messages_sent_total", Help: "Outbound messages by type and result."},
		[]string{"type", "result"},
	)
)

// RegisterCollectors adds every collector to reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(UpdatesReceived)
	reg.MustRegister(HandlerResults)
	reg.MustRegister(HandlerDuration)
	reg.MustRegister(MessagesSent)
}

// NewRegistry returns a registry with the bot collectors plus the Go and
// process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	RegisterCollectors(reg)
	return reg
}
