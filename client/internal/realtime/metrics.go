package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Push events dispatched to an engine handler.",
		},
		[]string{"table"},
	)

	droppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Push events dropped before dispatch.",
		},
		[]string{"reason"},
	)

	reopensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Subsystem: "realtime",
			Name:      "reopens_total",
			Help:      "Successful change-stream reconnects.",
		},
	)

	openTopics = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "law_client",
			Subsystem: "realtime",
			Name:      "open_topics",
			Help:      "Topic subscriptions currently open.",
		},
	)
)
