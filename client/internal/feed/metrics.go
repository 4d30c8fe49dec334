package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	echoesSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Subsystem: "feed",
			Name:      "echoes_suppressed_total",
			Help:      "Pushed count deltas recognized as echoes of local mutations.",
		},
		[]string{"kind"},
	)

	deltasAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Subsystem: "feed",
			Name:      "deltas_applied_total",
			Help:      "Pushed count deltas applied to the snapshot.",
		},
		[]string{"kind"},
	)
)
