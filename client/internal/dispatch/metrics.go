package dispatch

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Subsystem: "dispatch",
			Name:      "submissions_total",
			Help:      "Jobs accepted into the dispatch queue.",
		},
		[]string{"lane"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Subsystem: "dispatch",
			Name:      "queue_full_total",
			Help:      "Submissions rejected because a lane was full.",
		},
		[]string{"lane"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "law_client",
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Jobs waiting in a lane.",
		},
		[]string{"lane"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "law_client",
			Subsystem: "dispatch",
			Name:      "run_duration_seconds",
			Help:      "Time spent running a single job attempt.",
		},
		[]string{"lane"},
	)
)

func laneLabel(idx int) string { return strconv.Itoa(idx) }
