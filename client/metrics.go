package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	identityChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Name:      "identity_changes_total",
			Help:      "Identity boundaries crossed (sign-in and sign-out).",
		},
	)

	watchesOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "law_client",
			Name:      "watches_opened_total",
			Help:      "Change-stream watches opened, by surface.",
		},
		[]string{"surface"},
	)
)
