package dex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	handlerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainsync",
		Name:      "handler_events_total",
		Help:      "Candidate events handed to protocol handlers.",
	}, []string{"kind"})

	handlerSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainsync",
		Name:      "handler_skipped_total",
		Help:      "Events a handler skipped, by reason.",
	}, []string{"kind", "reason"})
)
