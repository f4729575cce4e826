package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	engineProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findd",
			Subsystem: "engine",
			Name:      "probes_total",
			Help:      "Readiness probes by result",
		},
		[]string{"result"},
	)

	engineStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findd",
			Subsystem: "engine",
			Name:      "starts_total",
			Help:      "Engine process starts by mode",
		},
		[]string{"mode"},
	)

	engineStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findd",
			Subsystem: "engine",
			Name:      "stops_total",
			Help:      "Engine exit requests by result",
		},
		[]string{"result"},
	)

	engineEnsure = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findd",
			Subsystem: "engine",
			Name:      "ensure_total",
			Help:      "EnsureRunning calls by outcome",
		},
		[]string{"outcome"},
	)

	engineState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "findd",
			Subsystem: "engine",
			Name:      "state",
			Help:      "Current lifecycle state (1 for the active state)",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(engineProbes, engineStarts, engineStops, engineEnsure, engineState)
}
