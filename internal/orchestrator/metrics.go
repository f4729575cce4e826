package orchestrator

import "github.com/prometheus/client_golang/prometheus"

var (
	searchCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findd",
			Subsystem: "search",
			Name:      "commands_total",
			Help:      "Voice search commands by terminal outcome.",
		},
		[]string{"outcome"},
	)
	searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "findd",
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of candidate paths returned per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 30, 60},
		},
	)
)

func init() {
	prometheus.MustRegister(searchCommands, searchResults)
}
