package ledger

import "github.com/prometheus/client_golang/prometheus"

var decisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "allotment_decisions_total",
		Help: "How many allotment requests were processed, partitioned by outcome.",
	},
	[]string{"outcome"},
)

// Collectors returns the Prometheus collectors of the engine.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{decisions}
}
