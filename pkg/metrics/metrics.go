package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macrosim",
			Name:      "events_fired_total",
			Help:      "Total number of simulation events fired.",
		},
		[]string{"kind"}, // kind of the target entity
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "macrosim",
			Name:      "events_dropped_total",
			Help:      "Events dropped because the target entity was dead or missing.",
		},
	)

	ActionsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macrosim",
			Name:      "actions_processed_total",
			Help:      "Total number of actions drained by the pipeline.",
		},
		[]string{"type"},
	)

	TradesMatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "macrosim",
			Name:      "trades_matched_total",
			Help:      "Total number of fills produced by the matching engine.",
		},
	)

	EventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "macrosim",
			Name:      "event_queue_depth",
			Help:      "Current number of queued simulation events.",
		},
	)

	SimTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "macrosim",
			Name:      "sim_time_days",
			Help:      "Current simulation time in days.",
		},
	)
)

func MustRegister() {
	prometheus.MustRegister(
		EventsFiredTotal,
		EventsDroppedTotal,
		ActionsProcessedTotal,
		TradesMatchedTotal,
		EventQueueDepth,
		SimTime,
	)
}
