package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datewheel",
		Subsystem: "registry",
		Name:      "mutations_total",
		Help:      "Activity registry mutations, labeled by operation.",
	}, []string{"operation"})

	draws = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datewheel",
		Subsystem: "draw",
		Name:      "draws_total",
		Help:      "Draw attempts, labeled by outcome (started, revealed, rejected).",
	}, []string{"outcome"})

	poolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "datewheel",
		Subsystem: "pool",
		Name:      "size",
		Help:      "Number of activities currently on the wheel.",
	})

	schedulePins = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "datewheel",
		Subsystem: "schedule",
		Name:      "pins_total",
		Help:      "Weekly slots explicitly reassigned by the user.",
	})

	outboxItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "datewheel",
		Subsystem: "sync",
		Name:      "outbox_items",
		Help:      "Mirror operations waiting in the local outbox.",
	})

	mirrorFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "datewheel",
		Subsystem: "sync",
		Name:      "failures_total",
		Help:      "Mirror operations that failed to reach the remote store.",
	})
)

func init() {
	prometheus.MustRegister(activityMutations, draws, poolSize, schedulePins, outboxItems, mirrorFailures)
}

func RecordActivityMutation(operation string) {
	activityMutations.WithLabelValues(operation).Inc()
}

func RecordDraw(outcome string) {
	draws.WithLabelValues(outcome).Inc()
}

func SetPoolSize(n int) {
	poolSize.Set(float64(n))
}

func RecordSchedulePin() {
	schedulePins.Inc()
}

func SetOutboxItems(n int) {
	outboxItems.Set(float64(n))
}

func RecordMirrorFailure() {
	mirrorFailures.Inc()
}
