package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FeedbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_feedback_events_total",
			Help: "Count of feedback events by kind.",
		},
		[]string{"kind"},
	)

	RetrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_retrains_total",
			Help: "Collaborative retrains by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(FeedbackEventsTotal, RetrainsTotal)
}
