package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RecommendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_recommend_latency_seconds",
		Help:    "Latency of hybrid recommendation scoring",
		Buckets: prometheus.DefBuckets,
	})

	RecommendTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_recommend_total",
		Help: "Total recommendation lists served",
	})

	ExploreCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_explore_substitutions_total",
		Help: "How many recommendation slots were replaced by an exploration draw",
	})

	RetrainDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_collab_retrain_seconds",
		Help:    "Duration of collaborative model retrains",
		Buckets: prometheus.DefBuckets,
	})

	ModelUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reco_collab_model_users",
		Help: "Users known to the current collaborative model",
	})

	IndexSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reco_index_items",
		Help: "Items currently held in the vector index",
	})

	PosterLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_poster_lookups_total",
		Help: "Poster lookups by outcome",
	}, []string{"outcome"})
)

func Init() {
	prometheus.MustRegister(
		RecommendDuration,
		RecommendTotal,
		ExploreCount,
		RetrainDuration,
		ModelUsers,
		IndexSize,
		PosterLookups,
	)
}
