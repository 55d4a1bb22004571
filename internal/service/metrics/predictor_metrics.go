package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	PredictorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricecast",
			Subsystem: "predictor",
			Name:      "latency_seconds",
			Help:      "Latency of model service calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PredictorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricecast",
			Subsystem: "predictor",
			Name:      "errors_total",
			Help:      "Errors by model service operation",
		},
		[]string{"operation"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(PredictorLatency, PredictorErrors)
	})
}
