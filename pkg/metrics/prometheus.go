package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	price       *prometheus.GaugeVec
	bufferLen   prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_predictions_total",
				Help: "Total prediction ticks by result",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		price: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricecast_price",
				Help: "Last observed and predicted prices",
			},
			[]string{"kind"},
		),
		bufferLen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricecast_buffer_len",
				Help: "Current streaming buffer length",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records a prediction tick outcome ("ok", "skipped").
func (r *Recorder) RecordPrediction(result string) {
	r.predictions.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPrice records the latest price ("actual", "predicted").
func (r *Recorder) RecordPrice(kind string, price float64) {
	r.price.WithLabelValues(kind).Set(price)
}

// RecordBufferLen records the streaming buffer length.
func (r *Recorder) RecordBufferLen(n int) {
	r.bufferLen.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
