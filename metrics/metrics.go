// Package metrics exposes Prometheus instrumentation for the prediction path.
package metrics

import (
	"strconv"
	"time"

	"heartrisk/ml"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "heartrisk",
		Name:      "predictions_total",
		Help:      "Successful predictions by predicted class.",
	}, []string{"class", "source"})

	failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "heartrisk",
		Name:      "prediction_failures_total",
		Help:      "Rejected or failed predictions by error kind.",
	}, []string{"kind", "source"})

	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "heartrisk",
		Name:      "prediction_duration_seconds",
		Help:      "Time spent building features and running the model.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
	}, []string{"source"})
)

// Observe records the outcome of one prediction attempt. source is the
// surface that served it ("http", "ws").
func Observe(source string, start time.Time, result ml.PredictionResult, err error) {
	latency.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		kind := string(ml.KindOf(err))
		if kind == "" {
			kind = "internal"
		}
		failures.WithLabelValues(kind, source).Inc()
		return
	}
	predictions.WithLabelValues(strconv.Itoa(result.PredictedClass), source).Inc()
}
