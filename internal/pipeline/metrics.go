package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regaudit",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by final status",
		}, []string{"status"})

		stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "regaudit",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage execution time",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"stage"})
	})
}
