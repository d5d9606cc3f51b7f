package llm

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regaudit",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Completion calls by caller role and result",
		}, []string{"role", "result"})

		callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "regaudit",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Completion call latency by caller role",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"role"})
	})
}
