package audit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once
	turnsTotal  *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regaudit",
			Subsystem: "audit",
			Name:      "turns_total",
			Help:      "Conversation turns by speaker",
		}, []string{"role"})
	})
}
