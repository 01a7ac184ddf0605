package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registerTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_register_total",
			Help: "Total participation register requests by result",
		},
		[]string{"result"},
	)

	registerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "participation_register_duration_ms",
			Help:    "Participation register duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result"},
	)
)

// RecordRegister 记录报名的业务指标
// result: "success" | "duplicate" | "full" | "window_not_open" | "window_closed" |
// "receipt_missing" | "invalid_state" | "fail"
func RecordRegister(result string, started time.Time) {
	res := strings.ToLower(strings.TrimSpace(result))
	if res == "" {
		res = "fail"
	}
	registerTotal.WithLabelValues(res).Inc()
	durMs := float64(time.Since(started).Milliseconds())
	registerDuration.WithLabelValues(res).Observe(durMs)
}
