package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_dispatch_total",
			Help: "Total notification sends by channel and result",
		},
		[]string{"channel", "result"},
	)

	notifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_dispatch_duration_ms",
			Help:    "Notification send duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"channel"},
	)

	notifyFallback = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_fallback_total",
			Help: "Times a notification fell back to a lower-priority channel",
		},
		[]string{"from", "to"},
	)
)

// RecordNotify 记录单次渠道投递
// result: "success" | "fail" | "skipped"
func RecordNotify(channel, result string, started time.Time) {
	ch := strings.ToLower(channel)
	res := strings.ToLower(result)
	notifyTotal.WithLabelValues(ch, res).Inc()
	notifyDuration.WithLabelValues(ch).Observe(float64(time.Since(started).Milliseconds()))
}

// RecordNotifyFallback 记录渠道降级
func RecordNotifyFallback(from, to string) {
	notifyFallback.WithLabelValues(strings.ToLower(from), strings.ToLower(to)).Inc()
}
