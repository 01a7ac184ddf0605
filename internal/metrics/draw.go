package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	drawTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_draw_total",
			Help: "Total raffle draw executions by result and draw_type",
		},
		[]string{"result", "draw_type"},
	)

	drawDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raffle_draw_duration_ms",
			Help:    "Raffle draw execution duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result", "draw_type"},
	)

	drawParticipants = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raffle_draw_participants",
			Help:    "Participant pool size at draw time",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"draw_type"},
	)
)

// RecordDraw 记录开奖的业务指标
// result: "success" | "already_drawn" | "not_available" | "no_participants" | "fail"
// drawType: "manual" | "scheduled" | "auto"
func RecordDraw(result, drawType string, started time.Time) {
	res := strings.ToLower(strings.TrimSpace(result))
	if res == "" {
		res = "fail"
	}
	dt := strings.ToLower(drawType)
	drawTotal.WithLabelValues(res, dt).Inc()
	durMs := float64(time.Since(started).Milliseconds())
	drawDuration.WithLabelValues(res, dt).Observe(durMs)
}

// RecordDrawPool 记录开奖时的参与池大小
func RecordDrawPool(drawType string, count int) {
	drawParticipants.WithLabelValues(strings.ToLower(drawType)).Observe(float64(count))
}
