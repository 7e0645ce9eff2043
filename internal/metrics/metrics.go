package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camwatch_nvr_polls_total",
		Help: "Total number of NVR channel-status polls",
	}, []string{"result"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "camwatch_tick_duration_seconds",
		Help:    "Duration of one monitor tick including reconciliation",
		Buckets: prometheus.DefBuckets,
	})

	CamerasByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "camwatch_cameras",
		Help: "Current number of cameras by status",
	}, []string{"status"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camwatch_camera_transitions_total",
		Help: "Total camera status transitions",
	}, []string{"to"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camwatch_notifications_total",
		Help: "Total notification batches by sink and result",
	}, []string{"sink", "result"})
)
