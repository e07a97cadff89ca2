package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	waitingDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_waiting_total",
			Help: "Current number of waiting entries",
		},
	)

	servedToday = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_served_today_total",
			Help: "Entries completed since local midnight",
		},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "status"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_notifications_total",
			Help: "Near-the-front notifications dispatched",
		},
		[]string{"status"},
	)

	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Duration of AI gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"type", "status"},
	)
)

// StatsSource lets the collector read queue depth without importing the
// services package.
type StatsSource interface {
	WaitingCount() int
	ServedToday() int
}

type Monitor struct {
	source   StatsSource
	stopChan chan struct{}
}

func NewMonitor(source StatsSource) *Monitor {
	monitor := &Monitor{
		source:   source,
		stopChan: make(chan struct{}),
	}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.source != nil {
				waitingDepth.Set(float64(m.source.WaitingCount()))
				servedToday.Set(float64(m.source.ServedToday()))
			}
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) Stop() {
	close(m.stopChan)
}

// TrackQueueOperation records one mutation attempt against the registry.
func (m *Monitor) TrackQueueOperation(operation, status string) {
	queueOperations.WithLabelValues(operation, status).Inc()
}

// TrackNotification records a dispatch attempt.
func (m *Monitor) TrackNotification(status string) {
	notifications.WithLabelValues(status).Inc()
}

// TrackAIRequest records the duration of one AI gateway call.
func (m *Monitor) TrackAIRequest(requestType, status string, duration time.Duration) {
	aiRequestDuration.WithLabelValues(requestType, status).Observe(duration.Seconds())
}
