package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics tracks delivery of lifecycle notifications to the configured sink.
type NotificationMetrics struct {
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

// NewNotificationMetrics registers the notification collectors.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "delivered_total",
		Help:      "Notifications accepted by the sink.",
	}, []string{"event"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "failed_total",
		Help:      "Notifications the sink refused.",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "dropped_total",
		Help:      "Notifications dropped because the dispatch buffer was full or closed.",
	}, []string{"event"})
	reg.MustRegister(delivered, failed, dropped)
	return &NotificationMetrics{delivered: delivered, failed: failed, dropped: dropped}
}

func (m *NotificationMetrics) Delivered(event string) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *NotificationMetrics) Failed(event string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *NotificationMetrics) Dropped(event string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(event)).Inc()
}
