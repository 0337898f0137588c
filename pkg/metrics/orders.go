package metrics

import (
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts lifecycle activity. Business figures such as sales are derived per query
// from the order registry and are not exported here.
type OrderMetrics struct {
	created       prometheus.Counter
	transitions   *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// NewOrderMetrics registers the order collectors. pending reports the armed expiry countdowns.
func NewOrderMetrics(reg prometheus.Registerer, pending func() float64) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders placed.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Applied order status transitions.",
	}, []string{"from", "to", "trigger"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "pickup_verifications_total",
		Help:      "Pickup code verification outcomes.",
	}, []string{"result"})
	reg.MustRegister(created, transitions, verifications)
	if pending != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "pending_countdowns",
			Help:      "Pending orders with an armed acknowledgment timer.",
		}, pending))
	}
	return &OrderMetrics{
		created:       created,
		transitions:   transitions,
		verifications: verifications,
	}
}

func (m *OrderMetrics) OrderCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *OrderMetrics) OrderTransitioned(from, to enums.OrderStatus, trigger string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(from.String(), to.String(), normalizeLabel(trigger)).Inc()
}

func (m *OrderMetrics) PickupVerified(result string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}
