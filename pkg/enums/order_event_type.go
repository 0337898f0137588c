package enums

import "fmt"

// OrderEventType names the notifications emitted by the order lifecycle.
type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventAccepted  OrderEventType = "order.accepted"
	OrderEventReady     OrderEventType = "order.ready"
	OrderEventCompleted OrderEventType = "order.completed"
	OrderEventRejected  OrderEventType = "order.rejected"
	OrderEventExpiring  OrderEventType = "order.expiring"
)

var validOrderEventTypes = []OrderEventType{
	OrderEventCreated,
	OrderEventAccepted,
	OrderEventReady,
	OrderEventCompleted,
	OrderEventRejected,
	OrderEventExpiring,
}

// String implements fmt.Stringer.
func (e OrderEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known OrderEventType.
func (e OrderEventType) IsValid() bool {
	for _, candidate := range validOrderEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOrderEventType converts raw input into an OrderEventType.
func ParseOrderEventType(value string) (OrderEventType, error) {
	for _, candidate := range validOrderEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event type %q", value)
}

// OrderEventForStatus maps a status reached by a transition to its event.
func OrderEventForStatus(status OrderStatus) (OrderEventType, bool) {
	switch status {
	case OrderStatusPending:
		return OrderEventCreated, true
	case OrderStatusProcessing:
		return OrderEventAccepted, true
	case OrderStatusReady:
		return OrderEventReady, true
	case OrderStatusCompleted:
		return OrderEventCompleted, true
	case OrderStatusRejected:
		return OrderEventRejected, true
	default:
		return "", false
	}
}
