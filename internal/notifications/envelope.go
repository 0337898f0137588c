package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const envelopeVersion = 1

// Envelope is the stable message structure handed to every sink.
type Envelope struct {
	Version    int                  `json:"version"`
	EventID    string               `json:"eventId"`
	EventType  enums.OrderEventType `json:"eventType"`
	Recipient  enums.UserRole       `json:"recipient"`
	OrderID    uuid.UUID            `json:"orderId"`
	StoreID    uuid.UUID            `json:"storeId"`
	OccurredAt time.Time            `json:"occurredAt"`
	Data       json.RawMessage      `json:"data"`
}

// OrderPayload is the order summary carried in Envelope.Data.
type OrderPayload struct {
	Status          enums.OrderStatus `json:"status"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone,omitempty"`
	Total           decimal.Decimal   `json:"total"`
	ItemCount       int               `json:"itemCount"`
	PickupCode      *string           `json:"pickupCode,omitempty"`
	AcknowledgeBy   *time.Time        `json:"acknowledgeBy,omitempty"`
	RejectionReason *string           `json:"rejectionReason,omitempty"`
	RejectedBy      *string           `json:"rejectedBy,omitempty"`
}

// RecipientFor decides who an event is addressed to.
func RecipientFor(eventType enums.OrderEventType) enums.UserRole {
	switch eventType {
	case enums.OrderEventCreated, enums.OrderEventExpiring:
		return enums.UserRoleMerchant
	default:
		return enums.UserRoleCustomer
	}
}

// NewEnvelope renders an order event. Only order.ready carries the pickup code.
func NewEnvelope(event orders.Event, eventID string) (Envelope, error) {
	if !event.Type.IsValid() {
		return Envelope{}, fmt.Errorf("unknown order event type %q", event.Type)
	}
	order := event.Order
	payload := OrderPayload{
		Status:        order.Status,
		CustomerName:  order.Customer.Name,
		CustomerPhone: order.Customer.Phone,
		Total:         order.Pricing.Total,
		ItemCount:     len(order.Items),
	}
	switch event.Type {
	case enums.OrderEventReady:
		code := order.PickupCode
		payload.PickupCode = &code
	case enums.OrderEventCreated, enums.OrderEventExpiring:
		payload.AcknowledgeBy = order.AcknowledgeBy
	case enums.OrderEventRejected:
		payload.RejectionReason = order.RejectionReason
		if order.RejectedBy != nil {
			by := order.RejectedBy.String()
			payload.RejectedBy = &by
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal order payload: %w", err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return Envelope{
		Version:    envelopeVersion,
		EventID:    eventID,
		EventType:  event.Type,
		Recipient:  RecipientFor(event.Type),
		OrderID:    order.ID,
		StoreID:    order.StoreID,
		OccurredAt: occurred.UTC(),
		Data:       data,
	}, nil
}

// Attributes are the transport headers shared by the pubsub and kafka sinks.
func (e Envelope) Attributes() map[string]string {
	return map[string]string{
		"event_id":   e.EventID,
		"event_type": string(e.EventType),
		"recipient":  string(e.Recipient),
		"order_id":   e.OrderID.String(),
		"store_id":   e.StoreID.String(),
	}
}
