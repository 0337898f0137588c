package orders

import (
	"time"

	"github.com/angelmondragon/pickupz-backend/pkg/enums"
)

// Event is emitted after a lifecycle change has been applied and persisted.
type Event struct {
	Type       enums.OrderEventType
	Order      Order
	OccurredAt time.Time
}

const (
	triggerMerchant = "merchant"
	triggerTimeout  = "timeout"
	triggerPickup   = "pickup"

	verifyResultMatch    = "match"
	verifyResultMismatch = "mismatch"
	verifyResultLocked   = "locked"
)

// TimeoutRejectionReason is recorded when the acknowledgment window lapses.
const TimeoutRejectionReason = "auto-rejected: acknowledgment timeout"
