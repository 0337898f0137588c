package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pickupz-backend/pkg/enums"
)

// PickupOrder is the persisted snapshot of an order. Items hold the tagged item variants as JSON.
type PickupOrder struct {
	ID                   uuid.UUID               `gorm:"type:uuid;primaryKey"`
	StoreID              uuid.UUID               `gorm:"column:store_id;type:uuid;not null"`
	Status               enums.OrderStatus       `gorm:"column:status;type:order_status;not null"`
	Items                json.RawMessage         `gorm:"column:items;type:jsonb;serializer:json;not null"`
	CustomerUserID       uuid.UUID               `gorm:"column:customer_user_id;type:uuid;not null"`
	CustomerName         string                  `gorm:"column:customer_name;not null"`
	CustomerPhone        string                  `gorm:"column:customer_phone;not null"`
	CustomerAddress      *string                 `gorm:"column:customer_address"`
	CustomerNote         *string                 `gorm:"column:customer_note"`
	Subtotal             decimal.Decimal         `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount             decimal.Decimal         `gorm:"column:discount;type:numeric(12,2);not null"`
	DiscountMode         *enums.DiscountMode     `gorm:"column:discount_mode"`
	DiscountRatePercent  *decimal.Decimal        `gorm:"column:discount_rate_percent;type:numeric(5,1)"`
	TaxRatePercent       decimal.Decimal         `gorm:"column:tax_rate_percent;type:numeric(5,2);not null"`
	Tax                  decimal.Decimal         `gorm:"column:tax;type:numeric(12,2);not null"`
	PlatformFee          decimal.Decimal         `gorm:"column:platform_fee;type:numeric(12,2);not null"`
	Total                decimal.Decimal         `gorm:"column:total;type:numeric(12,2);not null"`
	PickupCode           string                  `gorm:"column:pickup_code;type:char(4);not null"`
	AcknowledgeBy        *time.Time              `gorm:"column:acknowledge_by"`
	PlacedAt             time.Time               `gorm:"column:placed_at;not null"`
	AcceptedAt           *time.Time              `gorm:"column:accepted_at"`
	ReadyAt              *time.Time              `gorm:"column:ready_at"`
	CompletedAt          *time.Time              `gorm:"column:completed_at"`
	RejectedAt           *time.Time              `gorm:"column:rejected_at"`
	RejectionReason      *string                 `gorm:"column:rejection_reason"`
	RejectedBy           *enums.RejectionTrigger `gorm:"column:rejected_by"`
	FailedPickupAttempts int                     `gorm:"column:failed_pickup_attempts;not null;default:0"`
	NudgedAt             *time.Time              `gorm:"column:nudged_at"`
	UpdatedAt            time.Time               `gorm:"column:updated_at"`
}

func (PickupOrder) TableName() string { return "pickup_orders" }
