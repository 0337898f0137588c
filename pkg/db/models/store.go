package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persisted merchant storefront.
type Store struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID        `gorm:"column:owner_id;type:uuid;not null"`
	Name             string           `gorm:"column:name;not null"`
	IsOnline         bool             `gorm:"column:is_online;not null;default:false"`
	AckWindowSeconds *int             `gorm:"column:ack_window_seconds"`
	TaxRatePercent   *decimal.Decimal `gorm:"column:tax_rate_percent;type:numeric(5,2)"`
	Inventory        map[string]int   `gorm:"column:inventory;type:jsonb;serializer:json;not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string { return "stores" }
