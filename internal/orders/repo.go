package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository stores order snapshots in the pickup_orders table.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order persistence.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Save upserts the full snapshot.
func (r *GormRepository) Save(ctx context.Context, order Order) error {
	record, err := toModel(order)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

// LoadAll returns every order in placement order.
func (r *GormRepository) LoadAll(ctx context.Context) ([]Order, error) {
	var rows []models.PickupOrder
	if err := r.db.WithContext(ctx).Order("placed_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		order, err := fromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func toModel(o Order) (models.PickupOrder, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return models.PickupOrder{}, fmt.Errorf("encode order items: %w", err)
	}
	return models.PickupOrder{
		ID:                   o.ID,
		StoreID:              o.StoreID,
		Status:               o.Status,
		Items:                items,
		CustomerUserID:       o.Customer.UserID,
		CustomerName:         o.Customer.Name,
		CustomerPhone:        o.Customer.Phone,
		CustomerAddress:      o.Customer.Address,
		CustomerNote:         o.Customer.Note,
		Subtotal:             o.Pricing.Subtotal,
		Discount:             o.Pricing.Discount,
		DiscountMode:         o.Pricing.DiscountMode,
		DiscountRatePercent:  o.Pricing.DiscountRatePercent,
		TaxRatePercent:       o.Pricing.TaxRatePercent,
		Tax:                  o.Pricing.Tax,
		PlatformFee:          o.Pricing.PlatformFee,
		Total:                o.Pricing.Total,
		PickupCode:           o.PickupCode,
		AcknowledgeBy:        o.AcknowledgeBy,
		PlacedAt:             o.PlacedAt,
		AcceptedAt:           o.AcceptedAt,
		ReadyAt:              o.ReadyAt,
		CompletedAt:          o.CompletedAt,
		RejectedAt:           o.RejectedAt,
		RejectionReason:      o.RejectionReason,
		RejectedBy:           o.RejectedBy,
		FailedPickupAttempts: o.FailedPickupAttempts,
		NudgedAt:             o.NudgedAt,
		UpdatedAt:            o.UpdatedAt,
	}, nil
}

func fromModel(m models.PickupOrder) (Order, error) {
	var items []Item
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &items); err != nil {
			return Order{}, fmt.Errorf("decode items of order %s: %w", m.ID, err)
		}
	}
	return Order{
		ID:      m.ID,
		StoreID: m.StoreID,
		Status:  m.Status,
		Items:   items,
		Pricing: pricing.Breakdown{
			Subtotal:            m.Subtotal,
			Discount:            m.Discount,
			DiscountMode:        m.DiscountMode,
			DiscountRatePercent: m.DiscountRatePercent,
			TaxRatePercent:      m.TaxRatePercent,
			Tax:                 m.Tax,
			PlatformFee:         m.PlatformFee,
			Total:               m.Total,
		},
		Customer: Customer{
			UserID:  m.CustomerUserID,
			Name:    m.CustomerName,
			Phone:   m.CustomerPhone,
			Address: m.CustomerAddress,
			Note:    m.CustomerNote,
		},
		PickupCode:           m.PickupCode,
		AcknowledgeBy:        m.AcknowledgeBy,
		PlacedAt:             m.PlacedAt,
		AcceptedAt:           m.AcceptedAt,
		ReadyAt:              m.ReadyAt,
		CompletedAt:          m.CompletedAt,
		RejectedAt:           m.RejectedAt,
		RejectionReason:      m.RejectionReason,
		RejectedBy:           m.RejectedBy,
		FailedPickupAttempts: m.FailedPickupAttempts,
		NudgedAt:             m.NudgedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}
