package analytics

import (
	"time"

	"github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreMetrics is derived from the order set on every read and never stored.
type StoreMetrics struct {
	StoreID      uuid.UUID                 `json:"store_id"`
	Counts       map[enums.OrderStatus]int `json:"counts"`
	Sales        decimal.Decimal           `json:"sales"`
	Earnings     decimal.Decimal           `json:"earnings"`
	PlatformFees decimal.Decimal           `json:"platform_fees"`
	GeneratedAt  time.Time                 `json:"generated_at"`
}

// Aggregate counts every status of storeID and sums completed orders. Orders of other stores are ignored.
func Aggregate(storeID uuid.UUID, list []orders.Order) StoreMetrics {
	out := StoreMetrics{
		StoreID:      storeID,
		Counts:       make(map[enums.OrderStatus]int, len(enums.OrderStatuses())),
		Sales:        decimal.Zero,
		Earnings:     decimal.Zero,
		PlatformFees: decimal.Zero,
	}
	for _, status := range enums.OrderStatuses() {
		out.Counts[status] = 0
	}
	for _, order := range list {
		if order.StoreID != storeID {
			continue
		}
		out.Counts[order.Status]++
		if order.Status != enums.OrderStatusCompleted {
			continue
		}
		out.Sales = out.Sales.Add(order.Pricing.Total)
		out.Earnings = out.Earnings.Add(order.Pricing.NetEarnings())
		out.PlatformFees = out.PlatformFees.Add(order.Pricing.PlatformFee)
	}
	return out
}
