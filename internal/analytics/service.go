package analytics

import (
	"context"

	"github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/internal/stores"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/google/uuid"
)

type orderSource interface {
	ListOrders(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus) ([]orders.Order, error)
}

type storeSource interface {
	Get(ctx context.Context, id uuid.UUID) (stores.Store, error)
}

// Service provides per-store dashboard metrics.
type Service interface {
	// StoreMetrics recomputes counts and earnings from the live order set.
	StoreMetrics(ctx context.Context, storeID uuid.UUID) (StoreMetrics, error)
}

type service struct {
	orders orderSource
	stores storeSource
	clock  orders.Clock
}

// NewService builds an analytics service over the order registry.
func NewService(orderSrc orderSource, storeSrc storeSource, clock orders.Clock) (Service, error) {
	if orderSrc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order source required")
	}
	if storeSrc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store directory required")
	}
	if clock == nil {
		clock = orders.RealClock()
	}
	return &service{orders: orderSrc, stores: storeSrc, clock: clock}, nil
}

func (s *service) StoreMetrics(ctx context.Context, storeID uuid.UUID) (StoreMetrics, error) {
	if _, err := s.stores.Get(ctx, storeID); err != nil {
		return StoreMetrics{}, err
	}
	list, err := s.orders.ListOrders(ctx, storeID, nil)
	if err != nil {
		return StoreMetrics{}, err
	}
	metrics := Aggregate(storeID, list)
	metrics.GeneratedAt = s.clock.Now().UTC()
	return metrics, nil
}
