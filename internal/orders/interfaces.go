package orders

import (
	"context"

	"github.com/angelmondragon/pickupz-backend/internal/stores"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/google/uuid"
)

// Repository persists order snapshots. Save is an upsert by order id.
type Repository interface {
	Save(ctx context.Context, order Order) error
	LoadAll(ctx context.Context) ([]Order, error)
}

// StoreDirectory resolves the store an order is placed against.
type StoreDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (stores.Store, error)
}

// Notifier receives lifecycle events. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Metrics records lifecycle counters.
type Metrics interface {
	OrderCreated()
	OrderTransitioned(from, to enums.OrderStatus, trigger string)
	PickupVerified(result string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

type nopMetrics struct{}

func (nopMetrics) OrderCreated() {}
func (nopMetrics) OrderTransitioned(enums.OrderStatus, enums.OrderStatus, string) {}
func (nopMetrics) PickupVerified(string) {}
