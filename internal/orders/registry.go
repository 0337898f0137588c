package orders

import (
	"sort"
	"sync"

	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/google/uuid"
)

// entry serializes mutations of one order. The order value is replaced, never edited in place,
// so copies handed to readers stay consistent.
type entry struct {
	mu    sync.Mutex
	order Order
}

func (e *entry) snapshot() Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order
}

// registry indexes every order ever created. Its lock guards the maps only.
type registry struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*entry
	byStore map[uuid.UUID][]*entry
}

func newRegistry() *registry {
	return &registry{
		orders:  map[uuid.UUID]*entry{},
		byStore: map[uuid.UUID][]*entry{},
	}
}

func (r *registry) get(id uuid.UUID) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.orders[id]
	return e, ok
}

// insert indexes e unless its order id is already present.
func (r *registry) insert(e *entry) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := e.order.ID
	if existing, ok := r.orders[id]; ok {
		return existing, false
	}
	r.orders[id] = e
	r.byStore[e.order.StoreID] = append(r.byStore[e.order.StoreID], e)
	return e, true
}

// list copies the orders of storeID, newest first, optionally filtered by status.
func (r *registry) list(storeID uuid.UUID, status *enums.OrderStatus) []Order {
	r.mu.RLock()
	entries := make([]*entry, len(r.byStore[storeID]))
	copy(entries, r.byStore[storeID])
	r.mu.RUnlock()

	out := make([]Order, 0, len(entries))
	for _, e := range entries {
		order := e.snapshot()
		if status != nil && order.Status != *status {
			continue
		}
		out = append(out, order)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	return out
}

func (r *registry) all() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entry, 0, len(r.orders))
	for _, e := range r.orders {
		out = append(out, e)
	}
	return out
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
