package stores

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists store rows.
type Repository interface {
	Save(ctx context.Context, store Store) error
	LoadAll(ctx context.Context) ([]Store, error)
}

// Service is the in-memory store directory with write-through persistence.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (Store, error)
	List(ctx context.Context) []Store
	Upsert(ctx context.Context, input UpsertStoreInput) (Store, error)
	SetOnline(ctx context.Context, id uuid.UUID, online bool) (Store, error)
	SetInventory(ctx context.Context, input SetInventoryInput) (Store, error)
	Restore(ctx context.Context) (int, error)
}

// UpsertStoreInput creates a store or updates the provided fields. Nil means unchanged.
type UpsertStoreInput struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Name             *string
	IsOnline         *bool
	AckWindowSeconds *int
	TaxRatePercent   *decimal.Decimal
}

// SetInventoryInput adjusts tracked stock. Replace drops SKUs missing from Stock.
type SetInventoryInput struct {
	StoreID uuid.UUID
	ActorID uuid.UUID
	Stock   map[string]int
	Replace bool
}

type service struct {
	repo Repository
	now  func() time.Time

	mu     sync.RWMutex
	stores map[uuid.UUID]Store
}

// NewService builds a store directory backed by repo.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{
		repo:   repo,
		now:    time.Now,
		stores: map[uuid.UUID]Store{},
	}, nil
}

func (s *service) Get(_ context.Context, id uuid.UUID) (Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.stores[id]
	if !ok {
		return Store{}, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return store.clone(), nil
}

func (s *service) List(context.Context) []Store {
	s.mu.RLock()
	out := make([]Store, 0, len(s.stores))
	for _, store := range s.stores {
		out = append(out, store.clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *service) Upsert(ctx context.Context, input UpsertStoreInput) (Store, error) {
	if input.ID == uuid.Nil {
		return Store{}, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if input.AckWindowSeconds != nil && *input.AckWindowSeconds <= 0 {
		return Store{}, pkgerrors.New(pkgerrors.CodeValidation, "ack window must be positive")
	}
	if input.TaxRatePercent != nil && (input.TaxRatePercent.IsNegative() || input.TaxRatePercent.GreaterThan(decimal.NewFromInt(100))) {
		return Store{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 100")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	current, exists := s.stores[input.ID]
	if exists && current.OwnerID != input.OwnerID {
		return Store{}, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another merchant")
	}

	next := current.clone()
	if !exists {
		if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
			return Store{}, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
		}
		next = Store{ID: input.ID, OwnerID: input.OwnerID, Inventory: map[string]int{}, CreatedAt: now}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Store{}, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
		}
		next.Name = name
	}
	if input.IsOnline != nil {
		next.IsOnline = *input.IsOnline
	}
	if input.AckWindowSeconds != nil {
		window := *input.AckWindowSeconds
		next.AckWindowSeconds = &window
	}
	if input.TaxRatePercent != nil {
		rate := *input.TaxRatePercent
		next.TaxRatePercent = &rate
	}
	next.UpdatedAt = now

	if err := s.repo.Save(ctx, next); err != nil {
		return Store{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist store")
	}
	s.stores[next.ID] = next
	return next.clone(), nil
}

func (s *service) SetOnline(ctx context.Context, id uuid.UUID, online bool) (Store, error) {
	return s.mutate(ctx, id, uuid.Nil, func(store *Store) error {
		store.IsOnline = online
		return nil
	})
}

func (s *service) SetInventory(ctx context.Context, input SetInventoryInput) (Store, error) {
	for sku, qty := range input.Stock {
		if strings.TrimSpace(sku) == "" {
			return Store{}, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
		}
		if qty < 0 {
			return Store{}, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative").
				WithDetails(map[string]any{"sku": sku})
		}
	}
	return s.mutate(ctx, input.StoreID, input.ActorID, func(store *Store) error {
		if input.Replace {
			store.Inventory = map[string]int{}
		}
		for sku, qty := range input.Stock {
			store.Inventory[strings.TrimSpace(sku)] = qty
		}
		return nil
	})
}

// mutate applies fn to a copy and swaps it in once persisted. A nil actor skips the owner check.
func (s *service) mutate(ctx context.Context, id, actorID uuid.UUID, fn func(store *Store) error) (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.stores[id]
	if !ok {
		return Store{}, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if actorID != uuid.Nil && current.OwnerID != actorID {
		return Store{}, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another merchant")
	}
	next := current.clone()
	if err := fn(&next); err != nil {
		return Store{}, err
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, next); err != nil {
		return Store{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist store")
	}
	s.stores[id] = next
	return next.clone(), nil
}

// Restore loads persisted stores into the directory. Existing entries win.
func (s *service) Restore(ctx context.Context) (int, error) {
	rows, err := s.repo.LoadAll(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stores")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	loaded := 0
	for _, store := range rows {
		if _, ok := s.stores[store.ID]; ok {
			continue
		}
		if store.Inventory == nil {
			store.Inventory = map[string]int{}
		}
		s.stores[store.ID] = store
		loaded++
	}
	return loaded, nil
}
