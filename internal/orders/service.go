package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/internal/stores"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Service is the order lifecycle engine.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus) ([]Order, error)
	Transition(ctx context.Context, id uuid.UUID, target enums.OrderStatus, reason string) (Order, error)
	AcceptOrder(ctx context.Context, id uuid.UUID) (Order, error)
	RejectOrder(ctx context.Context, id uuid.UUID, reason string) (Order, error)
	MarkReady(ctx context.Context, id uuid.UUID) (Order, error)
	VerifyPickup(ctx context.Context, id uuid.UUID, code string) (Order, error)
	MostUrgentPending(ctx context.Context, storeID uuid.UUID) (*Order, error)
	NotifyExpiring(ctx context.Context, within time.Duration) (int, error)
	ExpireOverdue(ctx context.Context) (int, error)
	Restore(ctx context.Context) (int, error)
	ArmedCountdowns() int
	Now() time.Time
	Shutdown()
}

// Settings are the engine defaults; stores may override the window and tax rate.
type Settings struct {
	AckWindow           time.Duration
	LowStockThreshold   int
	// LowStockWeightGrams applies to weight-priced SKUs, whose inventory is kept in grams.
	LowStockWeightGrams int
	MaxPickupAttempts   int
	Pricing             pricing.Rules
}

// StockThresholds are the inclusive low-stock levels per quantity kind.
type StockThresholds struct {
	Units       int
	WeightGrams int
}

func (t StockThresholds) forQuantity(q Quantity) int {
	if q != nil && q.Kind() == enums.QuantityKindWeight {
		return t.WeightGrams
	}
	return t.Units
}

// ServiceParams bundles the engine collaborators. Notifier, Metrics, Clock and Codes are optional.
type ServiceParams struct {
	Repo     Repository
	Stores   StoreDirectory
	Notifier Notifier
	Metrics  Metrics
	Clock    Clock
	Codes    CodeGenerator
	Logger   *logger.Logger
	Settings Settings
}

// CreateOrderInput is a customer order placement.
type CreateOrderInput struct {
	StoreID  uuid.UUID
	Customer Customer
	Items    []Item
	Discount *pricing.Discount
}

type service struct {
	registry  *registry
	scheduler *Scheduler
	repo      Repository
	stores    StoreDirectory
	notifier  Notifier
	metrics   Metrics
	clock     Clock
	codes     CodeGenerator
	logg      *logger.Logger
	settings  Settings
}

// NewService builds the engine. Call Restore before serving traffic to reload persisted orders.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store directory required")
	}
	if params.Settings.AckWindow <= 0 {
		return nil, fmt.Errorf("ack window must be positive")
	}
	svc := &service{
		registry: newRegistry(),
		repo:     params.Repo,
		stores:   params.Stores,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		clock:    params.Clock,
		codes:    params.Codes,
		logg:     params.Logger,
		settings: params.Settings,
	}
	if svc.notifier == nil {
		svc.notifier = nopNotifier{}
	}
	if svc.metrics == nil {
		svc.metrics = nopMetrics{}
	}
	if svc.clock == nil {
		svc.clock = RealClock()
	}
	if svc.codes == nil {
		svc.codes = RandomPickupCode
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	svc.scheduler = NewScheduler(svc.clock, svc.expire)
	return svc, nil
}

func (s *service) Now() time.Time {
	return s.clock.Now()
}

func (s *service) ArmedCountdowns() int {
	return s.scheduler.Armed()
}

func (s *service) Shutdown() {
	s.scheduler.Stop()
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if err := validateCreateInput(input); err != nil {
		return Order{}, err
	}

	store, err := s.stores.Get(ctx, input.StoreID)
	if err != nil {
		return Order{}, err
	}
	if !store.IsOnline {
		return Order{}, pkgerrors.New(pkgerrors.CodeInvalidState, "store is not accepting orders").
			WithDetails(map[string]any{"store_id": store.ID})
	}

	breakdown, err := PriceItems(input.Items, input.Discount, s.settings.Pricing.WithTaxRate(store.TaxRatePercent))
	if err != nil {
		return Order{}, err
	}

	code, err := s.codes()
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pickup code")
	}

	now := s.clock.Now().UTC()
	deadline := now.Add(store.AckWindow(s.settings.AckWindow))
	items := make([]Item, len(input.Items))
	copy(items, input.Items)
	order := Order{
		ID:            uuid.New(),
		StoreID:       store.ID,
		Status:        enums.OrderStatusPending,
		Items:         items,
		Pricing:       breakdown,
		Customer:      input.Customer,
		PickupCode:    code,
		AcknowledgeBy: &deadline,
		PlacedAt:      now,
		UpdatedAt:     now,
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	e := &entry{order: order}
	e.mu.Lock()
	s.registry.insert(e)
	s.scheduler.Schedule(order.ID, order.StoreID, deadline)
	e.mu.Unlock()

	s.metrics.OrderCreated()
	ctx = s.logg.WithOrderID(s.logg.WithStoreID(ctx, order.StoreID.String()), order.ID.String())
	s.logg.Info(ctx, "order placed")
	s.notifier.Notify(ctx, Event{Type: enums.OrderEventCreated, Order: order, OccurredAt: now})
	return order, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if input.StoreID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if strings.TrimSpace(input.Customer.Name) == "" || strings.TrimSpace(input.Customer.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}
	return validateItems(input.Items)
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for idx, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return itemError(idx, "item name is required")
		}
		switch q := item.Quantity.(type) {
		case UnitQuantity:
			if q.Count <= 0 {
				return itemError(idx, "unit count must be positive")
			}
		case WeightQuantity:
			if !q.Amount.IsPositive() {
				return itemError(idx, "weight must be positive")
			}
			if !q.Unit.IsValid() {
				return itemError(idx, "unsupported weight unit")
			}
		default:
			return itemError(idx, "item quantity is required")
		}
	}
	return nil
}

// PriceItems validates items and prices them under rules.
func PriceItems(items []Item, discount *pricing.Discount, rules pricing.Rules) (pricing.Breakdown, error) {
	if err := validateItems(items); err != nil {
		return pricing.Breakdown{}, err
	}
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.Quantity.Line(item.UnitPrice))
	}
	return pricing.Compute(lines, discount, rules)
}

func itemError(idx int, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"item": idx})
}

func (s *service) GetOrder(_ context.Context, id uuid.UUID) (Order, error) {
	e, ok := s.registry.get(id)
	if !ok {
		return Order{}, orderNotFound(id)
	}
	return e.snapshot(), nil
}

func (s *service) ListOrders(_ context.Context, storeID uuid.UUID, status *enums.OrderStatus) ([]Order, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.registry.list(storeID, status), nil
}

func (s *service) AcceptOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.Transition(ctx, id, enums.OrderStatusProcessing, "")
}

func (s *service) RejectOrder(ctx context.Context, id uuid.UUID, reason string) (Order, error) {
	return s.Transition(ctx, id, enums.OrderStatusRejected, reason)
}

func (s *service) MarkReady(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.Transition(ctx, id, enums.OrderStatusReady, "")
}

// Transition applies a merchant-driven move. Completion goes through VerifyPickup instead.
func (s *service) Transition(ctx context.Context, id uuid.UUID, target enums.OrderStatus, reason string) (Order, error) {
	e, ok := s.registry.get(id)
	if !ok {
		return Order{}, orderNotFound(id)
	}
	if !target.IsValid() {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status")
	}
	reason = strings.TrimSpace(reason)
	if target == enums.OrderStatusRejected && reason == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	if target == enums.OrderStatusCompleted {
		current := e.snapshot()
		if current.Status != enums.OrderStatusCompleted {
			return Order{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "orders complete only through pickup verification").
				WithDetails(map[string]any{"from": current.Status, "to": target})
		}
		return current, nil
	}

	e.mu.Lock()
	order, changed, err := s.applyLocked(ctx, e, target, reason, triggerMerchant)
	e.mu.Unlock()
	if err != nil {
		return Order{}, err
	}
	if changed {
		s.emit(ctx, order)
	}
	return order, nil
}

// applyLocked moves e to target. The caller holds e.mu. A persist failure leaves e untouched.
func (s *service) applyLocked(ctx context.Context, e *entry, target enums.OrderStatus, reason, trigger string) (Order, bool, error) {
	current := e.order
	switch evaluateTransition(current.Status, target) {
	case transitionNoop:
		return current, false, nil
	case transitionInvalid:
		return Order{}, false, invalidTransition(current.Status, target)
	}

	now := s.clock.Now().UTC()
	next := current
	next.Status = target
	next.UpdatedAt = now
	switch target {
	case enums.OrderStatusProcessing:
		next.AcceptedAt = &now
		items, err := s.classifyStock(ctx, current)
		if err != nil {
			return Order{}, false, err
		}
		next.Items = items
	case enums.OrderStatusReady:
		next.ReadyAt = &now
	case enums.OrderStatusCompleted:
		next.CompletedAt = &now
	case enums.OrderStatusRejected:
		by := enums.RejectionTriggerMerchant
		if trigger == triggerTimeout {
			by = enums.RejectionTriggerTimeout
		}
		next.RejectedAt = &now
		next.RejectionReason = &reason
		next.RejectedBy = &by
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return Order{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order transition")
	}
	e.order = next
	if current.Status == enums.OrderStatusPending {
		s.scheduler.Cancel(current.ID)
	}
	s.metrics.OrderTransitioned(current.Status, target, trigger)
	return next, true, nil
}

// classifyStock stamps every item against the store inventory as of acceptance.
func (s *service) classifyStock(ctx context.Context, order Order) ([]Item, error) {
	store, err := s.stores.Get(ctx, order.StoreID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			store = stores.Store{ID: order.StoreID}
		} else {
			return nil, err
		}
	}
	thresholds := StockThresholds{Units: s.settings.LowStockThreshold, WeightGrams: s.settings.LowStockWeightGrams}
	items := make([]Item, len(order.Items))
	for idx, item := range order.Items {
		status := StockStatusFor(store, item, thresholds)
		item.StockStatus = &status
		items[idx] = item
	}
	return items, nil
}

// StockStatusFor classifies item against the store inventory. Untracked SKUs count as in stock.
// Unit SKUs are counted in units and weight SKUs in grams.
func StockStatusFor(store stores.Store, item Item, thresholds StockThresholds) enums.StockStatus {
	available, tracked := store.Stock(item.SKU)
	if !tracked {
		return enums.StockStatusInStock
	}
	needed := 1
	if item.Quantity != nil {
		needed = item.Quantity.StockUnits()
	}
	switch {
	case available <= 0 || available < needed:
		return enums.StockStatusOutOfStock
	case available <= thresholds.forQuantity(item.Quantity):
		return enums.StockStatusLowStock
	default:
		return enums.StockStatusInStock
	}
}

func (s *service) emit(ctx context.Context, order Order) {
	eventType, ok := enums.OrderEventForStatus(order.Status)
	if !ok {
		return
	}
	s.notifier.Notify(ctx, Event{Type: eventType, Order: order, OccurredAt: order.UpdatedAt})
}

// expire is the scheduler callback. A late fire against a non-pending order is a no-op.
func (s *service) expire(id uuid.UUID) {
	ctx := s.logg.WithOrderID(context.Background(), id.String())
	e, ok := s.registry.get(id)
	if !ok {
		return
	}

	e.mu.Lock()
	current := e.order
	if current.Status != enums.OrderStatusPending || current.AcknowledgeBy == nil {
		e.mu.Unlock()
		return
	}
	if now := s.clock.Now(); now.Before(*current.AcknowledgeBy) {
		s.scheduler.Schedule(current.ID, current.StoreID, *current.AcknowledgeBy)
		e.mu.Unlock()
		return
	}
	order, changed, err := s.applyLocked(ctx, e, enums.OrderStatusRejected, TimeoutRejectionReason, triggerTimeout)
	e.mu.Unlock()

	ctx = s.logg.WithStoreID(ctx, current.StoreID.String())
	if err != nil {
		s.logg.Error(ctx, "auto-reject after acknowledgment timeout failed", err)
		return
	}
	if changed {
		s.logg.Info(s.logg.WithField(ctx, "reason", TimeoutRejectionReason), "order rejected by policy")
		s.emit(ctx, order)
	}
}

// ExpireOverdue rejects pending orders whose deadline has passed. It backs up lost or failed timers.
func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired := 0
	var errs error
	for _, e := range s.registry.all() {
		e.mu.Lock()
		current := e.order
		if current.Status != enums.OrderStatusPending || current.AcknowledgeBy == nil || now.Before(*current.AcknowledgeBy) {
			e.mu.Unlock()
			continue
		}
		order, changed, err := s.applyLocked(ctx, e, enums.OrderStatusRejected, TimeoutRejectionReason, triggerTimeout)
		e.mu.Unlock()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", current.ID, err))
			continue
		}
		if changed {
			expired++
			s.emit(ctx, order)
		}
	}
	return expired, errs
}

// NotifyExpiring emits one order.expiring event per pending order due within the lead time.
func (s *service) NotifyExpiring(ctx context.Context, within time.Duration) (int, error) {
	now := s.clock.Now().UTC()
	sent := 0
	var errs error
	for _, due := range s.scheduler.DueBy(now.Add(within)) {
		e, ok := s.registry.get(due.OrderID)
		if !ok {
			continue
		}
		e.mu.Lock()
		current := e.order
		if current.Status != enums.OrderStatusPending || current.NudgedAt != nil {
			e.mu.Unlock()
			continue
		}
		next := current
		next.NudgedAt = &now
		if err := s.repo.Save(ctx, next); err != nil {
			e.mu.Unlock()
			errs = multierr.Append(errs, fmt.Errorf("mark order %s nudged: %w", current.ID, err))
			continue
		}
		e.order = next
		e.mu.Unlock()

		sent++
		s.notifier.Notify(ctx, Event{Type: enums.OrderEventExpiring, Order: next, OccurredAt: now})
	}
	return sent, errs
}

func (s *service) MostUrgentPending(_ context.Context, storeID uuid.UUID) (*Order, error) {
	due, ok := s.scheduler.MostUrgent(storeID)
	if !ok {
		return nil, nil
	}
	e, ok := s.registry.get(due.OrderID)
	if !ok {
		return nil, nil
	}
	order := e.snapshot()
	return &order, nil
}

// Restore reloads persisted orders and re-arms countdowns for the pending ones.
// A deadline that passed while the process was down fires immediately.
func (s *service) Restore(ctx context.Context) (int, error) {
	rows, err := s.repo.LoadAll(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	loaded := 0
	for _, order := range rows {
		e := &entry{order: order}
		e.mu.Lock()
		if _, inserted := s.registry.insert(e); inserted {
			loaded++
			if order.Status == enums.OrderStatusPending && order.AcknowledgeBy != nil {
				s.scheduler.Schedule(order.ID, order.StoreID, *order.AcknowledgeBy)
			}
		}
		e.mu.Unlock()
	}
	s.logg.Info(s.logg.WithField(ctx, "orders_loaded", loaded), "orders restored")
	return loaded, nil
}

func orderNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"order_id": id})
}

func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}
