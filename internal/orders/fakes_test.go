package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/internal/stores"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	mu      sync.Mutex
	saved   map[uuid.UUID]Order
	saves   int
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{saved: map[uuid.UUID]Order{}}
}

func (r *fakeRepo) Save(_ context.Context, order Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.saved[order.ID] = order
	return nil
}

func (r *fakeRepo) LoadAll(context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0, len(r.saved))
	for _, order := range r.saved {
		out = append(out, order)
	}
	return out, nil
}

func (r *fakeRepo) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func (r *fakeRepo) get(id uuid.UUID) (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.saved[id]
	return order, ok
}

type fakeStores struct {
	mu     sync.Mutex
	stores map[uuid.UUID]stores.Store
}

func newFakeStores(list ...stores.Store) *fakeStores {
	f := &fakeStores{stores: map[uuid.UUID]stores.Store{}}
	for _, s := range list {
		f.stores[s.ID] = s
	}
	return f
}

func (f *fakeStores) Get(_ context.Context, id uuid.UUID) (stores.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stores[id]
	if !ok {
		return stores.Store{}, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return s, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []enums.OrderEventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]enums.OrderEventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func (n *recordingNotifier) count(eventType enums.OrderEventType) int {
	total := 0
	for _, t := range n.types() {
		if t == eventType {
			total++
		}
	}
	return total
}

type recordingMetrics struct {
	mu          sync.Mutex
	created     int
	transitions map[string]int
	verified    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{transitions: map[string]int{}, verified: map[string]int{}}
}

func (m *recordingMetrics) OrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *recordingMetrics) OrderTransitioned(from, to enums.OrderStatus, trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[string(from)+">"+string(to)+":"+trigger]++
}

func (m *recordingMetrics) PickupVerified(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified[result]++
}

type testEngine struct {
	svc      *service
	clock    *fakeClock
	repo     *fakeRepo
	stores   *fakeStores
	notifier *recordingNotifier
	metrics  *recordingMetrics
	store    stores.Store
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func onlineStore() stores.Store {
	return stores.Store{ID: uuid.New(), OwnerID: uuid.New(), Name: "Green Basket", IsOnline: true, Inventory: map[string]int{}}
}

func newTestEngine(t testing.TB, mutate func(*Settings)) *testEngine {
	t.Helper()
	settings := Settings{
		AckWindow:           300 * time.Second,
		LowStockThreshold:   10,
		LowStockWeightGrams: 1000,
		Pricing:             pricing.Rules{TaxRatePercent: dec("5"), Fee: pricing.FlatFee(dec("5")), Scale: pricing.DefaultScale},
	}
	if mutate != nil {
		mutate(&settings)
	}
	store := onlineStore()
	te := &testEngine{
		clock:    newFakeClock(),
		repo:     newFakeRepo(),
		stores:   newFakeStores(store),
		notifier: &recordingNotifier{},
		metrics:  newRecordingMetrics(),
		store:    store,
	}
	svc, err := NewService(ServiceParams{
		Repo:     te.repo,
		Stores:   te.stores,
		Notifier: te.notifier,
		Metrics:  te.metrics,
		Clock:    te.clock,
		Codes:    func() (string, error) { return "1234", nil },
		Settings: settings,
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	te.svc = svc.(*service)
	return te
}

func (te *testEngine) place(t testing.TB, items ...Item) Order {
	t.Helper()
	if len(items) == 0 {
		items = []Item{{Name: "Basmati rice", SKU: "rice", UnitPrice: dec("100"), Quantity: UnitQuantity{Count: 2}}}
	}
	order, err := te.svc.CreateOrder(context.Background(), CreateOrderInput{
		StoreID:  te.store.ID,
		Customer: Customer{UserID: uuid.New(), Name: "Asha", Phone: "+15550100"},
		Items:    items,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	return order
}
