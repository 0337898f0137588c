package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/pickupz-backend/api/middleware"
	internalorders "github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubService struct {
	internalorders.Service

	orders   map[uuid.UUID]internalorders.Order
	created  *internalorders.CreateOrderInput
	verified string
	rejected string
	listed   *enums.OrderStatus
}

func newStub(orders ...internalorders.Order) *stubService {
	s := &stubService{orders: map[uuid.UUID]internalorders.Order{}}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *stubService) Now() time.Time { return fixedNow }

func (s *stubService) CreateOrder(_ context.Context, input internalorders.CreateOrderInput) (internalorders.Order, error) {
	s.created = &input
	deadline := fixedNow.Add(5 * time.Minute)
	return internalorders.Order{
		ID:            uuid.New(),
		StoreID:       input.StoreID,
		Status:        enums.OrderStatusPending,
		Items:         input.Items,
		Customer:      input.Customer,
		PickupCode:    "1234",
		AcknowledgeBy: &deadline,
		PlacedAt:      fixedNow,
	}, nil
}

func (s *stubService) GetOrder(_ context.Context, id uuid.UUID) (internalorders.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return internalorders.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return o, nil
}

func (s *stubService) ListOrders(_ context.Context, storeID uuid.UUID, status *enums.OrderStatus) ([]internalorders.Order, error) {
	s.listed = status
	var out []internalorders.Order
	for _, o := range s.orders {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubService) MostUrgentPending(context.Context, uuid.UUID) (*internalorders.Order, error) {
	return nil, nil
}

func (s *stubService) AcceptOrder(_ context.Context, id uuid.UUID) (internalorders.Order, error) {
	return s.move(id, enums.OrderStatusProcessing)
}

func (s *stubService) RejectOrder(_ context.Context, id uuid.UUID, reason string) (internalorders.Order, error) {
	s.rejected = reason
	return s.move(id, enums.OrderStatusRejected)
}

func (s *stubService) VerifyPickup(_ context.Context, id uuid.UUID, code string) (internalorders.Order, error) {
	s.verified = code
	o := s.orders[id]
	if code != o.PickupCode {
		return internalorders.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "pickup code does not match")
	}
	return s.move(id, enums.OrderStatusCompleted)
}

func (s *stubService) move(id uuid.UUID, status enums.OrderStatus) (internalorders.Order, error) {
	o := s.orders[id]
	o.Status = status
	s.orders[id] = o
	return o, nil
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) internalorders.View {
	t.Helper()
	var envelope struct {
		Data internalorders.View `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func readyOrder(storeID, customerID uuid.UUID) internalorders.Order {
	return internalorders.Order{
		ID:       uuid.New(),
		StoreID:  storeID,
		Status:   enums.OrderStatusReady,
		Customer: internalorders.Customer{UserID: customerID, Name: "Asha", Phone: "555"},
		PlacedAt: fixedNow,

		PickupCode: "0427",
	}
}

func TestPlaceOrderCreatesForCaller(t *testing.T) {
	svc := newStub()
	userID := uuid.New()
	storeID := uuid.New()
	body := `{"name":" Asha ","phone":"555-0101","items":[{"name":"Rice","sku":"rice-5","unit_price":"12.50","quantity":{"kind":"unit","count":2}}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+storeID.String()+"/orders", strings.NewReader(body))
	req = withParams(req, map[string]string{"storeId": storeID.String()})
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	rec := httptest.NewRecorder()

	PlaceOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created == nil || svc.created.Customer.UserID != userID || svc.created.StoreID != storeID {
		t.Fatalf("unexpected create input %+v", svc.created)
	}
	if svc.created.Customer.Name != "Asha" {
		t.Fatalf("expected trimmed name, got %q", svc.created.Customer.Name)
	}
	view := decodeData(t, rec)
	if view.PickupCode != nil {
		t.Fatalf("pending order must not expose pickup code")
	}
	if view.RemainingSeconds == nil || *view.RemainingSeconds != 300 {
		t.Fatalf("expected 300 remaining seconds, got %v", view.RemainingSeconds)
	}
}

func TestPlaceOrderRequiresItems(t *testing.T) {
	storeID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Asha","phone":"555","items":[]}`))
	req = withParams(req, map[string]string{"storeId": storeID.String()})
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()

	PlaceOrder(newStub(), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCustomerOrderShowsCodeOnlyToOwner(t *testing.T) {
	storeID := uuid.New()
	owner := uuid.New()
	order := readyOrder(storeID, owner)
	svc := newStub(order)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withParams(req, map[string]string{"orderId": order.ID.String()})
	req = req.WithContext(middleware.WithUserID(req.Context(), owner.String()))
	rec := httptest.NewRecorder()
	CustomerOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	view := decodeData(t, rec)
	if view.PickupCode == nil || *view.PickupCode != "0427" {
		t.Fatalf("expected pickup code for ready order, got %v", view.PickupCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = withParams(req, map[string]string{"orderId": order.ID.String()})
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec = httptest.NewRecorder()
	CustomerOrder(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another customer, got %d", rec.Code)
	}
}

func TestMerchantListParsesStatusFilter(t *testing.T) {
	storeID := uuid.New()
	svc := newStub(readyOrder(storeID, uuid.New()), readyOrder(uuid.New(), uuid.New()))

	req := httptest.NewRequest(http.MethodGet, "/?status=ready", nil)
	req = req.WithContext(middleware.WithStoreID(req.Context(), storeID.String()))
	rec := httptest.NewRecorder()
	MerchantList(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.listed == nil || *svc.listed != enums.OrderStatusReady {
		t.Fatalf("expected ready filter, got %v", svc.listed)
	}
	var envelope struct {
		Data []internalorders.View `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 order, got %d", len(envelope.Data))
	}
	if envelope.Data[0].PickupCode != nil {
		t.Fatalf("merchant view must never carry the pickup code")
	}
}

func TestMerchantListRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?status=shipped", nil)
	req = req.WithContext(middleware.WithStoreID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	MerchantList(newStub(), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMerchantUrgentEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithStoreID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	MerchantUrgent(newStub(), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":null`) {
		t.Fatalf("expected null data, got %s", rec.Body.String())
	}
}

func TestMerchantActionHidesForeignOrders(t *testing.T) {
	order := readyOrder(uuid.New(), uuid.New())
	svc := newStub(order)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withParams(req, map[string]string{"orderId": order.ID.String()})
	req = req.WithContext(middleware.WithStoreID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	Accept(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if svc.orders[order.ID].Status != enums.OrderStatusReady {
		t.Fatalf("foreign order must not change")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	storeID := uuid.New()
	order := readyOrder(storeID, uuid.New())
	order.Status = enums.OrderStatusPending
	svc := newStub(order)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"   "}`))
	req = withParams(req, map[string]string{"orderId": order.ID.String()})
	req = req.WithContext(middleware.WithStoreID(req.Context(), storeID.String()))
	rec := httptest.NewRecorder()
	Reject(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"out of stock"}`))
	req = withParams(req, map[string]string{"orderId": order.ID.String()})
	req = req.WithContext(middleware.WithStoreID(req.Context(), storeID.String()))
	rec = httptest.NewRecorder()
	Reject(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.rejected != "out of stock" {
		t.Fatalf("unexpected reason %q", svc.rejected)
	}
}

func TestVerifyPickup(t *testing.T) {
	storeID := uuid.New()
	order := readyOrder(storeID, uuid.New())
	svc := newStub(order)

	call := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req = withParams(req, map[string]string{"orderId": order.ID.String()})
		req = req.WithContext(middleware.WithStoreID(req.Context(), storeID.String()))
		rec := httptest.NewRecorder()
		VerifyPickup(svc, nil).ServeHTTP(rec, req)
		return rec
	}

	if rec := call(`{"code":"42"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed code, got %d", rec.Code)
	}
	if svc.verified != "" {
		t.Fatalf("malformed code must not reach the service")
	}
	if rec := call(`{"code":"0000"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong code, got %d", rec.Code)
	}
	rec := call(`{"code":"0427"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if view := decodeData(t, rec); view.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", view.Status)
	}
}

func TestMerchantRoutesRequireStoreContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	MerchantList(newStub(), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}
