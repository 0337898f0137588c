package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/pickupz-backend/api/middleware"
	"github.com/angelmondragon/pickupz-backend/api/responses"
	"github.com/angelmondragon/pickupz-backend/api/validators"
	internalorders "github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

type placeOrderRequest struct {
	Name     string                `json:"name" validate:"required,max=120"`
	Phone    string                `json:"phone" validate:"required,max=32"`
	Address  *string               `json:"address,omitempty" validate:"omitempty,max=500"`
	Note     *string               `json:"note,omitempty" validate:"omitempty,max=500"`
	Items    []internalorders.Item `json:"items" validate:"required,min=1"`
	Discount *pricing.Discount     `json:"discount,omitempty"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type verifyPickupRequest struct {
	Code string `json:"code" validate:"required,pickupcode"`
}

// PlaceOrder creates a pending order for the authenticated customer at the store in the path.
func PlaceOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := validators.ParseContextUUID(middleware.UserIDFromContext(r.Context()), "user", pkgerrors.CodeUnauthorized)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), internalorders.CreateOrderInput{
			StoreID: storeID,
			Customer: internalorders.Customer{
				UserID:  userID,
				Name:    validators.SanitizeString(payload.Name, 120),
				Phone:   validators.SanitizeString(payload.Phone, 32),
				Address: payload.Address,
				Note:    payload.Note,
			},
			Items:    payload.Items,
			Discount: payload.Discount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order.ForCustomer(svc.Now()))
	}
}

// CustomerOrder returns one of the caller's own orders, including the pickup code once ready.
func CustomerOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := validators.ParseContextUUID(middleware.UserIDFromContext(r.Context()), "user", pkgerrors.CodeUnauthorized)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.Customer.UserID != userID {
			responses.WriteError(r.Context(), logg, w, notFound(orderID))
			return
		}

		responses.WriteSuccess(w, order.ForCustomer(svc.Now()))
	}
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// MerchantList returns the active store's orders, newest first, optionally filtered by ?status= and capped by ?limit=.
func MerchantList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		storeID, err := activeStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), storeID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if len(list) > limit {
			list = list[:limit]
		}

		now := svc.Now()
		views := make([]internalorders.View, 0, len(list))
		for _, order := range list {
			views = append(views, order.ForMerchant(now))
		}
		responses.WriteSuccess(w, views)
	}
}

// MerchantUrgent returns the pending order closest to its acknowledgement deadline, or null.
func MerchantUrgent(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		storeID, err := activeStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MostUrgentPending(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, order.ForMerchant(svc.Now()))
	}
}

// MerchantOrder returns a single order owned by the active store.
func MerchantOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return merchantAction(svc, logg, func(r *http.Request, order internalorders.Order) (internalorders.Order, error) {
		return order, nil
	})
}

// Accept moves a pending order into processing.
func Accept(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return merchantAction(svc, logg, func(r *http.Request, order internalorders.Order) (internalorders.Order, error) {
		return svc.AcceptOrder(r.Context(), order.ID)
	})
}

// Reject declines a pending order with the merchant's reason.
func Reject(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return merchantAction(svc, logg, func(r *http.Request, order internalorders.Order) (internalorders.Order, error) {
		var payload rejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return internalorders.Order{}, err
		}
		reason := validators.SanitizeString(payload.Reason, 500)
		if reason == "" {
			return internalorders.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
		}
		return svc.RejectOrder(r.Context(), order.ID, reason)
	})
}

// Ready marks a processing order as packed and waiting for the customer.
func Ready(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return merchantAction(svc, logg, func(r *http.Request, order internalorders.Order) (internalorders.Order, error) {
		return svc.MarkReady(r.Context(), order.ID)
	})
}

// VerifyPickup completes a ready order when the customer's code matches.
func VerifyPickup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return merchantAction(svc, logg, func(r *http.Request, order internalorders.Order) (internalorders.Order, error) {
		var payload verifyPickupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return internalorders.Order{}, err
		}
		return svc.VerifyPickup(r.Context(), order.ID, payload.Code)
	})
}

type merchantFunc func(r *http.Request, order internalorders.Order) (internalorders.Order, error)

// merchantAction resolves the path order and hides orders that belong to other stores.
func merchantAction(svc internalorders.Service, logg *logger.Logger, fn merchantFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		storeID, err := activeStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.StoreID != storeID {
			responses.WriteError(r.Context(), logg, w, notFound(orderID))
			return
		}

		updated, err := fn(r, order)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated.ForMerchant(svc.Now()))
	}
}

func activeStore(r *http.Request) (uuid.UUID, error) {
	return validators.ParseContextUUID(middleware.StoreIDFromContext(r.Context()), "store", pkgerrors.CodeForbidden)
}

func notFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithDetails(map[string]any{"order_id": id.String()})
}
