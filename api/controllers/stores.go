package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pickupz-backend/api/middleware"
	"github.com/angelmondragon/pickupz-backend/api/responses"
	"github.com/angelmondragon/pickupz-backend/api/validators"
	"github.com/angelmondragon/pickupz-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

// storeSummary is what customers see when browsing stores.
type storeSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsOnline bool      `json:"is_online"`
}

func summarize(store stores.Store) storeSummary {
	return storeSummary{ID: store.ID, Name: store.Name, IsOnline: store.IsOnline}
}

// StoreDirectory lists every known store.
func StoreDirectory(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		list := svc.List(r.Context())
		out := make([]storeSummary, 0, len(list))
		for _, store := range list {
			out = append(out, summarize(store))
		}
		responses.WriteSuccess(w, out)
	}
}

// StoreSummary returns the public view of one store.
func StoreSummary(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summarize(store))
	}
}

// StoreProfile returns the active store, inventory included.
func StoreProfile(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		id, err := validators.ParseContextUUID(middleware.StoreIDFromContext(r.Context()), "store", pkgerrors.CodeForbidden)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}

type storeUpsertRequest struct {
	Name             *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	IsOnline         *bool            `json:"is_online,omitempty"`
	AckWindowSeconds *int             `json:"ack_window_seconds,omitempty" validate:"omitempty,min=1,max=86400"`
	TaxRatePercent   *decimal.Decimal `json:"tax_rate_percent,omitempty"`
}

// StoreUpsert creates the active store on first use and updates the given fields afterwards.
func StoreUpsert(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		sid, err := validators.ParseContextUUID(middleware.StoreIDFromContext(r.Context()), "store", pkgerrors.CodeForbidden)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uid, err := validators.ParseContextUUID(middleware.UserIDFromContext(r.Context()), "user", pkgerrors.CodeUnauthorized)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Name != nil {
			name := validators.SanitizeString(*payload.Name, 120)
			payload.Name = &name
		}

		store, err := svc.Upsert(r.Context(), stores.UpsertStoreInput{
			ID:               sid,
			OwnerID:          uid,
			Name:             payload.Name,
			IsOnline:         payload.IsOnline,
			AckWindowSeconds: payload.AckWindowSeconds,
			TaxRatePercent:   payload.TaxRatePercent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}

type inventoryRequest struct {
	Stock   map[string]int `json:"stock" validate:"required"`
	Replace bool           `json:"replace"`
}

// StoreInventory adjusts tracked stock for the active store.
func StoreInventory(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		sid, err := validators.ParseContextUUID(middleware.StoreIDFromContext(r.Context()), "store", pkgerrors.CodeForbidden)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uid, err := validators.ParseContextUUID(middleware.UserIDFromContext(r.Context()), "user", pkgerrors.CodeUnauthorized)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload inventoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.SetInventory(r.Context(), stores.SetInventoryInput{
			StoreID: sid,
			ActorID: uid,
			Stock:   payload.Stock,
			Replace: payload.Replace,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}
