package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pickupz-backend/api/responses"
	"github.com/angelmondragon/pickupz-backend/api/validators"
	"github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/internal/stores"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

type quoteRequest struct {
	StoreID  *uuid.UUID        `json:"store_id,omitempty"`
	Items    []orders.Item     `json:"items" validate:"required,min=1"`
	Discount *pricing.Discount `json:"discount,omitempty"`
}

// PricingQuote prices a basket without placing an order. A store id applies that store's tax override.
func PricingQuote(rules pricing.Rules, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		effective := rules
		if payload.StoreID != nil {
			if storeSvc == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
				return
			}
			store, err := storeSvc.Get(r.Context(), *payload.StoreID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			effective = rules.WithTaxRate(store.TaxRatePercent)
		}

		breakdown, err := orders.PriceItems(payload.Items, payload.Discount, effective)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"pricing":      breakdown,
			"net_earnings": breakdown.NetEarnings(),
		})
	}
}

type discountPreviewRequest struct {
	MRP          decimal.Decimal    `json:"mrp"`
	Mode         enums.DiscountMode `json:"mode" validate:"required"`
	SellingPrice *decimal.Decimal   `json:"selling_price,omitempty"`
	Discount     *decimal.Decimal   `json:"discount,omitempty"`
}

// DiscountPreview reconciles a listing's selling price and discount against its MRP.
// Exactly one of selling_price or discount drives the result.
func DiscountPreview(scale int32, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload discountPreviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (payload.SellingPrice == nil) == (payload.Discount == nil) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "provide exactly one of selling_price or discount"))
			return
		}

		editor, err := pricing.NewPriceEditor(payload.MRP, payload.Mode, scale)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.SellingPrice != nil {
			err = editor.SetSellingPrice(*payload.SellingPrice)
		} else {
			err = editor.SetDiscount(*payload.Discount)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, editor.View())
	}
}
