package pricing

import (
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceView is the merchant-facing listing price state.
type PriceView struct {
	MRP          decimal.Decimal    `json:"mrp"`
	SellingPrice decimal.Decimal    `json:"selling_price"`
	Mode         enums.DiscountMode `json:"mode"`
	Discount     decimal.Decimal    `json:"discount"`
}

// PriceEditor keeps selling price and discount consistent against a fixed MRP.
// Selling price is the source of truth when the mode changes.
type PriceEditor struct {
	view  PriceView
	scale int32
}

// NewPriceEditor starts with the selling price equal to mrp and no discount.
func NewPriceEditor(mrp decimal.Decimal, mode enums.DiscountMode, scale int32) (*PriceEditor, error) {
	if mrp.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mrp must not be negative")
	}
	if !mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported discount mode")
	}
	mrp = mrp.Round(scale)
	return &PriceEditor{
		view:  PriceView{MRP: mrp, SellingPrice: mrp, Mode: mode, Discount: decimal.Zero},
		scale: scale,
	}, nil
}

// View returns the current state.
func (e *PriceEditor) View() PriceView {
	return e.view
}

// SetSellingPrice updates the selling price and recomputes the discount in the current mode.
func (e *PriceEditor) SetSellingPrice(price decimal.Decimal) error {
	price = price.Round(e.scale)
	if price.IsNegative() || price.GreaterThan(e.view.MRP) {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price must be between 0 and mrp")
	}
	e.view.SellingPrice = price
	e.view.Discount = e.discountFromSelling()
	return nil
}

// SetDiscount updates the discount in the current mode and recomputes the selling price.
func (e *PriceEditor) SetDiscount(value decimal.Decimal) error {
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	switch e.view.Mode {
	case enums.DiscountModePercent:
		rate := value.Round(1)
		if rate.GreaterThan(hundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must not exceed 100")
		}
		e.view.Discount = rate
		off := e.view.MRP.Mul(rate).Div(hundred)
		e.view.SellingPrice = e.view.MRP.Sub(off).Round(e.scale)
	default:
		amount := value.Round(e.scale)
		if amount.GreaterThan(e.view.MRP) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds mrp")
		}
		e.view.Discount = amount
		e.view.SellingPrice = e.view.MRP.Sub(amount)
	}
	return nil
}

// SetMode switches the discount mode. The discount is recomputed from the selling price, never the reverse.
func (e *PriceEditor) SetMode(mode enums.DiscountMode) error {
	if !mode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported discount mode")
	}
	e.view.Mode = mode
	e.view.Discount = e.discountFromSelling()
	return nil
}

func (e *PriceEditor) discountFromSelling() decimal.Decimal {
	off := e.view.MRP.Sub(e.view.SellingPrice)
	if e.view.Mode == enums.DiscountModePercent {
		if e.view.MRP.IsZero() {
			return decimal.Zero
		}
		return off.Div(e.view.MRP).Mul(hundred).Round(1)
	}
	return off
}
