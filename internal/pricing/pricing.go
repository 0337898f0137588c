package pricing

import (
	"sort"

	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultScale is the number of minor-unit digits line amounts, flat discounts and fees round to.
const DefaultScale int32 = 2

// Tax and percent discounts settle in whole currency units.
const wholeUnit int32 = 0

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// Line is a priced quantity. Quantity is a unit count, or kilograms for weight-priced items.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
}

// UnitLine prices count units at price each.
func UnitLine(price decimal.Decimal, count int) Line {
	return Line{UnitPrice: price, Quantity: decimal.NewFromInt(int64(count))}
}

// WeightLine prices grams at pricePerKg.
func WeightLine(pricePerKg, grams decimal.Decimal) Line {
	return Line{UnitPrice: pricePerKg, Quantity: grams.Div(thousand)}
}

// Discount is either a flat amount or a percentage of the subtotal.
type Discount struct {
	Mode  enums.DiscountMode `json:"mode"`
	Value decimal.Decimal    `json:"value"`
}

// FeeTier charges Fee once the subtotal reaches MinSubtotal.
type FeeTier struct {
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	Fee         decimal.Decimal `json:"fee"`
}

// FeeRule derives the per-order platform fee.
type FeeRule struct {
	Mode  enums.FeeMode   `json:"mode"`
	Flat  decimal.Decimal `json:"flat"`
	Tiers []FeeTier       `json:"tiers,omitempty"`
}

// FlatFee returns a rule that always charges fee.
func FlatFee(fee decimal.Decimal) FeeRule {
	return FeeRule{Mode: enums.FeeModeFlat, Flat: fee}
}

// TieredFee returns a rule that charges the fee of the highest tier the subtotal reaches.
func TieredFee(tiers []FeeTier) FeeRule {
	sorted := make([]FeeTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinSubtotal.LessThan(sorted[j].MinSubtotal)
	})
	return FeeRule{Mode: enums.FeeModeTiered, Tiers: sorted}
}

// FeeFor returns the platform fee for subtotal.
func (r FeeRule) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if r.Mode != enums.FeeModeTiered {
		return r.Flat
	}
	fee := decimal.Zero
	for _, tier := range r.Tiers {
		if subtotal.LessThan(tier.MinSubtotal) {
			break
		}
		fee = tier.Fee
	}
	return fee
}

// Rules are the store-level inputs to Compute.
type Rules struct {
	TaxRatePercent decimal.Decimal
	Fee            FeeRule
	Scale          int32
}

// Breakdown is the pricing snapshot stored on an order.
type Breakdown struct {
	Subtotal            decimal.Decimal     `json:"subtotal"`
	Discount            decimal.Decimal     `json:"discount"`
	DiscountMode        *enums.DiscountMode `json:"discount_mode,omitempty"`
	DiscountRatePercent *decimal.Decimal    `json:"discount_rate_percent,omitempty"`
	TaxRatePercent      decimal.Decimal     `json:"tax_rate_percent"`
	Tax                 decimal.Decimal     `json:"tax"`
	PlatformFee         decimal.Decimal     `json:"platform_fee"`
	Total               decimal.Decimal     `json:"total"`
}

// NetEarnings is what the merchant keeps once the order completes.
func (b Breakdown) NetEarnings() decimal.Decimal {
	return b.Total.Sub(b.PlatformFee)
}

// Compute prices lines under rules. It is deterministic and has no side effects.
func Compute(lines []Line, discount *Discount, rules Rules) (Breakdown, error) {
	if len(lines) == 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	if rules.TaxRatePercent.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}

	subtotal := decimal.Zero
	for idx, line := range lines {
		if line.UnitPrice.IsNegative() {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative").
				WithDetails(map[string]any{"line": idx})
		}
		if !line.Quantity.IsPositive() {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"line": idx})
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(line.Quantity).Round(rules.Scale))
	}

	breakdown := Breakdown{
		Subtotal:       subtotal,
		Discount:       decimal.Zero,
		TaxRatePercent: rules.TaxRatePercent,
	}

	if discount != nil {
		amount, rate, err := applyDiscount(subtotal, *discount, rules.Scale)
		if err != nil {
			return Breakdown{}, err
		}
		mode := discount.Mode
		breakdown.Discount = amount
		breakdown.DiscountMode = &mode
		breakdown.DiscountRatePercent = rate
	}

	taxable := subtotal.Sub(breakdown.Discount)
	breakdown.Tax = taxable.Mul(rules.TaxRatePercent).Div(hundred).Round(wholeUnit)
	breakdown.PlatformFee = rules.Fee.FeeFor(subtotal).Round(rules.Scale)
	breakdown.Total = taxable.Add(breakdown.Tax).Add(breakdown.PlatformFee)
	return breakdown, nil
}

func applyDiscount(subtotal decimal.Decimal, discount Discount, scale int32) (decimal.Decimal, *decimal.Decimal, error) {
	if discount.Value.IsNegative() {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	switch discount.Mode {
	case enums.DiscountModeFlat:
		amount := discount.Value.Round(scale)
		if amount.GreaterThan(subtotal) {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds subtotal")
		}
		return amount, nil, nil
	case enums.DiscountModePercent:
		rate := discount.Value.Round(1)
		if rate.GreaterThan(hundred) {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must not exceed 100")
		}
		amount := decimal.Min(subtotal.Mul(rate).Div(hundred).Round(wholeUnit), subtotal)
		return amount, &rate, nil
	default:
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported discount mode").
			WithDetails(map[string]any{"mode": discount.Mode})
	}
}
