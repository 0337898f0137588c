package orders

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a pickup order. It is only mutated through Service transitions.
type Order struct {
	ID                   uuid.UUID
	StoreID              uuid.UUID
	Status               enums.OrderStatus
	Items                []Item
	Pricing              pricing.Breakdown
	Customer             Customer
	PickupCode           string
	AcknowledgeBy        *time.Time
	PlacedAt             time.Time
	AcceptedAt           *time.Time
	ReadyAt              *time.Time
	CompletedAt          *time.Time
	RejectedAt           *time.Time
	RejectionReason      *string
	RejectedBy           *enums.RejectionTrigger
	FailedPickupAttempts int
	NudgedAt             *time.Time
	UpdatedAt            time.Time
}

// Customer identifies who placed the order.
type Customer struct {
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Address *string   `json:"address,omitempty"`
	Note    *string   `json:"note,omitempty"`
}

// RemainingSeconds is the time left to acknowledge, rounded up. Nil unless pending.
func (o Order) RemainingSeconds(now time.Time) *int {
	if o.Status != enums.OrderStatusPending || o.AcknowledgeBy == nil {
		return nil
	}
	left := o.AcknowledgeBy.Sub(now)
	secs := 0
	if left > 0 {
		secs = int(math.Ceil(left.Seconds()))
	}
	return &secs
}

// Item is an order line. Quantity is either UnitQuantity or WeightQuantity.
type Item struct {
	Name        string
	SKU         string
	UnitPrice   decimal.Decimal
	Quantity    Quantity
	StockStatus *enums.StockStatus
}

// Quantity is the sum type over unit-counted and weight-priced amounts.
type Quantity interface {
	Kind() enums.QuantityKind
	// Line prices the quantity; price is per unit or per kilogram.
	Line(price decimal.Decimal) pricing.Line
	// StockUnits is the inventory the quantity consumes: units, or grams for weight.
	StockUnits() int
}

// UnitQuantity counts whole units.
type UnitQuantity struct {
	Count int
}

func (UnitQuantity) Kind() enums.QuantityKind { return enums.QuantityKindUnit }

func (q UnitQuantity) Line(price decimal.Decimal) pricing.Line {
	return pricing.UnitLine(price, q.Count)
}

func (q UnitQuantity) StockUnits() int { return q.Count }

// WeightQuantity is an amount in grams or kilograms, priced per kilogram.
type WeightQuantity struct {
	Amount decimal.Decimal
	Unit   enums.WeightUnit
}

func (WeightQuantity) Kind() enums.QuantityKind { return enums.QuantityKindWeight }

// Grams normalizes the amount.
func (q WeightQuantity) Grams() decimal.Decimal {
	if q.Unit == enums.WeightUnitKilogram {
		return q.Amount.Mul(decimal.NewFromInt(1000))
	}
	return q.Amount
}

func (q WeightQuantity) Line(price decimal.Decimal) pricing.Line {
	return pricing.WeightLine(price, q.Grams())
}

func (q WeightQuantity) StockUnits() int {
	return int(q.Grams().Ceil().IntPart())
}

type itemJSON struct {
	Name        string             `json:"name"`
	SKU         string             `json:"sku,omitempty"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
	Quantity    quantityJSON       `json:"quantity"`
	StockStatus *enums.StockStatus `json:"stock_status,omitempty"`
}

type quantityJSON struct {
	Kind   enums.QuantityKind `json:"kind"`
	Count  int                `json:"count,omitempty"`
	Amount *decimal.Decimal   `json:"amount,omitempty"`
	Unit   enums.WeightUnit   `json:"unit,omitempty"`
}

// MarshalJSON writes the quantity with a kind discriminator.
func (i Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		Name:        i.Name,
		SKU:         i.SKU,
		UnitPrice:   i.UnitPrice,
		StockStatus: i.StockStatus,
	}
	switch q := i.Quantity.(type) {
	case UnitQuantity:
		out.Quantity = quantityJSON{Kind: enums.QuantityKindUnit, Count: q.Count}
	case WeightQuantity:
		amount := q.Amount
		out.Quantity = quantityJSON{Kind: enums.QuantityKindWeight, Amount: &amount, Unit: q.Unit}
	default:
		return nil, fmt.Errorf("unsupported quantity %T", i.Quantity)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the quantity variant named by its kind.
func (i *Item) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Quantity.Kind {
	case enums.QuantityKindUnit:
		i.Quantity = UnitQuantity{Count: in.Quantity.Count}
	case enums.QuantityKindWeight:
		if in.Quantity.Amount == nil {
			return fmt.Errorf("weight quantity requires amount")
		}
		i.Quantity = WeightQuantity{Amount: *in.Quantity.Amount, Unit: in.Quantity.Unit}
	default:
		return fmt.Errorf("invalid quantity kind %q", in.Quantity.Kind)
	}
	i.Name = in.Name
	i.SKU = in.SKU
	i.UnitPrice = in.UnitPrice
	i.StockStatus = in.StockStatus
	return nil
}

// View is the API projection of an order.
type View struct {
	ID                   uuid.UUID               `json:"id"`
	StoreID              uuid.UUID               `json:"store_id"`
	Status               enums.OrderStatus       `json:"status"`
	Items                []Item                  `json:"items"`
	Pricing              pricing.Breakdown       `json:"pricing"`
	Customer             Customer                `json:"customer"`
	PickupCode           *string                 `json:"pickup_code,omitempty"`
	RemainingSeconds     *int                    `json:"remaining_seconds,omitempty"`
	AcknowledgeBy        *time.Time              `json:"acknowledge_by,omitempty"`
	PlacedAt             time.Time               `json:"placed_at"`
	AcceptedAt           *time.Time              `json:"accepted_at,omitempty"`
	ReadyAt              *time.Time              `json:"ready_at,omitempty"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	RejectedAt           *time.Time              `json:"rejected_at,omitempty"`
	RejectionReason      *string                 `json:"rejection_reason,omitempty"`
	RejectedBy           *enums.RejectionTrigger `json:"rejected_by,omitempty"`
	FailedPickupAttempts int                     `json:"failed_pickup_attempts"`
}

// ForMerchant never carries the pickup code.
func (o Order) ForMerchant(now time.Time) View {
	return o.view(now)
}

// ForCustomer carries the pickup code once the order is ready for handoff.
func (o Order) ForCustomer(now time.Time) View {
	v := o.view(now)
	if o.Status == enums.OrderStatusReady {
		code := o.PickupCode
		v.PickupCode = &code
	}
	return v
}

func (o Order) view(now time.Time) View {
	return View{
		ID:                   o.ID,
		StoreID:              o.StoreID,
		Status:               o.Status,
		Items:                o.Items,
		Pricing:              o.Pricing,
		Customer:             o.Customer,
		RemainingSeconds:     o.RemainingSeconds(now),
		AcknowledgeBy:        pendingOnly(o.Status, o.AcknowledgeBy),
		PlacedAt:             o.PlacedAt,
		AcceptedAt:           o.AcceptedAt,
		ReadyAt:              o.ReadyAt,
		CompletedAt:          o.CompletedAt,
		RejectedAt:           o.RejectedAt,
		RejectionReason:      o.RejectionReason,
		RejectedBy:           o.RejectedBy,
		FailedPickupAttempts: o.FailedPickupAttempts,
	}
}

func pendingOnly(status enums.OrderStatus, t *time.Time) *time.Time {
	if status != enums.OrderStatusPending {
		return nil
	}
	return t
}
