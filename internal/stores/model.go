package stores

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a merchant storefront that receives pickup orders.
type Store struct {
	ID               uuid.UUID        `json:"id"`
	OwnerID          uuid.UUID        `json:"owner_id"`
	Name             string           `json:"name"`
	IsOnline         bool             `json:"is_online"`
	AckWindowSeconds *int             `json:"ack_window_seconds,omitempty"`
	TaxRatePercent   *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	Inventory        map[string]int   `json:"inventory"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// AckWindow returns the store override or fallback.
func (s Store) AckWindow(fallback time.Duration) time.Duration {
	if s.AckWindowSeconds != nil && *s.AckWindowSeconds > 0 {
		return time.Duration(*s.AckWindowSeconds) * time.Second
	}
	return fallback
}

// Stock reports the available units for sku and whether the sku is tracked at all.
func (s Store) Stock(sku string) (int, bool) {
	if sku == "" {
		return 0, false
	}
	qty, ok := s.Inventory[sku]
	return qty, ok
}

func (s Store) clone() Store {
	out := s
	out.Inventory = make(map[string]int, len(s.Inventory))
	for sku, qty := range s.Inventory {
		out.Inventory[sku] = qty
	}
	return out
}
