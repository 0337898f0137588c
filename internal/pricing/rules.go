package pricing

import (
	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// RulesFromConfig builds the default rules. Tiers take precedence over the flat fee when set.
func RulesFromConfig(cfg config.PricingConfig) (Rules, error) {
	tiers, err := cfg.Tiers()
	if err != nil {
		return Rules{}, err
	}
	fee := FlatFee(cfg.FlatFee())
	if len(tiers) > 0 {
		converted := make([]FeeTier, 0, len(tiers))
		for _, tier := range tiers {
			converted = append(converted, FeeTier{MinSubtotal: tier.MinSubtotal, Fee: tier.Fee})
		}
		fee = TieredFee(converted)
	}
	return Rules{
		TaxRatePercent: cfg.TaxRate(),
		Fee:            fee,
		Scale:          cfg.MoneyScale,
	}, nil
}

// WithTaxRate returns a copy of r using rate when it is set.
func (r Rules) WithTaxRate(rate *decimal.Decimal) Rules {
	if rate != nil {
		r.TaxRatePercent = *rate
	}
	return r
}
