package pricing

import (
	"testing"

	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func defaultRules() Rules {
	return Rules{TaxRatePercent: d("5"), Fee: FlatFee(d("5")), Scale: DefaultScale}
}

func TestComputeUnitItems(t *testing.T) {
	t.Parallel()

	got, err := Compute([]Line{UnitLine(d("100"), 2)}, nil, defaultRules())
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if !got.Subtotal.Equal(d("200")) {
		t.Fatalf("expected subtotal 200, got %s", got.Subtotal)
	}
	if !got.Tax.Equal(d("10")) {
		t.Fatalf("expected tax 10, got %s", got.Tax)
	}
	if !got.Total.Equal(d("215")) {
		t.Fatalf("expected total 215, got %s", got.Total)
	}
	if !got.NetEarnings().Equal(d("210")) {
		t.Fatalf("expected net earnings 210, got %s", got.NetEarnings())
	}
}

func TestComputeWeightItems(t *testing.T) {
	t.Parallel()

	lines := []Line{
		WeightLine(d("80"), d("500")),
		WeightLine(d("99.99"), d("250")),
	}
	got, err := Compute(lines, nil, Rules{Fee: FlatFee(decimal.Zero), Scale: DefaultScale})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	// 40 + 24.9975 rounded to 25.00
	if !got.Subtotal.Equal(d("65")) {
		t.Fatalf("expected subtotal 65, got %s", got.Subtotal)
	}
}

func TestComputeTotalIdentity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		lines    []Line
		discount *Discount
		rules    Rules
	}{
		{name: "flat discount", lines: []Line{UnitLine(d("49.99"), 3)}, discount: &Discount{Mode: enums.DiscountModeFlat, Value: d("10")}, rules: defaultRules()},
		{name: "percent discount", lines: []Line{UnitLine(d("33.33"), 7), WeightLine(d("120"), d("333"))}, discount: &Discount{Mode: enums.DiscountModePercent, Value: d("12.345")}, rules: defaultRules()},
		{name: "odd tax", lines: []Line{UnitLine(d("17.10"), 1)}, rules: Rules{TaxRatePercent: d("18"), Fee: FlatFee(d("2.5")), Scale: DefaultScale}},
		{name: "whole units", lines: []Line{UnitLine(d("19"), 3)}, rules: Rules{TaxRatePercent: d("7"), Fee: FlatFee(d("5")), Scale: 0}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Compute(tc.lines, tc.discount, tc.rules)
			if err != nil {
				t.Fatalf("Compute returned error: %v", err)
			}
			want := got.Subtotal.Sub(got.Discount).Add(got.Tax).Add(got.PlatformFee)
			if !got.Total.Equal(want) {
				t.Fatalf("total %s != subtotal - discount + tax + fee (%s)", got.Total, want)
			}
		})
	}
}

func TestComputePercentDiscountRoundsRate(t *testing.T) {
	t.Parallel()

	got, err := Compute([]Line{UnitLine(d("200"), 1)}, &Discount{Mode: enums.DiscountModePercent, Value: d("12.46")}, defaultRules())
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if got.DiscountRatePercent == nil || !got.DiscountRatePercent.Equal(d("12.5")) {
		t.Fatalf("expected stored rate 12.5, got %v", got.DiscountRatePercent)
	}
	if !got.Discount.Equal(d("25")) {
		t.Fatalf("expected discount 25, got %s", got.Discount)
	}
	// (200 - 25) * 5% = 8.75, settled as 9
	if !got.Tax.Equal(d("9")) {
		t.Fatalf("expected tax 9, got %s", got.Tax)
	}
}

func TestComputeSettlesTaxAndPercentDiscountInWholeUnits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		lines    []Line
		discount *Discount
		subtotal string
		off      string
		tax      string
		total    string
	}{
		{name: "fractional subtotal", lines: []Line{UnitLine(d("10.50"), 1)}, subtotal: "10.50", off: "0", tax: "1", total: "16.50"},
		{name: "tax rounds down", lines: []Line{UnitLine(d("9.80"), 1)}, subtotal: "9.80", off: "0", tax: "0", total: "14.80"},
		{name: "weight line keeps minor units", lines: []Line{WeightLine(d("100"), d("333"))}, subtotal: "33.30", off: "0", tax: "2", total: "40.30"},
		{name: "percent discount", lines: []Line{UnitLine(d("10"), 2), WeightLine(d("4"), d("500"))}, discount: &Discount{Mode: enums.DiscountModePercent, Value: d("10")}, subtotal: "22", off: "2", tax: "1", total: "26"},
		{name: "full percent discount capped at subtotal", lines: []Line{UnitLine(d("0.60"), 1)}, discount: &Discount{Mode: enums.DiscountModePercent, Value: d("100")}, subtotal: "0.60", off: "0.60", tax: "0", total: "5"},
		{name: "flat discount keeps minor units", lines: []Line{UnitLine(d("10.50"), 1)}, discount: &Discount{Mode: enums.DiscountModeFlat, Value: d("0.25")}, subtotal: "10.50", off: "0.25", tax: "1", total: "16.25"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Compute(tc.lines, tc.discount, defaultRules())
			if err != nil {
				t.Fatalf("Compute returned error: %v", err)
			}
			if !got.Subtotal.Equal(d(tc.subtotal)) {
				t.Fatalf("expected subtotal %s, got %s", tc.subtotal, got.Subtotal)
			}
			if !got.Discount.Equal(d(tc.off)) {
				t.Fatalf("expected discount %s, got %s", tc.off, got.Discount)
			}
			if !got.Tax.Equal(d(tc.tax)) {
				t.Fatalf("expected tax %s, got %s", tc.tax, got.Tax)
			}
			if !got.Total.Equal(d(tc.total)) {
				t.Fatalf("expected total %s, got %s", tc.total, got.Total)
			}
		})
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		lines    []Line
		discount *Discount
	}{
		{name: "no lines"},
		{name: "negative price", lines: []Line{UnitLine(d("-1"), 1)}},
		{name: "zero quantity", lines: []Line{UnitLine(d("10"), 0)}},
		{name: "flat discount above subtotal", lines: []Line{UnitLine(d("10"), 1)}, discount: &Discount{Mode: enums.DiscountModeFlat, Value: d("11")}},
		{name: "percent above 100", lines: []Line{UnitLine(d("10"), 1)}, discount: &Discount{Mode: enums.DiscountModePercent, Value: d("150")}},
		{name: "unknown mode", lines: []Line{UnitLine(d("10"), 1)}, discount: &Discount{Mode: "bogo", Value: d("1")}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Compute(tc.lines, tc.discount, defaultRules())
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTieredFee(t *testing.T) {
	t.Parallel()

	rule := TieredFee([]FeeTier{
		{MinSubtotal: d("500"), Fee: d("10")},
		{MinSubtotal: d("0"), Fee: d("5")},
		{MinSubtotal: d("2000"), Fee: d("20")},
	})

	cases := map[string]string{
		"0":    "5",
		"499":  "5",
		"500":  "10",
		"1999": "10",
		"2500": "20",
	}
	for subtotal, want := range cases {
		if got := rule.FeeFor(d(subtotal)); !got.Equal(d(want)) {
			t.Fatalf("FeeFor(%s) = %s, want %s", subtotal, got, want)
		}
	}
}

func TestRulesFromConfig(t *testing.T) {
	t.Parallel()

	rules, err := RulesFromConfig(config.PricingConfig{TaxRatePercent: "5", PlatformFee: "5", PlatformFeeTiers: "0:3,100:7", MoneyScale: 2})
	if err != nil {
		t.Fatalf("RulesFromConfig returned error: %v", err)
	}
	if rules.Fee.Mode != enums.FeeModeTiered {
		t.Fatalf("expected tiered fee, got %s", rules.Fee.Mode)
	}
	if got := rules.Fee.FeeFor(d("150")); !got.Equal(d("7")) {
		t.Fatalf("expected fee 7, got %s", got)
	}

	override := d("12")
	if got := rules.WithTaxRate(&override).TaxRatePercent; !got.Equal(override) {
		t.Fatalf("expected overridden tax rate 12, got %s", got)
	}
	if got := rules.WithTaxRate(nil).TaxRatePercent; !got.Equal(d("5")) {
		t.Fatalf("expected default tax rate 5, got %s", got)
	}
}
