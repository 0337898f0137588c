package enums

import "fmt"

// FeeMode selects how the platform fee is derived for an order.
type FeeMode string

const (
	FeeModeFlat   FeeMode = "flat"
	FeeModeTiered FeeMode = "tiered"
)

var validFeeModes = []FeeMode{
	FeeModeFlat,
	FeeModeTiered,
}

func (m FeeMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known FeeMode.
func (m FeeMode) IsValid() bool {
	for _, candidate := range validFeeModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseFeeMode converts raw input into a FeeMode.
func ParseFeeMode(value string) (FeeMode, error) {
	for _, candidate := range validFeeModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fee mode %q", value)
}
