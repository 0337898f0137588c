package enums

import (
	"fmt"
	"strings"
)

// DiscountMode selects how a discount value is interpreted.
type DiscountMode string

const (
	DiscountModeFlat    DiscountMode = "flat"
	DiscountModePercent DiscountMode = "percent"
)

var validDiscountModes = []DiscountMode{
	DiscountModeFlat,
	DiscountModePercent,
}

// String implements fmt.Stringer.
func (m DiscountMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known DiscountMode.
func (m DiscountMode) IsValid() bool {
	for _, candidate := range validDiscountModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDiscountMode accepts either case ("PERCENT" and "percent" are equivalent).
func ParseDiscountMode(value string) (DiscountMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDiscountModes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount mode %q", value)
}
