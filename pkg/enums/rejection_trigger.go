package enums

import "fmt"

// RejectionTrigger records who drove an order into rejected.
type RejectionTrigger string

const (
	RejectionTriggerMerchant RejectionTrigger = "merchant"
	RejectionTriggerTimeout  RejectionTrigger = "timeout"
)

var validRejectionTriggers = []RejectionTrigger{
	RejectionTriggerMerchant,
	RejectionTriggerTimeout,
}

// String implements fmt.Stringer.
func (r RejectionTrigger) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RejectionTrigger.
func (r RejectionTrigger) IsValid() bool {
	for _, candidate := range validRejectionTriggers {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRejectionTrigger converts raw input into a RejectionTrigger.
func ParseRejectionTrigger(value string) (RejectionTrigger, error) {
	for _, candidate := range validRejectionTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rejection trigger %q", value)
}
