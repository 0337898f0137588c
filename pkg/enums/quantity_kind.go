package enums

import "fmt"

// QuantityKind discriminates unit-counted and weight-priced items.
type QuantityKind string

const (
	QuantityKindUnit   QuantityKind = "unit"
	QuantityKindWeight QuantityKind = "weight"
)

var validQuantityKinds = []QuantityKind{
	QuantityKindUnit,
	QuantityKindWeight,
}

func (k QuantityKind) String() string {
	return string(k)
}

func (k QuantityKind) IsValid() bool {
	for _, candidate := range validQuantityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseQuantityKind converts raw input into a QuantityKind.
func ParseQuantityKind(value string) (QuantityKind, error) {
	for _, candidate := range validQuantityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity kind %q", value)
}
