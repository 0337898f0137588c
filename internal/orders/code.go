package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

var pickupCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

var pickupCodeSpace = big.NewInt(10000)

// CodeGenerator produces pickup codes.
type CodeGenerator func() (string, error)

// RandomPickupCode draws a uniformly distributed 4-digit code.
func RandomPickupCode() (string, error) {
	n, err := rand.Int(rand.Reader, pickupCodeSpace)
	if err != nil {
		return "", fmt.Errorf("generate pickup code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// ValidPickupCode reports whether code is exactly four ASCII digits.
func ValidPickupCode(code string) bool {
	return pickupCodePattern.MatchString(code)
}
