// utils/otp.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a numeric one-time passcode of exactly length digits,
// drawn uniformly from [10^(length-1), 10^length - 1] using a cryptographic
// random source. It keeps no state between calls.
func GenerateOTP(length int) (string, error) {
	if length < 1 || length > 18 {
		return "", fmt.Errorf("invalid OTP length %d", length)
	}

	min := big.NewInt(1)
	for i := 1; i < length; i++ {
		min.Mul(min, big.NewInt(10))
	}
	// span = 10^length - 10^(length-1)
	span := new(big.Int).Mul(min, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	return n.Add(n, min).String(), nil
}
