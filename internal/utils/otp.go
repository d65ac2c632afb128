package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a 4-digit code, zero-padded. Closure via the legacy
// path compares the reporter's input against this string exactly.
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// crypto/rand is not expected to fail; keep the contract anyway.
		return "0000"
	}
	return fmt.Sprintf("%04d", n.Int64())
}
