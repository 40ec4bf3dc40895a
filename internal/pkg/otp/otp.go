package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewCode generates a uniformly random 6-digit passcode in [100000, 999999].
// The floor of 100000 is deliberate: every code is a true 6-digit number,
// codes 000000-099999 are not part of the value space.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
