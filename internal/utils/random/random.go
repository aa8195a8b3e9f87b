// Package random wraps crypto/rand for the simulated rails.
package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Int64n returns a uniform value in [0, n). n must be positive.
func Int64n(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return v.Int64(), nil
}

// Bytes fills a fresh slice of length n from crypto/rand.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// Chance reports true with probability p. p <= 0 never fires, p >= 1 always does.
func Chance(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	const scale = 1 << 53
	v, err := Int64n(scale)
	if err != nil {
		return false
	}
	return float64(v)/scale < p
}
