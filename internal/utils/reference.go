package utils

import (
	"crypto/rand"
	"math/big"
)

// ReferenceLength is the length of a booking reference.
const ReferenceLength = 6

// referenceAlphabet omits 0/O and 1/I/L, which customers misread on the phone.
const referenceAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// NewBookingReference returns a random booking reference such as "K7Q2MX".
func NewBookingReference() (string, error) {
	out := make([]byte, ReferenceLength)
	base := big.NewInt(int64(len(referenceAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		out[i] = referenceAlphabet[n.Int64()]
	}
	return string(out), nil
}

// ValidReference reports whether s has the shape of a booking reference.
func ValidReference(s string) bool {
	if len(s) != ReferenceLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
