package pin

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PinHasher one-way-encodes a raw PIN into a storable form. Input validation
// (4-6 ASCII digits) is the caller's job; the hasher is not a security
// boundary on its own.
type PinHasher interface {
	Encode(rawPin string) (string, error)
	Compare(encoded, rawPin string) bool
}

// BcryptPinHasher encodes PINs with bcrypt. The salt lives inside the encoded
// form, and comparison runs in constant time inside the library.
type BcryptPinHasher struct {
	Cost int
}

// NewBcryptPinHasher returns a hasher at the default cost.
func NewBcryptPinHasher() *BcryptPinHasher {
	return &BcryptPinHasher{Cost: bcrypt.DefaultCost}
}

// Encode produces the storable form of a raw PIN.
func (h *BcryptPinHasher) Encode(rawPin string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	encoded, err := bcrypt.GenerateFromPassword([]byte(rawPin), cost)
	if err != nil {
		return "", fmt.Errorf("failed to encode pin: %w", err)
	}
	return string(encoded), nil
}

// Compare reports whether rawPin matches the stored encoded form.
func (h *BcryptPinHasher) Compare(encoded, rawPin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(rawPin)) == nil
}
