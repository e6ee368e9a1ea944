package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt reads at most 72 bytes of input. Longer passwords are cut to that
// length on both hash and verify so the full 6..100 character range stays
// usable.
const bcryptMaxBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
// bcrypt draws a fresh random salt for every Hash call.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher using the given bcrypt cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(clamp(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), clamp(plaintext)) == nil
}

func clamp(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}
