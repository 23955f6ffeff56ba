package auth

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the hashing cost used in production
const BcryptCost = 12

// PasswordHasher hashes with bcrypt at a fixed cost
type PasswordHasher struct {
	Cost int
}

// NewPasswordHasher returns a hasher at cost, or BcryptCost when cost is zero
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = BcryptCost
	}
	return &PasswordHasher{Cost: cost}
}

// Hash returns the digest of password
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify reports whether password matches digest
func (h *PasswordHasher) Verify(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// NewOpaqueToken returns a random URL-safe token for single-use links
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
