// Package password provides salted one-way password hashing and verification.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes plaintext passwords and verifies candidates against digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher backed by bcrypt with the given cost
// factor. The cost is clamped to bcrypt's valid range.
func NewBcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash produces a salted digest. The salt is randomized per call, so two
// hashes of the same plaintext differ.
func (h *bcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext reproduces digest. A malformed digest
// reports no match rather than an error.
func (h *bcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
