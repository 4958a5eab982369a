// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package sec

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakInput is returned when a plaintext cannot be hashed (empty or over the bcrypt limit).
var ErrWeakInput = errors.New("sec: weak input")

// maxPlaintextBytes is the bcrypt input limit.
const maxPlaintextBytes = 72

// Hasher hashes and verifies secrets with bcrypt.
//
// The cost is embedded in every stored hash, so raising it only affects new
// hashes; older hashes keep verifying and are reported by [Hasher.NeedsRehash].
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher returns a [Hasher] using cost, clamped to the bcrypt bounds.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt encoding of plaintext with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrWeakInput
	}
	if len(plaintext) > maxPlaintextBytes {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrWeakInput, maxPlaintextBytes)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether plaintext matches stored. Malformed hashes never match.
func (h *Hasher) Verify(plaintext, stored string) bool {
	if plaintext == "" || stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
}

// NeedsRehash reports whether stored was produced with a lower cost than the current one.
func (h *Hasher) NeedsRehash(stored string) bool {
	cost, err := bcrypt.Cost([]byte(stored))
	if err != nil {
		return false
	}
	return cost < h.cost
}

// Equalize spends one bcrypt comparison against a fixed hash of the current cost.
// Lookups that miss call it so they take as long as a real verification.
func (h *Hasher) Equalize(plaintext string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("spotex-equalize-placeholder"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
