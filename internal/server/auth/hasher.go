package auth

import (
	"context"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptCost is the adaptive cost used for every new hash.
const BcryptCost = bcrypt.DefaultCost

// MaxPasswordBytes is the longest secret bcrypt accepts.
const MaxPasswordBytes = 72

// BcryptHasher hashes and verifies passwords with bcrypt. The number of
// hashes computed at the same time is capped so that a burst of signups
// cannot starve the rest of the process of CPU.
type BcryptHasher struct {
	cost  int
	slots *semaphore.Weighted
}

// NewBcryptHasher returns a hasher using BcryptCost and at most
// runtime.NumCPU() concurrent computations.
func NewBcryptHasher() *BcryptHasher {
	return NewBcryptHasherWithCost(BcryptCost, runtime.NumCPU())
}

// NewBcryptHasherWithCost is NewBcryptHasher with explicit settings. Tests
// use bcrypt.MinCost to stay fast.
func NewBcryptHasherWithCost(cost int, concurrency int) *BcryptHasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BcryptHasher{
		cost:  cost,
		slots: semaphore.NewWeighted(int64(concurrency)),
	}
}

// Hash returns a salted bcrypt digest of plaintext. Two calls with the same
// input give different results.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext is the secret that produced hashed.
// A malformed hash, a cancelled context or a plaintext longer than
// MaxPasswordBytes yields false. bcrypt ignores bytes past the limit.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hashed string) bool {
	if len(plaintext) > MaxPasswordBytes {
		return false
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
