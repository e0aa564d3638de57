package auth

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultHashCost is the bcrypt cost used when none is configured
const DefaultHashCost = 12

// BcryptHasher implements PasswordHasher. Concurrent bcrypt work is
// bounded by a weighted semaphore so hashing never monopolises the CPU.
type BcryptHasher struct {
	cost   int
	slots  *semaphore.Weighted
	logger Logger
}

// HasherOption configures a BcryptHasher
type HasherOption func(*BcryptHasher)

// WithHashCost sets the bcrypt cost. Out of range values fall back to DefaultHashCost.
func WithHashCost(cost int) HasherOption {
	return func(h *BcryptHasher) {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = DefaultHashCost
		}
		h.cost = cost
	}
}

// WithHashConcurrency sets how many hashes may run at once
func WithHashConcurrency(n int) HasherOption {
	return func(h *BcryptHasher) {
		if n > 0 {
			h.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithHasherLogger sets the logger
func WithHasherLogger(logger Logger) HasherOption {
	return func(h *BcryptHasher) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewBcryptHasher creates a hasher with DefaultHashCost and GOMAXPROCS slots
func NewBcryptHasher(opts ...HasherOption) *BcryptHasher {
	h := &BcryptHasher{
		cost:   defaultHashCost(),
		slots:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Cost returns the configured bcrypt cost
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash will generate a password hash
func (h *BcryptHasher) Hash(ctx context.Context, secret string) (string, error) {
	if secret == "" {
		return "", ErrNoEmptyString
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", internalError(err, "failed to hash password")
	}
	return string(out), nil
}

// Verify reports whether secret matches hash. A malformed hash is a
// mismatch, not an error.
func (h *BcryptHasher) Verify(ctx context.Context, secret, hash string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if err != bcrypt.ErrMismatchedHashAndPassword {
			h.logger.Warn("stored password hash could not be compared", "error", err)
		}
		return false, nil
	}
	return true, nil
}

// HashPassword will generate a password hash with the default cost
func HashPassword(password string) (string, error) {
	return NewBcryptHasher().Hash(context.Background(), password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	ok, err := NewBcryptHasher().Verify(context.Background(), password, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// RandomPasswordHash hashes a random secret. It is used to equalise the
// work done for unknown usernames during login.
func RandomPasswordHash(ctx context.Context, hasher PasswordHasher) (string, error) {
	return hasher.Hash(ctx, uuid.NewString())
}
