// Package denylist holds auth.TokenDenylist implementations keyed by
// token id (jti). Entries expire with the token they revoke.
package denylist

import (
	"context"
	"sync"
	"time"

	auth "github.com/goliatone/go-jobboard-auth"
)

var _ auth.TokenDenylist = (*Memory)(nil)

// Memory is a process local denylist. Revocations do not survive a
// restart and are not shared between instances.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// MemoryOption configures Memory
type MemoryOption func(*Memory)

// WithClock replaces time.Now
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tokenID == "" || !until.After(m.now()) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenID] = until
	return nil
}

func (m *Memory) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	until, ok := m.entries[tokenID]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return m.now().Before(until), nil
}

// Len returns the number of entries, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep drops expired entries and reports how many were removed
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, until := range m.entries {
		if !now.Before(until) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
