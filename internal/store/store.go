// internal/store/store.go
//
// Keyed local store for per-owner scalars and small blobs: coins, high
// score, level/xp, favorites, preferences, the power-up inventory blob and
// the session snapshot blob. Everything outside the card tables goes
// through this abstraction.
//
// Implementations may be backed by memory (tests) or SQLite (production).

package store

import (
	"context"
	"sync"
)

// Well-known keys. The inventory and session entries hold JSON blobs;
// the rest are plain scalars.
const (
	KeyCoins       = "coins"
	KeyHighScore   = "high_score"
	KeyXP          = "xp"
	KeyFavorites   = "favorites"
	KeyMuted       = "muted"
	KeyIntroSeen   = "intro_seen"
	KeyPresets     = "filter_presets"
	KeyPowerUps    = "powerups"
	KeySession     = "session"
	KeyDailyLast   = "daily_last"
	KeyDailyStreak = "daily_streak"
)

// Store is the persistence interface for per-owner keyed values.
type Store interface {
	// Get retrieves a value. ok is false when the key is absent.
	Get(ctx context.Context, owner, key string) (value string, ok bool, err error)

	// Set upserts a value. Idempotent.
	Set(ctx context.Context, owner, key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, owner, key string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu   sync.RWMutex
	data map[string]string // keyed by owner + "\x00" + key
}

// NewMemory constructs a new in-memory Store.
func NewMemory() Store {
	return &memory{data: make(map[string]string)}
}

func memKey(owner, key string) string { return owner + "\x00" + key }

func (m *memory) Get(ctx context.Context, owner, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[memKey(owner, key)]
	return v, ok, nil
}

func (m *memory) Set(ctx context.Context, owner, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memKey(owner, key)] = value
	return nil
}

func (m *memory) Delete(ctx context.Context, owner, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, memKey(owner, key))
	return nil
}
