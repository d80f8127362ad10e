// internal/session/session.go
//
// Crash-safe persistence for board sessions. The snapshot lives as a JSON
// blob under the fixed "session" key in the keyed store, one per owner.
//
// Save is an idempotent upsert and is called frequently (on every
// committed engine mutation plus a periodic autosave tick); Load is read
// once at session startup; Clear runs on Terminal entry so the next
// launch starts clean.

package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/whoamaiii/jenjenmonster/internal/board"
	"github.com/whoamaiii/jenjenmonster/internal/store"
)

// Store persists and restores board snapshots.
type Store interface {
	// Save upserts the owner's snapshot.
	Save(ctx context.Context, owner string, snap board.Snapshot) error

	// Load returns the owner's snapshot, or nil when none is saved.
	Load(ctx context.Context, owner string) (*board.Snapshot, error)

	// Clear removes the owner's snapshot. Clearing an absent snapshot is
	// not an error.
	Clear(ctx context.Context, owner string) error
}

type kvStore struct {
	kv store.Store
}

// New constructs a session Store over the keyed blob store.
func New(kv store.Store) Store {
	return &kvStore{kv: kv}
}

func (s *kvStore) Save(ctx context.Context, owner string, snap board.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.kv.Set(ctx, owner, store.KeySession, string(data))
}

func (s *kvStore) Load(ctx context.Context, owner string) (*board.Snapshot, error) {
	data, ok, err := s.kv.Get(ctx, owner, store.KeySession)
	if err != nil || !ok {
		return nil, err
	}
	var snap board.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		// A corrupt snapshot is treated as absent: the player gets a
		// fresh board instead of a crash loop.
		return nil, nil
	}
	return &snap, nil
}

func (s *kvStore) Clear(ctx context.Context, owner string) error {
	return s.kv.Delete(ctx, owner, store.KeySession)
}
