package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoamaiii/jenjenmonster/internal/board"
	"github.com/whoamaiii/jenjenmonster/internal/session"
	"github.com/whoamaiii/jenjenmonster/internal/shape"
	"github.com/whoamaiii/jenjenmonster/internal/store"
)

func sampleSnapshot() board.Snapshot {
	var g board.Grid
	g[2][3] = "red"
	return board.Snapshot{
		Grid: g,
		Dock: []*shape.Shape{
			{ID: 7, Name: "dot", Layout: shape.Layout{{true}}, Color: "gold"},
			nil,
			{ID: 9, Name: "square", Layout: shape.Layout{{true, true}, {true, true}}, Color: "blue"},
		},
		Score:  420,
		Combo:  2,
		Streak: 3,
		Rescue: true,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	s := session.New(kv)

	require.NoError(t, s.Save(ctx, "alice", sampleSnapshot()))

	snap, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 420, snap.Score)
	assert.Equal(t, shape.Color("red"), snap.Grid[2][3])
	require.Len(t, snap.Dock, 3)
	assert.Nil(t, snap.Dock[1])
	assert.Equal(t, int64(9), snap.Dock[2].ID)
	assert.True(t, snap.Rescue)
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	s := session.New(store.NewMemory())
	snap, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestLoadCorruptSnapshotReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, "alice", store.KeySession, "{not json"))

	s := session.New(kv)
	snap, err := s.Load(ctx, "alice")
	require.NoError(t, err, "corruption must not become a crash loop")
	assert.Nil(t, snap)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := session.New(store.NewMemory())

	require.NoError(t, s.Save(ctx, "alice", sampleSnapshot()))
	require.NoError(t, s.Clear(ctx, "alice"))
	snap, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, s.Clear(ctx, "alice"), "clearing twice is fine")
}
