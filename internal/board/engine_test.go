package board_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoamaiii/jenjenmonster/internal/board"
	"github.com/whoamaiii/jenjenmonster/internal/shape"
)

// manualSched queues deferred work until the test fires it.
type manualSched struct {
	mu    sync.Mutex
	tasks []func()
}

func (s *manualSched) After(d time.Duration, fn func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
}

// fire drains the queue, including tasks queued by the ones it runs.
func (s *manualSched) fire() {
	for {
		s.mu.Lock()
		if len(s.tasks) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.tasks
		s.tasks = nil
		s.mu.Unlock()
		for _, fn := range batch {
			fn()
		}
	}
}

func newEngine(t *testing.T, recovery func() bool, hooks board.Hooks) (*board.Engine, *manualSched) {
	t.Helper()
	sched := &manualSched{}
	return board.New(rand.New(rand.NewSource(11)), sched, recovery, hooks), sched
}

func piece(id int64, name string, l shape.Layout) *shape.Shape {
	return &shape.Shape{ID: id, Name: name, Layout: l, Color: "red"}
}

func dot(id int64) *shape.Shape    { return piece(id, "dot", shape.Layout{{true}}) }
func square(id int64) *shape.Shape { return piece(id, "square", shape.Layout{{true, true}, {true, true}}) }
func duoV(id int64) *shape.Shape   { return piece(id, "duo-v", shape.Layout{{true}, {true}}) }
func trioV(id int64) *shape.Shape  { return piece(id, "trio-v", shape.Layout{{true}, {true}, {true}}) }

// restore installs a crafted session so tests control the grid and dock.
func restore(t *testing.T, e *board.Engine, g board.Grid, dock []*shape.Shape, held *shape.Shape, rescue bool) {
	t.Helper()
	require.NoError(t, e.Restore(board.Snapshot{
		Grid: g, Dock: dock, Held: held, Rescue: rescue,
	}))
}

func rowExcept(g *board.Grid, row int, skip ...int) {
	skipped := map[int]bool{}
	for _, c := range skip {
		skipped[c] = true
	}
	for c := 0; c < board.Size; c++ {
		if !skipped[c] {
			g[row][c] = "blue"
		}
	}
}

func TestPlaceNoClearScoresCellCount(t *testing.T) {
	e, _ := newEngine(t, nil, board.Hooks{})
	restore(t, e, board.Grid{}, []*shape.Shape{square(1), dot(2), dot(3)}, nil, false)

	res := e.Place(0, 3, 3)
	require.True(t, res.Valid)
	assert.Equal(t, 4, res.CellsFilled)
	assert.Equal(t, 0, res.LinesTotal)
	assert.Equal(t, 4, res.Points)
	assert.Equal(t, board.StatusIdle, res.Status)

	st := e.State()
	assert.Equal(t, 4, st.Score)
	assert.Equal(t, 0, st.Combo)
	assert.Equal(t, 0, st.Streak)
	assert.Nil(t, st.Dock[0], "placed piece is consumed")
	assert.Equal(t, shape.Color("red"), st.Grid[3][3])
	assert.Equal(t, shape.Color("red"), st.Grid[4][4])
}

func TestPlaceRejectionsLeaveStateUntouched(t *testing.T) {
	e, _ := newEngine(t, nil, board.Hooks{})
	var g board.Grid
	g[0][0] = "teal"
	restore(t, e, g, []*shape.Shape{dot(1), nil, dot(3)}, nil, false)
	before := e.State()

	assert.False(t, e.Place(0, 0, 0).Valid, "overlap")
	assert.False(t, e.Place(0, -1, 0).Valid, "out of bounds")
	assert.False(t, e.Place(1, 5, 5).Valid, "consumed slot")
	assert.False(t, e.Place(9, 5, 5).Valid, "bad index")

	after := e.State()
	assert.Equal(t, before.Grid, after.Grid)
	assert.Equal(t, before.Score, after.Score)
	assert.Equal(t, before.Status, after.Status)
}

func TestSingleLineClearScores199(t *testing.T) {
	e, sched := newEngine(t, nil, board.Hooks{})
	var g board.Grid
	rowExcept(&g, 0, 7)
	restore(t, e, g, []*shape.Shape{dot(1), dot(2), dot(3)}, nil, false)

	res := e.Place(0, 0, 7)
	require.True(t, res.Valid)
	assert.Equal(t, 1, res.LinesTotal)
	// 1 cell + floor(1·150·1·1.2·1.1) = 1 + 198.
	assert.Equal(t, 199, res.Points)
	assert.Equal(t, board.StatusResolving, res.Status)

	// The decision is committed but the cells empty only after the delay.
	st := e.State()
	assert.Equal(t, 199, st.Score)
	assert.Equal(t, 1, st.Combo)
	assert.Equal(t, 1, st.Streak)
	assert.Equal(t, shape.Color("red"), st.Grid[0][7])

	sched.fire()
	st = e.State()
	assert.Equal(t, board.StatusIdle, st.Status)
	for c := 0; c < board.Size; c++ {
		assert.Empty(t, st.Grid[0][c])
	}
	assert.Equal(t, 199, st.Score, "score does not change on the visual clear")
}

func TestDoubleLineClearBonus(t *testing.T) {
	e, _ := newEngine(t, nil, board.Hooks{})
	var g board.Grid
	rowExcept(&g, 0, 7)
	rowExcept(&g, 1, 7)
	restore(t, e, g, []*shape.Shape{duoV(1), dot(2), dot(3)}, nil, false)

	res := e.Place(0, 0, 7)
	require.True(t, res.Valid)
	assert.Equal(t, 2, res.LinesTotal)
	// 2 cells + floor(2·150·1.6·1.2·1.1) = 2 + 633.
	assert.Equal(t, 635, res.Points)
}

func TestComboStreakResetOnNonClearingPlacement(t *testing.T) {
	e, sched := newEngine(t, nil, board.Hooks{})
	var g board.Grid
	rowExcept(&g, 0, 7)
	restore(t, e, g, []*shape.Shape{dot(1), dot(2), dot(3)}, nil, false)

	require.True(t, e.Place(0, 0, 7).Valid)
	sched.fire()
	st := e.State()
	require.Equal(t, 1, st.Combo)

	require.True(t, e.Place(1, 4, 4).Valid)
	st = e.State()
	assert.Equal(t, 0, st.Combo)
	assert.Equal(t, 0, st.Streak)
}

func TestTripleLineClearFiresMilestone(t *testing.T) {
	rewards := 0
	e, _ := newEngine(t, nil, board.Hooks{OnPowerUpReward: func() { rewards++ }})
	var g board.Grid
	rowExcept(&g, 0, 7)
	rowExcept(&g, 1, 7)
	rowExcept(&g, 2, 7)
	restore(t, e, g, []*shape.Shape{trioV(1), dot(2), dot(3)}, nil, false)

	res := e.Place(0, 0, 7)
	require.True(t, res.Valid)
	assert.Equal(t, 3, res.LinesTotal)
	assert.Equal(t, 1, rewards)
}

func TestStuckEntersRescueWhenRecoverable(t *testing.T) {
	e, sched := newEngine(t, func() bool { return true }, board.Hooks{})
	var g board.Grid
	for r := 0; r < board.Size; r++ {
		rowExcept(&g, r)
	}
	g[0][0] = ""
	restore(t, e, g, []*shape.Shape{square(1), square(2), square(3)}, nil, false)

	sched.fire()
	assert.Equal(t, board.StatusRescue, e.State().Status)
}

func TestStuckEntersTerminalWithoutRecovery(t *testing.T) {
	final := -1
	e, sched := newEngine(t, func() bool { return false },
		board.Hooks{OnGameOver: func(score int) { final = score }})
	var g board.Grid
	for r := 0; r < board.Size; r++ {
		rowExcept(&g, r)
	}
	g[0][0] = ""
	restore(t, e, g, []*shape.Shape{square(1), square(2), square(3)}, nil, false)

	sched.fire()
	assert.Equal(t, board.StatusTerminal, e.State().Status)
	assert.Equal(t, 0, final, "game over reports the final score")

	// Terminal is absorbing.
	assert.False(t, e.Place(0, 0, 0).Valid)
	assert.False(t, e.Hold(0))
	assert.False(t, e.Rotate(0))
	_, ok := e.Snapshot()
	assert.False(t, ok, "terminal sessions are never snapshotted")
}

func TestStuckCheckCountsHeldPiece(t *testing.T) {
	e, sched := newEngine(t, func() bool { return false }, board.Hooks{})
	var g board.Grid
	for r := 0; r < board.Size; r++ {
		rowExcept(&g, r)
	}
	g[0][0] = ""
	// Dock can't fit anywhere, but the held dot can.
	restore(t, e, g, []*shape.Shape{square(1), square(2), square(3)}, dot(4), false)

	sched.fire()
	assert.Equal(t, board.StatusIdle, e.State().Status)
}

func TestRescueExitsWhenBoardBecomesPlayable(t *testing.T) {
	e, sched := newEngine(t, func() bool { return true }, board.Hooks{})
	var g board.Grid
	for r := 0; r < board.Size; r++ {
		rowExcept(&g, r)
	}
	g[0][0] = ""
	restore(t, e, g, []*shape.Shape{square(1), square(2), dot(3)}, nil, true)
	require.Equal(t, board.StatusRescue, e.State().Status)

	// The dot fits, so the next verdict clears the rescue.
	sched.fire()
	assert.Equal(t, board.StatusIdle, e.State().Status)
}

func TestHoldAndSwap(t *testing.T) {
	e, _ := newEngine(t, nil, board.Hooks{})
	restore(t, e, board.Grid{}, []*shape.Shape{dot(1), duoV(2), dot(3)}, nil, false)

	require.True(t, e.Hold(0))
	st := e.State()
	require.NotNil(t, st.Held)
	assert.Equal(t, int64(1), st.Held.ID)
	assert.Nil(t, st.Dock[0])

	// Holding with an occupied slot swaps.
	require.True(t, e.Hold(1))
	st = e.State()
	assert.Equal(t, int64(2), st.Held.ID)
	assert.Equal(t, int64(1), st.Dock[1].ID)

	assert.False(t, e.Hold(0), "empty slot")
}

func TestDockRegeneratesWhenExhausted(t *testing.T) {
	e, sched := newEngine(t, nil, board.Hooks{})
	restore(t, e, board.Grid{}, []*shape.Shape{dot(1), dot(2), dot(3)}, nil, false)

	require.True(t, e.Place(0, 0, 0).Valid)
	require.True(t, e.Place(1, 0, 2).Valid)
	require.True(t, e.Place(2, 0, 4).Valid)

	sched.fire()
	st := e.State()
	require.Len(t, st.Dock, shape.DockSize)
	for _, p := range st.Dock {
		require.NotNil(t, p)
		assert.Greater(t, p.ID, int64(3), "regenerated IDs continue past restored ones")
	}
}

func TestRotateReplacesLayoutInPlace(t *testing.T) {
	e, _ := newEngine(t, nil, board.Hooks{})
	restore(t, e, board.Grid{}, []*shape.Shape{duoV(1), dot(2), dot(3)}, nil, false)

	require.True(t, e.Rotate(0))
	st := e.State()
	assert.True(t, st.Dock[0].Layout.Equal(shape.Layout{{true, true}}))
	assert.Equal(t, int64(1), st.Dock[0].ID, "identity survives rotation")
}

func TestResetCancelsPendingClear(t *testing.T) {
	e, sched := newEngine(t, nil, board.Hooks{})
	var g board.Grid
	rowExcept(&g, 0, 7)
	restore(t, e, g, []*shape.Shape{dot(1), dot(2), dot(3)}, nil, false)

	require.True(t, e.Place(0, 0, 7).Valid)
	require.Equal(t, board.StatusResolving, e.State().Status)

	e.Reset()
	sched.fire()

	st := e.State()
	assert.Equal(t, board.StatusIdle, st.Status)
	assert.Equal(t, 0, st.Score)
	assert.Equal(t, board.Grid{}, st.Grid)
	for _, p := range st.Dock {
		require.NotNil(t, p)
	}
}

func TestCommitPowerUpAwardsPointsAndExitsRescue(t *testing.T) {
	e, _ := newEngine(t, func() bool { return true }, board.Hooks{})
	var g board.Grid
	g[0][0], g[0][1] = "red", "red"
	restore(t, e, g, []*shape.Shape{square(1), square(2), square(3)}, nil, true)

	var cleared board.Grid
	points := e.CommitPowerUp(cleared, 2)
	assert.Equal(t, 40, points)

	st := e.State()
	assert.Equal(t, 40, st.Score)
	assert.Equal(t, board.StatusIdle, st.Status)
	assert.Equal(t, cleared, st.Grid)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e, sched := newEngine(t, nil, board.Hooks{})
	restore(t, e, board.Grid{}, []*shape.Shape{dot(10), duoV(20), dot(30)}, nil, false)
	require.True(t, e.Place(0, 5, 5).Valid)
	require.True(t, e.Hold(1))

	snap, ok := e.Snapshot()
	require.True(t, ok)
	assert.False(t, snap.SavedAt.IsZero())

	e2, _ := newEngine(t, nil, board.Hooks{})
	require.NoError(t, e2.Restore(snap))

	st, st2 := e.State(), e2.State()
	assert.Equal(t, st.Grid, st2.Grid)
	assert.Equal(t, st.Score, st2.Score)
	require.NotNil(t, st2.Held)
	assert.Equal(t, int64(20), st2.Held.ID)

	sched.fire()
}

func TestRestoreRejectsBadDock(t *testing.T) {
	e, _ := newEngine(t, nil, board.Hooks{})
	err := e.Restore(board.Snapshot{Dock: []*shape.Shape{dot(1)}})
	assert.Error(t, err)
}

func TestOnChangeFiresWithFreshSnapshot(t *testing.T) {
	var snaps []board.Snapshot
	e, _ := newEngine(t, nil, board.Hooks{OnChange: func(s board.Snapshot) { snaps = append(snaps, s) }})
	restore(t, e, board.Grid{}, []*shape.Shape{dot(1), dot(2), dot(3)}, nil, false)

	require.True(t, e.Place(0, 0, 0).Valid)
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.Equal(t, 1, last.Score)
	assert.Equal(t, shape.Color("red"), last.Grid[0][0])
}
