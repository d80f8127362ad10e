// internal/board/engine.go
//
// The board engine: owns the grid, the dock, the hold slot, score and
// combo/streak counters, and drives every state-machine transition.
//
// Concurrency model:
//   - All public methods lock e.mu; the engine's state is never mutated
//     outside that lock.
//   - Deferred work (visual line emptying, dock regeneration, stuck
//     detection) is scheduled through a Scheduler and tagged with a token.
//     Two token kinds exist:
//       round — bumped on every committed mutation; a pending stuck check
//               tagged with an older round self-cancels, so a verdict is
//               never derived from stale input.
//       epoch — bumped only on Reset/Restore; the deferred line-clear and
//               regeneration tasks carry it, so a reset cancels them even
//               if the timer is already queued.
//   - Hooks are invoked with the engine lock held and must not call back
//     into the engine.
//
// The committed decision / deferred visual split: a placement that clears
// lines commits the dock removal, the score, and the clear decision
// synchronously. Only the cosmetic emptying of the decided rows/columns is
// deferred. Stuck detection therefore always sees the committed dock.

package board

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/whoamaiii/jenjenmonster/internal/shape"
)

const (
	clearDelay    = 350 * time.Millisecond
	regenDelay    = 250 * time.Millisecond
	stuckDebounce = 450 * time.Millisecond

	lineBase       = 150
	powerUpPoints  = 20
	milestoneLines = 3
	milestoneCombo = 4
	milestoneRun   = 5
)

// Hooks are callbacks the engine fires on notable transitions. Any field
// may be nil. Hooks run under the engine lock and must not re-enter it.
type Hooks struct {
	// OnGameOver fires once when the engine enters Terminal.
	OnGameOver func(finalScore int)
	// OnPowerUpReward fires when a milestone placement earns a random
	// power-up unit. Granting and kind selection are the caller's concern.
	OnPowerUpReward func()
	// OnChange fires after every committed mutation with a fresh snapshot,
	// for continuous autosave.
	OnChange func(Snapshot)
}

// Engine is the state machine for one play session.
type Engine struct {
	mu     sync.Mutex
	grid   Grid
	dock   []*shape.Shape // len DockSize, nil = consumed slot
	held   *shape.Shape
	score  int
	combo  int
	streak int
	status Status

	round uint64
	epoch uint64

	gen   *shape.Generator
	sched Scheduler
	// recovery reports whether the player can still escape a stuck board
	// (any power-up unit held, or enough currency to buy one).
	recovery func() bool
	hooks    Hooks
}

// New constructs an engine with a freshly generated dock.
func New(rng *rand.Rand, sched Scheduler, recovery func() bool, hooks Hooks) *Engine {
	e := &Engine{
		gen:      shape.NewGenerator(rng),
		sched:    sched,
		recovery: recovery,
		hooks:    hooks,
		status:   StatusIdle,
	}
	e.dock = e.gen.NewDock()
	return e
}

// State returns a deep-copied view of the engine for serialization.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Grid:   e.grid,
		Dock:   copyDock(e.dock),
		Held:   copyPiece(e.held),
		Score:  e.score,
		Combo:  e.combo,
		Streak: e.streak,
		Status: e.status,
	}
}

// GridSnapshot returns a copy of the grid for the power-up resolver.
func (e *Engine) GridSnapshot() Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid
}

// Score returns the current score.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// ------------------------------ placement ----------------------------------

// Place attempts to place dock piece index with its top-left layout cell
// anchored at (row, col). Invalid requests are rejected with no state
// change; the result's Valid field signals the rejection.
func (e *Engine) Place(index, row, col int) PlaceResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	reject := PlaceResult{Valid: false, Status: e.status}
	if e.status == StatusTerminal {
		return reject
	}
	if index < 0 || index >= len(e.dock) || e.dock[index] == nil {
		return reject
	}
	p := e.dock[index]
	if !CanPlace(e.grid, p.Layout, row, col) {
		return reject
	}

	// Stamp and consume.
	for i, lrow := range p.Layout {
		for j, set := range lrow {
			if set {
				e.grid[row+i][col+j] = p.Color
			}
		}
	}
	e.dock[index] = nil
	cells := p.Layout.Cells()

	rows, cols := FullLines(e.grid)
	total := len(rows) + len(cols)

	var points int
	if total == 0 {
		points = cells
		e.score += points
		e.combo, e.streak = 0, 0
		if e.status == StatusRescue {
			e.status = StatusIdle
		}
		if e.dockEmpty() {
			e.scheduleRegen()
		}
	} else {
		e.combo++
		e.streak++
		points = cells + lineBonus(total, e.combo, e.streak)
		e.score += points
		e.status = StatusResolving
		e.scheduleClear(rows, cols)
	}

	if total >= milestoneLines || e.combo >= milestoneCombo || e.streak >= milestoneRun {
		if e.hooks.OnPowerUpReward != nil {
			e.hooks.OnPowerUpReward()
		}
	}

	e.bump()
	e.scheduleStuckCheck()
	e.notify()
	return PlaceResult{
		Valid:       true,
		CellsFilled: cells,
		LinesTotal:  total,
		Points:      points,
		Status:      e.status,
	}
}

// lineBonus implements the clear bonus formula. Fractional multipliers
// compound in float64 with a single floor at the end; combo and streak are
// the post-increment values.
func lineBonus(total, combo, streak int) int {
	lineMult := 1.0
	switch {
	case total > 3:
		lineMult = 3
	case total > 1:
		lineMult = float64(total) * 0.8
	}
	comboMult := 1 + float64(combo)*0.2
	streakMult := 1 + float64(streak)*0.1
	return int(math.Floor(float64(total) * lineBase * lineMult * comboMult * streakMult))
}

// scheduleClear defers the cosmetic emptying of the decided lines. The
// decision (which rows/cols clear, the score) is already committed; the
// closure only empties cells, keyed by epoch so a reset cancels it.
func (e *Engine) scheduleClear(rows, cols []int) {
	epoch := e.epoch
	e.sched.After(clearDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if epoch != e.epoch {
			return
		}
		for _, r := range rows {
			for c := 0; c < Size; c++ {
				e.grid[r][c] = ""
			}
		}
		for _, c := range cols {
			for r := 0; r < Size; r++ {
				e.grid[r][c] = ""
			}
		}
		if e.status == StatusResolving {
			e.status = StatusIdle
		}
		if e.dockEmpty() {
			e.scheduleRegen()
		}
		e.bump()
		e.scheduleStuckCheck()
		e.notify()
	})
}

// ------------------------------ hold / rotate ------------------------------

// Hold stashes dock piece index into the hold slot, or swaps it with the
// currently held piece. Returns false for invalid requests.
func (e *Engine) Hold(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusTerminal {
		return false
	}
	if index < 0 || index >= len(e.dock) || e.dock[index] == nil {
		return false
	}
	if e.held == nil {
		e.held = e.dock[index]
		e.dock[index] = nil
	} else {
		e.dock[index], e.held = e.held, e.dock[index]
	}
	if e.dockEmpty() {
		e.scheduleRegen()
	}
	e.bump()
	e.scheduleStuckCheck()
	e.notify()
	return true
}

// Rotate replaces dock piece index's layout with its clockwise rotation.
// Identity and dock size are unchanged.
func (e *Engine) Rotate(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusTerminal {
		return false
	}
	if index < 0 || index >= len(e.dock) || e.dock[index] == nil {
		return false
	}
	e.dock[index].Layout = shape.RotateCW(e.dock[index].Layout)
	e.bump()
	e.scheduleStuckCheck()
	e.notify()
	return true
}

// ------------------------------ power-ups ----------------------------------

// CommitPowerUp installs the resolver's post-clear grid, awards points for
// the cleared cells, and exits any active rescue. Returns points awarded.
func (e *Engine) CommitPowerUp(g Grid, cleared int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusTerminal {
		return 0
	}
	e.grid = g
	points := cleared * powerUpPoints
	e.score += points
	if e.status == StatusRescue {
		e.status = StatusIdle
	}
	e.bump()
	e.scheduleStuckCheck()
	e.notify()
	return points
}

// RegenerateDock unconditionally replaces the dock (the dock-refresh
// power-up effect). Exits rescue: a fresh dock gets a fresh verdict.
func (e *Engine) RegenerateDock() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusTerminal {
		return
	}
	e.dock = e.gen.NewDock()
	if e.status == StatusRescue {
		e.status = StatusIdle
	}
	e.bump()
	e.scheduleStuckCheck()
	e.notify()
}

// ------------------------------ stuck detection ----------------------------

// scheduleStuckCheck queues a debounced playability check tagged with the
// current round. Any later mutation bumps the round, invalidating it.
func (e *Engine) scheduleStuckCheck() {
	round := e.round
	e.sched.After(stuckDebounce, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if round != e.round {
			return
		}
		e.checkStuckLocked()
	})
}

func (e *Engine) checkStuckLocked() {
	if e.status == StatusTerminal || e.status == StatusResolving {
		return
	}
	// An empty dock with nothing held is transient: regeneration is
	// already scheduled and will trigger a fresh check.
	if e.dockEmpty() && e.held == nil {
		return
	}

	playable := false
	for _, p := range e.dock {
		if p != nil && FitsAnyRotation(e.grid, p.Layout) {
			playable = true
			break
		}
	}
	if !playable && e.held != nil && FitsAnyRotation(e.grid, e.held.Layout) {
		playable = true
	}

	if playable {
		if e.status == StatusRescue {
			e.status = StatusIdle
			e.notify()
		}
		return
	}

	if e.recovery != nil && e.recovery() {
		e.status = StatusRescue
		e.notify()
		return
	}

	e.status = StatusTerminal
	if e.hooks.OnGameOver != nil {
		e.hooks.OnGameOver(e.score)
	}
}

// ------------------------------ lifecycle ----------------------------------

// Reset wipes the board and starts a fresh session. Bumping the epoch
// cancels any queued line-clear or regeneration task; bumping the round
// cancels pending stuck checks.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	e.grid = Grid{}
	e.dock = e.gen.NewDock()
	e.held = nil
	e.score, e.combo, e.streak = 0, 0, 0
	e.status = StatusIdle
	e.bump()
	e.scheduleStuckCheck()
	e.notify()
}

// Snapshot captures the current session for persistence. Terminal
// sessions return ok=false: they are purged, not saved.
func (e *Engine) Snapshot() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusTerminal {
		return Snapshot{}, false
	}
	return e.snapshotLocked(), true
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Grid:    e.grid,
		Dock:    copyDock(e.dock),
		Held:    copyPiece(e.held),
		Score:   e.score,
		Combo:   e.combo,
		Streak:  e.streak,
		Rescue:  e.status == StatusRescue,
		SavedAt: time.Now().UTC(),
	}
}

// Restore replaces the engine state with a saved snapshot, verbatim.
func (e *Engine) Restore(s Snapshot) error {
	if len(s.Dock) != shape.DockSize {
		return errors.New("snapshot: bad dock size")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	e.grid = s.Grid
	e.dock = copyDock(s.Dock)
	e.held = copyPiece(s.Held)
	e.score, e.combo, e.streak = s.Score, s.Combo, s.Streak
	if s.Rescue {
		e.status = StatusRescue
	} else {
		e.status = StatusIdle
	}

	// Restored piece IDs must never be reissued.
	var maxID int64
	for _, p := range e.dock {
		if p != nil && p.ID > maxID {
			maxID = p.ID
		}
	}
	if e.held != nil && e.held.ID > maxID {
		maxID = e.held.ID
	}
	e.gen.Advance(maxID)

	e.bump()
	e.scheduleStuckCheck()
	return nil
}

// ------------------------------ internals ----------------------------------

func (e *Engine) bump() { e.round++ }

func (e *Engine) notify() {
	if e.hooks.OnChange != nil && e.status != StatusTerminal {
		e.hooks.OnChange(e.snapshotLocked())
	}
}

func (e *Engine) dockEmpty() bool {
	for _, p := range e.dock {
		if p != nil {
			return false
		}
	}
	return true
}

// scheduleRegen queues dock regeneration after the consume animation
// window. Epoch-keyed: a reset cancels it.
func (e *Engine) scheduleRegen() {
	epoch := e.epoch
	e.sched.After(regenDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if epoch != e.epoch || !e.dockEmpty() {
			return
		}
		e.dock = e.gen.NewDock()
		e.bump()
		e.scheduleStuckCheck()
		e.notify()
	})
}

func copyDock(dock []*shape.Shape) []*shape.Shape {
	out := make([]*shape.Shape, len(dock))
	for i, p := range dock {
		out[i] = copyPiece(p)
	}
	return out
}

func copyPiece(p *shape.Shape) *shape.Shape {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Layout = p.Layout.Clone()
	return &cp
}
