// internal/board/types.go
//
// Core type definitions for the board engine.
// Defines:
//   - Grid: the fixed 8×8 playfield of color-tagged cells.
//   - Status: the engine's state-machine status (idle/resolving/rescue/terminal).
//   - Snapshot: the serializable session state used for crash recovery.

package board

import (
	"time"

	"github.com/whoamaiii/jenjenmonster/internal/shape"
)

// Size is the fixed playfield dimension. It never changes.
const Size = 8

// Grid is the playfield. The zero value of a cell (empty string) means
// the cell is empty; otherwise it holds the color of the piece that
// filled it. Grid is a value type: passing it copies it, which is what
// gives the validator and the power-up resolver snapshot semantics.
type Grid [Size][Size]shape.Color

// InBounds reports whether (row, col) is a legal grid coordinate.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Status is the engine's state-machine status.
// Possible values:
//   - "idle":      the dock has playable pieces.
//   - "resolving": a line clear has been committed, visual emptying pending.
//   - "rescue":    no legal move exists, but recovery options remain.
//   - "terminal":  no legal move exists and no recovery — game over.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusResolving Status = "resolving"
	StatusRescue    Status = "rescue"
	StatusTerminal  Status = "terminal"
)

// State is a deep-copied, read-only view of the engine, shaped for JSON.
type State struct {
	Grid   Grid           `json:"grid"`
	Dock   []*shape.Shape `json:"dock"` // always DockSize entries, nil = consumed slot
	Held   *shape.Shape   `json:"held,omitempty"`
	Score  int            `json:"score"`
	Combo  int            `json:"combo"`
	Streak int            `json:"streak"`
	Status Status         `json:"status"`
}

// Snapshot is the persisted form of a session, written by the session
// store and restored verbatim on startup. Terminal sessions are never
// snapshotted; the rescue flag is carried so a restored stuck board
// re-enters rescue rather than idling silently.
type Snapshot struct {
	Grid    Grid           `json:"grid"`
	Dock    []*shape.Shape `json:"dock"`
	Held    *shape.Shape   `json:"held,omitempty"`
	Score   int            `json:"score"`
	Combo   int            `json:"combo"`
	Streak  int            `json:"streak"`
	Rescue  bool           `json:"rescue"`
	SavedAt time.Time      `json:"savedAt"`
}

// PlaceResult reports the outcome of a placement request.
type PlaceResult struct {
	Valid       bool   `json:"valid"`
	CellsFilled int    `json:"cellsFilled"`
	LinesTotal  int    `json:"linesTotal"`
	Points      int    `json:"points"`
	Status      Status `json:"status"`
}
