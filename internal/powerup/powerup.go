// internal/powerup/powerup.go
//
// Power-up kinds and the area-effect resolver.
//
// The resolver is pure: it takes a grid snapshot and returns a new grid
// plus the cleared count; the board engine commits the result. Inventory
// bookkeeping lives in inventory.go.

package powerup

import (
	"errors"

	"github.com/whoamaiii/jenjenmonster/internal/board"
)

// Kind identifies a power-up.
// Possible values:
//   - "bomb":    clears the 3×3 block centered on the target.
//   - "cross":   clears the target's entire row and column.
//   - "color":   clears every cell sharing the target cell's color.
//   - "single":  clears just the target cell.
//   - "refresh": regenerates the dock; not cell-targeted.
type Kind string

const (
	KindBomb    Kind = "bomb"
	KindCross   Kind = "cross"
	KindColor   Kind = "color"
	KindSingle  Kind = "single"
	KindRefresh Kind = "refresh"
)

// Kinds lists every power-up kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindBomb, KindCross, KindColor, KindSingle, KindRefresh}
}

// Costs is the coin price of one unit of each kind.
var Costs = map[Kind]int{
	KindBomb:    100,
	KindCross:   120,
	KindColor:   150,
	KindSingle:  60,
	KindRefresh: 80,
}

// CheapestCost is the lowest price across all kinds, used by the engine's
// recovery check (can the player still buy their way out of a stuck board).
func CheapestCost() int {
	min := 0
	for _, c := range Costs {
		if min == 0 || c < min {
			min = c
		}
	}
	return min
}

// Valid reports whether k names a known kind.
func (k Kind) Valid() bool {
	_, ok := Costs[k]
	return ok
}

var (
	// ErrInvalidTarget rejects color/single power-ups aimed at an empty cell,
	// and any target outside the grid.
	ErrInvalidTarget = errors.New("powerup: invalid target")
	// ErrNotCellTargeted rejects Apply for kinds with no target cell.
	ErrNotCellTargeted = errors.New("powerup: kind is not cell-targeted")
)

// Result is the resolver's output: the post-clear grid and how many
// previously filled cells it emptied.
type Result struct {
	Grid    board.Grid
	Cleared int
}

// Apply computes the effect of a cell-targeted power-up against a grid
// snapshot. The input grid is never mutated. Refresh is rejected here —
// it regenerates the dock and is routed to the engine directly.
func Apply(kind Kind, row, col int, g board.Grid) (Result, error) {
	if kind == KindRefresh {
		return Result{}, ErrNotCellTargeted
	}
	if !board.InBounds(row, col) {
		return Result{}, ErrInvalidTarget
	}

	affected := make([][2]int, 0, board.Size*2)
	switch kind {
	case KindBomb:
		for r := row - 1; r <= row+1; r++ {
			for c := col - 1; c <= col+1; c++ {
				if board.InBounds(r, c) {
					affected = append(affected, [2]int{r, c})
				}
			}
		}
	case KindCross:
		for c := 0; c < board.Size; c++ {
			affected = append(affected, [2]int{row, c})
		}
		for r := 0; r < board.Size; r++ {
			if r != row {
				affected = append(affected, [2]int{r, col})
			}
		}
	case KindColor:
		target := g[row][col]
		if target == "" {
			return Result{}, ErrInvalidTarget
		}
		for r := 0; r < board.Size; r++ {
			for c := 0; c < board.Size; c++ {
				if g[r][c] == target {
					affected = append(affected, [2]int{r, c})
				}
			}
		}
	case KindSingle:
		if g[row][col] == "" {
			return Result{}, ErrInvalidTarget
		}
		affected = append(affected, [2]int{row, col})
	default:
		return Result{}, ErrInvalidTarget
	}

	cleared := 0
	for _, cell := range affected {
		if g[cell[0]][cell[1]] != "" {
			g[cell[0]][cell[1]] = ""
			cleared++
		}
	}
	return Result{Grid: g, Cleared: cleared}, nil
}
