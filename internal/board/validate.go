// internal/board/validate.go
//
// Placement validation. All functions here are pure: they take a Grid by
// value (a snapshot) and never mutate anything, so they are equally usable
// against the live grid, a hypothetical grid, or a restored snapshot —
// stuck detection and ghost previews rely on that.

package board

import "github.com/whoamaiii/jenjenmonster/internal/shape"

// CanPlace reports whether every set bit of the layout, anchored at
// (row, col), lands on an in-bounds empty cell. Any violation fails the
// whole check.
func CanPlace(g Grid, l shape.Layout, row, col int) bool {
	for i, lrow := range l {
		for j, set := range lrow {
			if !set {
				continue
			}
			r, c := row+i, col+j
			if !InBounds(r, c) || g[r][c] != "" {
				return false
			}
		}
	}
	return true
}

// CanPlaceAnywhere scans every anchor for a legal placement of the layout.
func CanPlaceAnywhere(g Grid, l shape.Layout) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if CanPlace(g, l, r, c) {
				return true
			}
		}
	}
	return false
}

// FitsAnyRotation reports whether any of the four rotations of the layout
// has a legal anchor. Short-circuits on the first fit.
func FitsAnyRotation(g Grid, l shape.Layout) bool {
	cur := l
	for i := 0; i < 4; i++ {
		if CanPlaceAnywhere(g, cur) {
			return true
		}
		cur = shape.RotateCW(cur)
	}
	return false
}

// FullLines returns the indexes of fully filled rows and columns.
// A row and a column completed by the same placement both count.
func FullLines(g Grid) (rows, cols []int) {
	for r := 0; r < Size; r++ {
		full := true
		for c := 0; c < Size; c++ {
			if g[r][c] == "" {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, r)
		}
	}
	for c := 0; c < Size; c++ {
		full := true
		for r := 0; r < Size; r++ {
			if g[r][c] == "" {
				full = false
				break
			}
		}
		if full {
			cols = append(cols, c)
		}
	}
	return rows, cols
}
