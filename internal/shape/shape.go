// internal/shape/shape.go
//
// Core type definitions for placeable pieces.
// Defines:
//   - Layout: a rows × cols bitmap of filled cells.
//   - Color: the palette tag stamped onto the grid when a piece lands.
//   - Shape: a piece instance offered in the dock (identity + layout + color).

package shape

// Layout is a 2D bitmap describing which cells a piece occupies.
// Rows are top-to-bottom, columns left-to-right. All rows have equal length.
type Layout [][]bool

// Color tags a filled grid cell. The empty string means "no cell".
type Color string

// Palette is the fixed set of colors pieces can be assigned.
// Shuffled per dock so colors don't correlate with slot position.
var Palette = []Color{"red", "gold", "green", "blue", "purple", "teal"}

// Shape is a single offerable piece. Identity is stable across rotation;
// the layout is replaced in place when the piece is rotated.
type Shape struct {
	ID     int64  `json:"id"`     // unique for the lifetime of a session, never reused
	Name   string `json:"name"`   // catalog layout name (e.g. "zig", "big-square")
	Layout Layout `json:"layout"`
	Color  Color  `json:"color"`
}

// Cells returns the number of set bits in the layout.
func (l Layout) Cells() int {
	n := 0
	for _, row := range l {
		for _, set := range row {
			if set {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	out := make(Layout, len(l))
	for i, row := range l {
		out[i] = make([]bool, len(row))
		copy(out[i], row)
	}
	return out
}

// Equal reports whether two layouts have identical dimensions and bits.
func (l Layout) Equal(other Layout) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if len(l[i]) != len(other[i]) {
			return false
		}
		for j := range l[i] {
			if l[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// RotateCW rotates an R×C layout clockwise into a C×R layout:
// out[c][R-1-r] = in[r][c]. Four applications return the original.
func RotateCW(l Layout) Layout {
	if len(l) == 0 {
		return Layout{}
	}
	rows, cols := len(l), len(l[0])
	out := make(Layout, cols)
	for c := 0; c < cols; c++ {
		out[c] = make([]bool, rows)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c][rows-1-r] = l[r][c]
		}
	}
	return out
}
