package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoamaiii/jenjenmonster/internal/board"
	"github.com/whoamaiii/jenjenmonster/internal/shape"
)

func TestCanPlaceBoundsAndOverlap(t *testing.T) {
	var g board.Grid
	square := shape.Layout{{true, true}, {true, true}}

	assert.True(t, board.CanPlace(g, square, 0, 0))
	assert.True(t, board.CanPlace(g, square, board.Size-2, board.Size-2))
	assert.False(t, board.CanPlace(g, square, board.Size-1, 0), "bottom overflow")
	assert.False(t, board.CanPlace(g, square, 0, board.Size-1), "right overflow")
	assert.False(t, board.CanPlace(g, square, -1, 0))

	g[0][1] = "red"
	assert.False(t, board.CanPlace(g, square, 0, 0), "overlap on a single cell fails the whole check")
	assert.True(t, board.CanPlace(g, square, 1, 0))
}

func TestCanPlaceDoesNotMutate(t *testing.T) {
	var g board.Grid
	g[3][3] = "blue"
	before := g
	_ = board.CanPlace(g, shape.Layout{{true, true}}, 3, 2)
	assert.Equal(t, before, g)
}

func TestCanPlaceAnywhere(t *testing.T) {
	var g board.Grid
	// Fill everything except one cell.
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			g[r][c] = "red"
		}
	}
	g[4][5] = ""

	dot := shape.Layout{{true}}
	duo := shape.Layout{{true, true}}
	assert.True(t, board.CanPlaceAnywhere(g, dot))
	assert.False(t, board.CanPlaceAnywhere(g, duo))
}

func TestFitsAnyRotation(t *testing.T) {
	var g board.Grid
	// Leave a single empty column: a horizontal trio only fits rotated.
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			if c != 2 {
				g[r][c] = "teal"
			}
		}
	}
	trioH := shape.Layout{{true, true, true}}
	assert.False(t, board.CanPlaceAnywhere(g, trioH))
	assert.True(t, board.FitsAnyRotation(g, trioH))

	square := shape.Layout{{true, true}, {true, true}}
	assert.False(t, board.FitsAnyRotation(g, square))
}

func TestFullLines(t *testing.T) {
	var g board.Grid
	for c := 0; c < board.Size; c++ {
		g[2][c] = "red"
	}
	for r := 0; r < board.Size; r++ {
		g[r][5] = "blue"
	}

	rows, cols := board.FullLines(g)
	require.Equal(t, []int{2}, rows)
	require.Equal(t, []int{5}, cols)

	// A shared cell counts toward both the row and the column.
	g[2][5] = ""
	rows, cols = board.FullLines(g)
	assert.Empty(t, rows)
	assert.Empty(t, cols)
}
