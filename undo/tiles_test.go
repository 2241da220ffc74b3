package undo

import (
	"testing"

	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTilesIdempotent(t *testing.T) {
	l := world.NewLevel(nil, "", 8, 8)
	before := snapshot(l)
	a, b := tile.Make(1, 0, 0, 0), tile.Make(2, 0, 0, 0)

	c := PutTiles(l, 0, 6, 6, pattern(3, 3, a, b, a, b, a, b, a, b, a), false)
	assert.Len(t, c.Changes, 4, "cells outside the level are dropped")

	c.Redo(l)
	after := snapshot(l)
	c.Undo(l)
	assert.True(t, before.Equal(l.Tilemap(0)))
	c.Redo(l)
	assert.True(t, after.Equal(l.Tilemap(0)))
}

func TestPutTilesSkipInvisible(t *testing.T) {
	l := world.NewLevel(nil, "", 8, 8)
	a := tile.Make(1, 0, 0, 0)
	l.SetTile(0, 1, 0, a)

	c := PutTiles(l, 0, 0, 0, pattern(2, 1, a, tile.Invisible), true)
	require.Len(t, c.Changes, 1)
	c.Redo(l)
	assert.Equal(t, a, l.Tile(0, 1, 0))
}

func TestDeleteTilesKeepsType(t *testing.T) {
	l := world.NewLevel(nil, "", 8, 8)
	l.SetTile(0, 2, 2, tile.Make(3, 4, 7, 0))

	c := DeleteTiles(l, 0, 0, 0, 4, 4)
	require.Len(t, c.Changes, 1)
	c.Redo(l)
	got := l.Tile(0, 2, 2)
	assert.True(t, got.Invisible())
	assert.Equal(t, 7, got.Type())
	c.Undo(l)
	assert.Equal(t, tile.Make(3, 4, 7, 0), l.Tile(0, 2, 2))
}

func TestFloodFillRegion(t *testing.T) {
	l := world.NewLevel(nil, "", 4, 4)
	a, b := tile.Make(1, 0, 0, 0), tile.Make(2, 0, 0, 0)
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 2; x++ {
			l.SetTile(0, x, y, a)
		}
	}

	c := FloodFill(l, 0, 1, 1, pattern(1, 1, b))
	assert.Len(t, c.Changes, 4)
	c.Redo(l)
	assert.Equal(t, b, l.Tile(0, 2, 2))
	assert.True(t, l.Tile(0, 0, 0).Invisible())
	assert.True(t, l.Tile(0, 3, 3).Invisible())
}

func TestFloodFillPatternFromOrigin(t *testing.T) {
	l := world.NewLevel(nil, "", 4, 4)
	a := tile.Make(1, 0, 0, 0)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			l.SetTile(0, x, y, a)
		}
	}
	before := snapshot(l)
	p1, p2 := tile.Make(2, 0, 0, 0), tile.Make(3, 0, 0, 0)

	c := FloodFill(l, 0, 0, 0, pattern(2, 2, p1, p2, p2, p1))
	require.Len(t, c.Changes, 4)
	for _, ch := range c.Changes {
		assert.Equal(t, a, ch.Old)
		assert.Less(t, ch.X, 2)
		assert.Less(t, ch.Y, 2)
	}

	h := NewHistory(l, 0)
	h.Push(c)
	assert.Equal(t, p1, l.Tile(0, 0, 0))
	assert.Equal(t, p2, l.Tile(0, 1, 0))
	assert.Equal(t, p2, l.Tile(0, 0, 1))
	assert.Equal(t, p1, l.Tile(0, 1, 1))
	assert.True(t, l.Tile(0, 2, 0).Invisible())

	require.True(t, h.Undo())
	assert.Equal(t, before, snapshot(l))
}

// A uniform level is one region, so every cell the pattern changes is
// recorded.
func TestFloodFillPattern(t *testing.T) {
	l := world.NewLevel(nil, "", 4, 4)
	a := tile.Make(1, 0, 0, 0)
	l.Tilemap(0).Fill(a)
	p1, p2 := tile.Make(2, 0, 0, 0), tile.Make(3, 0, 0, 0)

	c := FloodFill(l, 0, 1, 1, pattern(2, 2, p1, p2, p2, p1))
	assert.Len(t, c.Changes, 16)
	c.Redo(l)
	// Pattern cell (0, 0) lands on the start tile.
	assert.Equal(t, p1, l.Tile(0, 1, 1))
	assert.Equal(t, p2, l.Tile(0, 2, 1))
	assert.Equal(t, p1, l.Tile(0, 0, 0))
	assert.Equal(t, p2, l.Tile(0, 0, 1))

	// Checkerboard cells are not 4-connected, so the region is one tile.
	again := FloodFill(l, 0, 1, 1, pattern(1, 1, p1))
	assert.Empty(t, again.Changes)
}

func TestFloodFillNoop(t *testing.T) {
	l := world.NewLevel(nil, "", 4, 4)
	c := FloodFill(l, 0, 0, 0, pattern(1, 1, tile.Invisible))
	assert.Empty(t, c.Changes)
	assert.Empty(t, FloodFill(l, 0, 9, 9, pattern(1, 1, tile.Make(1, 0, 0, 0))).Changes)
}

func TestFloodFillAcrossLevels(t *testing.T) {
	ow := twoLevels(t)
	a := tile.Make(1, 0, 0, 0)
	c := FloodFill(ow, 0, 0, 0, pattern(1, 1, a))
	assert.Len(t, c.Changes, 2*64*64)
	c.Redo(ow)
	assert.Equal(t, a, ow.Tile(0, 127, 63))
	assert.True(t, ow.Level("b.nw").Modified())
}
