package undo

import (
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
)

// TileChange is one cell of a tile command, in global tile coordinates.
type TileChange struct {
	X, Y     int
	Old, New tile.Code
}

// Tiles writes a fixed set of cells on one layer. Tile commands never
// merge.
type Tiles struct {
	Layer   int
	Changes []TileChange
}

func (c *Tiles) Redo(w world.World) {
	for _, ch := range c.Changes {
		w.SetTile(c.Layer, ch.X, ch.Y, ch.New)
	}
}

func (c *Tiles) Undo(w world.World) {
	for i := len(c.Changes) - 1; i >= 0; i-- {
		ch := c.Changes[i]
		w.SetTile(c.Layer, ch.X, ch.Y, ch.Old)
	}
}

// PutTiles places pattern with its top-left at (tx, ty). Cells outside the
// world are dropped, as are invisible pattern cells when skipInvisible is
// set.
func PutTiles(w world.World, layer, tx, ty int, pattern *tile.Tilemap, skipInvisible bool) *Tiles {
	c := &Tiles{Layer: layer}
	for y := 0; y < pattern.VCount(); y++ {
		for x := 0; x < pattern.HCount(); x++ {
			code := pattern.Tile(x, y)
			if skipInvisible && code.Invisible() {
				continue
			}
			gx, gy := tx+x, ty+y
			old, ok := w.TryGetTile(layer, gx, gy)
			if !ok {
				continue
			}
			c.Changes = append(c.Changes, TileChange{X: gx, Y: gy, Old: old, New: code})
		}
	}
	return c
}

// DeleteTiles makes a width x height block invisible. The behavior type of
// each removed tile is kept.
func DeleteTiles(w world.World, layer, tx, ty, width, height int) *Tiles {
	c := &Tiles{Layer: layer}
	for y := ty; y < ty+height; y++ {
		for x := tx; x < tx+width; x++ {
			old, ok := w.TryGetTile(layer, x, y)
			if !ok || old.Invisible() {
				continue
			}
			c.Changes = append(c.Changes, TileChange{X: x, Y: y, Old: old, New: tile.MakeInvisible(old.Type())})
		}
	}
	return c
}
