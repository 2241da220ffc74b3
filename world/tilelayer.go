package world

import (
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/tile"
)

// TileLayer places one Tilemap of a level in the entity index, so a
// viewport query returns the visible layers alongside the objects.
type TileLayer struct {
	Object
	tiles *tile.Tilemap
}

func NewTileLayer(seq *Sequence, m *tile.Tilemap, x, y float64) *TileLayer {
	return &TileLayer{
		Object: newObject(seq, x, y, m.HCount()*common.TileSize, m.VCount()*common.TileSize, m.Layer()),
		tiles:  m,
	}
}

func (t *TileLayer) Kind() Kind { return KindTileLayer }

// Tilemap is nil after Release.
func (t *TileLayer) Tilemap() *tile.Tilemap { return t.tiles }

func (t *TileLayer) Clone(seq *Sequence) Entity {
	out := &TileLayer{Object: t.clone(seq)}
	if t.tiles != nil {
		out.tiles = t.tiles.Clone()
	}
	return out
}

func (t *TileLayer) Release() {
	t.release()
	t.tiles = nil
}
