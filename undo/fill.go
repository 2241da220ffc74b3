package undo

import (
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

// MaxFillTiles bounds the area a single flood fill visits.
const MaxFillTiles = 1 << 20

type point struct{ x, y int }

// FloodFill fills the 4-connected region of tiles equal to the tile at
// (tx, ty) with pattern, tiled so that pattern cell (0, 0) lands on the
// start tile. Only cells whose code actually changes are recorded. A fill
// that crosses into unloaded levels loads them synchronously.
func FloodFill(w world.World, layer, tx, ty int, pattern *tile.Tilemap) *Tiles {
	c := &Tiles{Layer: layer}
	pw, ph := pattern.HCount(), pattern.VCount()
	if pw == 0 || ph == 0 {
		return c
	}
	source, ok := w.TryGetTile(layer, tx, ty)
	if !ok {
		return c
	}

	closed := map[point]struct{}{{tx, ty}: {}}
	stack := []point{{tx, ty}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		code := pattern.Tile(common.Mod(p.x-tx, pw), common.Mod(p.y-ty, ph))
		if code != source {
			c.Changes = append(c.Changes, TileChange{X: p.x, Y: p.y, Old: source, New: code})
		}

		for _, n := range [4]point{{p.x + 1, p.y}, {p.x - 1, p.y}, {p.x, p.y + 1}, {p.x, p.y - 1}} {
			if _, seen := closed[n]; seen {
				continue
			}
			closed[n] = struct{}{}
			if got, ok := w.TryGetTile(layer, n.x, n.y); ok && got == source {
				stack = append(stack, n)
			}
		}
		if len(closed) > MaxFillTiles {
			logger.Log.WithFields(logrus.Fields{"layer": layer, "x": tx, "y": ty}).Warn("flood fill stopped at area limit")
			break
		}
	}
	return c
}
