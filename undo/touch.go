package undo

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/world"
)

// toucher is implemented by commands that can tell which levels they
// read or write.
type toucher interface {
	touches(l *world.Level) bool
}

// touches treats commands that cannot tell as depending on every level.
func touches(c Command, l *world.Level) bool {
	if t, ok := c.(toucher); ok {
		return t.touches(l)
	}
	return true
}

func entityTouches(e world.Entity, l *world.Level, rects ...common.Rect) bool {
	if e.Level() == l {
		return true
	}
	b := l.Bounds()
	if b.Intersects(e.Bounds()) {
		return true
	}
	for _, r := range rects {
		if b.Intersects(r) {
			return true
		}
	}
	return false
}

func rectAt(e world.Entity, p cp.Vector) common.Rect {
	return common.NewRect(p.X, p.Y, float64(e.Width()), float64(e.Height()))
}

func (g *Group) touches(l *world.Level) bool {
	for _, c := range g.Commands {
		if touches(c, l) {
			return true
		}
	}
	return false
}

func (c *AddEntity) touches(l *world.Level) bool    { return entityTouches(c.e, l) }
func (c *DeleteEntity) touches(l *world.Level) bool { return entityTouches(c.e, l) }

func (c *MoveEntities) touches(l *world.Level) bool {
	for i, e := range c.entities {
		if entityTouches(e, l, rectAt(e, c.from[i]), rectAt(e, c.to[i])) {
			return true
		}
	}
	return false
}

func (c *ReshapeEntity) touches(l *world.Level) bool {
	return entityTouches(c.e, l, c.from, c.to)
}

func (c *SetProperty) touches(l *world.Level) bool { return entityTouches(c.e, l) }

func (c *Tiles) touches(l *world.Level) bool {
	ox, oy := world.TileOrigin(l)
	for _, ch := range c.Changes {
		x, y := ch.X-ox, ch.Y-oy
		if x >= 0 && y >= 0 && x < l.HCount() && y < l.VCount() {
			return true
		}
	}
	return false
}
