package undo

import (
	"reflect"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/world"
)

// AddEntity inserts a detached entity. The command owns the entity while
// it is undone.
type AddEntity struct {
	e     world.Entity
	owned bool
}

func NewAddEntity(e world.Entity) *AddEntity { return &AddEntity{e: e, owned: true} }

func (c *AddEntity) Entity() world.Entity { return c.e }

func (c *AddEntity) Redo(w world.World) {
	if c.owned && w.AddEntity(c.e) {
		c.owned = false
	}
}

func (c *AddEntity) Undo(w world.World) {
	if !c.owned && w.RemoveEntity(c.e) {
		c.owned = true
	}
}

func (c *AddEntity) Release() {
	if c.owned {
		c.e.Release()
	}
}

// DeleteEntity removes an inserted entity and owns it while applied.
type DeleteEntity struct {
	e     world.Entity
	owned bool
}

func NewDeleteEntity(e world.Entity) *DeleteEntity { return &DeleteEntity{e: e} }

func (c *DeleteEntity) Redo(w world.World) {
	if !c.owned && w.RemoveEntity(c.e) {
		c.owned = true
	}
}

func (c *DeleteEntity) Undo(w world.World) {
	if c.owned && w.AddEntity(c.e) {
		c.owned = false
	}
}

func (c *DeleteEntity) Release() {
	if c.owned {
		c.e.Release()
	}
}

// InsertEntity returns the commands that add e. Links and signs spanning
// several levels are cut into one clamped entity per level, each added by
// its own command; e itself is then released.
func InsertEntity(w world.World, e world.Entity) []Command {
	parts := w.Fragment(e)
	if len(parts) == 0 {
		return []Command{NewAddEntity(e)}
	}
	out := make([]Command, 0, len(parts))
	for _, p := range parts {
		out = append(out, NewAddEntity(p))
	}
	e.Release()
	return out
}

// Insert pushes the commands for InsertEntity as one history entry.
func (h *History) Insert(e world.Entity) {
	cmds := InsertEntity(h.w, e)
	if len(cmds) == 1 {
		h.Push(cmds[0])
		return
	}
	h.BeginMacro("insert")
	for _, c := range cmds {
		h.Push(c)
	}
	h.EndMacro()
}

// MoveEntities moves a fixed set of entities. Successive moves of the same
// set merge.
type MoveEntities struct {
	entities []world.Entity
	from     []cp.Vector
	to       []cp.Vector
}

// NewMoveEntities moves every entity by (dx, dy) from where it is now.
func NewMoveEntities(es []world.Entity, dx, dy float64) *MoveEntities {
	c := &MoveEntities{
		entities: append([]world.Entity(nil), es...),
		from:     make([]cp.Vector, len(es)),
		to:       make([]cp.Vector, len(es)),
	}
	d := cp.Vector{X: dx, Y: dy}
	for i, e := range es {
		c.from[i] = e.Pos()
		c.to[i] = e.Pos().Add(d)
	}
	return c
}

// Bounds is the union of the entities' target rectangles.
func (c *MoveEntities) Bounds() common.Rect {
	rects := make([]common.Rect, len(c.entities))
	for i, e := range c.entities {
		rects[i] = common.NewRect(c.to[i].X, c.to[i].Y, float64(e.Width()), float64(e.Height()))
	}
	return common.Union(rects...)
}

func (c *MoveEntities) Redo(world.World) {
	for i, e := range c.entities {
		world.SetPos(e, c.to[i].X, c.to[i].Y)
	}
}

func (c *MoveEntities) Undo(world.World) {
	for i := len(c.entities) - 1; i >= 0; i-- {
		world.SetPos(c.entities[i], c.from[i].X, c.from[i].Y)
	}
}

func (c *MoveEntities) MergeWith(next Command) bool {
	n, ok := next.(*MoveEntities)
	if !ok || !sameSet(c.entities, n.entities) {
		return false
	}
	for i, e := range c.entities {
		for j, ne := range n.entities {
			if ne == e {
				c.to[i] = n.to[j]
				break
			}
		}
	}
	return true
}

func (c *MoveEntities) Obsolete() bool {
	for i := range c.from {
		if c.from[i] != c.to[i] {
			return false
		}
	}
	return true
}

func sameSet(a, b []world.Entity) bool {
	if len(a) != len(b) {
		return false
	}
	in := make(map[world.Entity]struct{}, len(a))
	for _, e := range a {
		in[e] = struct{}{}
	}
	for _, e := range b {
		if _, ok := in[e]; !ok {
			return false
		}
	}
	return true
}

// ReshapeEntity changes one entity's rectangle.
type ReshapeEntity struct {
	e        world.Entity
	from, to common.Rect
}

func NewReshapeEntity(e world.Entity, to common.Rect) *ReshapeEntity {
	return &ReshapeEntity{e: e, from: e.Bounds(), to: to}
}

func (c *ReshapeEntity) Redo(world.World) { world.SetRect(c.e, c.to) }
func (c *ReshapeEntity) Undo(world.World) { world.SetRect(c.e, c.from) }

func (c *ReshapeEntity) MergeWith(next Command) bool {
	n, ok := next.(*ReshapeEntity)
	if !ok || n.e != c.e {
		return false
	}
	c.to = n.to
	return true
}

func (c *ReshapeEntity) Obsolete() bool { return c.from == c.to }

// SetProperty edits one named property. Successive edits of the same
// property of the same entity merge, as while typing.
type SetProperty struct {
	e        world.Entity
	name     string
	old, new any
}

// NewSetProperty validates value against a detached copy of e, so a bad
// edit fails here instead of inside Redo.
func NewSetProperty(e world.Entity, name string, value any) (*SetProperty, error) {
	old, err := world.GetProperty(e, name)
	if err != nil {
		return nil, err
	}
	scratch := e.Clone(nil)
	defer scratch.Release()
	if err := world.SetProperty(scratch, name, value); err != nil {
		return nil, err
	}
	normalized, err := world.GetProperty(scratch, name)
	if err != nil {
		return nil, err
	}
	return &SetProperty{e: e, name: name, old: old, new: normalized}, nil
}

func (c *SetProperty) Name() string         { return c.name }
func (c *SetProperty) Entity() world.Entity { return c.e }

func (c *SetProperty) Redo(world.World) { _ = world.SetProperty(c.e, c.name, c.new) }
func (c *SetProperty) Undo(world.World) { _ = world.SetProperty(c.e, c.name, c.old) }

func (c *SetProperty) MergeWith(next Command) bool {
	n, ok := next.(*SetProperty)
	if !ok || n.e != c.e || n.name != c.name {
		return false
	}
	c.new = n.new
	return true
}

func (c *SetProperty) Obsolete() bool { return reflect.DeepEqual(c.old, c.new) }
