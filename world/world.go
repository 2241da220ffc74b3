// Package world holds the editable world model: levels, overworlds and the
// entities placed in them. All mutation happens on one owner goroutine;
// only file reads run in the background, and their results come back
// through a Dispatcher.
package world

import (
	"errors"
	"sync/atomic"

	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/spatial"
	"github.com/milk9111/worldedit/tile"
)

var (
	ErrUnknownProperty = errors.New("world: unknown property")
	ErrPropertyType    = errors.New("world: wrong property type")
	ErrNoLevel         = errors.New("world: no level at position")
	ErrReadOnly        = errors.New("world: source is read-only")
	ErrReleased        = errors.New("world: level released")
	ErrNoFormat        = errors.New("world: no format for file")
	ErrNotLoaded       = errors.New("world: level not loaded")
	ErrFixedProperty   = errors.New("world: property cannot be set")
)

// World is what editing code talks to: a standalone *Level or an
// *Overworld. Tile coordinates are global tile units; a standalone level
// has its origin at (0, 0).
type World interface {
	Sequence() *Sequence
	Env() *Env
	Bounds() common.Rect
	Entities() spatial.Index[Entity]

	LevelAt(x, y float64) *Level
	SearchLevels(r common.Rect, out []*Level) []*Level

	// AddEntity and RemoveEntity are edit operations and mark the owning
	// level modified.
	AddEntity(e Entity) bool
	RemoveEntity(e Entity) bool
	// UpdateEntity must follow every change to an entity's position, size
	// or layer.
	UpdateEntity(e Entity)
	// Fragment returns clamped per-level clones of a splittable entity, or
	// nil when e does not need splitting.
	Fragment(e Entity) []Entity

	TryGetTile(layer, tx, ty int) (tile.Code, bool)
	Tile(layer, tx, ty int) tile.Code
	SetTile(layer, tx, ty int, c tile.Code) bool

	// EntityAt returns the topmost entity under the point that pred accepts.
	// Tile layers are skipped when pred is nil.
	EntityAt(x, y float64, pred func(Entity) bool) Entity

	Tileset() *tile.Tileset
	Modified() bool
}

// Sequence hands out entity order numbers. Each World owns one, so
// independent worlds never share a counter.
type Sequence struct {
	n atomic.Uint64
}

func (s *Sequence) Next() uint64 { return s.n.Add(1) }

// Peek returns the last issued value.
func (s *Sequence) Peek() uint64 { return s.n.Load() }

type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not-loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}
