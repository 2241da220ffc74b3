package world

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/spatial"
	"github.com/milk9111/worldedit/tile"
	"github.com/sirupsen/logrus"
)

// DefaultLevelTiles is the edge length of a Graal level in tiles.
const DefaultLevelTiles = 64

// Level is one bounded map: tile layers plus placed entities, backed by a
// file. A standalone level indexes its own entities; a level inside an
// Overworld registers them in the overworld's shared index instead.
type Level struct {
	state spatial.State

	env    *Env
	name   string
	origin cp.Vector
	hcount int
	vcount int

	unitWidth, unitHeight int

	layers  map[int]*TileLayer
	objects map[Entity]struct{}
	links   []*Link
	signs   []*Sign

	overworld *Overworld
	seq       Sequence
	index     *spatial.Grid[Entity]

	load     LoadState
	loadErr  error
	op       *loadOp
	modified bool
	onDisk   bool
	released bool
	parsing  bool
	digest   Digest
}

var _ World = (*Level)(nil)

func newLevel(env *Env, name string, x, y float64, hcount, vcount int) *Level {
	if env == nil {
		env = NewEnv(nil)
	}
	return &Level{
		env:        env,
		name:       name,
		origin:     cp.Vector{X: x, Y: y},
		hcount:     max(hcount, 1),
		vcount:     max(vcount, 1),
		unitWidth:  max(hcount, 1),
		unitHeight: max(vcount, 1),
		layers:     make(map[int]*TileLayer),
		objects:    make(map[Entity]struct{}),
	}
}

// NewLevel creates an empty standalone level that is ready for editing.
func NewLevel(env *Env, name string, hcount, vcount int) *Level {
	l := newLevel(env, name, 0, 0, hcount, vcount)
	l.index = spatial.NewGrid[Entity](l.env.entityCellSize())
	l.load = Loaded
	l.GetOrMakeTilemap(0)
	return l
}

// OpenLevel creates a standalone level backed by name. Nothing is read
// until Load is called.
func OpenLevel(env *Env, name string) *Level {
	l := newLevel(env, name, 0, 0, DefaultLevelTiles, DefaultLevelTiles)
	l.index = spatial.NewGrid[Entity](l.env.entityCellSize())
	return l
}

func (l *Level) Name() string      { return l.name }
func (l *Level) SetName(n string)  { l.name = n }
func (l *Level) Origin() cp.Vector { return l.origin }
func (l *Level) HCount() int       { return l.hcount }
func (l *Level) VCount() int       { return l.vcount }
func (l *Level) Width() int        { return l.hcount * common.TileSize }
func (l *Level) Height() int       { return l.vcount * common.TileSize }

// UnitSize is the level's cell in the overworld layout grid.
func (l *Level) UnitSize() (int, int) { return l.unitWidth, l.unitHeight }

func (l *Level) Overworld() *Overworld { return l.overworld }
func (l *Level) State() LoadState      { return l.load }
func (l *Level) LoadError() error      { return l.loadErr }
func (l *Level) Released() bool        { return l.released }

// ChangedOnDisk is set when the backing file changed while the level had
// unsaved edits.
func (l *Level) ChangedOnDisk() bool { return l.onDisk }

func (l *Level) Modified() bool     { return l.modified }
func (l *Level) SetModified(v bool) { l.modified = v }

// Digest is the hash of the file contents last loaded or saved.
func (l *Level) Digest() Digest { return l.digest }

// Bounds is the level rectangle in global pixels.
func (l *Level) Bounds() common.Rect {
	return common.NewRect(l.origin.X, l.origin.Y, float64(l.Width()), float64(l.Height()))
}

func (l *Level) SpatialState() *spatial.State { return &l.state }

func (l *Level) Env() *Env              { return l.env }
func (l *Level) Tileset() *tile.Tileset { return l.env.Tileset }

func (l *Level) Sequence() *Sequence {
	if l.overworld != nil {
		return &l.overworld.seq
	}
	return &l.seq
}

func (l *Level) Entities() spatial.Index[Entity] {
	if l.overworld != nil {
		return l.overworld.entities
	}
	return l.index
}

// World is the overworld holding l, or l itself.
func (l *Level) World() World {
	if l.overworld != nil {
		return l.overworld
	}
	return l
}

// GetOrMakeTilemap returns the layer's tilemap, creating an invisible one
// the size of the level on first use.
func (l *Level) GetOrMakeTilemap(layer int) *tile.Tilemap {
	if tl, ok := l.layers[layer]; ok {
		return tl.Tilemap()
	}
	m := tile.NewTilemap(l.hcount, l.vcount, layer)
	l.AddObject(NewTileLayer(l.Sequence(), m, l.origin.X, l.origin.Y))
	return m
}

func (l *Level) Tilemap(layer int) *tile.Tilemap {
	if tl, ok := l.layers[layer]; ok {
		return tl.Tilemap()
	}
	return nil
}

func (l *Level) TileLayer(layer int) *TileLayer { return l.layers[layer] }

// Layers returns the layer indices in ascending order.
func (l *Level) Layers() []int {
	out := make([]int, 0, len(l.layers))
	for k := range l.layers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// AddObject inserts e into the level and its spatial index. It neither
// marks the level modified nor checks that e lies inside the level;
// loaders and commands build on it.
func (l *Level) AddObject(e Entity) bool {
	if l.released || e == nil {
		return false
	}
	if _, ok := l.objects[e]; ok {
		return false
	}
	if tl, ok := e.(*TileLayer); ok {
		if _, taken := l.layers[tl.Layer()]; taken || tl.Tilemap() == nil {
			return false
		}
	}
	l.attach(e)
	l.Entities().Add(e)
	return true
}

// RemoveObject is the inverse of AddObject.
func (l *Level) RemoveObject(e Entity) bool {
	if _, ok := l.objects[e]; !ok {
		return false
	}
	l.Entities().Remove(e)
	l.detach(e)
	return true
}

// attach and detach keep the entity set and the denormalized lists in
// step. They do not touch the index.
func (l *Level) attach(e Entity) {
	l.objects[e] = struct{}{}
	o := e.object()
	o.level = l
	o.world = l.World()
	o.released = false
	switch v := e.(type) {
	case *TileLayer:
		l.layers[v.Layer()] = v
	case *Link:
		l.links = append(l.links, v)
	case *Sign:
		l.signs = append(l.signs, v)
	}
}

func (l *Level) detach(e Entity) {
	delete(l.objects, e)
	o := e.object()
	o.level = nil
	o.world = nil
	switch v := e.(type) {
	case *TileLayer:
		if l.layers[v.Layer()] == v {
			delete(l.layers, v.Layer())
		}
	case *Link:
		l.links = slices.DeleteFunc(l.links, func(x *Link) bool { return x == v })
	case *Sign:
		l.signs = slices.DeleteFunc(l.signs, func(x *Sign) bool { return x == v })
	}
}

func (l *Level) Contains(e Entity) bool {
	_, ok := l.objects[e]
	return ok
}

// Objects returns every entity of the level, tile layers included, in
// insertion order.
func (l *Level) Objects() []Entity {
	out := make([]Entity, 0, len(l.objects))
	for e := range l.objects {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entity) int { return cmp.Compare(a.Order(), b.Order()) })
	return out
}

func (l *Level) Links() []*Link { return slices.Clone(l.links) }
func (l *Level) Signs() []*Sign { return slices.Clone(l.signs) }

// ClampEntity shrinks e to the part inside the level. It returns false and
// leaves e alone when they do not overlap.
func (l *Level) ClampEntity(e Entity) bool {
	r, ok := e.Bounds().Intersection(l.Bounds())
	if !ok {
		return false
	}
	SetRect(e, r)
	return true
}

// ConvertFromGraalTile maps a legacy tile index to a Code, typed by ts or
// by the level's tileset when ts is nil.
func (l *Level) ConvertFromGraalTile(index int, ts *tile.Tileset) tile.Code {
	if ts == nil {
		ts = l.Tileset()
	}
	return tile.FromGraal(index, ts)
}

// LocalTile converts a global pixel position to this level's tile grid.
func (l *Level) LocalTile(x, y float64) (int, int) {
	return int(math.Floor((x - l.origin.X) / common.TileSize)),
		int(math.Floor((y - l.origin.Y) / common.TileSize))
}

// ensureLoaded makes tile and entity data available, loading synchronously
// or waiting on an in-flight load. Failed levels are not retried.
func (l *Level) ensureLoaded() bool {
	if l.parsing {
		return true
	}
	switch l.load {
	case NotLoaded:
		_ = l.Load(context.Background(), false)
	case Loading:
		_ = l.WaitLoaded(context.Background())
	}
	return l.load == Loaded
}

// The tile methods below take coordinates local to the level, which are
// global for a standalone level.

func (l *Level) TryGetTile(layer, tx, ty int) (tile.Code, bool) {
	if tx < 0 || ty < 0 || tx >= l.hcount || ty >= l.vcount || !l.ensureLoaded() {
		return tile.Invisible, false
	}
	m := l.Tilemap(layer)
	if m == nil {
		return tile.Invisible, true
	}
	return m.TryTile(tx, ty)
}

func (l *Level) Tile(layer, tx, ty int) tile.Code {
	c, _ := l.TryGetTile(layer, tx, ty)
	return c
}

// SetTile marks the level modified when the tile was inside the level.
func (l *Level) SetTile(layer, tx, ty int, c tile.Code) bool {
	if tx < 0 || ty < 0 || tx >= l.hcount || ty >= l.vcount || l.released || !l.ensureLoaded() {
		return false
	}
	if !l.GetOrMakeTilemap(layer).SetTile(tx, ty, c) {
		return false
	}
	l.modified = true
	return true
}

func (l *Level) LevelAt(x, y float64) *Level {
	if l.Bounds().Contains(x, y) {
		return l
	}
	return nil
}

func (l *Level) SearchLevels(r common.Rect, out []*Level) []*Level {
	if r.Intersects(l.Bounds()) {
		out = append(out, l)
	}
	return out
}

func (l *Level) AddEntity(e Entity) bool {
	if l.overworld != nil {
		return l.overworld.AddEntity(e)
	}
	if !l.ensureLoaded() || !l.AddObject(e) {
		return false
	}
	l.modified = true
	return true
}

func (l *Level) RemoveEntity(e Entity) bool {
	if l.overworld != nil {
		return l.overworld.RemoveEntity(e)
	}
	if !l.RemoveObject(e) {
		return false
	}
	l.modified = true
	return true
}

func (l *Level) UpdateEntity(e Entity) {
	if l.overworld != nil {
		l.overworld.UpdateEntity(e)
		return
	}
	if e.Level() == l {
		l.index.Update(e)
	}
}

// Fragment never splits inside a standalone level.
func (l *Level) Fragment(e Entity) []Entity {
	if l.overworld != nil {
		return l.overworld.Fragment(e)
	}
	return nil
}

func (l *Level) EntityAt(x, y float64, pred func(Entity) bool) Entity {
	if l.overworld == nil {
		return entityAt(l.index, x, y, pred)
	}
	return entityAt(l.overworld.entities, x, y, func(e Entity) bool {
		return e.Level() == l && (pred == nil && e.Kind() != KindTileLayer || pred != nil && pred(e))
	})
}

// clear drops all tiles and entities, as before a reload.
func (l *Level) clear() {
	for e := range l.objects {
		l.Entities().Remove(e)
		l.detach(e)
		e.Release()
	}
	l.links, l.signs = nil, nil
}

// Release frees the level's contents. Loads still in flight are
// discarded when they complete.
func (l *Level) Release() {
	if l.released {
		return
	}
	l.clear()
	l.op = nil
	l.load = NotLoaded
	l.released = true
	logger.Log.WithFields(logrus.Fields{"level": l.name}).Debug("level released")
}

func entityAt(idx spatial.Index[Entity], x, y float64, pred func(Entity) bool) Entity {
	if pred == nil {
		pred = func(e Entity) bool { return e.Kind() != KindTileLayer }
	}
	hits := idx.Search(common.PointRect(x, y), true, nil, pred)
	var top Entity
	for _, e := range hits {
		if top == nil || DepthLess(top, e) {
			top = e
		}
	}
	return top
}
