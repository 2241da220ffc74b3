package world

import (
	"cmp"
	"slices"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/spatial"
)

type Kind int

const (
	KindTileLayer Kind = iota
	KindNPC
	KindLink
	KindSign
	KindChest
	KindBaddy
	KindObjectInstance
)

func (k Kind) String() string {
	switch k {
	case KindTileLayer:
		return "tileLayer"
	case KindNPC:
		return "npc"
	case KindLink:
		return "link"
	case KindSign:
		return "sign"
	case KindChest:
		return "chest"
	case KindBaddy:
		return "baddy"
	case KindObjectInstance:
		return "objectInstance"
	default:
		return "unknown"
	}
}

// Entity is a placed world object. The set of implementations is closed:
// *TileLayer, *NPC, *Link, *Sign, *Chest, *Baddy and *ObjectInstance.
type Entity interface {
	spatial.Item

	Kind() Kind
	Pos() cp.Vector
	X() float64
	Y() float64
	Width() int
	Height() int
	Layer() int
	Order() uint64
	Level() *Level
	World() World

	// Clone returns a detached copy with a fresh order from seq.
	Clone(seq *Sequence) Entity
	// Release drops the entity's resources once nothing can reinsert it.
	Release()

	object() *Object
}

// Object is the state shared by all entity variants. Level and world are
// back-references set while the entity is inserted; they do not own it.
type Object struct {
	spatial  spatial.State
	pos      cp.Vector
	width    int
	height   int
	layer    int
	order    uint64
	level    *Level
	world    World
	released bool
}

func newObject(seq *Sequence, x, y float64, w, h, layer int) Object {
	o := Object{pos: cp.Vector{X: x, Y: y}, width: max(w, 0), height: max(h, 0), layer: layer}
	if seq != nil {
		o.order = seq.Next()
	}
	return o
}

func (o *Object) Bounds() common.Rect {
	return common.NewRect(o.pos.X, o.pos.Y, float64(o.width), float64(o.height))
}

func (o *Object) SpatialState() *spatial.State { return &o.spatial }
func (o *Object) Pos() cp.Vector               { return o.pos }
func (o *Object) X() float64                   { return o.pos.X }
func (o *Object) Y() float64                   { return o.pos.Y }
func (o *Object) Width() int                   { return o.width }
func (o *Object) Height() int                  { return o.height }
func (o *Object) Layer() int                   { return o.layer }
func (o *Object) Order() uint64                { return o.order }
func (o *Object) Level() *Level                { return o.level }
func (o *Object) World() World                 { return o.world }
func (o *Object) Released() bool               { return o.released }
func (o *Object) object() *Object              { return o }

// Depth is the draw layer. RealDepth orders entities within a layer by
// insertion.
func (o *Object) Depth() int { return o.layer }

func (o *Object) RealDepth() DepthKey { return DepthKey{Layer: o.layer, Order: o.order} }

// LocalPos is the position relative to the owning level's origin.
func (o *Object) LocalPos() cp.Vector {
	if o.level == nil {
		return o.pos
	}
	return o.pos.Sub(o.level.Origin())
}

// clone copies geometry into a detached object.
func (o *Object) clone(seq *Sequence) Object {
	return newObject(seq, o.pos.X, o.pos.Y, o.width, o.height, o.layer)
}

func (o *Object) release() {
	o.level = nil
	o.world = nil
	o.released = true
}

func (o *Object) notify(e Entity) {
	if o.world != nil && o.spatial.Added() {
		o.world.UpdateEntity(e)
	}
}

// DepthKey totally orders entities for drawing and hit testing.
type DepthKey struct {
	Layer int
	Order uint64
}

func (k DepthKey) Compare(o DepthKey) int {
	if c := cmp.Compare(k.Layer, o.Layer); c != 0 {
		return c
	}
	return cmp.Compare(k.Order, o.Order)
}

// DepthLess reports whether a is drawn below b.
func DepthLess(a, b Entity) bool {
	return a.object().RealDepth().Compare(b.object().RealDepth()) < 0
}

// SortByDepth orders es bottom to top.
func SortByDepth(es []Entity) {
	slices.SortFunc(es, func(a, b Entity) int {
		return a.object().RealDepth().Compare(b.object().RealDepth())
	})
}

// The setters below are the only way to move or resize an inserted entity;
// each one re-indexes it. Tile layers follow their level and ignore them.

func SetPos(e Entity, x, y float64) {
	o := e.object()
	if e.Kind() == KindTileLayer || (o.pos.X == x && o.pos.Y == y) {
		return
	}
	o.pos = cp.Vector{X: x, Y: y}
	o.notify(e)
}

func SetSize(e Entity, w, h int) {
	o := e.object()
	w, h = max(w, 0), max(h, 0)
	if e.Kind() == KindTileLayer || (o.width == w && o.height == h) {
		return
	}
	o.width, o.height = w, h
	o.notify(e)
}

// SetRect moves and resizes in one re-index.
func SetRect(e Entity, r common.Rect) {
	o := e.object()
	if e.Kind() == KindTileLayer {
		return
	}
	o.pos = cp.Vector{X: r.X, Y: r.Y}
	o.width, o.height = max(int(r.Width), 0), max(int(r.Height), 0)
	o.notify(e)
}

func SetLayer(e Entity, layer int) {
	o := e.object()
	if e.Kind() == KindTileLayer || o.layer == layer {
		return
	}
	o.layer = layer
	o.notify(e)
}

// Splittable reports whether an entity is cut at level boundaries.
func Splittable(e Entity) bool {
	switch e.Kind() {
	case KindLink, KindSign:
		return true
	default:
		return false
	}
}
