// Package spatial maps rectangles to items for viewport culling and hit
// testing. The same contract indexes levels by their global rectangle and
// entities by their bounds.
package spatial

import (
	"sync/atomic"

	"github.com/milk9111/worldedit/common"
)

// Item is anything an Index can hold. The index keeps its bookkeeping in the
// State the item embeds; it never owns the item.
type Item interface {
	Bounds() common.Rect
	SpatialState() *State
}

// State is the per-item bookkeeping. The zero value is an item that is not
// indexed.
type State struct {
	rect  common.Rect
	span  span
	added bool
	large bool
	stamp uint64
}

// Added reports whether the item is currently registered with an index.
func (s *State) Added() bool { return s.added }

// IndexedBounds is the rectangle the item had when it was last added or
// updated.
func (s *State) IndexedBounds() common.Rect { return s.rect }

// Index is the query and mutation contract shared by every spatial
// structure.
//
// Add and Remove are no-ops (returning false) when the item is already
// present or absent. Update must follow every change to an item's bounds.
// Search appends to out every item whose indexed rectangle intersects r and
// that pred accepts (a nil pred accepts all). With accurate unset the result
// may be a superset bounded by the index's cell granularity.
type Index[T Item] interface {
	Add(item T) bool
	Remove(item T) bool
	Update(item T) bool
	Search(r common.Rect, accurate bool, out []T, pred func(T) bool) []T
	SearchFirst(r common.Rect, accurate bool, pred func(T) bool) (T, bool)
	Len() int
}

var searchStamp atomic.Uint64

// nextStamp is unique per query across all indexes, so an item visited
// through several cells is emitted once.
func nextStamp() uint64 { return searchStamp.Add(1) }
