package spatial

import (
	"math"

	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultCellSize suits entity indexes.
	DefaultCellSize = 256.0

	// maxSpanCells bounds the footprint of one item. Larger items are kept
	// in a separate list that every query scans.
	maxSpanCells = 4096
)

type cellKey struct {
	X int
	Y int
}

// span is an inclusive cell range.
type span struct {
	x0, y0, x1, y1 int
}

func (s span) cells() int {
	return (s.x1 - s.x0 + 1) * (s.y1 - s.y0 + 1)
}

func (s span) contains(k cellKey) bool {
	return k.X >= s.x0 && k.X <= s.x1 && k.Y >= s.y0 && k.Y <= s.y1
}

// Grid is a uniform grid of square cells. Each item is stored in every cell
// its rectangle touches.
type Grid[T Item] struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]T
	large       []T
	count       int
}

var _ Index[Item] = (*Grid[Item])(nil)

func NewGrid[T Item](cellSize float64) *Grid[T] {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	return &Grid[T]{
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		cells:       make(map[cellKey][]T),
	}
}

func (g *Grid[T]) CellSize() float64 { return g.cellSize }
func (g *Grid[T]) Len() int          { return g.count }

const cellLimit = 1 << 30

func clampCell(f float64) int {
	return int(math.Max(-cellLimit, math.Min(cellLimit, f)))
}

func (g *Grid[T]) coordToCell(v float64) int {
	return clampCell(math.Floor(v * g.invCellSize))
}

// spanOf maps the half-open rectangle r to the cells it touches. A zero
// extent still occupies the cell holding its edge.
func (g *Grid[T]) spanOf(r common.Rect) span {
	s := span{x0: g.coordToCell(r.X), y0: g.coordToCell(r.Y)}
	s.x1, s.y1 = s.x0, s.y0
	if r.Width > 0 {
		s.x1 = max(s.x0, clampCell(math.Ceil((r.X+r.Width)*g.invCellSize))-1)
	}
	if r.Height > 0 {
		s.y1 = max(s.y0, clampCell(math.Ceil((r.Y+r.Height)*g.invCellSize))-1)
	}
	return s
}

func validRect(r common.Rect) bool {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (g *Grid[T]) Add(item T) bool {
	st := item.SpatialState()
	if st.added {
		return false
	}
	r := item.Bounds()
	if !validRect(r) {
		logger.Log.WithFields(logrus.Fields{"rect": r}).Warn("spatial: refusing item with non-finite bounds")
		return false
	}
	g.insert(item, st, r)
	g.count++
	return true
}

func (g *Grid[T]) insert(item T, st *State, r common.Rect) {
	st.rect = r
	st.span = g.spanOf(r)
	st.added = true
	st.large = st.span.cells() > maxSpanCells
	if st.large {
		g.large = append(g.large, item)
		return
	}
	for y := st.span.y0; y <= st.span.y1; y++ {
		for x := st.span.x0; x <= st.span.x1; x++ {
			k := cellKey{x, y}
			g.cells[k] = append(g.cells[k], item)
		}
	}
}

func (g *Grid[T]) Remove(item T) bool {
	st := item.SpatialState()
	if !st.added {
		return false
	}
	g.erase(st)
	g.count--
	*st = State{stamp: st.stamp}
	return true
}

func (g *Grid[T]) erase(st *State) {
	if st.large {
		g.large = removeFrom(g.large, st)
		return
	}
	for y := st.span.y0; y <= st.span.y1; y++ {
		for x := st.span.x0; x <= st.span.x1; x++ {
			k := cellKey{x, y}
			bucket := removeFrom(g.cells[k], st)
			if len(bucket) == 0 {
				delete(g.cells, k)
			} else {
				g.cells[k] = bucket
			}
		}
	}
}

func removeFrom[T Item](bucket []T, st *State) []T {
	for i := range bucket {
		if bucket[i].SpatialState() != st {
			continue
		}
		last := len(bucket) - 1
		bucket[i] = bucket[last]
		var zero T
		bucket[last] = zero
		return bucket[:last]
	}
	return bucket
}

// Update re-places item after its bounds changed. It returns false when the
// item is not indexed.
func (g *Grid[T]) Update(item T) bool {
	st := item.SpatialState()
	if !st.added {
		return false
	}
	r := item.Bounds()
	if !validRect(r) {
		return false
	}
	if g.spanOf(r) == st.span && !st.large {
		st.rect = r
		return true
	}
	g.erase(st)
	g.insert(item, st, r)
	return true
}

func (g *Grid[T]) Search(r common.Rect, accurate bool, out []T, pred func(T) bool) []T {
	g.visit(r, accurate, func(item T) bool {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
		return true
	})
	return out
}

func (g *Grid[T]) SearchFirst(r common.Rect, accurate bool, pred func(T) bool) (T, bool) {
	var found T
	var ok bool
	g.visit(r, accurate, func(item T) bool {
		if pred == nil || pred(item) {
			found, ok = item, true
			return false
		}
		return true
	})
	return found, ok
}

// Items appends every indexed item to out in no particular order.
func (g *Grid[T]) Items(out []T) []T {
	stamp := nextStamp()
	for _, bucket := range g.cells {
		for _, item := range bucket {
			if st := item.SpatialState(); st.stamp != stamp {
				st.stamp = stamp
				out = append(out, item)
			}
		}
	}
	return append(out, g.large...)
}

// visit calls fn once per candidate until fn returns false.
func (g *Grid[T]) visit(r common.Rect, accurate bool, fn func(T) bool) {
	if g.count == 0 || !validRect(r) {
		return
	}
	stamp := nextStamp()
	accept := func(item T) bool {
		st := item.SpatialState()
		if st.stamp == stamp {
			return true
		}
		st.stamp = stamp
		if (accurate || st.large) && !r.Intersects(st.rect) {
			return true
		}
		return fn(item)
	}

	for _, item := range g.large {
		if !accept(item) {
			return
		}
	}

	s := g.spanOf(r)
	if s.cells() > len(g.cells) {
		for k, bucket := range g.cells {
			if !s.contains(k) {
				continue
			}
			for _, item := range bucket {
				if !accept(item) {
					return
				}
			}
		}
		return
	}
	for y := s.y0; y <= s.y1; y++ {
		for x := s.x0; x <= s.x1; x++ {
			for _, item := range g.cells[cellKey{x, y}] {
				if !accept(item) {
					return
				}
			}
		}
	}
}
