package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Rect is an axis-aligned rectangle in world pixels. It covers the half-open
// span [X, X+Width) x [Y, Y+Height). A rect with zero width or height behaves
// as a point (or line) on that axis when tested for overlap.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// PointRect returns a zero-sized rect at (x, y).
func PointRect(x, y float64) Rect {
	return Rect{X: x, Y: y}
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether r and other overlap. Edges that only touch do
// not overlap, except that a zero-sized extent on either side counts as a
// point lying inside the other span.
func (r Rect) Intersects(other Rect) bool {
	return spanOverlap(r.X, r.Width, other.X, other.Width) &&
		spanOverlap(r.Y, r.Height, other.Y, other.Height)
}

func spanOverlap(a0, aw, b0, bw float64) bool {
	switch {
	case aw <= 0 && bw <= 0:
		return a0 == b0
	case aw <= 0:
		return a0 >= b0 && a0 < b0+bw
	case bw <= 0:
		return b0 >= a0 && b0 < a0+aw
	default:
		return a0 < b0+bw && b0 < a0+aw
	}
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// ContainsRect reports whether other lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Right() <= r.Right() &&
		other.Y >= r.Y && other.Bottom() <= r.Bottom()
}

// Intersection returns the overlapping area of r and other. ok is false when
// they do not overlap.
func (r Rect) Intersection(other Rect) (Rect, bool) {
	x0 := math.Max(r.X, other.X)
	y0 := math.Max(r.Y, other.Y)
	x1 := math.Min(r.Right(), other.Right())
	y1 := math.Min(r.Bottom(), other.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// BB converts r to a chipmunk bounding box. L/B hold the minimum corner.
func (r Rect) BB() cp.BB {
	return cp.BB{L: r.X, B: r.Y, R: r.Right(), T: r.Bottom()}
}

func RectFromBB(bb cp.BB) Rect {
	return Rect{X: bb.L, Y: bb.B, Width: bb.R - bb.L, Height: bb.T - bb.B}
}

// Union returns the smallest rect covering all of rects.
func Union(rects ...Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	bb := rects[0].BB()
	for _, r := range rects[1:] {
		bb = bb.Merge(r.BB())
	}
	return RectFromBB(bb)
}
