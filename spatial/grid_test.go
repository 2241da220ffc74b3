package spatial

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/milk9111/worldedit/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type box struct {
	id    int
	rect  common.Rect
	state State
}

func (b *box) Bounds() common.Rect  { return b.rect }
func (b *box) SpatialState() *State { return &b.state }

func ids(items []*box) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.id)
	}
	sort.Ints(out)
	return out
}

func TestGridAddRemove(t *testing.T) {
	g := NewGrid[*box](64)
	b := &box{id: 1, rect: common.NewRect(10, 10, 20, 20)}

	assert.True(t, g.Add(b))
	assert.False(t, g.Add(b), "double add is a no-op")
	assert.Equal(t, 1, g.Len())
	assert.True(t, b.state.Added())

	assert.True(t, g.Remove(b))
	assert.False(t, g.Remove(b))
	assert.Equal(t, 0, g.Len())
	assert.False(t, b.state.Added())
	assert.Empty(t, g.Search(common.NewRect(0, 0, 100, 100), true, nil, nil))
}

func TestGridSearchEmitsOnce(t *testing.T) {
	g := NewGrid[*box](32)
	wide := &box{id: 1, rect: common.NewRect(0, 0, 300, 300)}
	small := &box{id: 2, rect: common.NewRect(500, 500, 8, 8)}
	g.Add(wide)
	g.Add(small)

	got := g.Search(common.NewRect(0, 0, 1000, 1000), true, nil, nil)
	assert.Equal(t, []int{1, 2}, ids(got))

	got = g.Search(common.NewRect(100, 100, 10, 10), true, nil, nil)
	assert.Equal(t, []int{1}, ids(got))
}

func TestGridSearchMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := NewGrid[*box](50)
	var all []*box
	for i := 0; i < 300; i++ {
		b := &box{id: i, rect: common.NewRect(
			rng.Float64()*2000-500, rng.Float64()*2000-500,
			float64(rng.Intn(200)), float64(rng.Intn(200)))}
		all = append(all, b)
		g.Add(b)
	}

	for q := 0; q < 100; q++ {
		r := common.NewRect(rng.Float64()*2000-500, rng.Float64()*2000-500,
			float64(rng.Intn(400)), float64(rng.Intn(400)))
		var want []*box
		for _, b := range all {
			if r.Intersects(b.rect) {
				want = append(want, b)
			}
		}
		require.Equal(t, ids(want), ids(g.Search(r, true, nil, nil)), "query %v", r)

		loose := ids(g.Search(r, false, nil, nil))
		for _, id := range ids(want) {
			require.Contains(t, loose, id)
		}
	}
}

func TestGridUpdate(t *testing.T) {
	g := NewGrid[*box](64)
	b := &box{id: 1, rect: common.NewRect(0, 0, 16, 16)}
	g.Add(b)

	old := b.rect
	b.rect = common.NewRect(1000, 1000, 16, 16)
	assert.True(t, g.Update(b))
	assert.Empty(t, g.Search(old, true, nil, nil))
	assert.Equal(t, []int{1}, ids(g.Search(b.rect, true, nil, nil)))
	assert.Equal(t, b.rect, b.state.IndexedBounds())

	b.rect = common.NewRect(1002, 1002, 16, 16)
	assert.True(t, g.Update(b))
	assert.Equal(t, []int{1}, ids(g.Search(common.PointRect(1017, 1017), true, nil, nil)))

	stray := &box{id: 2}
	assert.False(t, g.Update(stray))
}

func TestGridStaleWithoutUpdate(t *testing.T) {
	g := NewGrid[*box](64)
	b := &box{id: 1, rect: common.NewRect(0, 0, 16, 16)}
	g.Add(b)
	b.rect = common.NewRect(1000, 1000, 16, 16)
	assert.Empty(t, g.Search(b.rect, true, nil, nil))
}

func TestGridSearchFirstAndPredicate(t *testing.T) {
	g := NewGrid[*box](64)
	for i := 0; i < 5; i++ {
		g.Add(&box{id: i, rect: common.NewRect(float64(i*10), 0, 10, 10)})
	}
	odd := func(b *box) bool { return b.id%2 == 1 }

	got := g.Search(common.NewRect(0, 0, 100, 10), true, nil, odd)
	assert.Equal(t, []int{1, 3}, ids(got))

	first, ok := g.SearchFirst(common.PointRect(35, 5), true, nil)
	require.True(t, ok)
	assert.Equal(t, 3, first.id)

	_, ok = g.SearchFirst(common.PointRect(35, 5), true, func(b *box) bool { return b.id == 0 })
	assert.False(t, ok)
}

func TestGridLargeItems(t *testing.T) {
	g := NewGrid[*box](1)
	huge := &box{id: 1, rect: common.NewRect(0, 0, 1e6, 1e6)}
	require.True(t, g.Add(huge))
	assert.Equal(t, []int{1}, ids(g.Search(common.PointRect(5e5, 5e5), false, nil, nil)))
	assert.Empty(t, g.Search(common.PointRect(-5, -5), false, nil, nil))

	huge.rect = common.NewRect(0, 0, 2, 2)
	g.Update(huge)
	assert.Equal(t, []int{1}, ids(g.Search(common.PointRect(1, 1), true, nil, nil)))
	assert.Equal(t, []int{1}, ids(g.Items(nil)))
	assert.True(t, g.Remove(huge))
}

func TestGridRejectsNonFinite(t *testing.T) {
	logOff(t)
	g := NewGrid[*box](0)
	assert.Equal(t, DefaultCellSize, g.CellSize())
	nan := &box{rect: common.Rect{X: nanValue()}}
	assert.False(t, g.Add(nan))
	assert.Equal(t, 0, g.Len())
}

func BenchmarkGridSearch(b *testing.B) {
	for _, n := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("items=%d", n), func(b *testing.B) {
			rng := rand.New(rand.NewSource(1))
			g := NewGrid[*box](DefaultCellSize)
			for i := 0; i < n; i++ {
				g.Add(&box{id: i, rect: common.NewRect(rng.Float64()*20000, rng.Float64()*20000, 32, 32)})
			}
			view := common.NewRect(5000, 5000, 800, 600)
			var out []*box
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				out = g.Search(view, true, out[:0], nil)
			}
		})
	}
}
