package world

import (
	"testing"

	"github.com/milk9111/worldedit/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x, y, w, h float64) common.Rect { return common.NewRect(x, y, w, h) }

func TestNPCHitTestAndMove(t *testing.T) {
	l := NewLevel(nil, "", 64, 64)
	npc := NewNPC(l.Sequence(), "guard.png", 32, 32)
	require.True(t, l.AddEntity(npc))

	assert.Equal(t, Entity(npc), l.EntityAt(50, 50, nil))

	SetPos(npc, 1000, 1000)
	assert.Empty(t, searchAll(l, 32, 32, 48, 48))
	assert.Equal(t, []Entity{npc}, searchAll(l, 1000, 1000, 48, 48))
	assert.Nil(t, l.EntityAt(50, 50, nil))
}

func TestEntityAtPicksTopmost(t *testing.T) {
	l := NewLevel(nil, "", 64, 64)
	seq := l.Sequence()
	low := NewNPC(seq, "a", 0, 0)
	high := NewChest(seq, 0, 0, "bomb", 0)
	layered := NewSign(seq, 0, 0, "hi")
	SetLayer(layered, 2)
	for _, e := range []Entity{layered, low, high} {
		require.True(t, l.AddObject(e))
	}

	assert.Equal(t, Entity(layered), l.EntityAt(5, 5, nil))
	assert.Equal(t, Entity(high), l.EntityAt(5, 5, func(e Entity) bool { return e.Layer() == 0 && e.Kind() != KindTileLayer }))

	tl := l.EntityAt(500, 500, func(Entity) bool { return true })
	require.NotNil(t, tl)
	assert.Equal(t, KindTileLayer, tl.Kind())

	es := []Entity{high, layered, low}
	SortByDepth(es)
	assert.Equal(t, []Entity{low, high, layered}, es)
	assert.True(t, DepthLess(low, high))
	assert.False(t, DepthLess(high, low))
}

func TestSequencePerWorld(t *testing.T) {
	a := NewLevel(nil, "", 4, 4)
	b := NewLevel(nil, "", 4, 4)
	ea := NewNPC(a.Sequence(), "", 0, 0)
	eb := NewNPC(b.Sequence(), "", 0, 0)
	assert.Equal(t, ea.Order(), eb.Order())
	assert.Greater(t, NewNPC(a.Sequence(), "", 0, 0).Order(), ea.Order())
}

func TestClone(t *testing.T) {
	l := NewLevel(nil, "", 64, 64)
	obj := NewObjectInstance(l.Sequence(), "door", 10, 20, "a", "b")
	require.True(t, l.AddObject(obj))

	c := obj.Clone(l.Sequence()).(*ObjectInstance)
	assert.Greater(t, c.Order(), obj.Order())
	assert.Nil(t, c.Level())
	assert.False(t, c.SpatialState().Added())
	assert.Equal(t, obj.Params, c.Params)
	c.Params[0] = "z"
	assert.Equal(t, "a", obj.Params[0])
	assert.Equal(t, obj.Bounds(), c.Bounds())
}

func TestSetPropertyReindexes(t *testing.T) {
	l := NewLevel(nil, "", 64, 64)
	link := NewLink(l.Sequence(), 0, 0, 32, 32, "next.nw", "30", "playery")
	require.True(t, l.AddObject(link))

	require.NoError(t, SetProperty(link, "x", 512.0))
	require.NoError(t, SetProperty(link, "y", 256))
	require.NoError(t, SetProperty(link, "width", 64))
	assert.Empty(t, searchAll(l, 0, 0, 16, 16))
	assert.Equal(t, []Entity{link}, searchAll(l, 570, 260, 1, 1))

	require.NoError(t, SetProperty(link, "nextLevel", "other.nw"))
	v, err := GetProperty(link, "nextLevel")
	require.NoError(t, err)
	assert.Equal(t, "other.nw", v)

	assert.ErrorIs(t, SetProperty(link, "text", "x"), ErrUnknownProperty)
	assert.ErrorIs(t, SetProperty(link, "x", "abc"), ErrPropertyType)
	assert.ErrorIs(t, SetProperty(link, "width", 1.5), ErrPropertyType)
	_, err = GetProperty(link, "image")
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestVariantProperties(t *testing.T) {
	seq := &Sequence{}
	tests := []struct {
		e     Entity
		name  string
		value any
	}{
		{NewNPC(seq, "", 0, 0), "script", "if (created) {}"},
		{NewNPC(seq, "", 0, 0), "version", 1},
		{NewSign(seq, 0, 0, ""), "text", "welcome"},
		{NewChest(seq, 0, 0, "", 0), "signIndex", 3},
		{NewBaddy(seq, 0, 0, 0), "verse2", "ouch"},
		{NewBaddy(seq, 0, 0, 0), "baddyType", 4},
		{NewObjectInstance(seq, "", 0, 0), "params", []string{"1", "2"}},
		{NewLink(seq, 0, 0, 1, 1, "", "", ""), "nextY", "12"},
	}
	for _, tt := range tests {
		t.Run(tt.e.Kind().String()+"/"+tt.name, func(t *testing.T) {
			require.Contains(t, Properties(tt.e), tt.name)
			require.NoError(t, SetProperty(tt.e, tt.name, tt.value))
			got, err := GetProperty(tt.e, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}

	assert.ErrorIs(t, SetProperty(NewNPC(seq, "", 0, 0), "version", 7), ErrPropertyType)
	assert.ErrorIs(t, SetProperty(NewObjectInstance(seq, "", 0, 0), "params", []any{"a", 1}), ErrPropertyType)
}

func TestTileLayerGeometryFixed(t *testing.T) {
	l := NewLevel(nil, "", 8, 8)
	tl := l.TileLayer(0)
	require.NotNil(t, tl)
	assert.ErrorIs(t, SetProperty(tl, "x", 5), ErrFixedProperty)
	SetPos(tl, 100, 100)
	assert.Equal(t, 0.0, tl.X())
	assert.Equal(t, 8*common.TileSize, tl.Width())
}

func TestReleaseDropsResources(t *testing.T) {
	l := NewLevel(nil, "", 8, 8)
	tl := l.TileLayer(0)
	require.True(t, l.RemoveObject(tl))
	tl.Release()
	assert.Nil(t, tl.Tilemap())
	assert.True(t, tl.Released())
}
