package tile

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTilemapBounds(t *testing.T) {
	m := NewTilemap(4, 3, 0)
	assert.Equal(t, Invisible, m.Tile(0, 0))
	assert.Equal(t, Invisible, m.Tile(-1, 0))
	assert.Equal(t, Invisible, m.Tile(4, 0))

	c := Make(1, 1, 0, 0)
	assert.True(t, m.SetTile(3, 2, c))
	assert.False(t, m.SetTile(4, 2, c))
	got, ok := m.TryTile(3, 2)
	assert.True(t, ok)
	assert.Equal(t, c, got)
	_, ok = m.TryTile(0, 3)
	assert.False(t, ok)
}

func TestTilemapRejectsOversize(t *testing.T) {
	for _, dims := range [][2]int{{1 << 32, 1 << 32}, {1 << 62, 4}, {MaxTilemapCells, 2}, {-1, 5}} {
		m := NewTilemap(dims[0], dims[1], 0)
		assert.Equal(t, 0, m.HCount())
		assert.Equal(t, 0, m.VCount())
		assert.NotPanics(t, func() { m.Tile(0, 0) })
		assert.False(t, m.SetTile(0, 0, Make(1, 1, 0, 0)))
	}
	m := NewTilemap(64, 64, 0)
	assert.Equal(t, 64, m.HCount())
	assert.Equal(t, 64, m.VCount())
}

func TestTilemapRegionPaste(t *testing.T) {
	m := NewTilemap(4, 4, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			m.SetTile(x, y, Make(x, y, 0, 0))
		}
	}
	r := m.Region(2, 2, 3, 3)
	assert.Equal(t, Make(2, 2, 0, 0), r.Tile(0, 0))
	assert.Equal(t, Make(3, 3, 0, 0), r.Tile(1, 1))
	assert.Equal(t, Invisible, r.Tile(2, 2))

	dst := NewTilemap(4, 4, 0)
	assert.Equal(t, 4, dst.Paste(r, 0, 0, true))
	assert.Equal(t, Make(3, 3, 0, 0), dst.Tile(1, 1))

	clone := m.Clone()
	assert.True(t, clone.Equal(m))
	clone.SetTile(0, 0, Invisible)
	assert.False(t, clone.Equal(m))
}

func TestDecodeTilesetImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 40))))

	ts, err := DecodeTilesetImage("sheet.png", &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, ts.Columns)
	assert.Equal(t, 2, ts.Rows)

	_, err = DecodeTilesetImage("junk", bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}

func TestTypeSpec(t *testing.T) {
	spec, err := ParseTypeSpec([]byte(`
name: pics1
columns: 128
rows: 32
types:
  - {col: 0, row: 0, width: 2, height: 2, type: 22}
  - {col: 5, row: 1, type: 3}
`))
	require.NoError(t, err)

	ts := NewTileset(spec.Name, spec.Columns, spec.Rows)
	ts.ApplyTypes(spec)
	assert.Equal(t, 22, ts.TypeAt(1, 1))
	assert.Equal(t, 3, ts.TypeAt(5, 1))
	assert.Equal(t, 0, ts.TypeAt(2, 0))
	assert.Equal(t, 22, ts.Code(0, 1).Type())

	var nilSet *Tileset
	assert.Equal(t, 0, nilSet.TypeAt(0, 0))
}

func TestTilesetCapsCells(t *testing.T) {
	ts := NewTileset("big", 5000, 2000)
	assert.Equal(t, MaxTilesetCells, ts.Columns)
	assert.Equal(t, MaxTilesetCells, ts.Rows)
}
