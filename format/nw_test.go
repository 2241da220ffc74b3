package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Discard()
}

const sampleNW = `GLEVNW01
BOARD 0 0 4 0 AAABACAD
BOARD 2 1 2 1 //AQ
LINK inside house.nw 10 12 2 1 30 playery
SIGN 4 5
Welcome!
Second line
SIGNEND
CHEST 6 7 greenrupee 0
NPC guard.png 20.5 30
if (playerenters) {
  say hi;
}
NPCEND
BADDY 8 9 3
attack
hurt
defeat
BADDYEND
GARBAGE here
BOARD 0 2 9 0 AA
`

func loadNW(t *testing.T, data string) *world.Level {
	t.Helper()
	l := world.NewLevel(world.NewEnv(nil, NW{}), "test.nw", world.DefaultLevelTiles, world.DefaultLevelTiles)
	require.NoError(t, NW{}.Load(l, strings.NewReader(data)))
	return l
}

func TestNWLoad(t *testing.T) {
	l := loadNW(t, sampleNW)

	assert.Equal(t, tile.FromGraal(0, nil), l.Tile(0, 0, 0))
	assert.Equal(t, tile.FromGraal(3, nil), l.Tile(0, 3, 0))
	assert.Equal(t, tile.FromGraal(4095, nil), l.Tile(1, 2, 1))
	assert.Equal(t, tile.Invisible, l.Tile(1, 0, 1))
	assert.Equal(t, tile.Invisible, l.Tile(0, 0, 2), "short board is skipped")

	links := l.Links()
	require.Len(t, links, 1)
	assert.Equal(t, "inside house.nw", links[0].NextLevel)
	assert.Equal(t, 160.0, links[0].X())
	assert.Equal(t, 32, links[0].Width())
	assert.Equal(t, 16, links[0].Height())
	assert.Equal(t, "playery", links[0].NextY)

	signs := l.Signs()
	require.Len(t, signs, 1)
	assert.Equal(t, "Welcome!\nSecond line", signs[0].Text)

	var npc *world.NPC
	var chest *world.Chest
	var baddy *world.Baddy
	for _, e := range l.Objects() {
		switch v := e.(type) {
		case *world.NPC:
			npc = v
		case *world.Chest:
			chest = v
		case *world.Baddy:
			baddy = v
		}
	}
	require.NotNil(t, npc)
	assert.Equal(t, "guard.png", npc.Image)
	assert.Equal(t, 328.0, npc.X())
	assert.Contains(t, npc.Script, "say hi;")
	require.NotNil(t, chest)
	assert.Equal(t, "greenrupee", chest.Item)
	require.NotNil(t, baddy)
	assert.Equal(t, [3]string{"attack", "hurt", "defeat"}, baddy.Verses)
	assert.Equal(t, 3, baddy.BaddyType)
}

func TestNWBadHeader(t *testing.T) {
	l := world.NewLevel(nil, "x.nw", 4, 4)
	assert.ErrorIs(t, NW{}.Load(l, strings.NewReader("GLEVNW02\n")), ErrBadHeader)
	assert.ErrorIs(t, NW{}.Load(l, strings.NewReader("")), ErrBadHeader)
}

func TestNWSkipsOversizedBoard(t *testing.T) {
	var l *world.Level
	require.NotPanics(t, func() {
		l = loadNW(t, "GLEVNW01\nBOARD 0 0 4611686018427387904 0 AAAA\nBOARD 0 1 2 0 AAAB\n")
	})
	m := l.Tilemap(0)
	require.NotNil(t, m)
	assert.True(t, tile.IsInvisible(m.Tile(0, 0)))
	assert.False(t, tile.IsInvisible(m.Tile(1, 1)))
}

func TestNWUnterminatedBlock(t *testing.T) {
	l := loadNW(t, "GLEVNW01\nNPC - 1 1\nno end\n")
	assert.Len(t, l.Objects(), 1, "only the default tile layer")
}

func TestNWRoundTrip(t *testing.T) {
	l := loadNW(t, sampleNW)
	var buf bytes.Buffer
	require.NoError(t, NW{}.Save(l, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "GLEVNW01\n"))
	assert.Contains(t, buf.String(), "BOARD 2 1 2 1 //AQ")

	again := loadNW(t, buf.String())
	for _, layer := range l.Layers() {
		assert.True(t, l.Tilemap(layer).Equal(again.Tilemap(layer)), "layer %d", layer)
	}
	a, b := l.Objects(), again.Objects()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Kind(), b[i].Kind())
		assert.Equal(t, a[i].Bounds(), b[i].Bounds())
		for _, p := range world.Properties(a[i]) {
			want, _ := world.GetProperty(a[i], p)
			got, _ := world.GetProperty(b[i], p)
			assert.Equal(t, want, got, "%s.%s", a[i].Kind(), p)
		}
	}
}

func TestNWInOverworldUsesGlobalPixels(t *testing.T) {
	src := memSource{"b.nw": "GLEVNW01\nSIGN 1 1\nhi\nSIGNEND\nBOARD 0 0 1 0 AB\n"}
	env := world.NewEnv(src, NW{})
	ow := world.NewOverworld(env, "ow")
	_, err := ow.AddLevel("b.nw", 1024, 0, 64, 64)
	require.NoError(t, err)

	assert.Equal(t, tile.FromGraal(1, nil), ow.Tile(0, 64, 0))
	signs := ow.Level("b.nw").Signs()
	require.Len(t, signs, 1)
	assert.Equal(t, 1040.0, signs[0].X())

	var buf bytes.Buffer
	require.NoError(t, NW{}.Save(ow.Level("b.nw"), &buf))
	assert.Contains(t, buf.String(), "SIGN 1 1\n")
}
