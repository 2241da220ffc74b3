package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGraal(t *testing.T) {
	tests := []struct {
		index    int
		col, row int
	}{
		{0, 0, 0},
		{15, 15, 0},
		{16, 0, 1},
		{511, 15, 31},
		{512, 16, 0},
		{527, 31, 0},
		{4095, 127, 31},
	}
	for _, tt := range tests {
		c := FromGraal(tt.index, nil)
		assert.Equal(t, tt.col, c.Column(), "index %d", tt.index)
		assert.Equal(t, tt.row, c.Row(), "index %d", tt.index)
	}
}

func TestGraalRoundTrip(t *testing.T) {
	for i := 0; i < 4096; i++ {
		got, ok := ToGraal(FromGraal(i, nil))
		require.True(t, ok)
		require.Equal(t, i, got)
	}
}

func TestToGraalOutsideSheet(t *testing.T) {
	_, ok := ToGraal(Invisible)
	assert.False(t, ok)
	_, ok = ToGraal(Make(128, 0, 0, 0))
	assert.False(t, ok)
	_, ok = ToGraal(Make(0, 32, 0, 0))
	assert.False(t, ok)
}

func TestFromGraalAppliesTypes(t *testing.T) {
	ts := NewTileset("pics1", 128, 32)
	ts.SetType(16, 0, 22)
	assert.Equal(t, 22, FromGraal(512, ts).Type())
	assert.Equal(t, 0, FromGraal(0, ts).Type())
}

func TestPairs(t *testing.T) {
	v, ok := DecodePair('A', 'B')
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = DecodePair('/', '/')
	require.True(t, ok)
	assert.Equal(t, 4095, v)
	_, ok = DecodePair('!', 'A')
	assert.False(t, ok)

	for i := 0; i < 4096; i++ {
		p := EncodePair(i)
		got, ok := DecodePair(p[0], p[1])
		require.True(t, ok)
		require.Equal(t, i, got)
	}
}

func TestParseBoard(t *testing.T) {
	b, err := ParseBoard("BOARD 3 7 2 1 AAAB")
	require.NoError(t, err)
	assert.Equal(t, Board{X: 3, Y: 7, Layer: 1, Tiles: []int{0, 1}}, b)
	assert.Equal(t, "BOARD 3 7 2 1 AAAB", b.String())

	b, err = ParseBoard("BOARD 0 0 1 //")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Layer)
	assert.Equal(t, []int{4095}, b.Tiles)
}

func TestParseBoardErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"BOARD",
		"BOARD a 0 1 0 AA",
		"BOARD 0 0 2 0 AA",
		"BOARD 0 0 1 0 !!",
		"BOARD -1 0 1 0 AA",
		"LINK 0 0 1 0 AA",
		"BOARD 0 0 4611686018427387904 0 AAAA",
		"BOARD 0 0 9223372036854775807 0 AAAA",
	} {
		_, err := ParseBoard(line)
		assert.Error(t, err, line)
	}
}
