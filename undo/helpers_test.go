package undo

import (
	"context"
	"fmt"
	"io/fs"
	"testing"

	"github.com/milk9111/worldedit/format"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Discard()
}

type memSource map[string]string

func (m memSource) ReadFile(_ context.Context, name string) ([]byte, error) {
	s, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return []byte(s), nil
}

func (m memSource) WriteFile(_ context.Context, name string, data []byte) error {
	m[name] = string(data)
	return nil
}

// twoLevels returns an overworld of two empty 64x64 levels side by side.
func twoLevels(t *testing.T) *world.Overworld {
	t.Helper()
	src := memSource{"a.nw": "GLEVNW01\n", "b.nw": "GLEVNW01\n"}
	ow := world.NewOverworld(world.NewEnv(src, format.NW{}), "test")
	_, err := ow.AddLevel("a.nw", 0, 0, 64, 64)
	require.NoError(t, err)
	_, err = ow.AddLevel("b.nw", 1024, 0, 64, 64)
	require.NoError(t, err)
	return ow
}

func pattern(w, h int, codes ...tile.Code) *tile.Tilemap {
	m := tile.NewTilemap(w, h, 0)
	for i, c := range codes {
		m.SetTile(i%w, i/w, c)
	}
	return m
}

// snapshot copies layer 0 of a standalone level.
func snapshot(l *world.Level) *tile.Tilemap {
	return l.Tilemap(0).Clone()
}
