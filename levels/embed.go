// Package levels embeds a small sample world: two overworld fields and a
// standalone house.
package levels

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/milk9111/worldedit/world"
)

//go:embed world/*.nw world/*.gmap
var LevelsFS embed.FS

const (
	OverworldName = "overworld.gmap"
	HouseName     = "house.nw"
)

// FS returns the sample world rooted at its level directory.
func FS() fs.FS {
	sub, err := fs.Sub(LevelsFS, "world")
	if err != nil {
		panic(fmt.Sprintf("levels: embedded world missing: %v", err))
	}
	return sub
}

// Source serves the sample world read-only.
func Source() world.Source {
	return world.FSSource{FS: FS()}
}

// Names lists the embedded level and layout files.
func Names() ([]string, error) {
	entries, err := fs.ReadDir(FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("read levels: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
