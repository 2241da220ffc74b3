package format

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

const gmapHeader = "GRMAP001"

// Layout is a parsed .gmap file: a Width x Height grid of level names,
// row-major. Empty cells have an empty name.
type Layout struct {
	Width   int
	Height  int
	Tileset string
	Names   [][]string
}

// ParseGMap reads a GRMAP001 layout. Unknown keywords are ignored.
func ParseGMap(r io.Reader) (Layout, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Layout{}, fmt.Errorf("gmap: %w", err)
		}
		return Layout{}, fmt.Errorf("gmap: empty file: %w", ErrBadHeader)
	}
	if strings.TrimSpace(sc.Text()) != gmapHeader {
		return Layout{}, fmt.Errorf("gmap: %q: %w", sc.Text(), ErrBadHeader)
	}

	var lay Layout
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "WIDTH", "HEIGHT":
			if len(fields) != 2 {
				return Layout{}, fmt.Errorf("gmap: bad %s line", fields[0])
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return Layout{}, fmt.Errorf("gmap: bad %s %q", fields[0], fields[1])
			}
			if fields[0] == "WIDTH" {
				lay.Width = n
			} else {
				lay.Height = n
			}
		case "TILESET":
			if len(fields) > 1 {
				lay.Tileset = fields[1]
			}
		case "LEVELNAMES":
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "LEVELNAMESEND" {
					break
				}
				lay.Names = append(lay.Names, splitNames(line))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Layout{}, fmt.Errorf("gmap: %w", err)
	}
	if lay.Width == 0 || lay.Height == 0 {
		return Layout{}, fmt.Errorf("gmap: missing size %dx%d", lay.Width, lay.Height)
	}
	return lay, nil
}

// splitNames parses `"a.nw","b.nw",` into its quoted names.
func splitNames(line string) []string {
	var out []string
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if s, err := strconv.Unquote(part); err == nil {
			part = s
		} else {
			part = strings.Trim(part, `"`)
		}
		out = append(out, part)
	}
	return out
}

// Name returns the level at grid cell (x, y), or "".
func (lay Layout) Name(x, y int) string {
	if y < 0 || y >= len(lay.Names) || x < 0 || x >= len(lay.Names[y]) {
		return ""
	}
	return lay.Names[y][x]
}

// Build places every named cell of the layout into a new overworld. Cells
// are DefaultLevelTiles square. Rows longer than Width are truncated.
func (lay Layout) Build(env *world.Env, name string) (*world.Overworld, error) {
	ow := world.NewOverworld(env, name)
	ow.SetTilesetName(lay.Tileset)
	const cell = world.DefaultLevelTiles
	size := float64(cell * common.TileSize)
	for y := 0; y < lay.Height; y++ {
		for x := 0; x < lay.Width; x++ {
			n := lay.Name(x, y)
			if n == "" {
				continue
			}
			if _, err := ow.AddLevel(n, float64(x)*size, float64(y)*size, cell, cell); err != nil {
				return nil, fmt.Errorf("gmap %s: %w", name, err)
			}
		}
	}
	logger.Log.WithFields(logrus.Fields{"overworld": name, "levels": ow.LevelCount()}).Info("overworld opened")
	return ow, nil
}

// OpenOverworld reads a .gmap through env's source and builds the
// overworld. No level is loaded yet.
func OpenOverworld(ctx context.Context, env *world.Env, name string) (*world.Overworld, error) {
	data, err := env.Source.ReadFile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("gmap: %w", err)
	}
	lay, err := ParseGMap(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gmap %s: %w", name, err)
	}
	return lay.Build(env, name)
}

// WriteGMap is the inverse of ParseGMap.
func WriteGMap(w io.Writer, lay Layout) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, gmapHeader)
	fmt.Fprintf(bw, "WIDTH %d\nHEIGHT %d\n", lay.Width, lay.Height)
	if lay.Tileset != "" {
		fmt.Fprintf(bw, "TILESET %s\n", lay.Tileset)
	}
	fmt.Fprintln(bw, "LEVELNAMES")
	for y := 0; y < lay.Height; y++ {
		for x := 0; x < lay.Width; x++ {
			fmt.Fprintf(bw, "%s,", strconv.Quote(lay.Name(x, y)))
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "LEVELNAMESEND")
	return bw.Flush()
}
