package tile

import (
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"

	"github.com/milk9111/worldedit/common"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"
)

// Tileset describes a tileset sheet: its size in cells and the behavior
// type of each cell. A nil *Tileset reports type 0 everywhere.
type Tileset struct {
	Name    string
	Columns int
	Rows    int
	types   map[cell]int
}

type cell struct{ col, row int }

// TypeSpec is the YAML form of a tileset type table.
type TypeSpec struct {
	Name    string      `yaml:"name"`
	Image   string      `yaml:"image"`
	Columns int         `yaml:"columns"`
	Rows    int         `yaml:"rows"`
	Types   []TypeRange `yaml:"types"`
}

// TypeRange assigns Type to the Width x Height block at (Col, Row). A zero
// width or height means one cell.
type TypeRange struct {
	Col    int `yaml:"col"`
	Row    int `yaml:"row"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Type   int `yaml:"type"`
}

func NewTileset(name string, columns, rows int) *Tileset {
	return &Tileset{
		Name:    name,
		Columns: clampCells(columns),
		Rows:    clampCells(rows),
		types:   make(map[cell]int),
	}
}

func clampCells(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxTilesetCells {
		return MaxTilesetCells
	}
	return n
}

func (ts *Tileset) TypeAt(col, row int) int {
	if ts == nil {
		return 0
	}
	return ts.types[cell{col, row}]
}

func (ts *Tileset) SetType(col, row, typ int) {
	if typ == 0 {
		delete(ts.types, cell{col, row})
		return
	}
	ts.types[cell{col, row}] = typ & typeMask
}

// Code returns the tile at (col, row) with its table type applied.
func (ts *Tileset) Code(col, row int) Code {
	return Make(col, row, ts.TypeAt(col, row), 0)
}

func (ts *Tileset) Contains(col, row int) bool {
	return col >= 0 && row >= 0 && col < ts.Columns && row < ts.Rows
}

// ApplyTypes copies the ranges of def into the table.
func (ts *Tileset) ApplyTypes(def TypeSpec) {
	for _, r := range def.Types {
		w, h := max(r.Width, 1), max(r.Height, 1)
		for y := r.Row; y < r.Row+h; y++ {
			for x := r.Col; x < r.Col+w; x++ {
				ts.SetType(x, y, r.Type)
			}
		}
	}
}

// ParseTypeSpec reads a YAML type table.
func ParseTypeSpec(data []byte) (TypeSpec, error) {
	var def TypeSpec
	if err := yaml.Unmarshal(data, &def); err != nil {
		return TypeSpec{}, fmt.Errorf("tileset: unmarshal types: %w", err)
	}
	return def, nil
}

// DecodeTilesetImage sizes a tileset from the header of a PNG, BMP or WebP
// sheet without decoding the pixels.
func DecodeTilesetImage(name string, r io.Reader) (*Tileset, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("tileset: decode %s: %w", name, err)
	}
	if cfg.Width < common.TileSize || cfg.Height < common.TileSize {
		return nil, fmt.Errorf("tileset: %s (%s) is smaller than one tile: %dx%d", name, format, cfg.Width, cfg.Height)
	}
	return NewTileset(name, cfg.Width/common.TileSize, cfg.Height/common.TileSize), nil
}

// LoadTileset builds a tileset from an image and an optional YAML type
// table. Without an image the table's columns and rows are used.
func LoadTileset(imagePath, typesPath string) (*Tileset, error) {
	var def TypeSpec
	if typesPath != "" {
		data, err := os.ReadFile(typesPath)
		if err != nil {
			return nil, fmt.Errorf("tileset: read %s: %w", typesPath, err)
		}
		if def, err = ParseTypeSpec(data); err != nil {
			return nil, err
		}
		if imagePath == "" {
			imagePath = def.Image
		}
	}

	var ts *Tileset
	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return nil, fmt.Errorf("tileset: open %s: %w", imagePath, err)
		}
		defer f.Close()
		if ts, err = DecodeTilesetImage(imagePath, f); err != nil {
			return nil, err
		}
	} else {
		ts = NewTileset(def.Name, def.Columns, def.Rows)
	}
	if def.Name != "" {
		ts.Name = def.Name
	}
	ts.ApplyTypes(def)
	return ts, nil
}
