// Package config holds the editor settings read from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
	"gopkg.in/yaml.v3"
)

// Config is the editor configuration.
type Config struct {
	// Directories searched for level, overworld and class files.
	SearchPaths []string `yaml:"search_paths"`

	// Tileset image and its YAML type table. Both may be empty.
	Tileset   string `yaml:"tileset"`
	TileTypes string `yaml:"tile_types"`

	// Spatial grid cell sizes in pixels
	EntityCellSize float64 `yaml:"entity_cell_size"`
	LevelCellSize  float64 `yaml:"level_cell_size"`

	UndoLimit   int `yaml:"undo_limit"` // 0 keeps everything
	LoadWorkers int `yaml:"load_workers"`

	Watch           bool `yaml:"watch"`
	WatchDebounceMS int  `yaml:"watch_debounce_ms"`

	// Autosave is a leveldb directory for crash recovery copies. Empty
	// disables it.
	Autosave string `yaml:"autosave"`

	Log Log `yaml:"log"`
}

// Log selects the logger level and output format.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		SearchPaths:     []string{"."},
		EntityCellSize:  256,
		LevelCellSize:   world.DefaultLevelCellSize,
		UndoLimit:       200,
		LoadWorkers:     world.DefaultLoadWorkers,
		Watch:           true,
		WatchDebounceMS: 100,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// WatchDebounce is the file watcher settle time.
func (c Config) WatchDebounce() time.Duration {
	return time.Duration(max(c.WatchDebounceMS, 0)) * time.Millisecond
}

// Env builds the world environment. A nil src reads from SearchPaths.
func (c Config) Env(src world.Source, formats ...world.Format) (*world.Env, error) {
	if src == nil {
		src = world.NewDirSource(c.SearchPaths...)
	}
	env := world.NewEnv(src, formats...)
	if c.EntityCellSize > 0 {
		env.EntityCellSize = c.EntityCellSize
	}
	if c.LevelCellSize > 0 {
		env.LevelCellSize = c.LevelCellSize
	}
	if c.LoadWorkers > 0 {
		env.LoadWorkers = c.LoadWorkers
	}
	if c.Tileset != "" {
		ts, err := tile.LoadTileset(c.Tileset, c.TileTypes)
		if err != nil {
			return nil, err
		}
		env.Tileset = ts
	}
	return env, nil
}
