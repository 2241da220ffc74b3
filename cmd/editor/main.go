// Command editor is a headless world editor. It opens a level or an
// overworld, applies the requested edits and prints a summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/autosave"
	"github.com/milk9111/worldedit/clipboard"
	"github.com/milk9111/worldedit/config"
	"github.com/milk9111/worldedit/levels"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
)

type options struct {
	config     string
	open       string
	sample     bool
	script     string
	at         string
	copyAt     string
	pasteAt    string
	fill       string
	save       bool
	watch      bool
	systemClip bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "editor.yaml", "YAML configuration file")
	flag.StringVar(&o.open, "open", "", "Level (.nw) or overworld (.gmap) to open")
	flag.BoolVar(&o.sample, "sample", false, "Open from the embedded sample world instead of the search paths")
	flag.StringVar(&o.script, "script", "", "tengo script to run")
	flag.StringVar(&o.at, "at", "", "x,y pixel position of the entity the script edits")
	flag.StringVar(&o.copyAt, "copy", "", "x,y pixel position of an entity to copy")
	flag.StringVar(&o.pasteAt, "paste", "", "x,y pixel position to paste the clipboard at")
	flag.StringVar(&o.fill, "fill", "", "layer,x,y,code flood fill at a global tile position")
	flag.BoolVar(&o.save, "save", false, "Save modified levels before exiting")
	flag.BoolVar(&o.watch, "watch", false, "Keep running and reload levels that change on disk")
	flag.BoolVar(&o.systemClip, "system-clipboard", false, "Use the desktop clipboard")
	flag.Parse()

	if err := run(o); err != nil {
		logger.Log.WithError(err).Error("editor failed")
		os.Exit(1)
	}
}

func run(o options) error {
	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src world.Source = world.NewDirSource(cfg.SearchPaths...)
	name := o.open
	if o.sample {
		src = levels.Source()
		if name == "" {
			name = levels.OverworldName
		}
	}
	if name == "" {
		return errors.New("nothing to open, pass -open or -sample")
	}
	if dir := filepath.Dir(name); !o.sample && dir != "." {
		// Level names are relative to a search directory.
		src = world.NewDirSource(append([]string{dir}, cfg.SearchPaths...)...)
		name = filepath.Base(name)
	}

	var board clipboard.Board
	if o.systemClip {
		sys, err := clipboard.NewSystem()
		if err != nil {
			return err
		}
		board = sys
	}

	var store *autosave.Store
	if cfg.Autosave != "" {
		if store, err = autosave.Open(cfg.Autosave); err != nil {
			return err
		}
	}

	s, err := OpenSession(ctx, cfg, src, name, board, store)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return err
	}
	defer s.Close()

	if err := apply(ctx, s, o); err != nil {
		return err
	}

	if o.save {
		if err := s.Save(ctx); err != nil {
			return err
		}
	} else if err := s.Snapshot(ctx); err != nil {
		logger.Log.WithError(err).Warn("autosave snapshot failed")
	}

	if err := s.Summary(os.Stdout); err != nil {
		return err
	}

	if o.watch && cfg.Watch && !o.sample {
		dirs := cfg.SearchPaths
		if ds, ok := src.(*world.DirSource); ok {
			dirs = ds.Dirs()
		}
		return s.Watch(ctx, dirs)
	}
	return nil
}

func apply(ctx context.Context, s *Session, o options) error {
	if o.script != "" {
		var at *cp.Vector
		if o.at != "" {
			v, err := parsePoint(o.at)
			if err != nil {
				return fmt.Errorf("-at: %w", err)
			}
			at = &v
		}
		start := time.Now()
		if err := s.RunScript(ctx, o.script, at); err != nil {
			return err
		}
		logger.Log.WithField("took", time.Since(start)).Info("script finished")
	}
	if o.copyAt != "" {
		v, err := parsePoint(o.copyAt)
		if err != nil {
			return fmt.Errorf("-copy: %w", err)
		}
		if err := s.Copy(v); err != nil {
			return err
		}
	}
	if o.pasteAt != "" {
		v, err := parsePoint(o.pasteAt)
		if err != nil {
			return fmt.Errorf("-paste: %w", err)
		}
		n, err := s.Paste(v)
		if err != nil {
			return err
		}
		logger.Log.WithField("entities", n).Info("pasted")
	}
	if o.fill != "" {
		layer, tx, ty, code, err := parseFill(o.fill)
		if err != nil {
			return fmt.Errorf("-fill: %w", err)
		}
		logger.Log.WithField("tiles", s.Fill(layer, tx, ty, code)).Info("filled")
	}
	return nil
}

func parsePoint(s string) (cp.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return cp.Vector{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return cp.Vector{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return cp.Vector{}, err
	}
	return cp.Vector{X: x, Y: y}, nil
}

// parseFill reads layer,x,y,code. The code is a packed tile code in any
// base strconv accepts, so 0x prefixed values work.
func parseFill(s string) (layer, tx, ty int, code tile.Code, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("want layer,x,y,code, got %q", s)
	}
	var n [3]int
	for i := range n {
		if n[i], err = strconv.Atoi(strings.TrimSpace(parts[i])); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	c, err := strconv.ParseUint(strings.TrimSpace(parts[3]), 0, 32)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return n[0], n[1], n[2], tile.Code(c), nil
}
