package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/autosave"
	"github.com/milk9111/worldedit/clipboard"
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/config"
	"github.com/milk9111/worldedit/format"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/script"
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/undo"
	"github.com/milk9111/worldedit/watch"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

// Session is one open world with its edit history.
type Session struct {
	cfg     config.Config
	env     *world.Env
	world   world.World
	ow      *world.Overworld
	level   *world.Level
	history *undo.History
	clip    *clipboard.Clipboard
	scripts *script.Runner
	store   *autosave.Store
}

// OpenSession opens name through src: an overworld for a .gmap file,
// otherwise a standalone level. board may be nil for an in-memory
// clipboard and store may be nil to disable recovery copies.
func OpenSession(ctx context.Context, cfg config.Config, src world.Source, name string, board clipboard.Board, store *autosave.Store) (*Session, error) {
	if store != nil {
		src = autosave.Overlay{Store: store, Base: src}
	}
	env, err := cfg.Env(src, format.NW{})
	if err != nil {
		return nil, err
	}
	env.RequestFile = func(name string) {
		logger.Log.WithFields(logrus.Fields{"file": name}).Warn("level file could not be read")
	}
	if board == nil {
		board = &clipboard.Memory{}
	}

	s := &Session{cfg: cfg, env: env, clip: clipboard.New(board), store: store}
	if strings.EqualFold(filepath.Ext(name), ".gmap") {
		ow, err := format.OpenOverworld(ctx, env, name)
		if err != nil {
			return nil, err
		}
		for _, o := range ow.Validate() {
			logger.Log.WithFields(logrus.Fields{"a": o.A, "b": o.B, "area": o.Area}).Warn("overlapping levels")
		}
		names := make([]string, 0, ow.LevelCount())
		for _, l := range ow.Levels() {
			names = append(names, l.Name())
		}
		if err := ow.Preload(ctx, names...); err != nil {
			logger.Log.WithError(err).Warn("some levels failed to load")
		}
		s.ow, s.world = ow, ow
	} else {
		l := world.OpenLevel(env, name)
		if err := l.Load(ctx, false); err != nil {
			return nil, err
		}
		s.level, s.world = l, l
	}

	if store != nil {
		if n := store.MarkRecovered(s.Levels()); n > 0 {
			logger.Log.WithFields(logrus.Fields{"levels": n}).Info("recovered unsaved levels")
		}
	}
	s.history = undo.NewHistory(s.world, cfg.UndoLimit)
	s.scripts = script.NewRunner(s.history)
	return s, nil
}

func (s *Session) World() world.World     { return s.world }
func (s *Session) History() *undo.History { return s.history }

// Levels lists every level of the session.
func (s *Session) Levels() []*world.Level {
	if s.ow != nil {
		return s.ow.Levels()
	}
	return []*world.Level{s.level}
}

// RunScript runs the tengo file at path against the entity at at, if any.
func (s *Session) RunScript(ctx context.Context, path string, at *cp.Vector) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	var target world.Entity
	if at != nil {
		if target = s.world.EntityAt(at.X, at.Y, nil); target == nil {
			return fmt.Errorf("no entity at %v,%v", at.X, at.Y)
		}
	}
	return s.scripts.Run(ctx, filepath.Base(path), src, target)
}

// Copy copies the entity under the point.
func (s *Session) Copy(at cp.Vector) error {
	e := s.world.EntityAt(at.X, at.Y, nil)
	if e == nil {
		return fmt.Errorf("no entity at %v,%v", at.X, at.Y)
	}
	return s.clip.Copy(s.world, clipboard.Selection{Entities: []world.Entity{e}})
}

func (s *Session) Paste(at cp.Vector) (int, error) {
	out, err := s.clip.Paste(s.history, &at)
	return len(out), err
}

// Fill flood fills from a global tile position with one tile.
func (s *Session) Fill(layer, tx, ty int, code tile.Code) int {
	p := tile.NewTilemap(1, 1, layer)
	p.SetTile(0, 0, code)
	c := undo.FloodFill(s.world, layer, tx, ty, p)
	if len(c.Changes) == 0 {
		return 0
	}
	s.history.Checkpoint()
	s.history.Push(c)
	return len(c.Changes)
}

// Save writes every modified level and marks the history clean.
func (s *Session) Save(ctx context.Context) error {
	var err error
	if s.ow != nil {
		err = s.ow.Save(ctx)
	} else if s.level.Modified() {
		err = s.level.Save(ctx)
	}
	if err != nil {
		return err
	}
	s.history.SetClean()
	return nil
}

// Snapshot stores recovery copies of unsaved levels.
func (s *Session) Snapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	_, err := s.store.Snapshot(ctx, s.Levels())
	return err
}

// FileChanged handles one changed file. A level that reloads invalidates
// the history, which is cleared.
func (s *Session) FileChanged(ctx context.Context, name string) error {
	var l *world.Level
	if s.ow != nil {
		l = s.ow.Level(name)
	} else if s.level.Name() == name {
		l = s.level
	}
	if l == nil {
		return nil
	}
	before := l.Digest()
	if err := l.FileChanged(ctx); err != nil {
		return err
	}
	if l.Digest() != before {
		s.history.Clear()
		logger.Log.WithFields(logrus.Fields{"level": name}).Info("level reloaded, history cleared")
	}
	return nil
}

// Watch applies change batches and load completions until ctx ends.
func (s *Session) Watch(ctx context.Context, dirs []string) error {
	w, err := watch.NewWatcher(s.cfg.WatchDebounce(), dirs...)
	if err != nil {
		return err
	}
	defer w.Close()
	logger.Log.WithFields(logrus.Fields{"dirs": dirs}).Info("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case names, ok := <-w.Events:
			if !ok {
				return nil
			}
			watch.Apply(ctx, watch.TargetFunc(s.FileChanged), names)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Log.WithError(err).Warn("watcher error")
		case <-s.env.Dispatcher.Ready():
			s.env.Dispatcher.Drain()
		}
	}
}

// Summary prints the world's levels and entity counts.
func (s *Session) Summary(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tSTATE\tSIZE\tOBJECTS\tLINKS\tSIGNS\tMODIFIED")
	total := 0
	for _, l := range s.Levels() {
		n := 0
		for _, e := range l.Objects() {
			if e.Kind() != world.KindTileLayer {
				n++
			}
		}
		total += n
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%d\t%d\t%t\n", l.Name(), l.State(), l.HCount(), l.VCount(),
			n, len(l.Links()), len(l.Signs()), l.Modified())
	}
	b := s.world.Bounds()
	fmt.Fprintf(tw, "\nbounds %v,%v %vx%v px, %d tiles wide, %d objects, %d undo steps\n",
		b.X, b.Y, b.Width, b.Height, int(b.Width)/common.TileSize, total, s.history.Len())
	return tw.Flush()
}

func (s *Session) Close() {
	s.history.Close()
	if s.ow != nil {
		s.ow.Release()
	} else {
		s.level.Release()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Log.WithError(err).Warn("closing autosave")
		}
	}
}
