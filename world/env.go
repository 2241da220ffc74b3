package world

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/milk9111/worldedit/spatial"
	"github.com/milk9111/worldedit/tile"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLevelCellSize = 1024.0
	DefaultLoadWorkers   = 4
)

// Source produces and stores the bytes behind level and class files.
// ReadFile may be called from background goroutines.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
}

// Format is a level codec. Loaders must populate a level through
// GetOrMakeTilemap and AddObject only.
type Format interface {
	Name() string
	Match(name string) bool
	Load(l *Level, r io.Reader) error
	Save(l *Level, w io.Writer) error
}

// Env carries the collaborators shared by every level of a world.
type Env struct {
	Source     Source
	Formats    []Format
	Dispatcher *Dispatcher
	Tileset    *tile.Tileset

	EntityCellSize float64
	LevelCellSize  float64
	// LoadWorkers bounds concurrent reads during Overworld.Preload.
	LoadWorkers int

	// RequestFile is called on the owner goroutine when a level's file
	// cannot be read, so the shell can ask the user to locate it.
	RequestFile func(name string)
}

func NewEnv(src Source, formats ...Format) *Env {
	return &Env{
		Source:         src,
		Formats:        formats,
		Dispatcher:     NewDispatcher(),
		EntityCellSize: spatial.DefaultCellSize,
		LevelCellSize:  DefaultLevelCellSize,
		LoadWorkers:    DefaultLoadWorkers,
	}
}

func (e *Env) FormatFor(name string) (Format, bool) {
	for _, f := range e.Formats {
		if f.Match(name) {
			return f, true
		}
	}
	return nil, false
}

func (e *Env) entityCellSize() float64 {
	if e == nil || e.EntityCellSize <= 0 {
		return spatial.DefaultCellSize
	}
	return e.EntityCellSize
}

func (e *Env) loadWorkers() int {
	if e == nil || e.LoadWorkers <= 0 {
		return DefaultLoadWorkers
	}
	return e.LoadWorkers
}

func (e *Env) levelCellSize() float64 {
	if e == nil || e.LevelCellSize <= 0 {
		return DefaultLevelCellSize
	}
	return e.LevelCellSize
}

// DirSource reads from a list of search directories, first match wins.
// Concurrent reads of one name share a single disk read, so callers must
// not modify the returned slice.
type DirSource struct {
	dirs  []string
	group singleflight.Group
}

func NewDirSource(dirs ...string) *DirSource {
	return &DirSource{dirs: dirs}
}

func (s *DirSource) Dirs() []string { return s.dirs }

// checkName rejects names that would leave the search directories, such
// as absolute paths or ones with ".." elements.
func checkName(op, name string) error {
	if !fs.ValidPath(filepath.ToSlash(name)) {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return nil
}

// Resolve returns the path name would be read from.
func (s *DirSource) Resolve(name string) (string, bool) {
	if checkName("resolve", name) != nil {
		return "", false
	}
	for _, dir := range s.dirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func (s *DirSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName("read", name); err != nil {
		return nil, err
	}
	v, err, _ := s.group.Do(name, func() (any, error) {
		for _, dir := range s.dirs {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
		}
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// WriteFile replaces the file where it was found, or creates it in the
// first search directory.
func (s *DirSource) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName("write", name); err != nil {
		return err
	}
	path, ok := s.Resolve(name)
	if !ok {
		if len(s.dirs) == 0 {
			return fmt.Errorf("write %s: no search directory", name)
		}
		path = filepath.Join(s.dirs[0], name)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// FSSource serves files from an fs.FS, such as an embedded sample world.
type FSSource struct {
	FS fs.FS
}

func (s FSSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (s FSSource) WriteFile(context.Context, string, []byte) error {
	return ErrReadOnly
}
