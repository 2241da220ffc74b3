// Package autosave keeps crash recovery copies of unsaved levels in a
// leveldb database.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/storage"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

const levelPrefix = "level/"

func levelKey(name string) []byte { return []byte(levelPrefix + name) }

// Store holds one recovery copy per level name. It is a world.Source, so a
// level can be loaded straight from its recovery copy.
type Store struct {
	db *leveldb.DB
}

var _ world.Source = (*Store)(nil)

// Open opens or creates the database directory at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("autosave: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory returns a store that lives only as long as the process.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("autosave: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ReadFile(_ context.Context, name string) ([]byte, error) {
	data, err := s.db.Get(levelKey(name), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("autosave: %s: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("autosave: read %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) WriteFile(_ context.Context, name string, data []byte) error {
	if err := s.db.Put(levelKey(name), data, nil); err != nil {
		return fmt.Errorf("autosave: write %s: %w", name, err)
	}
	return nil
}

// Discard drops the copy of name, normally after the level was saved.
func (s *Store) Discard(name string) error {
	if err := s.db.Delete(levelKey(name), nil); err != nil {
		return fmt.Errorf("autosave: discard %s: %w", name, err)
	}
	return nil
}

// Names lists the levels that have a recovery copy, in key order.
func (s *Store) Names() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(levelPrefix)), nil)
	defer iter.Release()
	var out []string
	for iter.Next() {
		out = append(out, strings.TrimPrefix(string(iter.Key()), levelPrefix))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("autosave: list: %w", err)
	}
	return out, nil
}

// Snapshot stores a copy of every loaded level with unsaved edits and
// drops the copies of levels that have none. It returns how many levels
// were written.
func (s *Store) Snapshot(ctx context.Context, levels []*world.Level) (int, error) {
	var errs []error
	batch := new(leveldb.Batch)
	written := 0
	for _, l := range levels {
		if l.State() != world.Loaded || l.Name() == "" {
			continue
		}
		if !l.Modified() {
			batch.Delete(levelKey(l.Name()))
			continue
		}
		data, err := l.Encode()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		batch.Put(levelKey(l.Name()), data)
		written++
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("autosave: snapshot: %w", err)
	}
	logger.Log.WithFields(logrus.Fields{"levels": written}).Debug("autosave: snapshot written")
	return written, errors.Join(errs...)
}

// MarkRecovered flags loaded levels whose contents came from a recovery
// copy as modified, so they are saved and kept in later snapshots.
func (s *Store) MarkRecovered(levels []*world.Level) int {
	n := 0
	for _, l := range levels {
		if l.State() != world.Loaded || l.Modified() {
			continue
		}
		data, err := s.db.Get(levelKey(l.Name()), nil)
		if err != nil || world.DigestOf(data) != l.Digest() {
			continue
		}
		l.SetModified(true)
		n++
	}
	return n
}

// Overlay is a Source that prefers recovery copies over the base source.
// Writes go to the base.
type Overlay struct {
	Store *Store
	Base  world.Source
}

func (o Overlay) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, err := o.Store.ReadFile(ctx, name)
	if err == nil {
		logger.Log.WithFields(logrus.Fields{"level": name}).Info("autosave: recovering level")
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.Base.ReadFile(ctx, name)
}

func (o Overlay) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := o.Base.WriteFile(ctx, name, data); err != nil {
		return err
	}
	return o.Store.Discard(name)
}
