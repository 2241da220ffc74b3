// Package watch reports level and overworld files that changed on disk.
package watch

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/milk9111/worldedit/logger"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 100 * time.Millisecond

var extensions = []string{".nw", ".graal", ".zelda", ".gmap"}

// Watcher batches change notifications for level files in a set of
// directories. Names on Events are base file names, the form a Source
// resolves.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	Events   chan []string
	Errors   chan error
	closeCh  chan struct{}
	doneCh   chan struct{}
	once     sync.Once
}

func NewWatcher(debounce time.Duration, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher := &Watcher{
		watcher:  w,
		debounce: debounce,
		Events:   make(chan []string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes Events and Errors.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.doneCh
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.doneCh)
	}()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !IsLevelFile(event.Name) {
				continue
			}
			pending[filepath.Base(event.Name)] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			slices.Sort(names)
			clear(pending)
			select {
			case w.Events <- names:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				logger.Log.WithError(err).Warn("watch: dropped error")
			}
		case <-w.closeCh:
			return
		}
	}
}

// IsLevelFile reports whether path has a level or overworld extension.
func IsLevelFile(path string) bool {
	return slices.Contains(extensions, strings.ToLower(filepath.Ext(path)))
}

// Target is a world that can react to a changed backing file.
type Target interface {
	FileChanged(ctx context.Context, name string) error
}

// TargetFunc adapts a function, such as one wrapping a single level, to
// Target.
type TargetFunc func(ctx context.Context, name string) error

func (f TargetFunc) FileChanged(ctx context.Context, name string) error { return f(ctx, name) }

// Apply forwards one batch to t, logging failures. It must run on the
// goroutine that owns t.
func Apply(ctx context.Context, t Target, names []string) {
	for _, name := range names {
		if err := t.FileChanged(ctx, name); err != nil {
			logger.Log.WithFields(logrus.Fields{"file": name}).WithError(err).Warn("watch: reload failed")
		}
	}
}
