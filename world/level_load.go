package world

import (
	"bytes"
	"context"
	"fmt"

	"github.com/milk9111/worldedit/logger"
	"github.com/sirupsen/logrus"
)

// loadOp is one background read. done closes once data and err are set.
type loadOp struct {
	done chan struct{}
	data []byte
	err  error
}

// Load reads and parses the level file. With threaded set it only starts a
// background read and returns; the result is applied when the env's
// Dispatcher is drained or when WaitLoaded is called. A synchronous Load
// while a threaded one is running waits for it.
func (l *Level) Load(ctx context.Context, threaded bool) error {
	if l.released {
		return ErrReleased
	}
	switch l.load {
	case Loaded:
		return nil
	case Loading:
		if threaded {
			return nil
		}
		return l.WaitLoaded(ctx)
	}

	if l.name == "" {
		l.load = Loaded
		return nil
	}
	if l.env.Source == nil {
		l.apply(nil, fmt.Errorf("load %s: no source", l.name))
		return l.loadErr
	}

	if !threaded {
		data, err := l.env.Source.ReadFile(ctx, l.name)
		l.apply(data, err)
		return l.loadErr
	}

	op := &loadOp{done: make(chan struct{})}
	l.op = op
	l.load = Loading
	src, name, d := l.env.Source, l.name, l.env.Dispatcher
	bg := context.WithoutCancel(ctx)
	go func() {
		op.data, op.err = src.ReadFile(bg, name)
		close(op.done)
		d.Post(func() { l.finish(op) })
	}()
	return nil
}

// WaitLoaded blocks until an in-flight threaded load completes and applies
// it on the calling goroutine.
func (l *Level) WaitLoaded(ctx context.Context) error {
	if l.load != Loading || l.op == nil {
		return l.result()
	}
	op := l.op
	select {
	case <-op.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	l.finish(op)
	return l.result()
}

func (l *Level) result() error {
	switch {
	case l.released:
		return ErrReleased
	case l.load == Loaded:
		return nil
	case l.load == LoadFailed:
		return l.loadErr
	default:
		return ErrNotLoaded
	}
}

// finish applies op unless the level was released or op was superseded.
func (l *Level) finish(op *loadOp) {
	if l.released || l.op != op {
		logger.Log.WithFields(logrus.Fields{"level": l.name}).Debug("discarding stale load")
		return
	}
	l.op = nil
	l.apply(op.data, op.err)
}

func (l *Level) apply(data []byte, err error) {
	fields := logrus.Fields{"level": l.name}
	if err == nil {
		err = l.parse(data)
	}
	if err != nil {
		l.load = LoadFailed
		l.loadErr = err
		logger.Log.WithFields(fields).WithError(err).Warn("level load failed")
		if l.env.RequestFile != nil {
			l.env.RequestFile(l.name)
		}
		return
	}
	l.load = Loaded
	l.loadErr = nil
	l.modified = false
	l.onDisk = false
	l.digest = DigestOf(data)
	fields["objects"] = len(l.objects)
	logger.Log.WithFields(fields).Info("level loaded")
}

func (l *Level) parse(data []byte) error {
	f, ok := l.env.FormatFor(l.name)
	if !ok {
		return fmt.Errorf("load %s: %w", l.name, ErrNoFormat)
	}
	l.clear()
	l.parsing = true
	defer func() { l.parsing = false }()
	if err := f.Load(l, bytes.NewReader(data)); err != nil {
		l.clear()
		return fmt.Errorf("load %s as %s: %w", l.name, f.Name(), err)
	}
	return nil
}

// Reload discards the level's contents, including unsaved edits, and reads
// the file again.
func (l *Level) Reload(ctx context.Context) error {
	if l.released {
		return ErrReleased
	}
	l.op = nil
	l.clear()
	l.load = NotLoaded
	return l.Load(ctx, false)
}

// unload returns the level to NotLoaded so it can be paged in again.
func (l *Level) unload() {
	l.op = nil
	l.clear()
	l.load = NotLoaded
	l.loadErr = nil
	l.modified = false
	l.onDisk = false
}

// FileChanged reacts to the backing file changing on disk. Contents equal
// to what was last loaded or saved are ignored. Otherwise a loaded level
// without edits reloads and one with edits is only flagged.
func (l *Level) FileChanged(ctx context.Context) error {
	if l.load != Loaded || l.env.Source == nil {
		return nil
	}
	data, err := l.env.Source.ReadFile(ctx, l.name)
	if err != nil {
		return fmt.Errorf("check %s: %w", l.name, err)
	}
	fields := logrus.Fields{"level": l.name}
	if DigestOf(data) == l.digest {
		logger.Log.WithFields(fields).Debug("level file unchanged")
		return nil
	}
	if l.modified {
		l.onDisk = true
		logger.Log.WithFields(fields).Warn("level changed on disk while modified")
		return nil
	}
	l.op = nil
	l.apply(data, nil)
	return l.loadErr
}

// Encode returns the level in its file format without writing it.
func (l *Level) Encode() ([]byte, error) {
	if l.released {
		return nil, ErrReleased
	}
	if l.load != Loaded {
		return nil, fmt.Errorf("encode %s: %w", l.name, ErrNotLoaded)
	}
	f, ok := l.env.FormatFor(l.name)
	if !ok {
		return nil, fmt.Errorf("encode %s: %w", l.name, ErrNoFormat)
	}
	var buf bytes.Buffer
	if err := f.Save(l, &buf); err != nil {
		return nil, fmt.Errorf("encode %s: %w", l.name, err)
	}
	return buf.Bytes(), nil
}

// Save encodes the level with its format and writes it through the source.
func (l *Level) Save(ctx context.Context) error {
	if l.env.Source == nil {
		return fmt.Errorf("save %s: no source", l.name)
	}
	data, err := l.Encode()
	if err != nil {
		return err
	}
	if err := l.env.Source.WriteFile(ctx, l.name, data); err != nil {
		return fmt.Errorf("save %s: %w", l.name, err)
	}
	l.modified = false
	l.onDisk = false
	l.digest = DigestOf(data)
	logger.Log.WithFields(logrus.Fields{"level": l.name, "bytes": len(data)}).Info("level saved")
	return nil
}
