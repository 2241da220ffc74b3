package world

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/tile"
)

func init() {
	logger.Discard()
}

// memSource serves files from memory. Reads block on gate when it is set.
type memSource struct {
	mu    sync.Mutex
	files map[string][]byte
	gate  chan struct{}
	reads int
}

func newMemSource(files map[string]string) *memSource {
	s := &memSource{files: make(map[string][]byte)}
	for k, v := range files {
		s.files[k] = []byte(v)
	}
	return s
}

func (s *memSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	gate := s.gate
	s.reads++
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (s *memSource) WriteFile(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
	return nil
}

func (s *memSource) get(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.files[name])
}

func (s *memSource) set(name, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = []byte(data)
}

func (s *memSource) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// lineFormat is a tiny level codec for tests:
//
//	tile <layer> <x> <y> <code>
//	npc <x> <y> <image>
//	fail
type lineFormat struct{}

func (lineFormat) Name() string           { return "lines" }
func (lineFormat) Match(name string) bool { return strings.HasSuffix(name, ".lvl") }

func (lineFormat) Load(l *Level, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		switch {
		case len(f) == 5 && f[0] == "tile":
			n := make([]int, 4)
			for i := range n {
				n[i], _ = strconv.Atoi(f[i+1])
			}
			l.GetOrMakeTilemap(n[0]).SetTile(n[1], n[2], tile.Code(n[3]))
		case len(f) == 4 && f[0] == "npc":
			x, _ := strconv.ParseFloat(f[1], 64)
			y, _ := strconv.ParseFloat(f[2], 64)
			o := l.Origin()
			l.AddObject(NewNPC(l.Sequence(), f[3], o.X+x, o.Y+y))
		case len(f) == 1 && f[0] == "fail":
			return errors.New("bad level")
		}
	}
	return sc.Err()
}

func (lineFormat) Save(l *Level, w io.Writer) error {
	var lines []string
	for _, layer := range l.Layers() {
		m := l.Tilemap(layer)
		for y := 0; y < m.VCount(); y++ {
			for x := 0; x < m.HCount(); x++ {
				if c := m.Tile(x, y); !c.Invisible() {
					lines = append(lines, fmt.Sprintf("tile %d %d %d %d", layer, x, y, uint32(c)))
				}
			}
		}
	}
	o := l.Origin()
	for _, e := range l.Objects() {
		if n, ok := e.(*NPC); ok {
			lines = append(lines, fmt.Sprintf("npc %g %g %s", n.X()-o.X, n.Y()-o.Y, n.Image))
		}
	}
	sort.Strings(lines)
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

func testEnv(t *testing.T, files map[string]string) (*Env, *memSource) {
	t.Helper()
	src := newMemSource(files)
	return NewEnv(src, lineFormat{}), src
}

func searchAll(w World, x, y, wd, ht float64) []Entity {
	return w.Entities().Search(rect(x, y, wd, ht), true, nil, func(e Entity) bool { return e.Kind() != KindTileLayer })
}
