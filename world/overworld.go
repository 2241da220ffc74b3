package world

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/spatial"
	"github.com/milk9111/worldedit/tile"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Overworld arranges levels in one global pixel space. Levels are paged in
// as they are searched; all of their entities share one index.
type Overworld struct {
	name        string
	env         *Env
	seq         Sequence
	tilesetName string

	bounds   common.Rect
	levels   *spatial.Grid[*Level]
	entities *spatial.Grid[Entity]
	byName   map[string]*Level
	ordered  []*Level

	guards    map[int]UnloadGuard
	nextGuard int
}

// UnloadGuard is consulted before UnloadLevel pages l out and returns
// false to keep it loaded. force is the UnloadLevel argument.
type UnloadGuard func(l *Level, force bool) bool

var _ World = (*Overworld)(nil)

func NewOverworld(env *Env, name string) *Overworld {
	if env == nil {
		env = NewEnv(nil)
	}
	return &Overworld{
		name:     name,
		env:      env,
		levels:   spatial.NewGrid[*Level](env.levelCellSize()),
		entities: spatial.NewGrid[Entity](env.entityCellSize()),
		byName:   make(map[string]*Level),
	}
}

func (ow *Overworld) Name() string                    { return ow.name }
func (ow *Overworld) TilesetName() string             { return ow.tilesetName }
func (ow *Overworld) SetTilesetName(n string)         { ow.tilesetName = n }
func (ow *Overworld) Env() *Env                       { return ow.env }
func (ow *Overworld) Sequence() *Sequence             { return &ow.seq }
func (ow *Overworld) Bounds() common.Rect             { return ow.bounds }
func (ow *Overworld) Entities() spatial.Index[Entity] { return ow.entities }
func (ow *Overworld) Tileset() *tile.Tileset          { return ow.env.Tileset }
func (ow *Overworld) Level(name string) *Level        { return ow.byName[name] }
func (ow *Overworld) LevelCount() int                 { return len(ow.ordered) }
func (ow *Overworld) Levels() []*Level                { return append([]*Level(nil), ow.ordered...) }

// AddLevel places a not-yet-loaded level with its top-left at (x, y).
func (ow *Overworld) AddLevel(name string, x, y float64, hcount, vcount int) (*Level, error) {
	if name == "" {
		return nil, errors.New("overworld: level needs a name")
	}
	if _, dup := ow.byName[name]; dup {
		return nil, fmt.Errorf("overworld: duplicate level %q", name)
	}
	if hcount <= 0 || vcount <= 0 {
		return nil, fmt.Errorf("overworld: level %q has size %dx%d", name, hcount, vcount)
	}
	l := newLevel(ow.env, name, x, y, hcount, vcount)
	l.overworld = ow
	if !ow.levels.Add(l) {
		return nil, fmt.Errorf("overworld: cannot index level %q", name)
	}
	ow.byName[name] = l
	ow.ordered = append(ow.ordered, l)
	if len(ow.ordered) == 1 {
		ow.bounds = l.Bounds()
	} else {
		ow.bounds = common.Union(ow.bounds, l.Bounds())
	}
	return l, nil
}

// LevelAt returns the level containing the pixel, without loading it.
func (ow *Overworld) LevelAt(x, y float64) *Level {
	l, _ := ow.levels.SearchFirst(common.PointRect(x, y), true, nil)
	return l
}

// SearchLevels appends the levels intersecting r and starts a threaded load
// for any that are not loaded yet.
func (ow *Overworld) SearchLevels(r common.Rect, out []*Level) []*Level {
	start := len(out)
	out = ow.levels.Search(r, true, out, nil)
	ow.loadThreaded(out[start:])
	return out
}

// PreloadAround starts loads for levels near r, at the level grid's cell
// granularity.
func (ow *Overworld) PreloadAround(r common.Rect) int {
	near := ow.levels.Search(r, false, nil, nil)
	return ow.loadThreaded(near)
}

func (ow *Overworld) loadThreaded(levels []*Level) int {
	n := 0
	for _, l := range levels {
		if l.State() == NotLoaded {
			_ = l.Load(context.Background(), true)
			n++
		}
	}
	return n
}

// Preload reads the named levels, or every unloaded level when names is
// empty, with up to Env.LoadWorkers reads in flight. Parsing happens on
// the calling goroutine once all reads finish. Individual read failures
// leave those levels in LoadFailed.
func (ow *Overworld) Preload(ctx context.Context, names ...string) error {
	var targets []*Level
	if len(names) == 0 {
		for _, l := range ow.ordered {
			if l.State() == NotLoaded {
				targets = append(targets, l)
			}
		}
	} else {
		for _, n := range names {
			l := ow.byName[n]
			if l == nil {
				return fmt.Errorf("overworld: unknown level %q", n)
			}
			if l.State() == NotLoaded {
				targets = append(targets, l)
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}
	src := ow.env.Source
	if src == nil {
		return errors.New("overworld: no source")
	}

	data := make([][]byte, len(targets))
	errs := make([]error, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ow.env.loadWorkers())
	for i, l := range targets {
		name := l.Name()
		g.Go(func() error {
			data[i], errs[i] = src.ReadFile(gctx, name)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("overworld: preload: %w", err)
	}
	for i, l := range targets {
		if l.State() == NotLoaded {
			l.apply(data[i], errs[i])
		}
	}
	logger.Log.WithFields(logrus.Fields{"overworld": ow.name, "levels": len(targets)}).Info("preload finished")
	return nil
}

// AddUnloadGuard registers g until the returned func is called.
func (ow *Overworld) AddUnloadGuard(g UnloadGuard) (remove func()) {
	if ow.guards == nil {
		ow.guards = make(map[int]UnloadGuard)
	}
	id := ow.nextGuard
	ow.nextGuard++
	ow.guards[id] = g
	return func() { delete(ow.guards, id) }
}

// UnloadLevel pages a level out. A modified level, or one a guard holds,
// is kept unless force is set.
func (ow *Overworld) UnloadLevel(name string, force bool) bool {
	l := ow.byName[name]
	if l == nil || (l.modified && !force) {
		return false
	}
	for _, g := range ow.guards {
		if !g(l, force) {
			logger.Log.WithField("level", name).Debug("unload refused by guard")
			return false
		}
	}
	l.unload()
	return true
}

func (ow *Overworld) FileChanged(ctx context.Context, name string) error {
	l := ow.byName[name]
	if l == nil {
		return nil
	}
	return l.FileChanged(ctx)
}

// Save writes every modified, loaded level.
func (ow *Overworld) Save(ctx context.Context) error {
	var errs []error
	for _, l := range ow.ordered {
		if l.modified && l.load == Loaded {
			if err := l.Save(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (ow *Overworld) Modified() bool {
	for _, l := range ow.ordered {
		if l.modified {
			return true
		}
	}
	return false
}

func (ow *Overworld) Release() {
	for _, l := range ow.ordered {
		l.Release()
	}
}

// Overlap names two levels whose rectangles intersect.
type Overlap struct {
	A, B string
	Area common.Rect
}

// Validate reports every pair of overlapping levels.
func (ow *Overworld) Validate() []Overlap {
	pos := make(map[*Level]int, len(ow.ordered))
	for i, l := range ow.ordered {
		pos[l] = i
	}
	var out []Overlap
	var hits []*Level
	for i, a := range ow.ordered {
		hits = ow.levels.Search(a.Bounds(), true, hits[:0], nil)
		for _, b := range hits {
			if pos[b] <= i {
				continue
			}
			area, ok := a.Bounds().Intersection(b.Bounds())
			if ok {
				out = append(out, Overlap{A: a.name, B: b.name, Area: area})
			}
		}
	}
	return out
}

// AddEntity inserts e into the level under its top-left corner, loading
// that level first.
func (ow *Overworld) AddEntity(e Entity) bool {
	l := ow.LevelAt(e.X(), e.Y())
	if l == nil || !l.ensureLoaded() || !l.AddObject(e) {
		return false
	}
	l.modified = true
	return true
}

func (ow *Overworld) RemoveEntity(e Entity) bool {
	l := e.Level()
	if l == nil || l.overworld != ow || !l.RemoveObject(e) {
		return false
	}
	l.modified = true
	return true
}

// UpdateEntity re-indexes e and moves it to another level when its top-left
// corner crossed into one. Both levels are marked modified.
func (ow *Overworld) UpdateEntity(e Entity) {
	from := e.Level()
	if from == nil || from.overworld != ow {
		return
	}
	ow.entities.Update(e)
	if e.Kind() == KindTileLayer {
		return
	}
	to := ow.LevelAt(e.X(), e.Y())
	if to == nil || to == from || !to.ensureLoaded() {
		return
	}
	from.detach(e)
	to.attach(e)
	from.modified = true
	to.modified = true
	logger.Log.WithFields(logrus.Fields{"from": from.name, "to": to.name, "kind": e.Kind()}).Debug("entity changed level")
}

// Fragment cuts a link or sign that spans several levels into one clamped
// clone per level.
func (ow *Overworld) Fragment(e Entity) []Entity {
	if !Splittable(e) {
		return nil
	}
	hits := ow.levels.Search(e.Bounds(), true, nil, nil)
	if len(hits) < 2 {
		return nil
	}
	out := make([]Entity, 0, len(hits))
	for _, l := range hits {
		part := e.Clone(&ow.seq)
		if l.ClampEntity(part) {
			out = append(out, part)
		}
	}
	return out
}

func (ow *Overworld) EntityAt(x, y float64, pred func(Entity) bool) Entity {
	return entityAt(ow.entities, x, y, pred)
}

// levelForTile resolves a global tile coordinate to a level and its local
// tile coordinate.
func (ow *Overworld) levelForTile(tx, ty int) (*Level, int, int) {
	px := float64(tx * common.TileSize)
	py := float64(ty * common.TileSize)
	l := ow.LevelAt(px, py)
	if l == nil {
		return nil, 0, 0
	}
	lx, ly := l.LocalTile(px, py)
	return l, lx, ly
}

func (ow *Overworld) TryGetTile(layer, tx, ty int) (tile.Code, bool) {
	l, lx, ly := ow.levelForTile(tx, ty)
	if l == nil {
		return tile.Invisible, false
	}
	return l.TryGetTile(layer, lx, ly)
}

func (ow *Overworld) Tile(layer, tx, ty int) tile.Code {
	c, _ := ow.TryGetTile(layer, tx, ty)
	return c
}

func (ow *Overworld) SetTile(layer, tx, ty int, c tile.Code) bool {
	l, lx, ly := ow.levelForTile(tx, ty)
	if l == nil {
		return false
	}
	return l.SetTile(layer, lx, ly, c)
}

// TileOrigin is the global tile coordinate of a level's top-left tile.
func TileOrigin(l *Level) (int, int) {
	o := l.Origin()
	return int(math.Floor(o.X / common.TileSize)), int(math.Floor(o.Y / common.TileSize))
}
