package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/undo"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

// ErrEmpty is returned by Paste when the board holds no editor payload.
var ErrEmpty = errors.New("clipboard: nothing to paste")

// PayloadKind tags editor payloads so foreign clipboard text is ignored.
const PayloadKind = "worldedit/v1"

// Payload is the clipboard text. Entity positions and the tile pattern
// are relative to the copied selection's top-left corner, X and Y.
type Payload struct {
	Kind     string          `json:"kind"`
	ID       string          `json:"id"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Entities json.RawMessage `json:"entities,omitempty"`
	Tiles    *Pattern        `json:"tiles,omitempty"`
}

// Pattern is a rectangular block of tile codes in row order.
type Pattern struct {
	Layer  int      `json:"layer"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Codes  []uint32 `json:"codes"`
}

func patternOf(m *tile.Tilemap, layer int) *Pattern {
	p := &Pattern{Layer: layer, Width: m.HCount(), Height: m.VCount()}
	p.Codes = make([]uint32, 0, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			p.Codes = append(p.Codes, uint32(m.Tile(x, y)))
		}
	}
	return p
}

// Valid reports whether the block has a positive size that its codes cover.
func (p *Pattern) Valid() bool {
	if p.Width <= 0 || p.Height <= 0 || p.Width > len(p.Codes) {
		return false
	}
	return p.Height <= len(p.Codes)/p.Width && p.Width*p.Height <= tile.MaxTilemapCells
}

// Tilemap rebuilds the block. Missing codes are invisible.
func (p *Pattern) Tilemap() *tile.Tilemap {
	m := tile.NewTilemap(p.Width, p.Height, p.Layer)
	for i, c := range p.Codes {
		if i >= p.Width*p.Height {
			break
		}
		m.SetTile(i%p.Width, i/p.Width, tile.Code(c))
	}
	return m
}

// TileRect selects a block of one tile layer, in global tile coordinates.
type TileRect struct {
	Layer         int
	X, Y          int
	Width, Height int
}

// Selection is what Copy and Cut take from a world.
type Selection struct {
	Entities []world.Entity
	Tiles    *TileRect
}

func (s Selection) origin() cp.Vector {
	if s.Tiles != nil {
		return cp.Vector{X: float64(s.Tiles.X * common.TileSize), Y: float64(s.Tiles.Y * common.TileSize)}
	}
	rects := make([]common.Rect, 0, len(s.Entities))
	for _, e := range s.Entities {
		rects = append(rects, e.Bounds())
	}
	u := common.Union(rects...)
	return cp.Vector{X: u.X, Y: u.Y}
}

// Clipboard moves selections through a Board.
type Clipboard struct {
	board  Board
	lastID string
	repeat int
}

func New(b Board) *Clipboard { return &Clipboard{board: b} }

// Copy writes the selection to the board.
func (c *Clipboard) Copy(w world.World, sel Selection) error {
	if len(sel.Entities) == 0 && sel.Tiles == nil {
		return nil
	}
	origin := sel.origin()
	p := Payload{Kind: PayloadKind, ID: uuid.NewString(), X: origin.X, Y: origin.Y}
	if len(sel.Entities) > 0 {
		data, err := world.MarshalEntities(sel.Entities, origin, true)
		if err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		p.Entities = data
	}
	if r := sel.Tiles; r != nil && r.Width > 0 && r.Height > 0 {
		m := tile.NewTilemap(r.Width, r.Height, r.Layer)
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				if code, ok := w.TryGetTile(r.Layer, r.X+x, r.Y+y); ok {
					m.SetTile(x, y, code)
				}
			}
		}
		p.Tiles = patternOf(m, r.Layer)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	if err := c.board.Write(data); err != nil {
		return err
	}
	c.lastID, c.repeat = p.ID, 0
	logger.Log.WithFields(logrus.Fields{"id": p.ID, "entities": len(sel.Entities), "tiles": p.Tiles != nil}).Debug("clipboard: copied")
	return nil
}

// Cut copies the selection and then deletes it as one undo step.
func (c *Clipboard) Cut(h *undo.History, sel Selection) error {
	if err := c.Copy(h.World(), sel); err != nil {
		return err
	}
	h.Checkpoint()
	h.BeginMacro("cut")
	for _, e := range sel.Entities {
		h.Push(undo.NewDeleteEntity(e))
	}
	if r := sel.Tiles; r != nil {
		h.Push(undo.DeleteTiles(h.World(), r.Layer, r.X, r.Y, r.Width, r.Height))
	}
	h.EndMacro()
	return nil
}

func (c *Clipboard) read() (Payload, error) {
	var p Payload
	data, err := c.board.Read()
	if err != nil {
		return p, err
	}
	if len(data) == 0 {
		return p, ErrEmpty
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Kind != PayloadKind {
		logger.Log.Debug("clipboard: ignoring foreign text")
		return p, ErrEmpty
	}
	if p.Tiles != nil && !p.Tiles.Valid() {
		logger.Log.WithFields(logrus.Fields{"width": p.Tiles.Width, "height": p.Tiles.Height}).
			Warn("clipboard: dropping malformed tile pattern")
		p.Tiles = nil
	}
	return p, nil
}

// Paste inserts the board's payload as one undo step with its top-left at
// at. With a nil at the payload lands where it was copied from, shifted
// down and right by one tile per repeated paste. Tiles snap to the tile
// grid and invisible pattern cells leave the target untouched. The
// inserted entities are returned.
func (c *Clipboard) Paste(h *undo.History, at *cp.Vector) ([]world.Entity, error) {
	p, err := c.read()
	if err != nil {
		return nil, err
	}
	if len(p.Entities) == 0 && p.Tiles == nil {
		return nil, ErrEmpty
	}

	var origin cp.Vector
	if at != nil {
		origin = *at
	} else {
		if p.ID == c.lastID {
			c.repeat++
		} else {
			c.lastID, c.repeat = p.ID, 1
		}
		d := float64(c.repeat * common.TileSize)
		origin = cp.Vector{X: p.X + d, Y: p.Y + d}
	}

	w := h.World()
	var entities []world.Entity
	if len(p.Entities) > 0 {
		if entities, err = world.UnmarshalEntities(p.Entities, w.Sequence(), origin); err != nil {
			return nil, fmt.Errorf("clipboard: %w", err)
		}
	}

	h.Checkpoint()
	h.BeginMacro("paste")
	defer h.EndMacro()

	if p.Tiles != nil {
		tx, ty := common.PixelToTile(origin.X), common.PixelToTile(origin.Y)
		h.Push(undo.PutTiles(w, p.Tiles.Layer, tx, ty, p.Tiles.Tilemap(), true))
	}
	var out []world.Entity
	for _, e := range entities {
		for _, cmd := range undo.InsertEntity(w, e) {
			h.Push(cmd)
			if add, ok := cmd.(*undo.AddEntity); ok && add.Entity().World() != nil {
				out = append(out, add.Entity())
			}
		}
	}
	logger.Log.WithFields(logrus.Fields{"id": p.ID, "entities": len(out)}).Debug("clipboard: pasted")
	return out, nil
}
