package tile

// Tilemap is a dense grid of codes for one layer of one level. Reads
// outside the grid return Invisible.
type Tilemap struct {
	hcount, vcount int
	layer          int
	tiles          []Code
}

// MaxTilemapCells bounds the cells of one map.
const MaxTilemapCells = 1 << 24

// NewTilemap returns an hcount x vcount map filled with the invisible tile.
// Sizes above MaxTilemapCells give an empty 0x0 map.
func NewTilemap(hcount, vcount, layer int) *Tilemap {
	if hcount <= 0 || vcount <= 0 || vcount > MaxTilemapCells/hcount {
		hcount, vcount = 0, 0
	}
	m := &Tilemap{hcount: hcount, vcount: vcount, layer: layer, tiles: make([]Code, hcount*vcount)}
	m.Fill(Invisible)
	return m
}

func (m *Tilemap) HCount() int        { return m.hcount }
func (m *Tilemap) VCount() int        { return m.vcount }
func (m *Tilemap) Layer() int         { return m.layer }
func (m *Tilemap) SetLayer(layer int) { m.layer = layer }

func (m *Tilemap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.hcount && y < m.vcount
}

func (m *Tilemap) Tile(x, y int) Code {
	if !m.InBounds(x, y) {
		return Invisible
	}
	return m.tiles[y*m.hcount+x]
}

func (m *Tilemap) TryTile(x, y int) (Code, bool) {
	if !m.InBounds(x, y) {
		return Invisible, false
	}
	return m.tiles[y*m.hcount+x], true
}

// SetTile reports whether (x, y) was inside the map.
func (m *Tilemap) SetTile(x, y int, c Code) bool {
	if !m.InBounds(x, y) {
		return false
	}
	m.tiles[y*m.hcount+x] = c
	return true
}

func (m *Tilemap) Fill(c Code) {
	for i := range m.tiles {
		m.tiles[i] = c
	}
}

func (m *Tilemap) Clone() *Tilemap {
	out := &Tilemap{hcount: m.hcount, vcount: m.vcount, layer: m.layer, tiles: make([]Code, len(m.tiles))}
	copy(out.tiles, m.tiles)
	return out
}

// Region copies a w x h block starting at (x, y); cells outside the map
// come back invisible.
func (m *Tilemap) Region(x, y, w, h int) *Tilemap {
	out := NewTilemap(w, h, m.layer)
	for dy := 0; dy < out.vcount; dy++ {
		for dx := 0; dx < out.hcount; dx++ {
			out.tiles[dy*out.hcount+dx] = m.Tile(x+dx, y+dy)
		}
	}
	return out
}

// Paste writes src with its top-left at (x, y). Invisible source cells are
// copied unless skipInvisible is set. It returns the number of cells written.
func (m *Tilemap) Paste(src *Tilemap, x, y int, skipInvisible bool) int {
	n := 0
	for dy := 0; dy < src.vcount; dy++ {
		for dx := 0; dx < src.hcount; dx++ {
			c := src.tiles[dy*src.hcount+dx]
			if skipInvisible && c.Invisible() {
				continue
			}
			if m.SetTile(x+dx, y+dy, c) {
				n++
			}
		}
	}
	return n
}

// Equal compares dimensions and contents; the layer is ignored.
func (m *Tilemap) Equal(o *Tilemap) bool {
	if m.hcount != o.hcount || m.vcount != o.vcount {
		return false
	}
	for i, c := range m.tiles {
		if o.tiles[i] != c {
			return false
		}
	}
	return true
}
