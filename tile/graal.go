package tile

import (
	"fmt"
	"strings"
)

// Legacy Graal boards address a 2048x512 px tileset with a 12-bit index: the
// sheet is split into 16-column strips of 32 rows each, 512 tiles per strip.
const (
	graalStripColumns = 16
	graalStripRows    = 32
	graalStripTiles   = graalStripColumns * graalStripRows
	graalTileCount    = 4096
	graalColumns      = graalTileCount / graalStripTiles * graalStripColumns
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values = func() [256]int8 {
	var v [256]int8
	for i := range v {
		v[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		v[base64Alphabet[i]] = int8(i)
	}
	return v
}()

// FromGraal converts a legacy tile index to a Code. The divide and modulo
// order matters: the strip comes from index/512, the column inside it from
// index%16 and the row from index/16 wrapped to the strip height. The
// behavior type is looked up in ts when it is non-nil.
func FromGraal(index int, ts *Tileset) Code {
	index &= graalTileCount - 1
	col := index/graalStripTiles*graalStripColumns + index%graalStripColumns
	row := index / graalStripColumns % graalStripRows
	return Make(col, row, ts.TypeAt(col, row), 0)
}

// ToGraal is the reverse of FromGraal. ok is false for invisible tiles and
// positions outside the legacy sheet.
func ToGraal(c Code) (int, bool) {
	if c.Invisible() {
		return 0, false
	}
	col, row := c.Column(), c.Row()
	if col >= graalColumns || row >= graalStripRows {
		return 0, false
	}
	return col/graalStripColumns*graalStripTiles + row*graalStripColumns + col%graalStripColumns, true
}

// DecodePair reads a two-character base64 tile index.
func DecodePair(a, b byte) (int, bool) {
	hi, lo := base64Values[a], base64Values[b]
	if hi < 0 || lo < 0 {
		return 0, false
	}
	return int(hi)<<6 | int(lo), true
}

// EncodePair writes a tile index as two base64 characters.
func EncodePair(index int) [2]byte {
	index &= graalTileCount - 1
	return [2]byte{base64Alphabet[index>>6], base64Alphabet[index&63]}
}

// Board is one parsed BOARD line: a horizontal run of legacy tile indices.
type Board struct {
	X, Y  int
	Layer int
	Tiles []int
}

// ParseBoard parses "BOARD <left> <top> <width> <layer> <data>". The layer
// field is optional for old single-layer files.
func ParseBoard(line string) (Board, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[0] != "BOARD" {
		return Board{}, fmt.Errorf("board: malformed line %q", line)
	}
	var b Board
	var width int
	if _, err := fmt.Sscanf(strings.Join(fields[1:4], " "), "%d %d %d", &b.X, &b.Y, &width); err != nil {
		return Board{}, fmt.Errorf("board: bad header: %w", err)
	}
	data := fields[len(fields)-1]
	if len(fields) >= 6 {
		if _, err := fmt.Sscanf(fields[4], "%d", &b.Layer); err != nil {
			return Board{}, fmt.Errorf("board: bad layer: %w", err)
		}
	}
	if width <= 0 || b.X < 0 || b.Y < 0 || b.Layer < 0 {
		return Board{}, fmt.Errorf("board: bad geometry %d,%d w=%d layer=%d", b.X, b.Y, width, b.Layer)
	}
	if width > len(data)/2 {
		return Board{}, fmt.Errorf("board: data too short: want %d tiles, got %d chars", width, len(data))
	}
	b.Tiles = make([]int, width)
	for i := 0; i < width; i++ {
		v, ok := DecodePair(data[i*2], data[i*2+1])
		if !ok {
			return Board{}, fmt.Errorf("board: invalid tile characters at %d", i)
		}
		b.Tiles[i] = v
	}
	return b, nil
}

func (b Board) String() string {
	var sb strings.Builder
	sb.Grow(32 + len(b.Tiles)*2)
	fmt.Fprintf(&sb, "BOARD %d %d %d %d ", b.X, b.Y, len(b.Tiles), b.Layer)
	for _, t := range b.Tiles {
		p := EncodePair(t)
		sb.Write(p[:])
	}
	return sb.String()
}
