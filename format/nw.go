// Package format holds the Graal text codecs: .nw levels and .gmap
// overworld layouts.
package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/milk9111/worldedit/common"
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/tile"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

const nwHeader = "GLEVNW01"

var ErrBadHeader = errors.New("format: bad header")

// NW is the GLEVNW01 text level format. Positions in the file are in tiles
// relative to the level; entities are stored in global pixels.
type NW struct{}

var _ world.Format = NW{}

func (NW) Name() string { return "nw" }

func (NW) Match(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".nw")
}

// Load parses r into l. Malformed lines and blocks are skipped with a
// warning; only a bad header or a read error fails the load.
func (NW) Load(l *world.Level, r io.Reader) error {
	p := &nwParser{l: l, sc: bufio.NewScanner(r), log: logger.Log.WithFields(logrus.Fields{"level": l.Name()})}
	p.sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !p.next() {
		if err := p.sc.Err(); err != nil {
			return fmt.Errorf("nw: %w", err)
		}
		return fmt.Errorf("nw: empty file: %w", ErrBadHeader)
	}
	if strings.TrimSpace(p.line) != nwHeader {
		return fmt.Errorf("nw: %q: %w", p.line, ErrBadHeader)
	}
	for p.next() {
		p.parseLine()
	}
	if err := p.sc.Err(); err != nil {
		return fmt.Errorf("nw: line %d: %w", p.n, err)
	}
	if p.skipped > 0 {
		p.log.WithField("skipped", p.skipped).Warn("nw: skipped malformed lines")
	}
	return nil
}

type nwParser struct {
	l       *world.Level
	sc      *bufio.Scanner
	log     *logrus.Entry
	line    string
	n       int
	skipped int
}

func (p *nwParser) next() bool {
	if !p.sc.Scan() {
		return false
	}
	p.line = strings.TrimRight(p.sc.Text(), "\r")
	p.n++
	return true
}

func (p *nwParser) skip(reason string) {
	p.skipped++
	p.log.WithFields(logrus.Fields{"line": p.n, "reason": reason}).Debug("nw: skipping line")
}

// block collects lines up to end, which is consumed.
func (p *nwParser) block(end string) ([]string, bool) {
	var lines []string
	for p.next() {
		if strings.TrimSpace(p.line) == end {
			return lines, true
		}
		lines = append(lines, p.line)
	}
	return lines, false
}

// pixel converts a level-relative tile coordinate to a global pixel.
func (p *nwParser) pixel(tiles, origin float64) float64 {
	return origin + tiles*common.TileSize
}

func (p *nwParser) parseLine() {
	fields := strings.Fields(p.line)
	if len(fields) == 0 {
		return
	}
	origin := p.l.Origin()
	seq := p.l.Sequence()

	switch fields[0] {
	case "BOARD":
		b, err := tile.ParseBoard(p.line)
		if err != nil {
			p.skip(err.Error())
			return
		}
		m := p.l.GetOrMakeTilemap(b.Layer)
		for i, idx := range b.Tiles {
			m.SetTile(b.X+i, b.Y, p.l.ConvertFromGraalTile(idx, nil))
		}

	case "LINK":
		// LINK <level> <x> <y> <w> <h> <newx> <newy>; the level name may
		// contain spaces, so fields are taken from the right.
		if len(fields) < 8 {
			p.skip("short LINK")
			return
		}
		k := len(fields) - 6
		nums, ok := parseFloats(fields[k : k+4])
		if !ok {
			p.skip("bad LINK geometry")
			return
		}
		link := world.NewLink(seq,
			p.pixel(nums[0], origin.X), p.pixel(nums[1], origin.Y),
			int(nums[2]*common.TileSize), int(nums[3]*common.TileSize),
			undash(strings.Join(fields[1:k], " ")), undash(fields[k+4]), undash(fields[k+5]))
		p.l.AddObject(link)

	case "SIGN":
		nums, ok := parseFloats(fields[1:])
		text, closed := p.block("SIGNEND")
		if !ok || len(nums) != 2 || !closed {
			p.skip("bad SIGN")
			return
		}
		p.l.AddObject(world.NewSign(seq, p.pixel(nums[0], origin.X), p.pixel(nums[1], origin.Y), strings.Join(text, "\n")))

	case "CHEST":
		if len(fields) != 5 {
			p.skip("bad CHEST")
			return
		}
		nums, ok := parseFloats([]string{fields[1], fields[2], fields[4]})
		if !ok {
			p.skip("bad CHEST numbers")
			return
		}
		p.l.AddObject(world.NewChest(seq, p.pixel(nums[0], origin.X), p.pixel(nums[1], origin.Y), undash(fields[3]), int(nums[2])))

	case "NPC":
		script, closed := p.block("NPCEND")
		if len(fields) < 4 || !closed {
			p.skip("bad NPC")
			return
		}
		k := len(fields) - 2
		nums, ok := parseFloats(fields[k:])
		if !ok {
			p.skip("bad NPC position")
			return
		}
		npc := world.NewNPC(seq, undash(strings.Join(fields[1:k], " ")), p.pixel(nums[0], origin.X), p.pixel(nums[1], origin.Y))
		npc.Script = strings.Join(script, "\n")
		p.l.AddObject(npc)

	case "BADDY":
		verses, closed := p.block("BADDYEND")
		nums, ok := parseFloats(fields[1:])
		if !ok || len(nums) != 3 || !closed {
			p.skip("bad BADDY")
			return
		}
		b := world.NewBaddy(seq, p.pixel(nums[0], origin.X), p.pixel(nums[1], origin.Y), int(nums[2]))
		copy(b.Verses[:], verses)
		p.l.AddObject(b)

	default:
		p.skip("unknown keyword " + fields[0])
	}
}

func parseFloats(fields []string) ([]float64, bool) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Save writes l in GLEVNW01 form. Each layer is written as runs of tiles
// that exist on the legacy sheet; other tiles are left out. Object
// instances have no NW representation and are dropped with a warning.
func (NW) Save(l *world.Level, w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, nwHeader)

	for _, layer := range l.Layers() {
		m := l.Tilemap(layer)
		for y := 0; y < m.VCount(); y++ {
			var run tile.Board
			flush := func() {
				if len(run.Tiles) > 0 {
					fmt.Fprintln(bw, run.String())
				}
				run = tile.Board{}
			}
			for x := 0; x < m.HCount(); x++ {
				idx, ok := tile.ToGraal(m.Tile(x, y))
				if !ok {
					flush()
					continue
				}
				if len(run.Tiles) == 0 {
					run = tile.Board{X: x, Y: y, Layer: layer}
				}
				run.Tiles = append(run.Tiles, idx)
			}
			flush()
		}
	}

	origin := l.Origin()
	tx := func(px, axis float64) string {
		return strconv.FormatFloat((px-axis)/common.TileSize, 'f', -1, 64)
	}
	dropped := 0
	for _, e := range l.Objects() {
		x, y := tx(e.X(), origin.X), tx(e.Y(), origin.Y)
		switch v := e.(type) {
		case *world.TileLayer:
		case *world.Link:
			fmt.Fprintf(bw, "LINK %s %s %s %s %s %s %s\n", orDash(v.NextLevel), x, y,
				tx(float64(v.Width()), 0), tx(float64(v.Height()), 0), orDash(v.NextX), orDash(v.NextY))
		case *world.Sign:
			fmt.Fprintf(bw, "SIGN %s %s\n%s\nSIGNEND\n", x, y, v.Text)
		case *world.Chest:
			fmt.Fprintf(bw, "CHEST %s %s %s %d\n", x, y, orDash(v.Item), v.SignIndex)
		case *world.NPC:
			fmt.Fprintf(bw, "NPC %s %s %s\n", orDash(v.Image), x, y)
			if v.Script != "" {
				fmt.Fprintln(bw, v.Script)
			}
			fmt.Fprintln(bw, "NPCEND")
		case *world.Baddy:
			fmt.Fprintf(bw, "BADDY %s %s %d\n%s\n%s\n%s\nBADDYEND\n", x, y, v.BaddyType, v.Verses[0], v.Verses[1], v.Verses[2])
		default:
			dropped++
		}
	}
	if dropped > 0 {
		logger.Log.WithFields(logrus.Fields{"level": l.Name(), "dropped": dropped}).Warn("nw: entities without a text form were not saved")
	}
	return bw.Flush()
}

func undash(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
