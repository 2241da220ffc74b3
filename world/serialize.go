package world

import (
	"encoding/json"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/worldedit/logger"
	"github.com/sirupsen/logrus"
)

// Record type discriminators.
const (
	TypeNPCv1          = "levelNPCv1"
	TypeNPCv2          = "levelNPCv2"
	TypeChestv1        = "levelChestv1"
	TypeLink           = "levelLink"
	TypeSign           = "levelSign"
	TypeBaddy          = "levelBaddy"
	TypeObjectInstance = "objectInstance"
)

// Record is the serialized form of an entity used by the clipboard and by
// undo payloads. With Relative set, X and Y are offsets from an origin
// given at encode and decode time.
type Record struct {
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Relative bool    `json:"relative,omitempty"`
	Layer    int     `json:"layer"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`

	Image  string `json:"image,omitempty"`
	Script string `json:"script,omitempty"`

	NextLevel string `json:"nextLevel,omitempty"`
	NextX     string `json:"nextX,omitempty"`
	NextY     string `json:"nextY,omitempty"`

	Text string `json:"text,omitempty"`

	Item      string `json:"item,omitempty"`
	SignIndex int    `json:"signIndex,omitempty"`

	BaddyType int      `json:"baddyType,omitempty"`
	Verses    []string `json:"verses,omitempty"`

	ClassName string   `json:"className,omitempty"`
	Params    []string `json:"params,omitempty"`
}

// EncodeEntity returns the record for e. Tile layers have none; ok is false
// for them.
func EncodeEntity(e Entity, origin cp.Vector, relative bool) (Record, bool) {
	r := Record{X: e.X(), Y: e.Y(), Layer: e.Layer(), Width: e.Width(), Height: e.Height()}
	if relative {
		r.Relative = true
		r.X -= origin.X
		r.Y -= origin.Y
	}
	switch v := e.(type) {
	case *TileLayer:
		return Record{}, false
	case *NPC:
		r.Type = TypeNPCv2
		if v.Version == NPCVersionOld {
			r.Type = TypeNPCv1
		}
		r.Image, r.Script = v.Image, v.Script
	case *Link:
		r.Type = TypeLink
		r.NextLevel, r.NextX, r.NextY = v.NextLevel, v.NextX, v.NextY
	case *Sign:
		r.Type = TypeSign
		r.Text = v.Text
	case *Chest:
		r.Type = TypeChestv1
		r.Item, r.SignIndex = v.Item, v.SignIndex
	case *Baddy:
		r.Type = TypeBaddy
		r.BaddyType = v.BaddyType
		r.Verses = append([]string(nil), v.Verses[:]...)
	case *ObjectInstance:
		r.Type = TypeObjectInstance
		r.ClassName = v.ClassName
		r.Params = append([]string(nil), v.Params...)
	default:
		return Record{}, false
	}
	return r, true
}

// DecodeRecord builds the entity a record describes. Relative positions are
// offset by origin.
func DecodeRecord(r Record, seq *Sequence, origin cp.Vector) (Entity, error) {
	x, y := r.X, r.Y
	if r.Relative {
		x += origin.X
		y += origin.Y
	}
	var e Entity
	switch r.Type {
	case TypeNPCv1, TypeNPCv2:
		n := NewNPC(seq, r.Image, x, y)
		n.Script = r.Script
		if r.Type == TypeNPCv1 {
			n.Version = NPCVersionOld
		}
		e = n
	case TypeLink:
		e = NewLink(seq, x, y, r.Width, r.Height, r.NextLevel, r.NextX, r.NextY)
	case TypeSign:
		e = NewSign(seq, x, y, r.Text)
	case TypeChestv1:
		e = NewChest(seq, x, y, r.Item, r.SignIndex)
	case TypeBaddy:
		b := NewBaddy(seq, x, y, r.BaddyType)
		copy(b.Verses[:], r.Verses)
		e = b
	case TypeObjectInstance:
		e = NewObjectInstance(seq, r.ClassName, x, y, r.Params...)
	default:
		return nil, fmt.Errorf("world: unknown record type %q", r.Type)
	}
	o := e.object()
	o.layer = r.Layer
	if r.Width > 0 && r.Height > 0 {
		o.width, o.height = r.Width, r.Height
	}
	return e, nil
}

// MarshalEntities encodes es as a JSON array of records, skipping tile
// layers.
func MarshalEntities(es []Entity, origin cp.Vector, relative bool) ([]byte, error) {
	records := make([]Record, 0, len(es))
	for _, e := range es {
		if r, ok := EncodeEntity(e, origin, relative); ok {
			records = append(records, r)
		}
	}
	return json.Marshal(records)
}

// UnmarshalEntities decodes what MarshalEntities produced. Records that do
// not decode are skipped and logged; only a payload that is not a JSON
// array is an error.
func UnmarshalEntities(data []byte, seq *Sequence, origin cp.Vector) ([]Entity, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("world: decode entities: %w", err)
	}
	out := make([]Entity, 0, len(raw))
	for i, msg := range raw {
		var r Record
		if err := json.Unmarshal(msg, &r); err != nil {
			logger.Log.WithFields(logrus.Fields{"index": i}).WithError(err).Warn("skipping malformed entity record")
			continue
		}
		e, err := DecodeRecord(r, seq, origin)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{"index": i}).WithError(err).Warn("skipping entity record")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
