package world

import (
	"fmt"
	"math"
	"strconv"
)

var commonProperties = []string{"x", "y", "width", "height", "layer"}

// Properties lists the names GetProperty and SetProperty accept for e.
func Properties(e Entity) []string {
	out := append([]string(nil), commonProperties...)
	switch e.(type) {
	case *NPC:
		out = append(out, "image", "script", "version")
	case *Link:
		out = append(out, "nextLevel", "nextX", "nextY")
	case *Sign:
		out = append(out, "text")
	case *Chest:
		out = append(out, "item", "signIndex")
	case *Baddy:
		out = append(out, "baddyType", "verse0", "verse1", "verse2")
	case *ObjectInstance:
		out = append(out, "className", "params")
	}
	return out
}

// GetProperty returns numbers as float64 or int, text as string and
// object parameters as []string.
func GetProperty(e Entity, name string) (any, error) {
	switch name {
	case "x":
		return e.X(), nil
	case "y":
		return e.Y(), nil
	case "width":
		return e.Width(), nil
	case "height":
		return e.Height(), nil
	case "layer":
		return e.Layer(), nil
	}

	switch v := e.(type) {
	case *NPC:
		switch name {
		case "image":
			return v.Image, nil
		case "script":
			return v.Script, nil
		case "version":
			return v.Version, nil
		}
	case *Link:
		switch name {
		case "nextLevel":
			return v.NextLevel, nil
		case "nextX":
			return v.NextX, nil
		case "nextY":
			return v.NextY, nil
		}
	case *Sign:
		if name == "text" {
			return v.Text, nil
		}
	case *Chest:
		switch name {
		case "item":
			return v.Item, nil
		case "signIndex":
			return v.SignIndex, nil
		}
	case *Baddy:
		switch name {
		case "baddyType":
			return v.BaddyType, nil
		case "verse0":
			return v.Verses[0], nil
		case "verse1":
			return v.Verses[1], nil
		case "verse2":
			return v.Verses[2], nil
		}
	case *ObjectInstance:
		switch name {
		case "className":
			return v.ClassName, nil
		case "params":
			return append([]string(nil), v.Params...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no %q", ErrUnknownProperty, e.Kind(), name)
}

// SetProperty writes a property. Geometry goes through SetPos, SetSize and
// SetLayer, so the entity is re-indexed exactly as by a direct call.
// Tile layer geometry cannot be set.
func SetProperty(e Entity, name string, value any) error {
	switch name {
	case "x", "y":
		f, err := asFloat(name, value)
		if err != nil {
			return err
		}
		if e.Kind() == KindTileLayer {
			return fmt.Errorf("%w: tile layer %s", ErrFixedProperty, name)
		}
		if name == "x" {
			SetPos(e, f, e.Y())
		} else {
			SetPos(e, e.X(), f)
		}
		return nil
	case "width", "height", "layer":
		n, err := asInt(name, value)
		if err != nil {
			return err
		}
		if e.Kind() == KindTileLayer {
			return fmt.Errorf("%w: tile layer %s", ErrFixedProperty, name)
		}
		switch name {
		case "width":
			SetSize(e, n, e.Height())
		case "height":
			SetSize(e, e.Width(), n)
		default:
			SetLayer(e, n)
		}
		return nil
	}

	var err error
	known := true
	switch v := e.(type) {
	case *NPC:
		switch name {
		case "image":
			v.Image, err = asString(name, value)
		case "script":
			v.Script, err = asString(name, value)
		case "version":
			var n int
			if n, err = asInt(name, value); err == nil {
				if n != NPCVersionOld && n != NPCVersion {
					return fmt.Errorf("%w: npc version %d", ErrPropertyType, n)
				}
				v.Version = n
			}
		default:
			known = false
		}
	case *Link:
		switch name {
		case "nextLevel":
			v.NextLevel, err = asString(name, value)
		case "nextX":
			v.NextX, err = asString(name, value)
		case "nextY":
			v.NextY, err = asString(name, value)
		default:
			known = false
		}
	case *Sign:
		if name == "text" {
			v.Text, err = asString(name, value)
		} else {
			known = false
		}
	case *Chest:
		switch name {
		case "item":
			v.Item, err = asString(name, value)
		case "signIndex":
			v.SignIndex, err = asInt(name, value)
		default:
			known = false
		}
	case *Baddy:
		switch name {
		case "baddyType":
			v.BaddyType, err = asInt(name, value)
		case "verse0":
			v.Verses[0], err = asString(name, value)
		case "verse1":
			v.Verses[1], err = asString(name, value)
		case "verse2":
			v.Verses[2], err = asString(name, value)
		default:
			known = false
		}
	case *ObjectInstance:
		switch name {
		case "className":
			v.ClassName, err = asString(name, value)
		case "params":
			v.Params, err = asStrings(name, value)
		default:
			known = false
		}
	default:
		known = false
	}
	if !known {
		return fmt.Errorf("%w: %s has no %q", ErrUnknownProperty, e.Kind(), name)
	}
	return err
}

func asFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %s is not finite", ErrPropertyType, name)
		}
		return n, nil
	case float32:
		return asFloat(name, float64(n))
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s wants a number, got %q", ErrPropertyType, name, n)
		}
		return asFloat(name, f)
	}
	return 0, fmt.Errorf("%w: %s wants a number, got %T", ErrPropertyType, name, v)
}

func asInt(name string, v any) (int, error) {
	f, err := asFloat(name, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s wants an integer, got %v", ErrPropertyType, name, f)
	}
	return int(f), nil
}

func asString(name string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("%w: %s wants text, got %T", ErrPropertyType, name, v)
}

func asStrings(name string, v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, err := asString(name, item)
			if err != nil {
				return nil, err
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s wants a list of text, got %T", ErrPropertyType, name, v)
}
