package tile

// Code packs one tile into 32 bits:
//
//	bits 28-31  translucency (0-15)
//	bits 20-27  behavior type (0-255)
//	bits 10-19  tileset column
//	bits  0-9   tileset row
//
// Column = row = 0x3FF is reserved for the invisible tile, so a tileset can
// address at most MaxTilesetCells columns and rows.
type Code uint32

const (
	rowBits          = 10
	columnBits       = 10
	typeBits         = 8
	translucencyBits = 4

	columnShift       = rowBits
	typeShift         = rowBits + columnBits
	translucencyShift = typeShift + typeBits

	rowMask          = 1<<rowBits - 1
	columnMask       = 1<<columnBits - 1
	typeMask         = 1<<typeBits - 1
	translucencyMask = 1<<translucencyBits - 1

	positionMask = 1<<typeShift - 1 // 0xFFFFF

	// MaxTilesetCells is the number of addressable columns (and rows).
	MaxTilesetCells = columnMask
)

// Invisible is the sentinel returned for reads outside a tilemap.
const Invisible = Code(positionMask)

func Make(col, row, typ, translucency int) Code {
	return Code(uint32(translucency&translucencyMask)<<translucencyShift |
		uint32(typ&typeMask)<<typeShift |
		uint32(col&columnMask)<<columnShift |
		uint32(row&rowMask))
}

// MakeInvisible returns the invisible tile carrying the given behavior type.
func MakeInvisible(typ int) Code {
	return Code(uint32(typ&typeMask)<<typeShift | positionMask)
}

// IsInvisible ignores type and translucency.
func IsInvisible(c Code) bool {
	return uint32(c)&positionMask == positionMask
}

func ReplaceTranslucency(c Code, translucency int) Code {
	return Code(uint32(c)&^(translucencyMask<<translucencyShift) |
		uint32(translucency&translucencyMask)<<translucencyShift)
}

func (c Code) Column() int       { return int(uint32(c) >> columnShift & columnMask) }
func (c Code) Row() int          { return int(uint32(c) & rowMask) }
func (c Code) Type() int         { return int(uint32(c) >> typeShift & typeMask) }
func (c Code) Translucency() int { return int(uint32(c) >> translucencyShift & translucencyMask) }
func (c Code) Invisible() bool   { return IsInvisible(c) }
