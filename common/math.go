package common

import "math"

// TileSize is the edge length of one tile cell in pixels.
const TileSize = 16

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns a modulo b in [0, b).
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// PixelToTile converts a pixel coordinate to the tile cell containing it.
func PixelToTile(v float64) int {
	return int(math.Floor(v / TileSize))
}
