// Package position provides the three fixed-scale integer vector types
// used throughout the analyzer: Position (1px), WalkPosition (8px,
// minitiles) and TilePosition (32px, tiles). Conversions between them are
// always explicit — there is no implicit truncation or scaling.
package position

import "math"

// Position is a point in pixel space (scale 1).
type Position struct {
	X, Y int32
}

// WalkPosition is a point in minitile space (scale 8px). One tile covers
// a 4x4 block of minitiles.
type WalkPosition struct {
	X, Y int32
}

// TilePosition is a point in tile space (scale 32px).
type TilePosition struct {
	X, Y int32
}

const (
	// PixelsPerWalkTile is the pixel size of a minitile.
	PixelsPerWalkTile = 8
	// PixelsPerTile is the pixel size of a tile.
	PixelsPerTile = 32
	// WalkTilesPerTile is the number of minitiles per tile on each axis.
	WalkTilesPerTile = PixelsPerTile / PixelsPerWalkTile
)

// ToPosition converts a WalkPosition to the Position of its top-left corner.
func (w WalkPosition) ToPosition() Position {
	return Position{w.X * PixelsPerWalkTile, w.Y * PixelsPerWalkTile}
}

// ToPosition converts a TilePosition to the Position of its top-left corner.
func (t TilePosition) ToPosition() Position {
	return Position{t.X * PixelsPerTile, t.Y * PixelsPerTile}
}

// ToWalkPosition truncates a Position down to the minitile that contains it.
func (p Position) ToWalkPosition() WalkPosition {
	return WalkPosition{floorDiv(p.X, PixelsPerWalkTile), floorDiv(p.Y, PixelsPerWalkTile)}
}

// ToWalkPosition converts a TilePosition to the WalkPosition of its top-left minitile.
func (t TilePosition) ToWalkPosition() WalkPosition {
	return WalkPosition{t.X * WalkTilesPerTile, t.Y * WalkTilesPerTile}
}

// ToTilePosition truncates a Position down to the tile that contains it.
func (p Position) ToTilePosition() TilePosition {
	return TilePosition{floorDiv(p.X, PixelsPerTile), floorDiv(p.Y, PixelsPerTile)}
}

// ToTilePosition truncates a WalkPosition down to the tile that contains it.
func (w WalkPosition) ToTilePosition() TilePosition {
	return TilePosition{floorDiv(w.X, WalkTilesPerTile), floorDiv(w.Y, WalkTilesPerTile)}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Add returns the component-wise sum.
func (p Position) Add(o Position) Position { return Position{p.X + o.X, p.Y + o.Y} }

// Sub returns the component-wise difference.
func (p Position) Sub(o Position) Position { return Position{p.X - o.X, p.Y - o.Y} }

// Add returns the component-wise sum.
func (w WalkPosition) Add(o WalkPosition) WalkPosition { return WalkPosition{w.X + o.X, w.Y + o.Y} }

// Sub returns the component-wise difference.
func (w WalkPosition) Sub(o WalkPosition) WalkPosition { return WalkPosition{w.X - o.X, w.Y - o.Y} }

// Add returns the component-wise sum.
func (t TilePosition) Add(o TilePosition) TilePosition { return TilePosition{t.X + o.X, t.Y + o.Y} }

// IsValid reports whether w lies within a grid of the given minitile dimensions.
func (w WalkPosition) IsValid(width, height int32) bool {
	return w.X >= 0 && w.X < width && w.Y >= 0 && w.Y < height
}

// IsValid reports whether t lies within a grid of the given tile dimensions.
func (t TilePosition) IsValid(width, height int32) bool {
	return t.X >= 0 && t.X < width && t.Y >= 0 && t.Y < height
}

// QueenWiseDistanceW is the Chebyshev distance max(|dx|, |dy|).
func QueenWiseDistanceW(a, b WalkPosition) int32 {
	dx, dy := abs32(a.X-b.X), abs32(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// QueenWiseDistanceT is the Chebyshev distance between two tile positions.
func QueenWiseDistanceT(a, b TilePosition) int32 {
	dx, dy := abs32(a.X-b.X), abs32(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// RoundedDistT is the rounded-Euclidean distance between two tile
// positions, distinct from the Chebyshev QueenWiseDistanceT: base
// spacing (spec §4.8) is measured this way, not queen-wise.
func RoundedDistT(a, b TilePosition) int32 {
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	return int32(RoundHalfUp(math.Sqrt(dx*dx + dy*dy)))
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// RoundHalfUp implements the source's "0.5 + x" integer cast: round-half
// toward positive infinity. Only meaningful (and only ever called on) for
// non-negative x; see DESIGN.md's rounding open question.
func RoundHalfUp(x float64) int {
	return int(x + 0.5)
}

// Neighbours4 lists the four orthogonal minitile offsets.
var Neighbours4 = [4]WalkPosition{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
}

// Neighbours8 lists the eight minitile offsets (orthogonal + diagonal).
var Neighbours8 = [8]WalkPosition{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Dist2 returns the squared Euclidean pixel distance.
func (p Position) Dist2(o Position) int64 {
	dx, dy := int64(p.X-o.X), int64(p.Y-o.Y)
	return dx*dx + dy*dy
}
