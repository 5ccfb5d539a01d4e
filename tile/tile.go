// Package tile implements the dense grid model of spec.md §3/§4.1: the
// MiniTile (8px) and Tile (32px) arrays, their invariants, and the raw
// ingestion pass that derives walkability/buildability/ground-height
// from the external snapshot.
package tile

import (
	"math"

	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
)

// AreaIDNone marks a minitile with no area (sea/lake, unreached).
const AreaIDNone int16 = 0

// AreaIDBlocked is the sentinel stamped onto minitiles inside the
// footprint of a blocking neutral so the area builder will not merge
// across it (spec §4.4).
const AreaIDBlocked = int16(math.MinInt16)

// GroundHeight is the coarse elevation tier of a tile.
type GroundHeight int8

const (
	Low GroundHeight = iota
	High
	VeryHigh
)

// MiniTile is one 8x8px cell (spec §3).
type MiniTile struct {
	Walkable bool
	Altitude int16 // pixel distance to nearest sea minitile; 0 = sea, 1 = transient sea-or-lake marker
	AreaID   int16 // 0 sea/lake; >0 area; <0 too-small fragment; AreaIDBlocked = blocked
}

// IsSea reports whether m is sea (unwalkable, altitude 0, no area).
func (m MiniTile) IsSea() bool { return !m.Walkable && m.Altitude == 0 }

// IsLake reports whether m is an enclosed unwalkable pocket reclassified
// by spec §4.2 (walkable=false but altitude>0).
func (m MiniTile) IsLake() bool { return !m.Walkable && m.Altitude > 0 }

// Tile is one 32x32px cell covering a 4x4 block of minitiles (spec §3).
type Tile struct {
	Buildable    bool
	Doodad       bool
	GroundHeight GroundHeight

	AreaID      int16 // 0 none; unique id if sub-minitiles agree; -1 if they disagree
	MinAltitude int16
	Neutral     *neutral.Neutral // bottom of stack occupying this tile, if any
}

// Grid owns the full minitile and tile arrays plus the ingested starting
// locations and neutral registry.
type Grid struct {
	TileWidth, TileHeight int32
	WalkWidth, WalkHeight int32

	minitiles []MiniTile // row-major, WalkWidth*WalkHeight
	tiles     []Tile     // row-major, TileWidth*TileHeight

	StartLocations []position.TilePosition
	Neutrals       *neutral.Registry
}

// WalkabilityFunc reports whether the minitile at (x,y) is walkable, per
// spec §6's isWalkable(walkX, walkY).
type WalkabilityFunc func(x, y int32) bool

// BuildabilityFunc reports whether the tile at (x,y) is buildable, per
// spec §6's isBuildable(tileX, tileY).
type BuildabilityFunc func(x, y int32) bool

// GroundHeightFunc returns the raw 0..4 ground height of the tile at (x,y).
type GroundHeightFunc func(x, y int32) int32

// NewGrid ingests the raw snapshot per spec §4.1:
//   - load minitile walkability, then force-unwalkable the 8 neighbours
//     of every originally-unwalkable minitile (thin-path suppression);
//   - load tile buildability/ground height; buildable tiles force all 16
//     sub-minitiles walkable;
//   - ground height is halved, its parity is the doodad bit.
func NewGrid(tileW, tileH int32, isWalkable WalkabilityFunc, isBuildable BuildabilityFunc, groundHeight GroundHeightFunc) *Grid {
	g := &Grid{
		TileWidth: tileW, TileHeight: tileH,
		WalkWidth: tileW * position.WalkTilesPerTile, WalkHeight: tileH * position.WalkTilesPerTile,
		Neutrals: neutral.NewRegistry(),
	}
	g.minitiles = make([]MiniTile, g.WalkWidth*g.WalkHeight)
	g.tiles = make([]Tile, tileW*tileH)

	// 1. raw walkability
	original := make([]bool, len(g.minitiles))
	for y := int32(0); y < g.WalkHeight; y++ {
		for x := int32(0); x < g.WalkWidth; x++ {
			w := isWalkable(x, y)
			original[g.wIndex(x, y)] = w
			g.mini(x, y).Walkable = w
		}
	}

	// 2. thin-path suppression: 8 neighbours of an unwalkable minitile
	// are forced unwalkable too.
	for y := int32(0); y < g.WalkHeight; y++ {
		for x := int32(0); x < g.WalkWidth; x++ {
			if original[g.wIndex(x, y)] {
				continue
			}
			for _, d := range position.Neighbours8 {
				nx, ny := x+d.X, y+d.Y
				if nx >= 0 && nx < g.WalkWidth && ny >= 0 && ny < g.WalkHeight {
					g.mini(nx, ny).Walkable = false
				}
			}
		}
	}

	// 3. tile buildability/ground height; buildable => all 16 sub-minitiles walkable.
	for ty := int32(0); ty < tileH; ty++ {
		for tx := int32(0); tx < tileW; tx++ {
			t := g.tileAt(tx, ty)
			t.Buildable = isBuildable(tx, ty)
			raw := groundHeight(tx, ty)
			t.GroundHeight = GroundHeight(raw / 2)
			t.Doodad = raw%2 != 0

			if t.Buildable {
				base := position.TilePosition{X: tx, Y: ty}.ToWalkPosition()
				for dy := int32(0); dy < position.WalkTilesPerTile; dy++ {
					for dx := int32(0); dx < position.WalkTilesPerTile; dx++ {
						g.mini(base.X+dx, base.Y+dy).Walkable = true
					}
				}
			}
		}
	}

	return g
}

func (g *Grid) wIndex(x, y int32) int { return int(y*g.WalkWidth + x) }
func (g *Grid) tIndex(x, y int32) int { return int(y*g.TileWidth + x) }

// MiniTile returns a pointer to the minitile at walk position w.
func (g *Grid) MiniTile(w position.WalkPosition) *MiniTile { return g.mini(w.X, w.Y) }

func (g *Grid) mini(x, y int32) *MiniTile { return &g.minitiles[g.wIndex(x, y)] }

// Tile returns a pointer to the tile at tile position t.
func (g *Grid) Tile(t position.TilePosition) *Tile { return g.tileAt(t.X, t.Y) }

func (g *Grid) tileAt(x, y int32) *Tile { return &g.tiles[g.tIndex(x, y)] }

// InWalkBounds reports whether w lies within the minitile grid.
func (g *Grid) InWalkBounds(w position.WalkPosition) bool { return w.IsValid(g.WalkWidth, g.WalkHeight) }

// InTileBounds reports whether t lies within the tile grid.
func (g *Grid) InTileBounds(t position.TilePosition) bool { return t.IsValid(g.TileWidth, g.TileHeight) }

// MiniTiles iterates every minitile in row-major order, calling f with
// its walk position.
func (g *Grid) MiniTiles(f func(position.WalkPosition, *MiniTile)) {
	for y := int32(0); y < g.WalkHeight; y++ {
		for x := int32(0); x < g.WalkWidth; x++ {
			f(position.WalkPosition{X: x, Y: y}, g.mini(x, y))
		}
	}
}

// Tiles iterates every tile in row-major order, calling f with its tile position.
func (g *Grid) Tiles(f func(position.TilePosition, *Tile)) {
	for y := int32(0); y < g.TileHeight; y++ {
		for x := int32(0); x < g.TileWidth; x++ {
			f(position.TilePosition{X: x, Y: y}, g.tileAt(x, y))
		}
	}
}

// mainArea aggregates the positive area ids of the tile's 16 walkable
// sub-minitiles: 0 when there is none, that id when they all agree, and
// -1 when two of them differ. It is not a majority vote.
func (g *Grid) mainArea(t position.TilePosition) int16 {
	base := t.ToWalkPosition()
	first := int16(0)
	agree := true
	for dy := int32(0); dy < position.WalkTilesPerTile; dy++ {
		for dx := int32(0); dx < position.WalkTilesPerTile; dx++ {
			m := g.mini(base.X+dx, base.Y+dy)
			if !m.Walkable || m.AreaID <= 0 {
				continue
			}
			if first == 0 {
				first = m.AreaID
			} else if m.AreaID != first {
				agree = false
			}
		}
	}
	if first == 0 {
		return 0
	}
	if !agree {
		return -1
	}
	return first
}

// RecomputeTileAggregate refreshes AreaID and MinAltitude for the tile
// at t from its 16 sub-minitiles. Used both during
// initial construction and by the blocking-neutral-destroyed hook
// (spec §4.9).
func (g *Grid) RecomputeTileAggregate(t position.TilePosition) {
	tile := g.tileAt(t.X, t.Y)
	tile.AreaID = g.mainArea(t)

	base := t.ToWalkPosition()
	min := int16(math.MaxInt16)
	for dy := int32(0); dy < position.WalkTilesPerTile; dy++ {
		for dx := int32(0); dx < position.WalkTilesPerTile; dx++ {
			a := g.mini(base.X+dx, base.Y+dy).Altitude
			if a < min {
				min = a
			}
		}
	}
	tile.MinAltitude = min
}

// RecomputeAllTileAggregates recomputes AreaID/MinAltitude for every tile.
// Called once after the area builder finishes (spec §4.1's closing step).
func (g *Grid) RecomputeAllTileAggregates() {
	for ty := int32(0); ty < g.TileHeight; ty++ {
		for tx := int32(0); tx < g.TileWidth; tx++ {
			g.RecomputeTileAggregate(position.TilePosition{X: tx, Y: ty})
		}
	}
}
