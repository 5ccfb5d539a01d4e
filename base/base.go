// Package base implements spec.md §4.8: per-area command-center
// placement by potential-field scoring, 7x7 clearance, halo validation
// and exclusive resource assignment.
package base

import (
	"sort"

	"github.com/chippydip/bwem-go/area"
	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

// Base is a command-center location and the resources exclusively
// assigned to it (spec §3).
type Base struct {
	AreaID   int16
	Location position.TilePosition // top-left of the 3x2 CC footprint
	Center   position.Position

	Minerals []*neutral.Neutral
	Geysers  []*neutral.Neutral

	BlockingMinerals []*neutral.Neutral // low-amount minerals overlapping the location

	Starting bool
}

// Options carries spec §4.8's literal constants.
type Options struct {
	CCSize               position.TilePosition // 3x2
	FieldPadding         int32                 // 10 tiles
	MinMineralAmount     int32                 // 40
	MinGeyserAmount      int32                 // 300
	HaloMineralThreshold int32                 // 8
	HaloExtraTiles       int32                 // 3
	AssignRadiusTiles    int32                 // 10
	MinBaseSpacingTiles  int32                 // 10
}

// DefaultOptions returns the literal constants from spec.md §4.8.
func DefaultOptions() Options {
	return Options{
		CCSize:               position.TilePosition{X: 3, Y: 2},
		FieldPadding:         10,
		MinMineralAmount:     40,
		MinGeyserAmount:      300,
		HaloMineralThreshold: 8,
		HaloExtraTiles:       3,
		AssignRadiusTiles:    10,
		MinBaseSpacingTiles:  10,
	}
}

// Place runs spec §4.8 for every area and returns every base created, in
// area-id then creation order.
func Place(g *tile.Grid, areas map[int16]*area.Area, opts Options) []*Base {
	var out []*Base

	var ids []int16
	for id := range areas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		a := areas[id]
		bases := placeArea(g, a, opts)
		for _, b := range bases {
			a.Bases = append(a.Bases, len(out))
			out = append(out, b)
		}
	}
	return out
}

func placeArea(g *tile.Grid, a *area.Area, opts Options) []*Base {
	remaining := remainingResources(a, opts)

	var bases []*Base
	for len(remaining) > 0 {
		field := buildField(g, a, remaining, opts)

		bestLoc, bestScore := position.TilePosition{}, -1
		for _, loc := range candidateLocations(g, a, remaining, opts) {
			s := score(g, a, field, loc, opts)
			if s > bestScore {
				bestLoc, bestScore = loc, s
			}
		}
		if bestScore <= 0 {
			break
		}

		blocking, ok := validate(g, bases, bestLoc, opts)
		if !ok {
			break
		}

		center := bestLoc.ToPosition().Add(position.Position{
			X: opts.CCSize.X * position.PixelsPerTile / 2,
			Y: opts.CCSize.Y * position.PixelsPerTile / 2,
		})
		b := &Base{AreaID: a.ID, Location: bestLoc, Center: center, BlockingMinerals: blocking}

		var kept []*neutral.Neutral
		for _, r := range remaining {
			if assignRadius(bestLoc, r, opts) {
				if r.Kind == neutral.Geyser {
					b.Geysers = append(b.Geysers, r)
				} else {
					b.Minerals = append(b.Minerals, r)
				}
			} else {
				kept = append(kept, r)
			}
		}
		remaining = kept
		bases = append(bases, b)
	}
	return bases
}

// remainingResources implements spec §4.8 step 1.
func remainingResources(a *area.Area, opts Options) []*neutral.Neutral {
	var out []*neutral.Neutral
	for _, m := range a.Minerals {
		if !m.Blocking && m.InitialAmount >= opts.MinMineralAmount {
			out = append(out, m)
		}
	}
	for _, gy := range a.Geysers {
		if !gy.Blocking && gy.InitialAmount >= opts.MinGeyserAmount {
			out = append(out, gy)
		}
	}
	return out
}

// field is a sparse per-tile potential map, addressed by tile position;
// only entries touched by this iteration are stored.
type field struct {
	values map[position.TilePosition]int32
}

func newField() *field { return &field{values: make(map[position.TilePosition]int32)} }

func (f *field) add(t position.TilePosition, v int32) { f.values[t] += v }
func (f *field) set(t position.TilePosition, v int32) { f.values[t] = v }
func (f *field) get(t position.TilePosition) int32    { return f.values[t] }

// buildField implements spec §4.8 step 2.
func buildField(g *tile.Grid, a *area.Area, remaining []*neutral.Neutral, opts Options) *field {
	f := newField()

	for _, r := range remaining {
		weight := int32(1)
		if r.Kind == neutral.Geyser {
			weight = 3
		}
		box := expandFootprint(r, opts.CCSize.X+opts.FieldPadding, opts.CCSize.Y+opts.FieldPadding)
		for t := box.min; !tileAfter(t, box.max); t = nextInBox(t, box) {
			if !g.InTileBounds(t) {
				continue
			}
			d := distToFootprint(r, t)
			v := 10 + 3 - int32(position.RoundHalfUp(float64(d+16)/32))
			if v < 0 {
				v = 0
			}
			f.add(t, v*weight)
		}
	}

	for _, r := range remaining {
		box := expandFootprint(r, opts.HaloExtraTiles, opts.HaloExtraTiles)
		for t := box.min; !tileAfter(t, box.max); t = nextInBox(t, box) {
			if g.InTileBounds(t) {
				f.set(t, -1)
			}
		}
	}

	return f
}

type box struct{ min, max position.TilePosition }

// expandFootprint grows n's tile footprint by padX on the X axis and padY
// on the Y axis independently, matching spec §4.8's "expanded by (command
// center size + 10) on each axis" for the non-square CCSize.
func expandFootprint(n *neutral.Neutral, padX, padY int32) box {
	return box{
		min: position.TilePosition{X: n.TopLeft.X - padX, Y: n.TopLeft.Y - padY},
		max: position.TilePosition{X: n.TopLeft.X + n.Size.X - 1 + padX, Y: n.TopLeft.Y + n.Size.Y - 1 + padY},
	}
}

func tileAfter(a, b position.TilePosition) bool { return a.Y > b.Y || (a.Y == b.Y && a.X > b.X) }

func nextInBox(t position.TilePosition, b box) position.TilePosition {
	if t.X < b.max.X {
		return position.TilePosition{X: t.X + 1, Y: t.Y}
	}
	return position.TilePosition{X: b.min.X, Y: t.Y + 1}
}

// distToFootprint returns the Manhattan gap in tiles between t and n's
// tile-footprint rectangle, times PixelsPerTile (0 if inside).
func distToFootprint(n *neutral.Neutral, t position.TilePosition) int32 {
	xMin, yMin := n.TopLeft.X, n.TopLeft.Y
	xMax, yMax := n.TopLeft.X+n.Size.X-1, n.TopLeft.Y+n.Size.Y-1

	dx := int32(0)
	switch {
	case t.X < xMin:
		dx = xMin - t.X
	case t.X > xMax:
		dx = t.X - xMax
	}
	dy := int32(0)
	switch {
	case t.Y < yMin:
		dy = yMin - t.Y
	case t.Y > yMax:
		dy = t.Y - yMax
	}
	return (dx + dy) * position.PixelsPerTile
}

// candidateLocations enumerates every top-left inside the bounding box
// of remaining resources expanded by (ccSize+10), clipped to the area's
// own bounding box (spec §4.8 step 3).
func candidateLocations(g *tile.Grid, a *area.Area, remaining []*neutral.Neutral, opts Options) []position.TilePosition {
	if len(remaining) == 0 {
		return nil
	}
	xMin, yMin := remaining[0].TopLeft.X, remaining[0].TopLeft.Y
	xMax, yMax := xMin, yMin
	for _, r := range remaining {
		if r.TopLeft.X < xMin {
			xMin = r.TopLeft.X
		}
		if r.TopLeft.Y < yMin {
			yMin = r.TopLeft.Y
		}
		if r.TopLeft.X+r.Size.X-1 > xMax {
			xMax = r.TopLeft.X + r.Size.X - 1
		}
		if r.TopLeft.Y+r.Size.Y-1 > yMax {
			yMax = r.TopLeft.Y + r.Size.Y - 1
		}
	}
	padX, padY := opts.CCSize.X+opts.FieldPadding, opts.CCSize.Y+opts.FieldPadding
	xMin, yMin = xMin-padX, yMin-padY
	xMax, yMax = xMax+padX, yMax+padY

	areaTileMin, areaTileMax := a.BoundingBoxMin.ToTilePosition(), a.BoundingBoxMax.ToTilePosition()
	if xMin < areaTileMin.X {
		xMin = areaTileMin.X
	}
	if yMin < areaTileMin.Y {
		yMin = areaTileMin.Y
	}
	if xMax > areaTileMax.X {
		xMax = areaTileMax.X
	}
	if yMax > areaTileMax.Y {
		yMax = areaTileMax.Y
	}

	var out []position.TilePosition
	for y := yMin; y <= yMax; y++ {
		for x := xMin; x <= xMax; x++ {
			t := position.TilePosition{X: x, Y: y}
			if g.InTileBounds(t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// score sums the field over the CC footprint, or -1 if any sub-tile is
// non-buildable, forbidden, off-area, or holds a static building
// (spec §4.8 step 3).
func score(g *tile.Grid, a *area.Area, f *field, topLeft position.TilePosition, opts Options) int {
	total := int32(0)
	for dy := int32(0); dy < opts.CCSize.Y; dy++ {
		for dx := int32(0); dx < opts.CCSize.X; dx++ {
			t := position.TilePosition{X: topLeft.X + dx, Y: topLeft.Y + dy}
			if !g.InTileBounds(t) {
				return -1
			}
			gt := g.Tile(t)
			if !gt.Buildable || gt.AreaID != a.ID {
				return -1
			}
			if gt.Neutral != nil && gt.Neutral.Kind == neutral.StaticBuilding {
				return -1
			}
			v := f.get(t)
			if v == -1 {
				return -1
			}
			total += v
		}
	}
	return int(total)
}

// validate implements spec §4.8 step 4: no geyser in the 3+CC+3 halo, no
// mineral of amount > threshold in that halo (lower-amount minerals
// become blockingMinerals), and >= 10 tiles from every existing base.
func validate(g *tile.Grid, existing []*Base, loc position.TilePosition, opts Options) ([]*neutral.Neutral, bool) {
	haloMin := position.TilePosition{X: loc.X - opts.HaloExtraTiles, Y: loc.Y - opts.HaloExtraTiles}
	haloMax := position.TilePosition{X: loc.X + opts.CCSize.X - 1 + opts.HaloExtraTiles, Y: loc.Y + opts.CCSize.Y - 1 + opts.HaloExtraTiles}

	var blocking []*neutral.Neutral
	for _, n := range g.Neutrals.Bottoms() {
		if !overlapsBox(n, haloMin, haloMax) {
			continue
		}
		switch n.Kind {
		case neutral.Geyser:
			return nil, false
		case neutral.Mineral:
			if n.InitialAmount > opts.HaloMineralThreshold {
				return nil, false
			}
			blocking = append(blocking, n)
		}
	}

	for _, b := range existing {
		if roundedDist(loc, b.Location) < opts.MinBaseSpacingTiles {
			return nil, false
		}
	}
	return blocking, true
}

// roundedDist is the rounded-Euclidean spacing check of spec §4.8, not the
// Chebyshev queen-wise distance used elsewhere in this package.
func roundedDist(a, b position.TilePosition) int32 {
	return position.RoundedDistT(a, b)
}

func overlapsBox(n *neutral.Neutral, min, max position.TilePosition) bool {
	nMax := position.TilePosition{X: n.TopLeft.X + n.Size.X - 1, Y: n.TopLeft.Y + n.Size.Y - 1}
	return n.TopLeft.X <= max.X && nMax.X >= min.X && n.TopLeft.Y <= max.Y && nMax.Y >= min.Y
}

// assignRadius implements spec §4.8 step 5's (distToRectangle+2) <= 10
// tile threshold, measuring the gap between the resource's footprint and
// the new CC's footprint rectangle.
func assignRadius(loc position.TilePosition, r *neutral.Neutral, opts Options) bool {
	ccMin := loc
	ccMax := position.TilePosition{X: loc.X + opts.CCSize.X - 1, Y: loc.Y + opts.CCSize.Y - 1}
	rMin := r.TopLeft
	rMax := position.TilePosition{X: r.TopLeft.X + r.Size.X - 1, Y: r.TopLeft.Y + r.Size.Y - 1}

	dx := tileGap(rMin.X, rMax.X, ccMin.X, ccMax.X)
	dy := tileGap(rMin.Y, rMax.Y, ccMin.Y, ccMax.Y)
	d := (dx + dy) * position.PixelsPerTile

	return d+2 <= opts.AssignRadiusTiles*position.PixelsPerTile
}

func tileGap(aMin, aMax, bMin, bMax int32) int32 {
	switch {
	case aMax < bMin:
		return bMin - aMax
	case bMax < aMin:
		return aMin - bMax
	default:
		return 0
	}
}
