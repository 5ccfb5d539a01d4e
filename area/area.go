// Package area implements spec.md §4.5: growing walkable minitiles into
// Areas in descending altitude order, merging under the numeric merge
// predicate, and recording the raw frontier the chokepoint extractor
// clusters in a later stage.
package area

import (
	"sort"

	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

// Area is a maximal 4-connected component of terrain/lake minitiles,
// bounded by sea, map edge, other areas, or a blocking neutral (spec §3).
type Area struct {
	ID          int16
	Top         position.WalkPosition
	MaxAltitude int16

	TotalMiniTiles      int
	BuildableTiles      int
	HighGroundTiles     int
	VeryHighGroundTiles int

	BoundingBoxMin, BoundingBoxMax position.WalkPosition

	GroupID int16

	// ChokePointsByNeighbour maps a neighbouring area id to the indices
	// (in the owning Map's global chokepoint slice) of the chokepoints
	// shared with it. Populated by package choke, not by the builder.
	ChokePointsByNeighbour map[int16][]int
	// AccessibleNeighbours is the subset of ChokePointsByNeighbour's keys
	// reachable via at least one non-blocked chokepoint.
	AccessibleNeighbours map[int16]bool

	Minerals []*neutral.Neutral
	Geysers  []*neutral.Neutral
	Bases    []int
}

// FrontierEntry records one raw frontier position between two areas,
// produced while the two areas were still separate (spec §4.5).
type FrontierEntry struct {
	AreaA, AreaB int16 // unordered pair, final ids
	Pos          position.WalkPosition
}

// Result is the output of Build.
type Result struct {
	Areas    map[int16]*Area
	Frontier []FrontierEntry
}

// Options carries spec §4.5's policy constants.
type Options struct {
	MinAreaSize            int     // 64
	MinMergeSize           int     // 80
	MinMergeAltitude       int16   // 80
	MergeAltitudeRatio     float64 // 0.90
	StartLocationRadius    int32   // 3 tiles
	StartLocationOffsetX   int32   // +2
	StartLocationOffsetY   int32   // +1
}

// DefaultOptions returns the literal constants from spec.md §4.5.
func DefaultOptions() Options {
	return Options{
		MinAreaSize:          64,
		MinMergeSize:         80,
		MinMergeAltitude:     80,
		MergeAltitudeRatio:   0.90,
		StartLocationRadius:  3,
		StartLocationOffsetX: 2,
		StartLocationOffsetY: 1,
	}
}

type tempArea struct {
	id              int16
	top             position.WalkPosition
	highestAltitude int16
	minitiles       []position.WalkPosition
	bbMin, bbMax    position.WalkPosition
	dead            bool
	redirect        int16 // 0 if alive; otherwise the id it was merged into
}

type builder struct {
	g          *tile.Grid
	opts       Options
	starts     []position.TilePosition
	temp       map[int16]*tempArea
	nextID     int16
	frontier   []rawFrontier
	altCounter map[[2]int16]int // alternation counter per ordered (min,max) temp-id pair
}

type rawFrontier struct {
	a, b int16
	pos  position.WalkPosition
}

// Build runs spec §4.5's area-growing sweep and returns the finished,
// renumbered areas plus the deduplicated frontier.
func Build(g *tile.Grid, starts []position.TilePosition, opts Options) Result {
	b := &builder{
		g: g, opts: opts, starts: starts,
		temp:       make(map[int16]*tempArea),
		altCounter: make(map[[2]int16]int),
	}
	b.run()
	return b.finish()
}

func (b *builder) run() {
	type cand struct {
		w   position.WalkPosition
		alt int16
	}
	var cands []cand
	b.g.MiniTiles(func(w position.WalkPosition, m *tile.MiniTile) {
		if m.Walkable && m.AreaID == tile.AreaIDNone {
			cands = append(cands, cand{w, m.Altitude})
		}
	})
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].alt > cands[j].alt })

	for _, c := range cands {
		b.step(c.w)
	}
}

func (b *builder) resolve(id int16) int16 {
	for {
		t, ok := b.temp[id]
		if !ok || t.redirect == 0 {
			return id
		}
		id = t.redirect
	}
}

func (b *builder) step(p position.WalkPosition) {
	m := b.g.MiniTile(p)
	var first, second int16
	for _, d := range position.Neighbours4 {
		n := p.Add(d)
		if !b.g.InWalkBounds(n) {
			continue
		}
		nm := b.g.MiniTile(n)
		if nm.AreaID <= 0 {
			continue
		}
		id := b.resolve(nm.AreaID)
		if first == 0 {
			first = id
		} else if id != first && second == 0 {
			second = id
		}
	}

	switch {
	case first == 0:
		b.nextID++
		t := &tempArea{id: b.nextID, top: p, highestAltitude: m.Altitude, bbMin: p, bbMax: p}
		b.temp[t.id] = t
		b.assign(t, p)
	case second == 0:
		t := b.temp[first]
		b.assign(t, p)
	default:
		smaller, bigger := orderBySize(b.temp[first], b.temp[second])
		if b.shouldMerge(m, smaller, bigger, p) {
			b.merge(smaller, bigger)
			b.assign(bigger, p)
		} else {
			target := b.alternate(smaller.id, bigger.id)
			b.assign(target, p)
			b.frontier = append(b.frontier, rawFrontier{a: smaller.id, b: bigger.id, pos: p})
		}
	}
}

func (t *tempArea) size() int { return len(t.minitiles) }

// orderBySize returns (smaller, bigger) by minitile count, ties broken by
// the lower temp id being the "smaller" of the pair (spec §4.5).
func orderBySize(a, c *tempArea) (smaller, bigger *tempArea) {
	switch {
	case a.size() < c.size():
		return a, c
	case c.size() < a.size():
		return c, a
	case a.id < c.id:
		return a, c
	default:
		return c, a
	}
}

func (b *builder) shouldMerge(m *tile.MiniTile, smaller, bigger *tempArea, p position.WalkPosition) bool {
	if smaller.size() < b.opts.MinMergeSize {
		return true
	}
	if smaller.highestAltitude < b.opts.MinMergeAltitude {
		return true
	}
	if bigger.highestAltitude > 0 && float64(m.Altitude)/float64(bigger.highestAltitude) >= b.opts.MergeAltitudeRatio {
		return true
	}
	if smaller.highestAltitude > 0 && float64(m.Altitude)/float64(smaller.highestAltitude) >= b.opts.MergeAltitudeRatio {
		return true
	}
	pp := p.ToPosition()
	for _, s := range b.starts {
		center := s.ToPosition().Add(position.Position{
			X: b.opts.StartLocationOffsetX * position.PixelsPerTile,
			Y: b.opts.StartLocationOffsetY * position.PixelsPerTile,
		})
		if pp.Dist2(center) <= int64(b.opts.StartLocationRadius*position.PixelsPerTile)*int64(b.opts.StartLocationRadius*position.PixelsPerTile) {
			return true
		}
	}
	return false
}

func (b *builder) alternate(a, c int16) *tempArea {
	key := [2]int16{a, c}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}
	n := b.altCounter[key]
	b.altCounter[key] = n + 1
	if n%2 == 0 {
		return b.temp[key[0]]
	}
	return b.temp[key[1]]
}

func (b *builder) assign(t *tempArea, p position.WalkPosition) {
	t.minitiles = append(t.minitiles, p)
	b.g.MiniTile(p).AreaID = t.id
	if p.X < t.bbMin.X {
		t.bbMin.X = p.X
	}
	if p.Y < t.bbMin.Y {
		t.bbMin.Y = p.Y
	}
	if p.X > t.bbMax.X {
		t.bbMax.X = p.X
	}
	if p.Y > t.bbMax.Y {
		t.bbMax.Y = p.Y
	}
}

func (b *builder) merge(smaller, bigger *tempArea) {
	for _, p := range smaller.minitiles {
		b.g.MiniTile(p).AreaID = bigger.id
	}
	bigger.minitiles = append(bigger.minitiles, smaller.minitiles...)
	if smaller.highestAltitude > bigger.highestAltitude {
		bigger.highestAltitude = smaller.highestAltitude
		bigger.top = smaller.top
	}
	if smaller.bbMin.X < bigger.bbMin.X {
		bigger.bbMin.X = smaller.bbMin.X
	}
	if smaller.bbMin.Y < bigger.bbMin.Y {
		bigger.bbMin.Y = smaller.bbMin.Y
	}
	if smaller.bbMax.X > bigger.bbMax.X {
		bigger.bbMax.X = smaller.bbMax.X
	}
	if smaller.bbMax.Y > bigger.bbMax.Y {
		bigger.bbMax.Y = smaller.bbMax.Y
	}
	smaller.minitiles = nil
	smaller.dead = true
	smaller.redirect = bigger.id
}

func (b *builder) finish() Result {
	// Discard frontier entries whose two ids collapsed via later merges.
	type pairPos struct {
		a, bID int16
		pos    position.WalkPosition
	}
	var dedup []pairPos
	for _, f := range b.frontier {
		a, c := b.resolve(f.a), b.resolve(f.b)
		if a == c {
			continue
		}
		dedup = append(dedup, pairPos{a, c, f.pos})
	}

	// Renumber: alive temp areas with enough size become real areas
	// (ids 1..N in temp-id order); the rest become fragments (-2, -3, ...).
	var aliveIDs []int16
	for id, t := range b.temp {
		if !t.dead {
			aliveIDs = append(aliveIDs, id)
		}
	}
	sort.Slice(aliveIDs, func(i, j int) bool { return aliveIDs[i] < aliveIDs[j] })

	finalID := make(map[int16]int16, len(aliveIDs))
	nextReal, nextFragment := int16(1), int16(-2)
	areas := make(map[int16]*Area)
	for _, id := range aliveIDs {
		t := b.temp[id]
		if len(t.minitiles) >= b.opts.MinAreaSize {
			finalID[id] = nextReal
			areas[nextReal] = &Area{
				ID: nextReal, Top: t.top, MaxAltitude: t.highestAltitude,
				TotalMiniTiles: len(t.minitiles),
				BoundingBoxMin: t.bbMin, BoundingBoxMax: t.bbMax,
				ChokePointsByNeighbour: make(map[int16][]int),
				AccessibleNeighbours:   make(map[int16]bool),
			}
			nextReal++
		} else {
			finalID[id] = nextFragment
			nextFragment--
		}
	}

	for _, id := range aliveIDs {
		t := b.temp[id]
		final := finalID[id]
		for _, p := range t.minitiles {
			b.g.MiniTile(p).AreaID = final
		}
	}

	var frontier []FrontierEntry
	for _, f := range dedup {
		frontier = append(frontier, FrontierEntry{AreaA: finalID[f.a], AreaB: finalID[f.bID], Pos: f.pos})
	}

	return Result{Areas: areas, Frontier: frontier}
}

// PopulateTileCounts fills in BuildableTiles/HighGroundTiles/
// VeryHighGroundTiles from the tile grid's per-tile aggregate area id.
// Call after tile.Grid.RecomputeAllTileAggregates.
func PopulateTileCounts(areas map[int16]*Area, g *tile.Grid) {
	g.Tiles(func(_ position.TilePosition, t *tile.Tile) {
		a, ok := areas[t.AreaID]
		if !ok {
			return
		}
		if t.Buildable {
			a.BuildableTiles++
		}
		switch t.GroundHeight {
		case tile.High:
			a.HighGroundTiles++
		case tile.VeryHigh:
			a.VeryHighGroundTiles++
		}
	})
}
