// Package bwmap wires the grid, neutral, terrain, block, area, choke and
// base packages together into the single-pass analysis pipeline of
// spec.md §2, and exposes the read-only query façade and the narrow
// blocking-neutral-destroyed update hook of §4.9.
package bwmap

import (
	"errors"
	"log"
	"math"
	"sort"

	"github.com/chippydip/bwem-go/area"
	"github.com/chippydip/bwem-go/base"
	"github.com/chippydip/bwem-go/block"
	"github.com/chippydip/bwem-go/choke"
	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/terrain"
	"github.com/chippydip/bwem-go/tile"
)

// ErrUninitialized is returned by every query method on a zero-value or
// not-yet-Initialized Map (spec §7 error kind 4).
var ErrUninitialized = errors.New("bwmap: map not initialized")

// NeutralInput is one raw neutral descriptor from the external snapshot
// (spec §6).
type NeutralInput struct {
	ID            int64
	UnitType      neutral.UnitType
	TopLeft, Size position.TilePosition
	InitialAmount int32
}

// Input is the immutable raw snapshot consumed once at Initialize (spec §6).
type Input struct {
	TileWidth, TileHeight int32
	IsWalkable            tile.WalkabilityFunc
	IsBuildable           tile.BuildabilityFunc
	GroundHeight          tile.GroundHeightFunc
	StartLocations        []position.TilePosition
	Neutrals              []NeutralInput
}

// Options bundles every sub-package's tunable constants, plus the
// automatic-path-update policy of spec §4.9.
type Options struct {
	Terrain        terrain.Options
	Block          block.Options
	Area           area.Options
	Choke          choke.Options
	Base           base.Options
	AutoPathUpdate bool
}

// DefaultOptions returns the literal constants named throughout spec.md.
func DefaultOptions() Options {
	return Options{
		Terrain: terrain.DefaultOptions(),
		Block:   block.DefaultOptions(),
		Area:    area.DefaultOptions(),
		Choke:   choke.DefaultOptions(),
		Base:    base.DefaultOptions(),
	}
}

// Map is the finished decomposition: grid, areas, chokepoints and bases,
// all created during Initialize and never moved afterward (spec §3's
// Lifecycle paragraph).
type Map struct {
	initialized bool
	opts        Options

	grid  *tile.Grid
	areas map[int16]*area.Area

	chokePoints []*choke.ChokePoint
	graph       choke.Graph

	bases []*base.Base

	startingBaseFailed bool
}

// Initialize runs the full one-shot pipeline of spec §2 and returns the
// finished Map.
func Initialize(in Input, opts Options) *Map {
	g := tile.NewGrid(in.TileWidth, in.TileHeight, in.IsWalkable, in.IsBuildable, in.GroundHeight)
	g.StartLocations = in.StartLocations

	for _, n := range in.Neutrals {
		g.Neutrals.Add(n.ID, n.UnitType, n.TopLeft, n.Size, n.InitialAmount)
	}
	stampNeutralTiles(g)

	terrain.ClassifySeaLake(g, opts.Terrain)
	terrain.ComputeAltitude(g)

	block.Detect(g, opts.Block)

	result := area.Build(g, in.StartLocations, opts.Area)
	g.RecomputeAllTileAggregates()
	area.PopulateTileCounts(result.Areas, g)
	assignResourcesToAreas(g, result.Areas)

	points := choke.Extract(g, result.Areas, result.Frontier, opts.Choke)
	graph := choke.BuildDistances(g, result.Areas, points)

	bases := base.Place(g, result.Areas, opts.Base)

	m := &Map{
		initialized: true,
		opts:        opts,
		grid:        g,
		areas:       result.Areas,
		chokePoints: points,
		graph:       graph,
		bases:       bases,
	}
	m.startingBaseFailed = !m.findBasesForStartingLocations()
	return m
}

func stampNeutralTiles(g *tile.Grid) {
	for _, n := range g.Neutrals.Bottoms() {
		for _, t := range n.Footprint() {
			if g.InTileBounds(t) {
				g.Tile(t).Neutral = n
			}
		}
	}
}

// assignResourcesToAreas attaches each resource neutral to the area
// owning its top-left tile, once tile aggregates are known.
func assignResourcesToAreas(g *tile.Grid, areas map[int16]*area.Area) {
	for _, n := range g.Neutrals.Bottoms() {
		if !n.IsResource() {
			continue
		}
		id := g.Tile(n.TopLeft).AreaID
		a, ok := areas[id]
		if !ok {
			continue
		}
		if n.Kind == neutral.Geyser {
			a.Geysers = append(a.Geysers, n)
		} else {
			a.Minerals = append(a.Minerals, n)
		}
	}
}

func (m *Map) requireInit() error {
	if m == nil || !m.initialized {
		return ErrUninitialized
	}
	return nil
}

// GetTile returns the tile at t (spec §4.9's getTile).
func (m *Map) GetTile(t position.TilePosition) (*tile.Tile, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	if !m.grid.InTileBounds(t) {
		return nil, errors.New("bwmap: tile position out of bounds")
	}
	return m.grid.Tile(t), nil
}

// GetMiniTile returns the minitile at w.
func (m *Map) GetMiniTile(w position.WalkPosition) (*tile.MiniTile, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	if !m.grid.InWalkBounds(w) {
		return nil, errors.New("bwmap: walk position out of bounds")
	}
	return m.grid.MiniTile(w), nil
}

// GetArea returns the area with the given id.
func (m *Map) GetArea(id int16) (*area.Area, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	a, ok := m.areas[id]
	if !ok {
		return nil, errors.New("bwmap: no such area")
	}
	return a, nil
}

// GetAreaAt returns the area (if any) owning the minitile at w.
func (m *Map) GetAreaAt(w position.WalkPosition) (*area.Area, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	if !m.grid.InWalkBounds(w) {
		return nil, errors.New("bwmap: walk position out of bounds")
	}
	id := m.grid.MiniTile(w).AreaID
	if id <= 0 {
		return nil, nil
	}
	return m.areas[id], nil
}

// GetNearestArea BFS's outward from w over minitiles until it finds one
// with areaId > 0 (spec §4.9's getNearestArea).
func (m *Map) GetNearestArea(w position.WalkPosition) (*area.Area, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	if !m.grid.InWalkBounds(w) {
		return nil, errors.New("bwmap: walk position out of bounds")
	}
	if id := m.grid.MiniTile(w).AreaID; id > 0 {
		return m.areas[id], nil
	}

	visited := make(map[position.WalkPosition]bool)
	queue := []position.WalkPosition{w}
	visited[w] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range position.Neighbours8 {
			n := cur.Add(d)
			if !m.grid.InWalkBounds(n) || visited[n] {
				continue
			}
			visited[n] = true
			if id := m.grid.MiniTile(n).AreaID; id > 0 {
				return m.areas[id], nil
			}
			queue = append(queue, n)
		}
	}
	return nil, nil
}

// Bases returns every base created during Initialize.
func (m *Map) Bases() ([]*base.Base, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	return m.bases, nil
}

// ChokePoints returns every chokepoint, real and pseudo, indexed by id.
func (m *Map) ChokePoints() ([]*choke.ChokePoint, error) {
	if err := m.requireInit(); err != nil {
		return nil, err
	}
	return m.chokePoints, nil
}

// Stats is a one-line health check over an initialized Map, grounded in
// the teacher's own debug dump minus the rendering it did into the
// running game.
type Stats struct {
	Areas, Fragments   int
	ChokePoints        int
	BlockedChokePoints int
	Bases              int
	StartingBases      int
	SeaMiniTiles       int
	LakeMiniTiles      int
}

// Stats returns aggregate counts describing the analyzed map, without
// walking the full area/chokepoint/base graphs a caller would otherwise
// need to traverse themselves.
func (m *Map) Stats() (Stats, error) {
	if err := m.requireInit(); err != nil {
		return Stats{}, err
	}
	var s Stats
	s.Areas = len(m.areas)
	s.ChokePoints = len(m.chokePoints)
	for _, cp := range m.chokePoints {
		if cp.Blocked {
			s.BlockedChokePoints++
		}
	}
	s.Bases = len(m.bases)
	for _, b := range m.bases {
		if b.Starting {
			s.StartingBases++
		}
	}
	fragments := make(map[int16]bool)
	m.grid.MiniTiles(func(_ position.WalkPosition, mt *tile.MiniTile) {
		switch {
		case mt.IsSea():
			s.SeaMiniTiles++
		case mt.IsLake():
			s.LakeMiniTiles++
		}
		if mt.AreaID < 0 && mt.AreaID != tile.AreaIDBlocked {
			fragments[mt.AreaID] = true
		}
	})
	s.Fragments = len(fragments)
	return s, nil
}

// findBasesForStartingLocations implements spec §4.9: attach each
// starting location to a base within queen-wise distance 3, promoting it
// to starting=true and overriding its location. Returns false if at
// least one starting location found no such base (spec §7 error kind 3).
func (m *Map) findBasesForStartingLocations() bool {
	ok := true
	for _, loc := range m.grid.StartLocations {
		var best *base.Base
		bestDist := int32(math.MaxInt32)
		for _, b := range m.bases {
			d := position.QueenWiseDistanceT(loc, b.Location)
			if d <= 3 && d < bestDist {
				best, bestDist = b, d
			}
		}
		if best == nil {
			log.Printf("bwmap: no base found for starting location %v", loc)
			ok = false
			continue
		}
		best.Starting = true
		best.Location = loc
	}
	return ok
}

// StartingBaseAssignmentFailed reports whether findBasesForStartingLocations
// failed to attach at least one starting location during Initialize.
func (m *Map) StartingBaseAssignmentFailed() bool { return m.startingBaseFailed }

const noPath = -1

// GetPath returns the chokepoint sequence and pixel length of the
// shortest route between a and b (spec §4.9's getPath / §7 error kind 5).
func (m *Map) GetPath(a, b position.Position) ([]*choke.ChokePoint, int32, error) {
	if err := m.requireInit(); err != nil {
		return nil, 0, err
	}

	areaA, _ := m.GetNearestArea(a.ToWalkPosition())
	areaB, _ := m.GetNearestArea(b.ToWalkPosition())
	if areaA == nil || areaB == nil {
		return nil, noPath, nil
	}
	if areaA.ID == areaB.ID {
		return nil, straightLinePixels(a, b), nil
	}

	cpsA := areaChokePoints(areaA, m.chokePoints)
	cpsB := areaChokePoints(areaB, m.chokePoints)

	best := int32(-1)
	var bestPath []int
	for _, cpA := range cpsA {
		for _, cpB := range cpsB {
			d := m.graph.Distance[cpA.Index][cpB.Index]
			if d < 0 {
				continue
			}
			startPix := cpA.Nodes[choke.Middle].ToPosition()
			endPix := cpB.Nodes[choke.Middle].ToPosition()
			total := straightLinePixels(a, startPix) + d + straightLinePixels(endPix, b)
			if best < 0 || total < best {
				best = total
				bestPath = m.graph.Path[cpA.Index][cpB.Index]
			}
		}
	}
	if best < 0 {
		return nil, noPath, nil
	}

	out := make([]*choke.ChokePoint, len(bestPath))
	for i, idx := range bestPath {
		out[i] = m.chokePoints[idx]
	}
	return out, best, nil
}

func straightLinePixels(a, b position.Position) int32 {
	return int32(position.RoundHalfUp(math.Sqrt(float64(a.Dist2(b)))))
}

func areaChokePoints(a *area.Area, points []*choke.ChokePoint) []*choke.ChokePoint {
	seen := make(map[int]bool)
	var out []*choke.ChokePoint
	for _, idxs := range a.ChokePointsByNeighbour {
		for _, i := range idxs {
			if !seen[i] {
				seen[i] = true
				out = append(out, points[i])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// OnMineralDestroyed drops n from every area's and base's resource lists.
// A mineral patch can itself be the blocking neutral of a chokepoint (§4.4),
// so a blocking one is handed off to OnBlockingNeutralDestroyed for the
// sentinel/chokepoint bookkeeping, mirroring OnStaticBuildingDestroyed.
func (m *Map) OnMineralDestroyed(n *neutral.Neutral) error {
	if err := m.requireInit(); err != nil {
		return err
	}
	for _, a := range m.areas {
		a.Minerals = removeNeutral(a.Minerals, n)
	}
	for _, b := range m.bases {
		b.Minerals = removeNeutral(b.Minerals, n)
		b.BlockingMinerals = removeNeutral(b.BlockingMinerals, n)
	}
	if n.Blocking {
		return m.OnBlockingNeutralDestroyed(n)
	}
	m.grid.Neutrals.Remove(n)
	return nil
}

// OnStaticBuildingDestroyed removes n from the neutral registry and
// clears the tile reference to it. A static building can itself be a
// blocking neutral (spec §4.4), so a blocking one is handed off to
// OnBlockingNeutralDestroyed for the sentinel/chokepoint bookkeeping
// instead of being removed twice.
func (m *Map) OnStaticBuildingDestroyed(n *neutral.Neutral) error {
	if err := m.requireInit(); err != nil {
		return err
	}
	for _, t := range n.Footprint() {
		if m.grid.InTileBounds(t) {
			tl := m.grid.Tile(t)
			if tl.Neutral == n {
				tl.Neutral = nil
			}
		}
	}
	if n.Blocking {
		return m.OnBlockingNeutralDestroyed(n)
	}
	m.grid.Neutrals.Remove(n)
	return nil
}

func removeNeutral(list []*neutral.Neutral, n *neutral.Neutral) []*neutral.Neutral {
	out := list[:0]
	for _, e := range list {
		if e != n {
			out = append(out, e)
		}
	}
	return out
}

// OnBlockingNeutralDestroyed implements spec §4.9: pop the neutral's
// stack, clear the blocked sentinel from its footprint, recompute the
// affected tiles' aggregates, flip every pseudo-chokepoint keyed to n
// from blocked to unblocked (or hand it off to the next stacked element),
// and, if AutoPathUpdate is on, re-run the distance/path computation.
func (m *Map) OnBlockingNeutralDestroyed(n *neutral.Neutral) error {
	if err := m.requireInit(); err != nil {
		return err
	}

	next := n.NextStacked
	if next != nil {
		next.Blocking = true
		next.BlockedAreas = n.BlockedAreas
	} else {
		// n.BlockedAreas holds the door positions outside n's footprint
		// (see block.Detect), not the footprint itself — the
		// tile.AreaIDBlocked sentinel is stamped on the footprint's own
		// minitiles, so that is what must be cleared here.
		for _, t := range n.Footprint() {
			base := t.ToWalkPosition()
			for dy := int32(0); dy < position.WalkTilesPerTile; dy++ {
				for dx := int32(0); dx < position.WalkTilesPerTile; dx++ {
					mw := position.WalkPosition{X: base.X + dx, Y: base.Y + dy}
					mt := m.grid.MiniTile(mw)
					if mt.AreaID == tile.AreaIDBlocked {
						mt.AreaID = tile.AreaIDNone
					}
				}
			}
			m.grid.RecomputeTileAggregate(t)
		}
	}

	for _, cp := range m.chokePoints {
		if cp.BlockingNeutral == n {
			if next != nil {
				cp.BlockingNeutral = next
			} else {
				cp.Blocked = false
				cp.BlockingNeutral = nil
			}
		}
	}

	m.grid.Neutrals.Remove(n)

	if m.opts.AutoPathUpdate {
		m.graph = choke.BuildDistances(m.grid, m.areas, m.chokePoints)
	}
	return nil
}
