package base

import (
	"testing"

	"github.com/chippydip/bwem-go/area"
	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

func openGrid(tw, th int32) *tile.Grid {
	return tile.NewGrid(tw, th,
		func(x, y int32) bool { return true },
		func(x, y int32) bool { return true },
		func(x, y int32) int32 { return 0 },
	)
}

// wholeGridArea stamps every tile with id and returns an Area covering the
// grid's full walk-space bounding box.
func wholeGridArea(g *tile.Grid, id int16) *area.Area {
	g.Tiles(func(_ position.TilePosition, t *tile.Tile) { t.AreaID = id })
	return &area.Area{
		ID:             id,
		BoundingBoxMin: position.WalkPosition{X: 0, Y: 0},
		BoundingBoxMax: position.WalkPosition{X: g.WalkWidth - 1, Y: g.WalkHeight - 1},
	}
}

func addMineral(g *tile.Grid, id int64, tl position.TilePosition, amount int32) *neutral.Neutral {
	n := g.Neutrals.Add(id, "Resource_Mineral_Field", tl, position.TilePosition{X: 1, Y: 1}, amount)
	g.Tile(n.TopLeft).Neutral = n
	return n
}

func addGeyser(g *tile.Grid, id int64, tl position.TilePosition, amount int32) *neutral.Neutral {
	n := g.Neutrals.Add(id, "Resource_Vespene_Geyser", tl, position.TilePosition{X: 4, Y: 2}, amount)
	g.Tile(n.TopLeft).Neutral = n
	return n
}

func TestPlaceCreatesOneBaseNearASingleMineral(t *testing.T) {
	g := openGrid(20, 20)
	m := addMineral(g, 1, position.TilePosition{X: 10, Y: 10}, 1500)
	a := wholeGridArea(g, 1)
	a.Minerals = []*neutral.Neutral{m}
	areas := map[int16]*area.Area{1: a}

	bases := Place(g, areas, DefaultOptions())
	if len(bases) != 1 {
		t.Fatalf("expected one base, got %d", len(bases))
	}
	b := bases[0]
	if b.AreaID != 1 {
		t.Errorf("base area = %d, want 1", b.AreaID)
	}
	if len(b.Minerals) != 1 || b.Minerals[0] != m {
		t.Errorf("base should be assigned the mineral, got %+v", b.Minerals)
	}
	if len(a.Bases) != 1 || a.Bases[0] != 0 {
		t.Errorf("area should record base index 0, got %v", a.Bases)
	}
}

func TestPlaceSkipsMineralBelowMinimumAmount(t *testing.T) {
	g := openGrid(20, 20)
	m := addMineral(g, 1, position.TilePosition{X: 10, Y: 10}, 10) // below MinMineralAmount(40)
	a := wholeGridArea(g, 1)
	a.Minerals = []*neutral.Neutral{m}
	areas := map[int16]*area.Area{1: a}

	bases := Place(g, areas, DefaultOptions())
	if len(bases) != 0 {
		t.Fatalf("a below-threshold mineral should not seed any base, got %d bases", len(bases))
	}
}

func TestPlaceSkipsBlockingMineral(t *testing.T) {
	g := openGrid(20, 20)
	m := addMineral(g, 1, position.TilePosition{X: 10, Y: 10}, 1500)
	m.Blocking = true
	a := wholeGridArea(g, 1)
	a.Minerals = []*neutral.Neutral{m}
	areas := map[int16]*area.Area{1: a}

	bases := Place(g, areas, DefaultOptions())
	if len(bases) != 0 {
		t.Fatalf("a blocking mineral should not seed a base, got %d bases", len(bases))
	}
}

func TestRemainingResourcesFiltersByKindAndThreshold(t *testing.T) {
	g := openGrid(10, 10)
	opts := DefaultOptions()
	okMineral := addMineral(g, 1, position.TilePosition{X: 1, Y: 1}, 100)
	lowMineral := addMineral(g, 2, position.TilePosition{X: 3, Y: 1}, 5)
	geyser := g.Neutrals.Add(3, "Resource_Vespene_Geyser", position.TilePosition{X: 5, Y: 1}, position.TilePosition{X: 4, Y: 2}, 5000)

	a := &area.Area{ID: 1, Minerals: []*neutral.Neutral{okMineral, lowMineral}, Geysers: []*neutral.Neutral{geyser}}
	out := remainingResources(a, opts)

	if len(out) != 2 {
		t.Fatalf("expected 2 eligible resources, got %d", len(out))
	}
	for _, r := range out {
		if r == lowMineral {
			t.Fatalf("mineral below MinMineralAmount should be excluded")
		}
	}
}

func TestBuildFieldForbidsSevenBySevenAroundResource(t *testing.T) {
	g := openGrid(20, 20)
	opts := DefaultOptions()
	m := addMineral(g, 1, position.TilePosition{X: 10, Y: 10}, 1500)

	f := buildField(g, &area.Area{ID: 1}, []*neutral.Neutral{m}, opts)
	if v := f.get(position.TilePosition{X: 10, Y: 10}); v != -1 {
		t.Errorf("resource tile itself should be forbidden (-1), got %d", v)
	}
	if v := f.get(position.TilePosition{X: 12, Y: 10}); v != -1 {
		t.Errorf("tile within the 7x7 halo should be forbidden (-1), got %d", v)
	}
	if v := f.get(position.TilePosition{X: 10, Y: 15}); v <= 0 {
		t.Errorf("tile outside the halo but within field range should score positive, got %d", v)
	}
}

// TestBuildFieldForbidsHaloAroundGeyserFootprint covers a 4x2 geyser, whose
// far edge sits 3 tiles past its top-left in X and 1 in Y. The forbidden
// zone must expand off the whole footprint (expandFootprint), not just a
// fixed 7x7 box centered on TopLeft, or tiles past the geyser's far edge
// stay wrongly scoreable.
func TestBuildFieldForbidsHaloAroundGeyserFootprint(t *testing.T) {
	g := openGrid(30, 30)
	opts := DefaultOptions()
	gy := addGeyser(g, 1, position.TilePosition{X: 10, Y: 10}, 5000)

	f := buildField(g, &area.Area{ID: 1}, []*neutral.Neutral{gy}, opts)

	// Footprint spans x:[10,13] y:[10,11]; HaloExtraTiles(3) off the far
	// edge reaches x=16 (13+3) and y=14 (11+3).
	if v := f.get(position.TilePosition{X: 16, Y: 10}); v != -1 {
		t.Errorf("tile 3 past the geyser's right edge should be forbidden (-1), got %d", v)
	}
	if v := f.get(position.TilePosition{X: 10, Y: 14}); v != -1 {
		t.Errorf("tile 3 past the geyser's bottom edge should be forbidden (-1), got %d", v)
	}
	if v := f.get(position.TilePosition{X: 7, Y: 10}); v != -1 {
		t.Errorf("tile 3 before the geyser's left edge should be forbidden (-1), got %d", v)
	}
	if v := f.get(position.TilePosition{X: 20, Y: 10}); v <= 0 {
		t.Errorf("tile well outside the geyser's halo should score positive, got %d", v)
	}
}

func TestScoreRejectsNonBuildableAndOffArea(t *testing.T) {
	g := tile.NewGrid(10, 10,
		func(x, y int32) bool { return true },
		func(x, y int32) bool { return true },
		func(x, y int32) int32 { return 0 },
	)
	g.Tiles(func(_ position.TilePosition, t *tile.Tile) { t.AreaID = 1 })
	a := &area.Area{ID: 1}
	f := newField()
	f.set(position.TilePosition{X: 2, Y: 2}, 5)
	f.set(position.TilePosition{X: 3, Y: 2}, 5)
	f.set(position.TilePosition{X: 4, Y: 2}, 5)
	f.set(position.TilePosition{X: 2, Y: 3}, 5)
	f.set(position.TilePosition{X: 3, Y: 3}, 5)
	f.set(position.TilePosition{X: 4, Y: 3}, 5)

	if s := score(g, a, f, position.TilePosition{X: 2, Y: 2}, DefaultOptions()); s <= 0 {
		t.Fatalf("expected a positive score on buildable in-area tiles, got %d", s)
	}

	g.Tile(position.TilePosition{X: 3, Y: 2}).Buildable = false
	if s := score(g, a, f, position.TilePosition{X: 2, Y: 2}, DefaultOptions()); s != -1 {
		t.Fatalf("a non-buildable sub-tile should reject the candidate, got %d", s)
	}

	g.Tile(position.TilePosition{X: 3, Y: 2}).Buildable = true
	g.Tile(position.TilePosition{X: 3, Y: 2}).AreaID = 2
	if s := score(g, a, f, position.TilePosition{X: 2, Y: 2}, DefaultOptions()); s != -1 {
		t.Fatalf("a sub-tile belonging to another area should reject the candidate, got %d", s)
	}
}

func TestValidateRejectsGeyserInHalo(t *testing.T) {
	g := openGrid(20, 20)
	g.Neutrals.Add(1, "Resource_Vespene_Geyser", position.TilePosition{X: 5, Y: 5}, position.TilePosition{X: 4, Y: 2}, 5000)

	_, ok := validate(g, nil, position.TilePosition{X: 2, Y: 2}, DefaultOptions())
	if ok {
		t.Fatalf("a candidate whose halo overlaps a geyser should be rejected")
	}
}

func TestValidateFlagsLowMineralAsBlocking(t *testing.T) {
	g := openGrid(20, 20)
	low := addMineral(g, 1, position.TilePosition{X: 4, Y: 2}, 5) // <= HaloMineralThreshold(8)

	blocking, ok := validate(g, nil, position.TilePosition{X: 2, Y: 2}, DefaultOptions())
	if !ok {
		t.Fatalf("a low-amount mineral in the halo should not reject the candidate")
	}
	if len(blocking) != 1 || blocking[0] != low {
		t.Fatalf("the low-amount mineral should be reported as blocking, got %+v", blocking)
	}
}

func TestValidateRejectsHighMineralInHalo(t *testing.T) {
	g := openGrid(20, 20)
	addMineral(g, 1, position.TilePosition{X: 4, Y: 2}, 500) // > HaloMineralThreshold(8)

	_, ok := validate(g, nil, position.TilePosition{X: 2, Y: 2}, DefaultOptions())
	if ok {
		t.Fatalf("a high-amount mineral in the halo should reject the candidate")
	}
}

func TestValidateRejectsTooCloseToExistingBase(t *testing.T) {
	g := openGrid(20, 20)
	existing := []*Base{{Location: position.TilePosition{X: 0, Y: 0}}}

	_, ok := validate(g, existing, position.TilePosition{X: 1, Y: 1}, DefaultOptions())
	if ok {
		t.Fatalf("a candidate within MinBaseSpacingTiles of an existing base should be rejected")
	}
}

func TestValidateSpacingUsesRoundedEuclideanNotQueenWise(t *testing.T) {
	g := openGrid(20, 20)
	// Chebyshev distance is 7 (would reject), but rounded-Euclidean
	// distance is sqrt(98) ~= 9.9, rounded to 10 (>= MinBaseSpacingTiles,
	// so not rejected). Distinguishes roundedDist from QueenWiseDistanceT.
	existing := []*Base{{Location: position.TilePosition{X: 0, Y: 0}}}

	_, ok := validate(g, existing, position.TilePosition{X: 7, Y: 7}, DefaultOptions())
	if !ok {
		t.Fatalf("rounded-Euclidean spacing of 10 tiles should not be rejected by a 10-tile minimum")
	}
}

func TestAssignRadiusAcceptsWithinTenTilesRejectsBeyond(t *testing.T) {
	opts := DefaultOptions()
	near := &neutral.Neutral{TopLeft: position.TilePosition{X: 5, Y: 0}, Size: position.TilePosition{X: 1, Y: 1}}
	far := &neutral.Neutral{TopLeft: position.TilePosition{X: 30, Y: 0}, Size: position.TilePosition{X: 1, Y: 1}}
	loc := position.TilePosition{X: 0, Y: 0} // 3x2 CC footprint

	if !assignRadius(loc, near, opts) {
		t.Errorf("a resource a few tiles from the CC footprint should be assigned")
	}
	if assignRadius(loc, far, opts) {
		t.Errorf("a resource far from the CC footprint should not be assigned")
	}
}

func TestTileGap(t *testing.T) {
	if got := tileGap(0, 2, 5, 7); got != 3 {
		t.Errorf("tileGap(0,2,5,7) = %d, want 3", got)
	}
	if got := tileGap(5, 7, 0, 2); got != 3 {
		t.Errorf("tileGap(5,7,0,2) = %d, want 3", got)
	}
	if got := tileGap(0, 5, 3, 8); got != 0 {
		t.Errorf("overlapping ranges should have zero gap, got %d", got)
	}
}

func TestOverlapsBox(t *testing.T) {
	n := &neutral.Neutral{TopLeft: position.TilePosition{X: 5, Y: 5}, Size: position.TilePosition{X: 2, Y: 2}}
	if !overlapsBox(n, position.TilePosition{X: 6, Y: 6}, position.TilePosition{X: 10, Y: 10}) {
		t.Errorf("boxes sharing tile (6,6) should overlap")
	}
	if overlapsBox(n, position.TilePosition{X: 10, Y: 10}, position.TilePosition{X: 20, Y: 20}) {
		t.Errorf("disjoint boxes should not overlap")
	}
}
