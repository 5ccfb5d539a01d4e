package block

import (
	"testing"

	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/terrain"
	"github.com/chippydip/bwem-go/tile"
)

// corridorGrid builds a 16x8-tile plain split by a wall of static
// buildings at tx=8 leaving a single 1-tile-wide gap at ty=4, occupied by
// its own static building, so that building's outer border only reaches
// the open pockets on either side of the wall.
func corridorGrid(t *testing.T) (*tile.Grid, *neutral.Neutral) {
	t.Helper()
	g := tile.NewGrid(16, 8,
		func(x, y int32) bool { return true },
		func(x, y int32) bool { return true },
		func(x, y int32) int32 { return 0 },
	)
	terrain.ClassifySeaLake(g, terrain.DefaultOptions())
	terrain.ComputeAltitude(g)

	id := int64(1)
	for ty := int32(0); ty < 8; ty++ {
		if ty == 4 {
			continue
		}
		tl := position.TilePosition{X: 8, Y: ty}
		n := g.Neutrals.Add(id, "Special_Wall_Segment", tl, position.TilePosition{X: 1, Y: 1}, 0)
		id++
		for _, ftl := range n.Footprint() {
			g.Tile(ftl).Neutral = n
		}
		for dy := int32(0); dy < position.WalkTilesPerTile; dy++ {
			for dx := int32(0); dx < position.WalkTilesPerTile; dx++ {
				w := tl.ToWalkPosition()
				g.MiniTile(position.WalkPosition{X: w.X + dx, Y: w.Y + dy}).Walkable = false
			}
		}
	}
	// the gap neutral: a thin static building spanning the doorway tile,
	// so it is itself the blocking candidate under test.
	gapTL := position.TilePosition{X: 8, Y: 4}
	gap := g.Neutrals.Add(id, "Special_Zerg_Beacon", gapTL, position.TilePosition{X: 1, Y: 1}, 0)
	for _, ftl := range gap.Footprint() {
		g.Tile(ftl).Neutral = gap
	}
	return g, gap
}

func TestDetectMarksTwoDoorNeutralBlocking(t *testing.T) {
	g, gap := corridorGrid(t)
	Detect(g, DefaultOptions())

	if !gap.Blocking {
		t.Fatalf("neutral splitting the corridor into two pockets should be blocking")
	}
	if len(gap.BlockedAreas) == 0 {
		t.Fatalf("blocking neutral should record blocked-area walk positions")
	}

	footprintWalk := gap.TopLeft.ToWalkPosition()
	if g.MiniTile(footprintWalk).AreaID != tile.AreaIDBlocked {
		t.Fatalf("blocking neutral's footprint should be stamped with the blocked sentinel")
	}
}

func TestDetectLeavesOpenNeutralUnblocked(t *testing.T) {
	g := tile.NewGrid(8, 8,
		func(x, y int32) bool { return true },
		func(x, y int32) bool { return true },
		func(x, y int32) int32 { return 0 },
	)
	terrain.ClassifySeaLake(g, terrain.DefaultOptions())
	terrain.ComputeAltitude(g)

	n := g.Neutrals.Add(1, "Resource_Mineral_Field", position.TilePosition{X: 4, Y: 4}, position.TilePosition{X: 1, Y: 1}, 1500)
	g.Tile(n.TopLeft).Neutral = n

	Detect(g, DefaultOptions())
	if n.Blocking {
		t.Fatalf("an isolated neutral in open terrain should not be blocking")
	}
}
