package choke

import (
	"testing"

	"github.com/chippydip/bwem-go/area"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

// splitGrid builds a tw x th walkable grid whose minitiles are stamped
// area 1 for x < half and area 2 for x >= half, with two matching Area
// records ready for choke.Extract/BuildDistances.
func splitGrid(tw, th int32) (*tile.Grid, map[int16]*area.Area) {
	g := tile.NewGrid(tw, th,
		func(x, y int32) bool { return true },
		func(x, y int32) bool { return true },
		func(x, y int32) int32 { return 0 },
	)
	half := g.WalkWidth / 2
	g.MiniTiles(func(w position.WalkPosition, m *tile.MiniTile) {
		if w.X < half {
			m.AreaID = 1
		} else {
			m.AreaID = 2
		}
	})
	areas := map[int16]*area.Area{
		1: {ID: 1, ChokePointsByNeighbour: make(map[int16][]int), AccessibleNeighbours: make(map[int16]bool)},
		2: {ID: 2, ChokePointsByNeighbour: make(map[int16][]int), AccessibleNeighbours: make(map[int16]bool)},
	}
	return g, areas
}

func TestExtractClustersFrontierIntoOneChokePoint(t *testing.T) {
	g, areas := splitGrid(8, 8)
	half := g.WalkWidth / 2
	var frontier []area.FrontierEntry
	for y := int32(6); y <= 9; y++ {
		frontier = append(frontier, area.FrontierEntry{AreaA: 1, AreaB: 2, Pos: position.WalkPosition{X: half, Y: y}})
	}

	points := Extract(g, areas, frontier, DefaultOptions())
	if len(points) != 1 {
		t.Fatalf("expected one chokepoint from a tight cluster, got %d", len(points))
	}
	cp := points[0]
	if cp.Areas != [2]int16{1, 2} {
		t.Fatalf("chokepoint areas = %v, want [1 2]", cp.Areas)
	}
	if cp.Blocked {
		t.Fatalf("a frontier-derived chokepoint should not start blocked")
	}
	if len(areas[1].ChokePointsByNeighbour[2]) != 1 || areas[1].ChokePointsByNeighbour[2][0] != cp.Index {
		t.Fatalf("area 1 should record the chokepoint under neighbour 2")
	}
	if len(areas[2].ChokePointsByNeighbour[1]) != 1 || areas[2].ChokePointsByNeighbour[1][0] != cp.Index {
		t.Fatalf("area 2 should record the chokepoint under neighbour 1")
	}
}

func TestExtractSplitsFarApartFrontierIntoTwoChokePoints(t *testing.T) {
	g, areas := splitGrid(8, 32)
	half := g.WalkWidth / 2
	var frontier []area.FrontierEntry
	for y := int32(6); y <= 9; y++ {
		frontier = append(frontier, area.FrontierEntry{AreaA: 1, AreaB: 2, Pos: position.WalkPosition{X: half, Y: y}})
	}
	for y := int32(100); y <= 103; y++ {
		frontier = append(frontier, area.FrontierEntry{AreaA: 1, AreaB: 2, Pos: position.WalkPosition{X: half, Y: y}})
	}

	points := Extract(g, areas, frontier, DefaultOptions())
	if len(points) != 2 {
		t.Fatalf("expected two chokepoints from two far-apart clusters, got %d", len(points))
	}
}

func TestClusterBucketSplitsBeyondThreshold(t *testing.T) {
	positions := []position.WalkPosition{
		{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2},
		{X: 0, Y: 50},
	}
	clusters := clusterBucket(positions, 17)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if len(clusters[0]) != 3 || len(clusters[1]) != 1 {
		t.Fatalf("unexpected cluster sizes: %v", clusters)
	}
}

func TestBuildDistancesInvariants(t *testing.T) {
	g, areas := splitGrid(8, 32)
	half := g.WalkWidth / 2
	var frontier []area.FrontierEntry
	for y := int32(6); y <= 9; y++ {
		frontier = append(frontier, area.FrontierEntry{AreaA: 1, AreaB: 2, Pos: position.WalkPosition{X: half, Y: y}})
	}
	for y := int32(100); y <= 103; y++ {
		frontier = append(frontier, area.FrontierEntry{AreaA: 1, AreaB: 2, Pos: position.WalkPosition{X: half, Y: y}})
	}
	points := Extract(g, areas, frontier, DefaultOptions())
	if len(points) != 2 {
		t.Fatalf("setup failure: expected 2 chokepoints, got %d", len(points))
	}

	graph := BuildDistances(g, areas, points)

	for i := range points {
		if graph.Distance[i][i] != 0 {
			t.Errorf("distance(%d,%d) = %d, want 0", i, i, graph.Distance[i][i])
		}
	}
	for i := range points {
		for j := range points {
			if graph.Distance[i][j] != graph.Distance[j][i] {
				t.Errorf("distance(%d,%d)=%d != distance(%d,%d)=%d", i, j, graph.Distance[i][j], j, i, graph.Distance[j][i])
			}
		}
	}
	if graph.Distance[0][1] < 0 {
		t.Fatalf("chokepoints sharing both areas should be connected, got distance %d", graph.Distance[0][1])
	}

	fwd, back := graph.Path[0][1], graph.Path[1][0]
	if len(fwd) != len(back) {
		t.Fatalf("path(0,1) and path(1,0) should have equal length, got %d and %d", len(fwd), len(back))
	}
	for i := range fwd {
		if fwd[i] != back[len(back)-1-i] {
			t.Fatalf("path(1,0) should be the reverse of path(0,1): %v vs %v", fwd, back)
		}
	}

	if !areas[1].AccessibleNeighbours[2] || !areas[2].AccessibleNeighbours[1] {
		t.Fatalf("both areas should list each other as accessible via the unblocked chokepoints")
	}
	if areas[1].GroupID != areas[2].GroupID {
		t.Fatalf("mutually accessible areas should share a GroupID, got %d and %d", areas[1].GroupID, areas[2].GroupID)
	}
}

func TestBuildDistancesIsolatedAreaGetsOwnGroup(t *testing.T) {
	g, areas := splitGrid(8, 8)
	areas[3] = &area.Area{ID: 3, ChokePointsByNeighbour: make(map[int16][]int), AccessibleNeighbours: make(map[int16]bool)}

	half := g.WalkWidth / 2
	var frontier []area.FrontierEntry
	for y := int32(6); y <= 9; y++ {
		frontier = append(frontier, area.FrontierEntry{AreaA: 1, AreaB: 2, Pos: position.WalkPosition{X: half, Y: y}})
	}
	points := Extract(g, areas, frontier, DefaultOptions())
	BuildDistances(g, areas, points)

	if areas[3].GroupID == areas[1].GroupID {
		t.Fatalf("an area with no chokepoints should not share a group with area 1")
	}
}
