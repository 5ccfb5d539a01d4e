package terrain

import (
	"math"
	"sort"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"

	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

// delta is one entry of the precomputed (offset, weight) table of spec §4.3.
type delta struct {
	dx, dy int32
	weight int32
}

// buildDeltaTable returns every (dx,dy) with 0 <= dy <= dx <= rng along
// with its rounded pixel weight, stably sorted ascending by weight.
// ComputeAltitude uses only buildDeltaTable(1), for the orthogonal and
// diagonal step weights of its Dijkstra edges; it walks the grid with a
// real priority queue, has no step budget and does not replay the table
// (see DESIGN.md).
func buildDeltaTable(rng int32) []delta {
	deltas := make([]delta, 0, (rng+1)*(rng+2)/2)
	for dx := int32(0); dx <= rng; dx++ {
		for dy := int32(0); dy <= dx; dy++ {
			w := position.RoundHalfUp(math.Sqrt(float64(dx*dx+dy*dy)) * 8)
			deltas = append(deltas, delta{dx, dy, int32(w)})
		}
	}
	sort.SliceStable(deltas, func(i, j int) bool { return deltas[i].weight < deltas[j].weight })
	return deltas
}

// stepWeight is the smallest non-zero entry of the delta table: the edge
// weight the Dijkstra below uses for an orthogonal grid step. diagWeight
// is the weight for a diagonal step. Both come straight out of the same
// table spec §4.3 defines, so a change to the rounding rule in
// position.RoundHalfUp is felt uniformly by area building downstream.
var stepWeight, diagWeight = deltaStepWeights()

func deltaStepWeights() (int32, int32) {
	table := buildDeltaTable(1)
	var orth, diag int32
	for _, d := range table {
		switch {
		case d.dx == 1 && d.dy == 0:
			orth = d.weight
		case d.dx == 1 && d.dy == 1:
			diag = d.weight
		}
	}
	return orth, diag
}

// ComputeAltitude assigns spec §4.3's altitude field: a multi-source
// Dijkstra over the 8-neighbour minitile grid, sourced at every sea
// minitile plus a virtual ring one cell outside the map, propagating
// through every non-sea minitile (lakes included — a lake is not a
// source, but it is a passable node, exactly like terrain). Ties are
// broken by a stable pop order out of the priority queue, mirroring the
// deterministic ordering spec.md's stable sort produces.
//
// Returns the map-wide maximum altitude.
func ComputeAltitude(g *tile.Grid) int16 {
	dist := make([]int32, g.WalkWidth*g.WalkHeight)
	for i := range dist {
		dist[i] = -1 // unvisited
	}
	idx := func(w position.WalkPosition) int32 { return w.Y*g.WalkWidth + w.X }

	// gods' binaryheap.NewWith sorts ascending with an IntComparator on
	// the (dist, sequence) key; ties are broken by insertion order (a
	// monotonically increasing sequence number) for determinism.
	type item struct {
		d, seq int32
		w      position.WalkPosition
	}
	seq := int32(0)
	pq := binaryheap.NewWith(func(a, b interface{}) int {
		ia, ib := a.(item), b.(item)
		if c := utils.Int32Comparator(ia.d, ib.d); c != 0 {
			return c
		}
		return utils.Int32Comparator(ia.seq, ib.seq)
	})

	push := func(w position.WalkPosition, d int32) {
		if cur := dist[idx(w)]; cur != -1 && cur <= d {
			return
		}
		dist[idx(w)] = d
		pq.Push(item{d, seq, w})
		seq++
	}

	// Sources: every sea minitile, at distance 0.
	g.MiniTiles(func(w position.WalkPosition, m *tile.MiniTile) {
		if m.IsSea() {
			dist[idx(w)] = 0
		}
	})
	// Seed the queue from cells adjacent to a sea source or to the
	// virtual ring just outside the map (spec §4.3).
	g.MiniTiles(func(w position.WalkPosition, m *tile.MiniTile) {
		if m.IsSea() {
			return
		}
		near := onEdge(g, w)
		for _, d := range position.Neighbours4 {
			n := w.Add(d)
			if g.InWalkBounds(n) && g.MiniTile(n).IsSea() {
				near = true
			}
		}
		if near {
			push(w, stepWeight)
		}
	})

	maxAlt := int32(0)
	for !pq.Empty() {
		v, _ := pq.Pop()
		it := v.(item)
		if it.d != dist[idx(it.w)] {
			continue // stale pop
		}
		m := g.MiniTile(it.w)
		if !m.IsSea() {
			m.Altitude = int16(it.d)
			if int32(it.d) > maxAlt {
				maxAlt = it.d
			}
		}

		for _, d := range position.Neighbours8 {
			n := it.w.Add(d)
			if !g.InWalkBounds(n) || g.MiniTile(n).IsSea() {
				continue
			}
			w := stepWeight
			if d.X != 0 && d.Y != 0 {
				w = diagWeight
			}
			push(n, it.d+w)
		}
	}

	return int16(maxAlt)
}

func onEdge(g *tile.Grid, w position.WalkPosition) bool {
	return w.X == 0 || w.Y == 0 || w.X == g.WalkWidth-1 || w.Y == g.WalkHeight-1
}
