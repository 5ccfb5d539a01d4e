// Package choke implements spec.md §4.6 (chokepoint extraction from area
// frontiers, plus pseudo-chokepoints at blocking neutrals) and §4.7 (the
// intra-area and inter-area Dijkstra passes that build the chokepoint
// distance and path matrices).
package choke

import (
	"sort"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"
	"github.com/zyedidia/generic/mapset"

	"github.com/chippydip/bwem-go/area"
	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

// Node names the three representative points of a chokepoint's geometry.
type Node int

const (
	End1 Node = iota
	Middle
	End2
)

// ChokePoint is a frontier between two neighbouring areas (spec §3).
type ChokePoint struct {
	Index int
	Areas [2]int16

	Geometry []position.WalkPosition // descending altitude, monotone along the frontier
	Nodes    [3]position.WalkPosition

	// PosInArea[node][areaID] is the nearest walkable minitile belonging
	// to areaID, found by BFS from Nodes[node].
	PosInArea [3]map[int16]position.WalkPosition

	Blocked         bool
	BlockingNeutral *neutral.Neutral // pseudo-chokepoints only

	pathBackTrace int // transient Dijkstra predecessor index, -1 if none
}

// OtherArea returns the area on the far side of a from cp.
func (cp *ChokePoint) OtherArea(a int16) int16 {
	if cp.Areas[0] == a {
		return cp.Areas[1]
	}
	return cp.Areas[0]
}

// Options carries spec §4.6's cluster distance threshold.
type Options struct {
	ClusterDistance int32 // floor(sqrt(300)) ~= 17
}

// DefaultOptions returns the literal constant from spec.md §4.6.
func DefaultOptions() Options {
	return Options{ClusterDistance: 17}
}

// Graph is the finished chokepoint set plus its distance/path matrices
// (spec §4.7). Chokepoint indices are dense, 0..len(Points)-1.
type Graph struct {
	Points   []*ChokePoint
	Distance [][]int32 // pixels; -1 if disconnected
	Path     [][][]int // chokepoint index lists
}

// Extract builds every real chokepoint from an area builder's raw
// frontier (clustered per spec §4.6), and one pseudo-chokepoint per
// unordered area pair separated by each blocking neutral. It also
// populates each Area's ChokePointsByNeighbour map.
func Extract(g *tile.Grid, areas map[int16]*area.Area, frontier []area.FrontierEntry, opts Options) []*ChokePoint {
	buckets := make(map[[2]int16][]position.WalkPosition)
	order := make([][2]int16, 0)
	for _, f := range frontier {
		key := pairKey(f.AreaA, f.AreaB)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], f.Pos)
	}

	var points []*ChokePoint
	for _, key := range order {
		for _, cluster := range clusterBucket(buckets[key], opts.ClusterDistance) {
			cp := buildChokePoint(g, key[0], key[1], cluster)
			points = append(points, cp)
		}
	}

	for _, n := range g.Neutrals.Bottoms() {
		if !n.Blocking {
			continue
		}
		for _, pair := range blockedAreaPairs(g, n) {
			pos := nearestWalkableFromCenter(g, n)
			cp := &ChokePoint{
				Areas:    pair,
				Geometry: []position.WalkPosition{pos},
				Nodes:    [3]position.WalkPosition{pos, pos, pos},
				PosInArea: [3]map[int16]position.WalkPosition{
					{pair[0]: bfsNearestInArea(g, pos, pair[0], true), pair[1]: bfsNearestInArea(g, pos, pair[1], true)},
					{pair[0]: bfsNearestInArea(g, pos, pair[0], true), pair[1]: bfsNearestInArea(g, pos, pair[1], true)},
					{pair[0]: bfsNearestInArea(g, pos, pair[0], true), pair[1]: bfsNearestInArea(g, pos, pair[1], true)},
				},
				Blocked:         true,
				BlockingNeutral: n,
			}
			points = append(points, cp)
		}
	}

	for i, cp := range points {
		cp.Index = i
		a1, a2 := areas[cp.Areas[0]], areas[cp.Areas[1]]
		if a1 != nil {
			a1.ChokePointsByNeighbour[cp.Areas[1]] = append(a1.ChokePointsByNeighbour[cp.Areas[1]], i)
		}
		if a2 != nil {
			a2.ChokePointsByNeighbour[cp.Areas[0]] = append(a2.ChokePointsByNeighbour[cp.Areas[0]], i)
		}
	}

	return points
}

func pairKey(a, b int16) [2]int16 {
	if a > b {
		a, b = b, a
	}
	return [2]int16{a, b}
}

// clusterBucket implements spec §4.6's clustering: attach a position to
// an existing cluster if its front or back endpoint is within threshold
// (Chebyshev distance); tie -> back. Otherwise start a new cluster.
func clusterBucket(positions []position.WalkPosition, threshold int32) [][]position.WalkPosition {
	var clusters [][]position.WalkPosition
	for _, p := range positions {
		best, bestBack := -1, true
		bestDist := threshold + 1
		for i, c := range clusters {
			front, back := c[0], c[len(c)-1]
			df, db := position.QueenWiseDistanceW(p, front), position.QueenWiseDistanceW(p, back)
			if df <= threshold && df <= bestDist {
				best, bestBack, bestDist = i, false, df
			}
			if db <= threshold && db <= bestDist {
				best, bestBack, bestDist = i, true, db
			}
		}
		if best < 0 {
			clusters = append(clusters, []position.WalkPosition{p})
			continue
		}
		if bestBack {
			clusters[best] = append(clusters[best], p)
		} else {
			clusters[best] = append([]position.WalkPosition{p}, clusters[best]...)
		}
	}
	return clusters
}

func buildChokePoint(g *tile.Grid, a, b int16, geometry []position.WalkPosition) *ChokePoint {
	cp := &ChokePoint{Areas: [2]int16{a, b}, Geometry: geometry}
	end1, end2 := geometry[0], geometry[len(geometry)-1]
	middleIdx := hillClimbMiddle(g, geometry)
	cp.Nodes = [3]position.WalkPosition{end1, geometry[middleIdx], end2}

	for node := 0; node < 3; node++ {
		cp.PosInArea[node] = map[int16]position.WalkPosition{
			a: bfsNearestInArea(g, cp.Nodes[node], a, false),
			b: bfsNearestInArea(g, cp.Nodes[node], b, false),
		}
	}
	return cp
}

// hillClimbMiddle starts at the cluster centre and walks toward higher
// altitude, in whichever direction increases it, until neither neighbour
// is higher (spec §4.6).
func hillClimbMiddle(g *tile.Grid, geometry []position.WalkPosition) int {
	i := len(geometry) / 2
	alt := func(idx int) int16 { return g.MiniTile(geometry[idx]).Altitude }

	dir := 0
	if i+1 < len(geometry) && alt(i+1) > alt(i) {
		dir = 1
	} else if i-1 >= 0 && alt(i-1) > alt(i) {
		dir = -1
	}
	if dir == 0 {
		return i
	}
	for {
		n := i + dir
		if n < 0 || n >= len(geometry) || alt(n) <= alt(i) {
			return i
		}
		i = n
	}
}

// bfsNearestInArea BFS's from start to the nearest walkable minitile
// whose tile has no neutral and whose area id equals areaID. When
// throughBlocked is true (pseudo-chokepoints), traversal may also pass
// through minitiles bearing the blocked sentinel.
func bfsNearestInArea(g *tile.Grid, start position.WalkPosition, areaID int16, throughBlocked bool) position.WalkPosition {
	visited := mapset.New[position.WalkPosition]()
	queue := []position.WalkPosition{start}
	visited.Put(start)
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		mt := g.MiniTile(w)
		if mt.Walkable && mt.AreaID == areaID && g.Tile(w.ToTilePosition()).Neutral == nil {
			return w
		}
		for _, d := range position.Neighbours4 {
			n := w.Add(d)
			if !g.InWalkBounds(n) || visited.Has(n) {
				continue
			}
			nm := g.MiniTile(n)
			if !nm.Walkable {
				continue
			}
			if nm.AreaID == tile.AreaIDBlocked && !throughBlocked {
				continue
			}
			visited.Put(n)
			queue = append(queue, n)
		}
	}
	return start
}

func nearestWalkableFromCenter(g *tile.Grid, n *neutral.Neutral) position.WalkPosition {
	base := n.TopLeft.ToWalkPosition()
	center := position.WalkPosition{
		X: base.X + n.Size.X*position.WalkTilesPerTile/2,
		Y: base.Y + n.Size.Y*position.WalkTilesPerTile/2,
	}
	visited := mapset.New[position.WalkPosition]()
	queue := []position.WalkPosition{center}
	visited.Put(center)
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		if g.InWalkBounds(w) && g.MiniTile(w).Walkable {
			return w
		}
		for _, d := range position.Neighbours4 {
			nb := w.Add(d)
			if g.InWalkBounds(nb) && !visited.Has(nb) {
				visited.Put(nb)
				queue = append(queue, nb)
			}
		}
	}
	return center
}

// blockedAreaPairs finds the distinct positive area ids touching n's
// footprint border and returns every unordered pair among them.
func blockedAreaPairs(g *tile.Grid, n *neutral.Neutral) [][2]int16 {
	seen := mapset.New[int16]()
	base := n.TopLeft.ToWalkPosition()
	w := n.Size.X * position.WalkTilesPerTile
	h := n.Size.Y * position.WalkTilesPerTile
	scan := func(x, y int32) {
		wp := position.WalkPosition{X: x, Y: y}
		if !g.InWalkBounds(wp) {
			return
		}
		id := g.MiniTile(wp).AreaID
		if id > 0 {
			seen.Put(id)
		}
	}
	for x := base.X - 1; x <= base.X+w; x++ {
		scan(x, base.Y-1)
		scan(x, base.Y+h)
	}
	for y := base.Y; y < base.Y+h; y++ {
		scan(base.X-1, y)
		scan(base.X+w, y)
	}

	var ids []int16
	seen.Each(func(id int16) { ids = append(ids, id) })
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var pairs [][2]int16
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pairs = append(pairs, [2]int16{ids[i], ids[j]})
		}
	}
	return pairs
}

const (
	orthWeight = int32(10000)
	diagWeight = int32(14142)
)

// BuildDistances runs spec §4.7's two Dijkstra passes and returns the
// finished all-pairs matrices, and also populates each Area's
// AccessibleNeighbours and GroupID.
func BuildDistances(g *tile.Grid, areas map[int16]*area.Area, points []*ChokePoint) Graph {
	n := len(points)
	intra := make([][]int32, n)
	for i := range intra {
		intra[i] = make([]int32, n)
		for j := range intra[i] {
			intra[i][j] = -1
		}
	}

	for _, a := range areas {
		cps := areaChokePoints(a, points)
		for _, s := range cps {
			d := intraAreaDijkstra(g, a.ID, s, cps)
			for t, dist := range d {
				intra[s.Index][t.Index] = dist
				intra[t.Index][s.Index] = dist
			}
		}
	}

	dist, path := interAreaDijkstra(points, intra)

	for _, a := range areas {
		for other, idxs := range a.ChokePointsByNeighbour {
			for _, idx := range idxs {
				if !points[idx].Blocked {
					a.AccessibleNeighbours[other] = true
				}
			}
		}
	}
	assignGroups(areas)

	return Graph{Points: points, Distance: dist, Path: path}
}

func areaChokePoints(a *area.Area, points []*ChokePoint) []*ChokePoint {
	seen := make(map[int]bool)
	var out []*ChokePoint
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

// intraAreaDijkstra runs a weighted 8-neighbour Dijkstra from s's
// middle-in-area position to every other chokepoint of the area,
// restricted to minitiles belonging to areaID (or the -1 disagreement
// fragment marker, treated as passable here per spec §4.7).
func intraAreaDijkstra(g *tile.Grid, areaID int16, s *ChokePoint, targets []*ChokePoint) map[*ChokePoint]int32 {
	src, ok := s.PosInArea[Middle][areaID]
	if !ok {
		return nil
	}
	targetPos := make(map[position.WalkPosition]*ChokePoint, len(targets))
	for _, t := range targets {
		if t == s {
			continue
		}
		if p, ok := t.PosInArea[Middle][areaID]; ok {
			targetPos[p] = t
		}
	}

	dist := map[position.WalkPosition]int32{src: 0}
	type item struct {
		d   int32
		pos position.WalkPosition
	}
	pq := binaryheap.NewWith(func(x, y interface{}) int {
		return utils.Int32Comparator(x.(item).d, y.(item).d)
	})
	pq.Push(item{0, src})

	found := make(map[*ChokePoint]int32)
	remaining := len(targetPos)
	for !pq.Empty() && remaining > 0 {
		v, _ := pq.Pop()
		it := v.(item)
		if it.d != dist[it.pos] {
			continue
		}
		if cp, ok := targetPos[it.pos]; ok {
			if _, already := found[cp]; !already {
				found[cp] = it.d
				remaining--
			}
		}
		for _, d := range position.Neighbours8 {
			np := it.pos.Add(d)
			if !g.InWalkBounds(np) {
				continue
			}
			mt := g.MiniTile(np)
			if mt.AreaID != areaID && mt.AreaID != -1 {
				continue
			}
			w := orthWeight
			if d.X != 0 && d.Y != 0 {
				w = diagWeight
			}
			nd := it.d + w
			if cur, ok := dist[np]; !ok || nd < cur {
				dist[np] = nd
				pq.Push(item{nd, np})
			}
		}
	}

	out := make(map[*ChokePoint]int32, len(found))
	for cp, d := range found {
		out[cp] = int32(position.RoundHalfUp(float64(d) * 32 / 10000))
	}
	return out
}

// interAreaDijkstra runs Dijkstra over the chokepoint graph (edges are
// the intra-area distances) for every source, storing the symmetric
// distance and full chokepoint-list path whenever a strictly shorter
// route is found. A blocked chokepoint can be a path's start or end node;
// it is not used as a transit hub for other sources.
func interAreaDijkstra(points []*ChokePoint, intra [][]int32) ([][]int32, [][][]int) {
	n := len(points)
	dist := make([][]int32, n)
	path := make([][][]int, n)
	for i := range dist {
		dist[i] = make([]int32, n)
		path[i] = make([][]int, n)
		for j := range dist[i] {
			if i == j {
				dist[i][j] = 0
				path[i][j] = []int{i}
			} else {
				dist[i][j] = -1
			}
		}
	}

	for src := 0; src < n; src++ {
		d := make([]int32, n)
		prev := make([]int, n)
		visited := make([]bool, n)
		for i := range d {
			d[i] = -1
			prev[i] = -1
		}
		d[src] = 0

		type item struct {
			d   int32
			idx int
		}
		pq := binaryheap.NewWith(func(x, y interface{}) int {
			return utils.Int32Comparator(x.(item).d, y.(item).d)
		})
		pq.Push(item{0, src})

		for !pq.Empty() {
			v, _ := pq.Pop()
			it := v.(item)
			if visited[it.idx] || it.d != d[it.idx] {
				continue
			}
			visited[it.idx] = true

			if it.idx != src && points[it.idx].Blocked {
				continue // blocked chokepoints are not transit hubs
			}
			for j := 0; j < n; j++ {
				w := intra[it.idx][j]
				if w < 0 || j == it.idx {
					continue
				}
				nd := it.d + w
				if d[j] == -1 || nd < d[j] {
					d[j] = nd
					prev[j] = it.idx
					pq.Push(item{nd, j})
				}
			}
		}

		for dst := 0; dst < n; dst++ {
			if dst == src || d[dst] < 0 {
				continue
			}
			if dist[src][dst] != -1 && dist[src][dst] <= d[dst] {
				continue
			}
			route := reconstruct(prev, src, dst)
			dist[src][dst] = d[dst]
			dist[dst][src] = d[dst]
			path[src][dst] = route
			path[dst][src] = reverseIdx(route)
		}
	}

	return dist, path
}

func reconstruct(prev []int, src, dst int) []int {
	var route []int
	for at := dst; at != -1; at = prev[at] {
		route = append([]int{at}, route...)
		if at == src {
			break
		}
	}
	return route
}

func reverseIdx(route []int) []int {
	out := make([]int, len(route))
	for i, v := range route {
		out[len(route)-1-i] = v
	}
	return out
}

// assignGroups partitions areas into maximal mutually-accessible sets
// (spec §4.7's groupId) via DFS over AccessibleNeighbours adjacency.
func assignGroups(areas map[int16]*area.Area) {
	visited := make(map[int16]bool)
	var ids []int16
	for id := range areas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	group := int16(1)
	for _, id := range ids {
		if visited[id] {
			continue
		}
		stack := []int16{id}
		visited[id] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			areas[cur].GroupID = group
			for nb := range areas[cur].AccessibleNeighbours {
				if !visited[nb] {
					visited[nb] = true
					stack = append(stack, nb)
				}
			}
		}
		group++
	}
}
