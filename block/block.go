// Package block implements spec.md §4.4: deciding whether a neutral
// (mineral patch, geyser or static building) partitions its local
// neighbourhood into two or more separately-walkable pockets, and thus
// blocks passage the area builder must respect.
package block

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/chippydip/bwem-go/neutral"
	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

// Options carries spec §4.4's flood-size limits.
type Options struct {
	StaticBuildingDoorLimit int
	MineralDoorLimit        int
}

// DefaultOptions returns the literal 10/400 constants from spec.md.
func DefaultOptions() Options {
	return Options{StaticBuildingDoorLimit: 10, MineralDoorLimit: 400}
}

// Detect walks every bottom-of-stack neutral and marks it (and its whole
// stack) blocking if it has at least two true doors, stamping
// tile.AreaIDBlocked onto its walkable footprint minitiles so the area
// builder treats them as impassable.
func Detect(g *tile.Grid, opts Options) {
	for _, n := range g.Neutrals.Bottoms() {
		doors := doors(g, n)
		trueDoors := trueDoors(g, doors, doorLimit(n, opts))
		if len(trueDoors) < 2 {
			continue
		}

		for s := n; s != nil; s = s.NextStacked {
			s.Blocking = true
		}
		flat := make([]position.WalkPosition, 0)
		for _, d := range trueDoors {
			flat = append(flat, d...)
		}
		n.BlockedAreas = flat

		for _, w := range footprintMinitiles(g, n) {
			if g.MiniTile(w).Walkable {
				g.MiniTile(w).AreaID = tile.AreaIDBlocked
			}
		}
	}
}

func doorLimit(n *neutral.Neutral, opts Options) int {
	if n.Kind == neutral.StaticBuilding {
		return opts.StaticBuildingDoorLimit
	}
	return opts.MineralDoorLimit
}

// footprintMinitiles returns every minitile covered by n's tile footprint.
func footprintMinitiles(g *tile.Grid, n *neutral.Neutral) []position.WalkPosition {
	base := n.TopLeft.ToWalkPosition()
	w := n.Size.X * position.WalkTilesPerTile
	h := n.Size.Y * position.WalkTilesPerTile
	out := make([]position.WalkPosition, 0, w*h)
	for dy := int32(0); dy < h; dy++ {
		for dx := int32(0); dx < w; dx++ {
			out = append(out, position.WalkPosition{X: base.X + dx, Y: base.Y + dy})
		}
	}
	return out
}

// outerBorder returns the ring of minitiles one cell outside n's
// footprint, dropping positions that are off-map, unwalkable, or
// occupied by another neutral (spec §4.4 step 1).
func outerBorder(g *tile.Grid, n *neutral.Neutral) []position.WalkPosition {
	base := n.TopLeft.ToWalkPosition()
	w := n.Size.X * position.WalkTilesPerTile
	h := n.Size.Y * position.WalkTilesPerTile

	var out []position.WalkPosition
	consider := func(x, y int32) {
		wp := position.WalkPosition{X: x, Y: y}
		if !g.InWalkBounds(wp) {
			return
		}
		mt := g.MiniTile(wp)
		if !mt.Walkable {
			return
		}
		if occupied(g, wp) {
			return
		}
		out = append(out, wp)
	}
	for x := base.X - 1; x <= base.X+w; x++ {
		consider(x, base.Y-1)
		consider(x, base.Y+h)
	}
	for y := base.Y; y < base.Y+h; y++ {
		consider(base.X-1, y)
		consider(base.X+w, y)
	}
	return out
}

func occupied(g *tile.Grid, w position.WalkPosition) bool {
	t := g.Tile(w.ToTilePosition())
	return t.Neutral != nil
}

// nearLakeOrNeutral reports whether any of w's 8 neighbours is a lake
// minitile or belongs to a neutral's footprint.
func nearLakeOrNeutral(g *tile.Grid, w position.WalkPosition) bool {
	for _, d := range position.Neighbours8 {
		n := w.Add(d)
		if !g.InWalkBounds(n) {
			continue
		}
		if g.MiniTile(n).IsLake() {
			return true
		}
		if occupied(g, n) {
			return true
		}
	}
	return false
}

// doors clusters the filtered outer border into connected "doors":
// maximal 4-connected groups of border minitiles that each individually
// hug a lake or a neutral's footprint, n's own included (spec §4.4 step 2).
func doors(g *tile.Grid, n *neutral.Neutral) [][]position.WalkPosition {
	border := outerBorder(g, n)
	eligible := mapset.New[position.WalkPosition]()
	for _, w := range border {
		if nearLakeOrNeutral(g, w) {
			eligible.Put(w)
		}
	}

	visited := mapset.New[position.WalkPosition]()
	var out [][]position.WalkPosition
	for _, seed := range border {
		if !eligible.Has(seed) || visited.Has(seed) {
			continue
		}
		queue := []position.WalkPosition{seed}
		visited.Put(seed)
		var door []position.WalkPosition
		for len(queue) > 0 {
			w := queue[0]
			queue = queue[1:]
			door = append(door, w)
			for _, d := range position.Neighbours4 {
				nb := w.Add(d)
				if eligible.Has(nb) && !visited.Has(nb) {
					visited.Put(nb)
					queue = append(queue, nb)
				}
			}
		}
		out = append(out, door)
	}
	return out
}

// trueDoors keeps only the doors whose flood of free walkable minitiles
// reaches the given visit limit (spec §4.4 step 3).
func trueDoors(g *tile.Grid, allDoors [][]position.WalkPosition, limit int) [][]position.WalkPosition {
	var out [][]position.WalkPosition
	for _, d := range allDoors {
		if floodReachesLimit(g, d, limit) {
			out = append(out, d)
		}
	}
	return out
}

func floodReachesLimit(g *tile.Grid, seeds []position.WalkPosition, limit int) bool {
	visited := mapset.New[position.WalkPosition]()
	queue := append([]position.WalkPosition(nil), seeds...)
	for _, s := range seeds {
		visited.Put(s)
	}
	count := 0
	for len(queue) > 0 && count < limit {
		w := queue[0]
		queue = queue[1:]
		count++
		for _, d := range position.Neighbours4 {
			nb := w.Add(d)
			if !g.InWalkBounds(nb) || visited.Has(nb) {
				continue
			}
			mt := g.MiniTile(nb)
			if !mt.Walkable || occupied(g, nb) {
				continue
			}
			visited.Put(nb)
			queue = append(queue, nb)
		}
	}
	return count >= limit
}
