// Package terrain implements spec.md §4.2 (sea/lake classification) and
// §4.3 (the altitude field). Both stages run once, directly after grid
// ingestion, and before any area is grown.
package terrain

import (
	"github.com/katalvlaran/lvlath/gridgraph"

	"github.com/chippydip/bwem-go/position"
	"github.com/chippydip/bwem-go/tile"
)

// lake reclassification thresholds (spec §4.2). Policy constants, kept
// here as package-level defaults and overridable via Options for tests
// exercising maps far smaller than a real Brood War map.
const (
	DefaultLakeMaxMinitiles = 300
	DefaultLakeMaxSpan      = 32
	DefaultLakeEdgeMargin   = 2
)

// Options carries the tunable constants of spec §4.2/§4.3.
type Options struct {
	LakeMaxMinitiles int
	LakeMaxSpan      int32
	LakeEdgeMargin   int32
}

// DefaultOptions returns the literal constants from spec.md.
func DefaultOptions() Options {
	return Options{
		LakeMaxMinitiles: DefaultLakeMaxMinitiles,
		LakeMaxSpan:      DefaultLakeMaxSpan,
		LakeEdgeMargin:   DefaultLakeEdgeMargin,
	}
}

// ClassifySeaLake flood-fills every unwalkable minitile component (4-way
// connectivity, via github.com/katalvlaran/lvlath/gridgraph) and
// reclassifies small, compact, interior components as lakes: their
// minitiles get the transient altitude marker (1) so the altitude
// engine treats them like terrain. Large or edge-touching components
// become sea: their altitude is set to 0.
//
// Only unwalkable minitiles get an altitude here; walkable minitiles are
// untouched.
func ClassifySeaLake(g *tile.Grid, opts Options) {
	values := make([][]int, g.WalkHeight)
	for y := int32(0); y < g.WalkHeight; y++ {
		values[y] = make([]int, g.WalkWidth)
		for x := int32(0); x < g.WalkWidth; x++ {
			if !g.MiniTile(position.WalkPosition{X: x, Y: y}).Walkable {
				values[y][x] = 1
			}
		}
	}

	gg, err := gridgraph.NewGridGraph(values, gridgraph.GridOptions{
		LandThreshold: 1,
		Conn:          gridgraph.Conn4,
	})
	if err != nil {
		// Grid ingestion always produces a non-empty rectangular grid;
		// a failure here means a bug upstream, not a user error.
		panic(err)
	}

	for _, comp := range gg.ConnectedComponents() {
		if len(comp) == 0 {
			continue
		}

		xMin, xMax, yMin, yMax := comp[0].X, comp[0].X, comp[0].Y, comp[0].Y
		for _, c := range comp {
			if c.X < xMin {
				xMin = c.X
			}
			if c.X > xMax {
				xMax = c.X
			}
			if c.Y < yMin {
				yMin = c.Y
			}
			if c.Y > yMax {
				yMax = c.Y
			}
		}

		spanX := int32(xMax-xMin) + 1
		spanY := int32(yMax-yMin) + 1
		awayFromEdges := int32(xMin) >= opts.LakeEdgeMargin && int32(yMin) >= opts.LakeEdgeMargin &&
			int32(xMax) <= g.WalkWidth-1-opts.LakeEdgeMargin && int32(yMax) <= g.WalkHeight-1-opts.LakeEdgeMargin

		isLake := len(comp) <= opts.LakeMaxMinitiles && spanX <= opts.LakeMaxSpan && spanY <= opts.LakeMaxSpan && awayFromEdges

		for _, c := range comp {
			m := g.MiniTile(position.WalkPosition{X: int32(c.X), Y: int32(c.Y)})
			if isLake {
				m.Altitude = 1 // keep transient marker; altitude engine will assign a real value
			} else {
				m.Altitude = 0 // sea, final
			}
		}
	}
}
