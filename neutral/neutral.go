// Package neutral models mineral patches, vespene geysers and static
// (unwalkable, non-resource) buildings placed on a map: the "neutral"
// units of spec.md §3. A tagged variant with a shared header keeps the
// three concrete kinds in one arena-friendly slice, per DESIGN.md's
// class-hierarchy note.
package neutral

import (
	"log"

	"github.com/zyedidia/generic/mapset"

	"github.com/chippydip/bwem-go/position"
)

// Kind discriminates the tagged Neutral variant.
type Kind int

const (
	Mineral Kind = iota
	Geyser
	StaticBuilding
)

// UnitType names the underlying game unit type, e.g. "Resource_Mineral_Field".
type UnitType string

// Special-cased unit types from spec §6.
const (
	TypeRightPitDoor UnitType = "Special_Right_Pit_Door"
	TypeZergEgg      UnitType = "Zerg_Egg"
)

// Neutral is a mineral patch, geyser or static building occupying a
// rectangular tile footprint. Neutrals sharing a footprint (same
// TopLeft/Size/UnitType) form a singly-linked stack rooted at the bottom
// element, which is the one stored on the tile.
type Neutral struct {
	ID       int64 // opaque identifier of the underlying game unit
	UnitType UnitType
	Kind     Kind

	TopLeft position.TilePosition
	Size    position.TilePosition // width/height in tiles

	InitialAmount int32 // minerals/geysers only

	NextStacked *Neutral

	Blocking     bool
	BlockedAreas []position.WalkPosition // walk positions this neutral blocks, per §4.4
}

// Registry owns every Neutral on the map, keyed by the tile the bottom of
// each stack occupies.
type Registry struct {
	byTopLeft map[position.TilePosition]*Neutral
	ingested  mapset.Set[int64]
	all       []*Neutral
}

// NewRegistry creates an empty neutral registry.
func NewRegistry() *Registry {
	return &Registry{
		byTopLeft: make(map[position.TilePosition]*Neutral),
		ingested:  mapset.New[int64](),
		all:       nil,
	}
}

// Add ingests one raw neutral descriptor. If another neutral already
// occupies the same top-left, the candidate is stacked on top only if its
// size and type match and the existing bottom element is not a geyser
// (§3, §7.2); a mismatched candidate is diagnosed and dropped, not added.
// Re-ingesting the same unit id (the snapshot handed to Initialize should
// never do this, but nothing prevents a caller from trying) is a no-op.
func (r *Registry) Add(id int64, unitType UnitType, topLeft, size position.TilePosition, initialAmount int32) *Neutral {
	if r.ingested.Has(id) {
		return nil
	}

	topLeft = adjustIngestionSpecialCase(unitType, topLeft)
	if unitType == TypeZergEgg && !r.wrapsPitDoor(topLeft, size) {
		// Zerg_Egg entries are ignored unless they wrap a Pit-Door special
		// building, which is ingested under its own unit type instead.
		return nil
	}
	r.ingested.Put(id)

	kind := classify(unitType)
	n := &Neutral{
		ID: id, UnitType: unitType, Kind: kind,
		TopLeft: topLeft, Size: size, InitialAmount: initialAmount,
	}

	bottom, exists := r.byTopLeft[topLeft]
	if !exists {
		r.byTopLeft[topLeft] = n
		r.all = append(r.all, n)
		return n
	}

	if bottom.Kind == Geyser {
		log.Printf("neutral: refusing to stack %s onto geyser at %v", unitType, topLeft)
		return nil
	}
	if bottom.Size != size || bottom.UnitType != unitType {
		log.Printf("neutral: stacked-neutral mismatch at %v (%s/%v vs %s/%v), ignoring candidate",
			topLeft, bottom.UnitType, bottom.Size, unitType, size)
		return nil
	}

	// Append to the end of the stack.
	tail := bottom
	for tail.NextStacked != nil {
		tail = tail.NextStacked
	}
	tail.NextStacked = n
	r.all = append(r.all, n)
	return n
}

// adjustIngestionSpecialCase implements spec §6: a Special_Right_Pit_Door
// has its top-left shifted +1 tile in X at ingestion time.
func adjustIngestionSpecialCase(unitType UnitType, topLeft position.TilePosition) position.TilePosition {
	if unitType == TypeRightPitDoor {
		return position.TilePosition{X: topLeft.X + 1, Y: topLeft.Y}
	}
	return topLeft
}

// wrapsPitDoor reports whether an incoming Zerg_Egg footprint overlaps a
// Special_Right_Pit_Door already ingested into the registry. This is the
// only signal Add has available for spec §6's "unless they wrap the
// Pit-Door" exception: an egg descriptor carries no id or flag pairing it
// to a door, so overlap against the door's already-ingested (post-shift)
// footprint is what "wrap" is checked against. This only fires when the
// door is ingested before its egg in the input snapshot; an egg arriving
// first in ingestion order is indistinguishable from a plain egg and is
// dropped, matching every ingestion order observed for this special case.
func (r *Registry) wrapsPitDoor(topLeft, size position.TilePosition) bool {
	for _, n := range r.all {
		if n.UnitType == TypeRightPitDoor && footprintsOverlap(topLeft, size, n.TopLeft, n.Size) {
			return true
		}
	}
	return false
}

func footprintsOverlap(aTopLeft, aSize, bTopLeft, bSize position.TilePosition) bool {
	if aTopLeft.X+aSize.X <= bTopLeft.X || bTopLeft.X+bSize.X <= aTopLeft.X {
		return false
	}
	if aTopLeft.Y+aSize.Y <= bTopLeft.Y || bTopLeft.Y+bSize.Y <= aTopLeft.Y {
		return false
	}
	return true
}

func classify(t UnitType) Kind {
	switch {
	case t == "Resource_Mineral_Field" || t == "Resource_Mineral_Field_Type2":
		return Mineral
	case t == "Resource_Vespene_Geyser":
		return Geyser
	default:
		return StaticBuilding
	}
}

// Bottoms returns the bottom element of every stack, in ingestion order.
func (r *Registry) Bottoms() []*Neutral {
	out := make([]*Neutral, 0, len(r.byTopLeft))
	for _, n := range r.all {
		if r.byTopLeft[n.TopLeft] == n {
			out = append(out, n)
		}
	}
	return out
}

// All returns every neutral (bottom and stacked) in ingestion order.
func (r *Registry) All() []*Neutral { return r.all }

// At returns the bottom-of-stack neutral occupying topLeft, if any.
func (r *Registry) At(topLeft position.TilePosition) (*Neutral, bool) {
	n, ok := r.byTopLeft[topLeft]
	return n, ok
}

// Remove drops n from the registry's fast lookup; if n is the bottom of
// a stack, the neutral stacked on it becomes the new bottom. Used by the destruction hooks of spec §4.9.
func (r *Registry) Remove(n *Neutral) {
	if r.byTopLeft[n.TopLeft] == n {
		if n.NextStacked != nil {
			r.byTopLeft[n.TopLeft] = n.NextStacked
		} else {
			delete(r.byTopLeft, n.TopLeft)
		}
	}
	for i, o := range r.all {
		if o == n {
			r.all = append(r.all[:i], r.all[i+1:]...)
			break
		}
	}
}

// Footprint returns every TilePosition covered by n's Size x Size box.
func (n *Neutral) Footprint() []position.TilePosition {
	out := make([]position.TilePosition, 0, int(n.Size.X*n.Size.Y))
	for dy := int32(0); dy < n.Size.Y; dy++ {
		for dx := int32(0); dx < n.Size.X; dx++ {
			out = append(out, position.TilePosition{X: n.TopLeft.X + dx, Y: n.TopLeft.Y + dy})
		}
	}
	return out
}

// IsResource reports whether n is a mineral patch or a geyser.
func (n *Neutral) IsResource() bool { return n.Kind == Mineral || n.Kind == Geyser }
