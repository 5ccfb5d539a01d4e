package position

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConversionsRoundTrip(t *testing.T) {
	tp := TilePosition{X: 3, Y: 5}
	wp := tp.ToWalkPosition()
	if wp != (WalkPosition{X: 12, Y: 20}) {
		t.Fatalf("TilePosition.ToWalkPosition = %v", wp)
	}
	if got := wp.ToTilePosition(); got != tp {
		t.Fatalf("WalkPosition.ToTilePosition = %v, want %v", got, tp)
	}

	p := wp.ToPosition()
	if p != (Position{X: 96, Y: 160}) {
		t.Fatalf("WalkPosition.ToPosition = %v", p)
	}
	if got := p.ToWalkPosition(); got != wp {
		t.Fatalf("Position.ToWalkPosition = %v, want %v", got, wp)
	}
}

func TestFloorDivNegative(t *testing.T) {
	p := Position{X: -1, Y: -9}
	wp := p.ToWalkPosition()
	if wp != (WalkPosition{X: -1, Y: -2}) {
		t.Fatalf("negative Position.ToWalkPosition = %v", wp)
	}
}

func TestQueenWiseDistance(t *testing.T) {
	a := WalkPosition{X: 0, Y: 0}
	b := WalkPosition{X: 3, Y: -7}
	if d := QueenWiseDistanceW(a, b); d != 7 {
		t.Fatalf("QueenWiseDistanceW = %d, want 7", d)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]int{
		2.5: 3,
		2.4: 2,
		0.5: 1,
		0.0: 0,
	}
	for in, want := range cases {
		if got := RoundHalfUp(in); got != want {
			t.Errorf("RoundHalfUp(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestRoundedDistTDiffersFromQueenWise(t *testing.T) {
	a := TilePosition{X: 0, Y: 0}
	b := TilePosition{X: 3, Y: 4}

	if got := RoundedDistT(a, b); got != 5 {
		t.Fatalf("RoundedDistT(%v, %v) = %d, want 5", a, b, got)
	}
	if got := QueenWiseDistanceT(a, b); got != 4 {
		t.Fatalf("QueenWiseDistanceT(%v, %v) = %d, want 4", a, b, got)
	}
}

func TestDist2(t *testing.T) {
	a := Position{X: 0, Y: 0}
	b := Position{X: 3, Y: 4}
	if d := a.Dist2(b); d != 25 {
		t.Fatalf("Dist2 = %d, want 25", d)
	}
}

func TestNeighbourTableOrder(t *testing.T) {
	want4 := [4]WalkPosition{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	if diff := cmp.Diff(want4, Neighbours4); diff != "" {
		t.Errorf("Neighbours4 mismatch (-want +got):\n%s", diff)
	}

	want8 := [8]WalkPosition{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
	if diff := cmp.Diff(want8, Neighbours8); diff != "" {
		t.Errorf("Neighbours8 mismatch (-want +got):\n%s", diff)
	}
}
