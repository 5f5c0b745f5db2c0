package tile

import (
	"math"
	"testing"
)

func TestParseCoordRoundTrip(t *testing.T) {
	c := Coord{X: -4, Y: 17}
	got, err := ParseCoord(c.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != c {
		t.Fatalf("expected %v, got %v", c, got)
	}
	if _, err := ParseCoord("12"); err == nil {
		t.Fatalf("expected error for key without separator")
	}
	if _, err := ParseCoord("a:1"); err == nil {
		t.Fatalf("expected error for non numeric key")
	}
}

func TestRectTilesScanOrder(t *testing.T) {
	tiles := Rect{X: 1, Y: 2, W: 2, H: 2}.Tiles()
	want := []Coord{{1, 2}, {2, 2}, {1, 3}, {2, 3}}
	if len(tiles) != len(want) {
		t.Fatalf("expected %d tiles, got %d", len(want), len(tiles))
	}
	for i := range want {
		if tiles[i] != want[i] {
			t.Fatalf("tile %d: expected %v, got %v", i, want[i], tiles[i])
		}
	}
	if (Rect{W: 0, H: 3}).Tiles() != nil {
		t.Fatalf("empty rect should have no tiles")
	}
}

func TestRectDistance(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 1, H: 1}
	cases := []struct {
		o    Rect
		want int
	}{
		{Rect{X: 0, Y: 0, W: 1, H: 1}, 0},
		{Rect{X: 1, Y: 0, W: 1, H: 1}, 1},
		{Rect{X: 1, Y: 1, W: 1, H: 1}, 1},
		{Rect{X: 3, Y: -1, W: 2, H: 2}, 3},
		{Rect{X: -3, Y: 0, W: 1, H: 1}, 3},
	}
	for _, tc := range cases {
		if got := r.Distance(tc.o); got != tc.want {
			t.Fatalf("distance to %+v: expected %d, got %d", tc.o, tc.want, got)
		}
	}
}

func TestRectContainsRect(t *testing.T) {
	area := Rect{X: 0, Y: 0, W: 4, H: 4}
	if !area.ContainsRect(Rect{X: 2, Y: 2, W: 2, H: 2}) {
		t.Fatalf("expected inner rect to be contained")
	}
	if area.ContainsRect(Rect{X: 3, Y: 3, W: 2, H: 1}) {
		t.Fatalf("expected overhanging rect not to be contained")
	}
}

func TestRectInBounds(t *testing.T) {
	cases := []struct {
		r    Rect
		want bool
	}{
		{Rect{X: 0, Y: 0, W: 1, H: 1}, true},
		{Rect{X: MaxCoord, Y: MaxCoord, W: 1, H: 1}, true},
		{Rect{X: MinCoord, Y: MinCoord, W: 2, H: 2}, true},
		{Rect{X: MaxCoord - 1, Y: 0, W: 2, H: 2}, true},
		{Rect{X: MaxCoord, Y: 0, W: 2, H: 1}, false},
		{Rect{X: 0, Y: MaxCoord - 1, W: 1, H: 3}, false},
		{Rect{X: MinCoord - 1, Y: 0, W: 1, H: 1}, false},
		{Rect{X: math.MaxInt, Y: 0, W: 3, H: 3}, false},
		{Rect{X: 0, Y: math.MaxInt - 1, W: 3, H: 3}, false},
		{Rect{X: math.MinInt, Y: 0, W: 1, H: 1}, false},
		{Rect{X: 0, Y: 0, W: 0, H: 1}, false},
	}
	for _, tc := range cases {
		if got := tc.r.InBounds(); got != tc.want {
			t.Fatalf("%+v: expected InBounds %v, got %v", tc.r, tc.want, got)
		}
	}
}

func TestRectTilesOverflowIsEmpty(t *testing.T) {
	if tiles := (Rect{X: math.MaxInt, Y: 0, W: 2, H: 2}).Tiles(); tiles != nil {
		t.Fatalf("expected no tiles for overflowing rect, got %d", len(tiles))
	}
	if tiles := (Rect{X: 0, Y: math.MaxInt - 1, W: 1, H: 3}).Tiles(); tiles != nil {
		t.Fatalf("expected no tiles for overflowing rect, got %d", len(tiles))
	}
}
