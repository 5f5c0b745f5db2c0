package terrain

import (
	"testing"

	"factory-server/internal/tile"
)

func testTypes() []Type {
	return []Type{
		{ID: 1, Name: "grass", Buildable: true, Category: CategoryIsland},
		{ID: 2, Name: "water", Buildable: false, Category: CategoryIsland},
		{ID: 3, Name: "sky", Buildable: false, Category: CategorySky},
	}
}

func TestMapMissingTerrainIsNotBuildable(t *testing.T) {
	m := NewMap(testTypes())
	if _, ok := m.TerrainAt(1, tile.Coord{X: 5, Y: 5}); ok {
		t.Fatalf("expected no terrain on empty map")
	}
	if Buildable(m, 1, tile.Coord{X: 5, Y: 5}) {
		t.Fatalf("missing terrain must not be buildable")
	}
}

func TestMapLookupIsRegionScoped(t *testing.T) {
	m := NewMap(testTypes())
	c := tile.Coord{X: 2, Y: 3}
	if err := m.Set(1, c, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !Buildable(m, 1, c) {
		t.Fatalf("grass in region 1 should be buildable")
	}
	if Buildable(m, 2, c) {
		t.Fatalf("same coordinate in region 2 has no terrain")
	}
	if err := m.Set(1, tile.Coord{X: 3, Y: 3}, 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if Buildable(m, 1, tile.Coord{X: 3, Y: 3}) {
		t.Fatalf("water should not be buildable")
	}
}

func TestMapRejectsUnknownLanding(t *testing.T) {
	m := NewMap(testTypes())
	if err := m.Set(1, tile.Coord{}, 99); err == nil {
		t.Fatalf("expected error for unknown landing")
	}
	if m.Len() != 0 {
		t.Fatalf("rejected tile must not be stored")
	}
}
