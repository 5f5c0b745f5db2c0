package world

import (
	"testing"

	"factory-server/internal/terrain"
	"factory-server/internal/tile"
)

func TestSnapshotIndexesFootprint(t *testing.T) {
	s := NewSnapshot([]terrain.Type{{ID: 1, Name: "grass", Buildable: true, Category: terrain.CategoryIsland}})
	err := s.AddEntity(Entity{ID: 7, TypeID: 107, Region: 1, Origin: tile.Coord{X: 2, Y: 2}, Width: 3, Height: 2})
	if err != nil {
		t.Fatalf("add entity: %v", err)
	}
	for _, c := range []tile.Coord{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 2, Y: 3}, {X: 4, Y: 3}} {
		e, ok := s.EntityAt(1, c)
		if !ok || e.ID != 7 {
			t.Fatalf("expected entity 7 at %v", c)
		}
	}
	for _, c := range []tile.Coord{{X: 5, Y: 2}, {X: 2, Y: 4}, {X: 1, Y: 2}} {
		if _, ok := s.EntityAt(1, c); ok {
			t.Fatalf("expected no entity at %v", c)
		}
	}
	if _, ok := s.EntityAt(2, tile.Coord{X: 2, Y: 2}); ok {
		t.Fatalf("occupancy must be region scoped")
	}
	if err := s.AddEntity(Entity{ID: 7, Width: 1, Height: 1}); err == nil {
		t.Fatalf("expected duplicate entity error")
	}
	if err := s.AddEntity(Entity{ID: 8}); err == nil {
		t.Fatalf("expected empty footprint error")
	}
}

func TestSnapshotEntitiesWithinOrdering(t *testing.T) {
	s := NewSnapshot(nil)
	for _, e := range []Entity{
		{ID: 3, Region: 1, Origin: tile.Coord{X: 1, Y: 1}, Width: 1, Height: 1},
		{ID: 1, Region: 1, Origin: tile.Coord{X: 0, Y: 1}, Width: 1, Height: 1},
		{ID: 2, Region: 1, Origin: tile.Coord{X: 5, Y: 0}, Width: 1, Height: 1},
		{ID: 4, Region: 2, Origin: tile.Coord{X: 0, Y: 0}, Width: 1, Height: 1},
		{ID: 5, Region: 1, Origin: tile.Coord{X: 9, Y: 9}, Width: 1, Height: 1},
	} {
		if err := s.AddEntity(e); err != nil {
			t.Fatalf("add entity: %v", err)
		}
	}
	got := s.EntitiesWithin(1, tile.Rect{X: 0, Y: 0, W: 6, H: 2})
	want := []int64{2, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d entities, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: expected entity %d, got %d", i, want[i], got[i].ID)
		}
	}
}

func TestEntityHasResources(t *testing.T) {
	e := Entity{Resources: map[int]int64{1: 0}}
	if e.HasResources() {
		t.Fatalf("zero amounts are not resources")
	}
	e.Resources[2] = 3
	if !e.HasResources() {
		t.Fatalf("expected resources")
	}
}
