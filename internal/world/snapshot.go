package world

import (
	"fmt"
	"sort"

	"factory-server/internal/terrain"
	"factory-server/internal/tile"
)

type regionCoord struct {
	region int
	coord  tile.Coord
}

// Snapshot is an in-memory, read-only view of terrain, entities, deposits
// and ship areas. It is assembled once per request and never mutated while
// being evaluated.
type Snapshot struct {
	terrain   *terrain.Map
	entities  map[int64]*Entity
	occupancy map[regionCoord]int64
	deposits  map[regionCoord]*Deposit
	ships     map[int]tile.Rect
}

func NewSnapshot(landings []terrain.Type) *Snapshot {
	return &Snapshot{
		terrain:   terrain.NewMap(landings),
		entities:  make(map[int64]*Entity),
		occupancy: make(map[regionCoord]int64),
		deposits:  make(map[regionCoord]*Deposit),
		ships:     make(map[int]tile.Rect),
	}
}

func (s *Snapshot) SetTerrain(region int, c tile.Coord, landingID int) error {
	return s.terrain.Set(region, c, landingID)
}

// AddEntity indexes every tile of the entity's footprint.
func (s *Snapshot) AddEntity(e Entity) error {
	if e.Width <= 0 || e.Height <= 0 {
		return fmt.Errorf("entity %d has empty footprint", e.ID)
	}
	if _, ok := s.entities[e.ID]; ok {
		return fmt.Errorf("entity %d added twice", e.ID)
	}
	ent := e
	s.entities[e.ID] = &ent
	for _, c := range ent.Footprint().Tiles() {
		s.occupancy[regionCoord{e.Region, c}] = e.ID
	}
	return nil
}

func (s *Snapshot) AddDeposit(d Deposit) {
	dep := d
	s.deposits[regionCoord{d.Region, d.Position}] = &dep
}

// SetShipArea records the bounding area owned by a player's ship.
func (s *Snapshot) SetShipArea(playerID int, area tile.Rect) {
	s.ships[playerID] = area
}

func (s *Snapshot) TerrainAt(region int, c tile.Coord) (terrain.Type, bool) {
	return s.terrain.TerrainAt(region, c)
}

func (s *Snapshot) EntityAt(region int, c tile.Coord) (*Entity, bool) {
	id, ok := s.occupancy[regionCoord{region, c}]
	if !ok {
		return nil, false
	}
	return s.entities[id], true
}

func (s *Snapshot) DepositAt(region int, c tile.Coord) (*Deposit, bool) {
	d, ok := s.deposits[regionCoord{region, c}]
	return d, ok
}

// EntitiesWithin returns entities of the region whose footprint overlaps
// area, ordered by origin row then column, then id.
func (s *Snapshot) EntitiesWithin(region int, area tile.Rect) []*Entity {
	var out []*Entity
	for _, e := range s.entities {
		if e.Region == region && e.Footprint().Overlaps(area) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Origin, out[j].Origin
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Snapshot) ShipArea(playerID int) (tile.Rect, bool) {
	r, ok := s.ships[playerID]
	return r, ok
}
