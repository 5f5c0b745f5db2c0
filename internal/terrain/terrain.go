package terrain

import (
	"fmt"

	"factory-server/internal/tile"
)

type Category string

const (
	CategoryIsland Category = "island"
	CategorySky    Category = "sky"
	CategoryShip   Category = "ship"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryIsland, CategorySky, CategoryShip:
		return true
	}
	return false
}

// Type is a landing (ground) type
type Type struct {
	ID        int      `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Buildable bool     `json:"buildable" yaml:"buildable"`
	Category  Category `json:"category" yaml:"category"`
}

func (t Type) IsSky() bool    { return t.Category == CategorySky }
func (t Type) IsShip() bool   { return t.Category == CategoryShip }
func (t Type) IsIsland() bool { return t.Category == CategoryIsland }

// Lookup resolves the landing of a tile. A false second return means no
// terrain exists there.
type Lookup interface {
	TerrainAt(region int, c tile.Coord) (Type, bool)
}

// Buildable reports whether the tile has terrain and that terrain accepts
// buildings. Missing terrain is never buildable.
func Buildable(l Lookup, region int, c tile.Coord) bool {
	t, ok := l.TerrainAt(region, c)
	return ok && t.Buildable
}

type key struct {
	region int
	coord  tile.Coord
}

// Map is a sparse tile to landing mapping over a fixed set of landing types.
type Map struct {
	types map[int]Type
	tiles map[key]int
}

func NewMap(types []Type) *Map {
	m := &Map{
		types: make(map[int]Type, len(types)),
		tiles: make(map[key]int),
	}
	for _, t := range types {
		m.types[t.ID] = t
	}
	return m
}

// Set assigns a landing to a tile. Unknown landing ids are rejected so a
// lookup can never return a zero Type for a present tile.
func (m *Map) Set(region int, c tile.Coord, landingID int) error {
	if _, ok := m.types[landingID]; !ok {
		return fmt.Errorf("unknown landing type %d", landingID)
	}
	m.tiles[key{region, c}] = landingID
	return nil
}

func (m *Map) Remove(region int, c tile.Coord) {
	delete(m.tiles, key{region, c})
}

func (m *Map) TerrainAt(region int, c tile.Coord) (Type, bool) {
	id, ok := m.tiles[key{region, c}]
	if !ok {
		return Type{}, false
	}
	t, ok := m.types[id]
	return t, ok
}

func (m *Map) Type(landingID int) (Type, bool) {
	t, ok := m.types[landingID]
	return t, ok
}

func (m *Map) Len() int {
	return len(m.tiles)
}
