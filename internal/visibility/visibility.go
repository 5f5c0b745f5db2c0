package visibility

import (
	"factory-server/internal/tile"
)

// Mode selects whether placement honours fog of war. There is no implicit
// default: callers pick one.
type Mode int

const (
	FogEnforced Mode = iota + 1
	FogBypass
)

func (m Mode) String() string {
	switch m {
	case FogEnforced:
		return "enforced"
	case FogBypass:
		return "bypass"
	default:
		return "unknown"
	}
}

// Set is the set of tiles a player currently sees.
type Set struct {
	tiles map[tile.Coord]struct{}
}

func NewSet(tiles ...tile.Coord) *Set {
	s := &Set{tiles: make(map[tile.Coord]struct{}, len(tiles))}
	for _, c := range tiles {
		s.tiles[c] = struct{}{}
	}
	return s
}

func (s *Set) Add(c tile.Coord) {
	s.tiles[c] = struct{}{}
}

func (s *Set) Contains(c tile.Coord) bool {
	_, ok := s.tiles[c]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tiles)
}

// Keys returns the tile fingerprints in no particular order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.tiles))
	for c := range s.tiles {
		keys = append(keys, c.String())
	}
	return keys
}

// IsVisible reports whether c may be acted on. A nil set means fog of war is
// not enforced and every tile is visible.
func IsVisible(s *Set, c tile.Coord) bool {
	if s == nil {
		return true
	}
	return s.Contains(c)
}

// Eye is an entity that reveals tiles around its center.
type Eye struct {
	Center tile.Coord
	Radius int
}

// Compute unions the sight circles of all eyes.
func Compute(eyes []Eye) *Set {
	s := NewSet()
	for _, e := range eyes {
		if e.Radius < 0 {
			continue
		}
		r2 := e.Radius * e.Radius
		for dy := -e.Radius; dy <= e.Radius; dy++ {
			for dx := -e.Radius; dx <= e.Radius; dx++ {
				if dx*dx+dy*dy > r2 {
					continue
				}
				s.Add(tile.Coord{X: e.Center.X + dx, Y: e.Center.Y + dy})
			}
		}
	}
	return s
}
