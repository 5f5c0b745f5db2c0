package tile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord is a world-space tile coordinate
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return strconv.Itoa(c.X) + ":" + strconv.Itoa(c.Y)
}

// ParseCoord parses the "x:y" fingerprint produced by Coord.String
func ParseCoord(s string) (Coord, error) {
	xs, ys, ok := strings.Cut(s, ":")
	if !ok {
		return Coord{}, fmt.Errorf("invalid tile key %q", s)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid tile key %q: %w", s, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid tile key %q: %w", s, err)
	}
	return Coord{X: x, Y: y}, nil
}

// Coordinates are persisted as int32.
const (
	MinCoord = math.MinInt32
	MaxCoord = math.MaxInt32
)

// Rect is an axis-aligned tile area with its origin at the top-left corner
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func Footprint(origin Coord, w, h int) Rect {
	return Rect{X: origin.X, Y: origin.Y, W: w, H: h}
}

func (r Rect) Contains(c Coord) bool {
	return c.X >= r.X && c.X < r.X+r.W && c.Y >= r.Y && c.Y < r.Y+r.H
}

// ContainsRect reports whether o lies entirely inside r
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Expand grows the rect by n tiles on every side
func (r Rect) Expand(n int) Rect {
	return Rect{X: r.X - n, Y: r.Y - n, W: r.W + 2*n, H: r.H + 2*n}
}

// InBounds reports whether r is non-empty and every tile it covers lies
// within MinCoord..MaxCoord.
func (r Rect) InBounds() bool {
	if r.W <= 0 || r.H <= 0 || r.W > MaxCoord || r.H > MaxCoord {
		return false
	}
	return r.X >= MinCoord && r.Y >= MinCoord &&
		r.X <= MaxCoord-(r.W-1) && r.Y <= MaxCoord-(r.H-1)
}

// Tiles lists covered tiles row by row, left to right then top to bottom.
// A rect whose far edge does not fit in an int yields nil.
func (r Rect) Tiles() []Coord {
	if r.W <= 0 || r.H <= 0 {
		return nil
	}
	if r.X > math.MaxInt-r.W || r.Y > math.MaxInt-r.H {
		return nil
	}
	tiles := make([]Coord, 0, r.W*r.H)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			tiles = append(tiles, Coord{X: x, Y: y})
		}
	}
	return tiles
}

// Distance is the Chebyshev distance between the two rects, 0 when they overlap.
func (r Rect) Distance(o Rect) int {
	dx := gap(r.X, r.X+r.W, o.X, o.X+o.W)
	dy := gap(r.Y, r.Y+r.H, o.Y, o.Y+o.H)
	return max(dx, dy)
}

func gap(aMin, aMax, bMin, bMax int) int {
	switch {
	case bMin >= aMax:
		return bMin - aMax + 1
	case aMin >= bMax:
		return aMin - bMax + 1
	default:
		return 0
	}
}
