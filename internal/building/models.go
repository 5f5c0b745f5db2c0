package building

import (
	"errors"

	"factory-server/internal/cost"
	"factory-server/internal/placement"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
	"factory-server/internal/world"
)

var (
	// ErrTileTaken is returned by a store when the entity_tiles key for a
	// covered tile already exists.
	ErrTileTaken = errors.New("tile already occupied")
	// ErrSerialization is returned when a serializable transaction lost a race.
	ErrSerialization = errors.New("concurrent update detected")
	ErrNotFound      = errors.New("entity not found")
)

type PlaceRequest struct {
	PlayerID int             `json:"player_id"`
	TypeID   int             `json:"entity_type_id"`
	Region   int             `json:"region_id"`
	Origin   tile.Coord      `json:"origin"`
	Fog      visibility.Mode `json:"-"`
}

type PlaceResult struct {
	placement.Decision
	Missing []cost.Shortfall `json:"missing,omitempty"`
	Entity  *world.Entity    `json:"entity,omitempty"`
}

type RemoveResult struct {
	EntityID int64 `json:"entity_id"`
	Refunded bool  `json:"refunded"`
}

type CompleteResult struct {
	EntityID int64         `json:"entity_id"`
	Entity   *world.Entity `json:"entity,omitempty"`
	// LandingID is set when completion turned the blueprint into terrain.
	LandingID *int `json:"landing_id,omitempty"`
}
