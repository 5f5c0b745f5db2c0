package placement

import (
	"factory-server/internal/terrain"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
	"factory-server/internal/world"
)

// Code classifies why a placement was denied.
type Code string

const (
	CodeInvalidEntityType     Code = "invalid_entity_type"
	CodeNotVisible            Code = "not_visible"
	CodeNotBuildable          Code = "not_buildable"
	CodeOccupied              Code = "occupied"
	CodeNoCompatibleDeposit   Code = "no_compatible_deposit"
	CodeInsufficientResources Code = "insufficient_resources"
)

const (
	MsgInvalidEntityType     = "Invalid entity type"
	MsgNotVisible            = "Tile is not visible"
	MsgNotBuildable          = "Terrain is not buildable"
	MsgOutsideShip           = "Tile is outside the ship area"
	MsgWorldGenerated        = "Entity type cannot be built by players"
	MsgOccupied              = "Tile is occupied"
	MsgNoCompatibleDeposit   = "No compatible deposit"
	MsgInsufficientResources = "Insufficient resources"
)

// Request is a single placement question.
type Request struct {
	TypeID   int        `json:"entity_type_id"`
	Origin   tile.Coord `json:"origin"`
	Region   int        `json:"region_id"`
	PlayerID int        `json:"player_id"`
	// Visible is the fog of war set; nil disables fog checks.
	Visible *visibility.Set `json:"-"`
}

type EntityRef struct {
	ID     int64      `json:"id"`
	TypeID int        `json:"entity_type_id"`
	Origin tile.Coord `json:"origin"`
}

// Decision is the outcome of evaluating a Request.
type Decision struct {
	Allowed          bool        `json:"allowed"`
	Code             Code        `json:"code,omitempty"`
	Error            string      `json:"error,omitempty"`
	Tile             *tile.Coord `json:"tile,omitempty"`
	TargetEntity     *EntityRef  `json:"target_entity,omitempty"`
	DepositsToRemove []int64     `json:"deposits_to_remove,omitempty"`
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(code Code, msg string) Decision {
	return Decision{Code: code, Error: msg}
}

// DenyAt denies with the offending tile attached.
func DenyAt(code Code, msg string, c tile.Coord) Decision {
	return Decision{Code: code, Error: msg, Tile: &c}
}

// World is the read-only state a placement is evaluated against.
type World interface {
	terrain.Lookup
	EntityAt(region int, c tile.Coord) (*world.Entity, bool)
	DepositAt(region int, c tile.Coord) (*world.Deposit, bool)
	EntitiesWithin(region int, area tile.Rect) []*world.Entity
	ShipArea(playerID int) (tile.Rect, bool)
}
