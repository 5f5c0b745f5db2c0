package world

import (
	"time"

	"factory-server/internal/tile"
)

type EntityState string

const (
	StateBlueprint EntityState = "blueprint"
	StateBuilt     EntityState = "built"
)

// Entity is a placed building or world object.
type Entity struct {
	ID          int64         `json:"id"`
	TypeID      int           `json:"entity_type_id"`
	Region      int           `json:"region_id"`
	Origin      tile.Coord    `json:"origin"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	State       EntityState   `json:"state"`
	Durability  int           `json:"durability"`
	OwnerID     *int          `json:"owner_id"`
	ShipOwnerID *int          `json:"ship_owner_id,omitempty"`
	Resources   map[int]int64 `json:"resources,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (e *Entity) Footprint() tile.Rect {
	return tile.Footprint(e.Origin, e.Width, e.Height)
}

// HasResources reports whether the entity stores any positive resource amount.
func (e *Entity) HasResources() bool {
	for _, q := range e.Resources {
		if q > 0 {
			return true
		}
	}
	return false
}

// Deposit is a depletable resource node on one tile.
type Deposit struct {
	ID       int64      `json:"id"`
	TypeID   int        `json:"deposit_type_id"`
	Region   int        `json:"region_id"`
	Position tile.Coord `json:"position"`
	Amount   int64      `json:"resource_amount"`
}
