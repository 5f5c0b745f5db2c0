package player

import (
	"time"

	"factory-server/internal/tile"
)

type PlayerRole string

const (
	PlayerRoleUser  PlayerRole = "player"
	PlayerRoleAdmin PlayerRole = "admin"
)

type Player struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Role      PlayerRole `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r PlayerRole) String() string {
	return string(r)
}

func (r PlayerRole) IsValid() bool {
	return r == PlayerRoleUser || r == PlayerRoleAdmin
}

type Ship struct {
	Region int       `json:"region_id"`
	Area   tile.Rect `json:"area"`
}

type Balance struct {
	ResourceID int    `json:"resource_id"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
}

// Profile is what a player sees about themselves before building.
type Profile struct {
	Player
	Resources []Balance `json:"resources"`
	Ship      *Ship     `json:"ship,omitempty"`
}
