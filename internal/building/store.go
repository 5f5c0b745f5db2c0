package building

import (
	"context"

	"factory-server/internal/cost"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
	"factory-server/internal/world"
)

// Store opens atomic units of work over persisted game state.
type Store interface {
	// WithinTx runs fn in one serializable transaction. Any error returned
	// by fn rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx TxStore) error) error
	// Eyes returns the sight sources of a player's entities in a region.
	Eyes(ctx context.Context, playerID, region int, sightRadius map[int]int) ([]visibility.Eye, error)
}

// TxStore is the transaction-scoped view used while applying a placement.
type TxStore interface {
	LoadSnapshot(ctx context.Context, region int, area tile.Rect, playerID int) (*world.Snapshot, error)
	Ledger() cost.Ledger
	// LockEntity loads an entity and holds it for the rest of the transaction.
	LockEntity(ctx context.Context, id int64) (*world.Entity, error)
	InsertEntity(ctx context.Context, e *world.Entity) error
	DeleteEntity(ctx context.Context, id int64) error
	SetEntityState(ctx context.Context, id int64, state world.EntityState) error
	// DeleteDeposits removes deposits and returns them as they were.
	DeleteDeposits(ctx context.Context, ids []int64) ([]world.Deposit, error)
	SetTerrain(ctx context.Context, region int, tiles []tile.Coord, landingID int) error
}
