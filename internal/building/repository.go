package building

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"factory-server/internal/cost"
	"factory-server/internal/entitytype"
	"factory-server/internal/shared/database"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
	"factory-server/internal/world"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation      = "23505"
	pqCheckViolation       = "23514"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		if pqErr.Table == "entity_tiles" || pqErr.Constraint == "entity_tiles_pkey" {
			return fmt.Errorf("%w: %s", ErrTileTaken, pqErr.Message)
		}
	case pqCheckViolation:
		if pqErr.Table == "player_resources" {
			return fmt.Errorf("%w: %s", cost.ErrNegativeBalance, pqErr.Message)
		}
	case pqSerializationFailure, pqDeadlockDetected:
		return fmt.Errorf("%w: %s", ErrSerialization, pqErr.Message)
	}
	return err
}

type Repository struct {
	db       *database.DB
	registry *entitytype.Registry
	logger   *slog.Logger
}

func NewRepository(db *database.DB, registry *entitytype.Registry, logger *slog.Logger) *Repository {
	logger.Debug("Initializing building repository")

	return &Repository{
		db:       db,
		registry: registry,
		logger:   logger,
	}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	logger := r.logger.With("component", "building_repository", "operation", "within_tx")

	tx, err := r.db.BeginSerializable(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(&txRepository{tx: tx, registry: r.registry, logger: r.logger}); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", "error", err)
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func (r *Repository) Eyes(ctx context.Context, playerID, region int, sightRadius map[int]int) ([]visibility.Eye, error) {
	logger := r.logger.With("component", "building_repository", "operation", "eyes", "player_id", playerID, "region", region)

	if len(sightRadius) == 0 {
		return nil, nil
	}
	typeIDs := make([]int64, 0, len(sightRadius))
	for id := range sightRadius {
		typeIDs = append(typeIDs, int64(id))
	}

	query := `
		SELECT entity_type_id, x, y, width, height
		FROM entities
		WHERE region_id = $1
			AND (owner_id = $2 OR ship_owner_id = $2)
			AND entity_type_id = ANY($3)
	`

	rows, err := r.db.QueryContext(ctx, query, region, playerID, pq.Array(typeIDs))
	if err != nil {
		logger.Error("Failed to query eye entities", "error", err)
		return nil, fmt.Errorf("failed to query eye entities: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var eyes []visibility.Eye
	for rows.Next() {
		var typeID, x, y, w, h int
		if err := rows.Scan(&typeID, &x, &y, &w, &h); err != nil {
			logger.Error("Failed to scan eye row", "error", err)
			return nil, fmt.Errorf("failed to scan eye entity: %w", err)
		}
		eyes = append(eyes, visibility.Eye{
			Center: tile.Coord{X: x + w/2, Y: y + h/2},
			Radius: sightRadius[typeID],
		})
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating eye entities: %w", err)
	}

	logger.Debug("Eye entities loaded", "count", len(eyes))
	return eyes, nil
}

type txRepository struct {
	tx       *database.Tx
	registry *entitytype.Registry
	logger   *slog.Logger
}

func (r *txRepository) Ledger() cost.Ledger {
	return &ledger{exec: r.tx, logger: r.logger}
}

func (r *txRepository) LoadSnapshot(ctx context.Context, region int, area tile.Rect, playerID int) (*world.Snapshot, error) {
	logger := r.logger.With(
		"component", "building_repository",
		"operation", "load_snapshot",
		"region", region,
		"area", area,
	)
	logger.Debug("Loading world snapshot")

	snap := world.NewSnapshot(r.registry.Landings())
	maxX, maxY := area.X+area.W-1, area.Y+area.H-1

	if err := r.loadTiles(ctx, snap, region, area, maxX, maxY); err != nil {
		logger.Error("Failed to load tiles", "error", err)
		return nil, err
	}
	if err := r.loadDeposits(ctx, snap, region, area, maxX, maxY); err != nil {
		logger.Error("Failed to load deposits", "error", err)
		return nil, err
	}
	if err := r.loadEntities(ctx, snap, region, area, maxX, maxY); err != nil {
		logger.Error("Failed to load entities", "error", err)
		return nil, err
	}

	var ship tile.Rect
	err := r.tx.QueryRowContext(ctx,
		`SELECT x, y, width, height FROM ships WHERE player_id = $1 AND region_id = $2`,
		playerID, region,
	).Scan(&ship.X, &ship.Y, &ship.W, &ship.H)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		logger.Error("Failed to load ship area", "error", err)
		return nil, fmt.Errorf("failed to load ship area: %w", err)
	default:
		snap.SetShipArea(playerID, ship)
	}

	return snap, nil
}

func (r *txRepository) loadTiles(ctx context.Context, snap *world.Snapshot, region int, area tile.Rect, maxX, maxY int) error {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT x, y, landing_id
		FROM tiles
		WHERE region_id = $1 AND x BETWEEN $2 AND $3 AND y BETWEEN $4 AND $5
	`, region, area.X, maxX, area.Y, maxY)
	if err != nil {
		return fmt.Errorf("failed to query tiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c tile.Coord
		var landingID int
		if err := rows.Scan(&c.X, &c.Y, &landingID); err != nil {
			return fmt.Errorf("failed to scan tile: %w", err)
		}
		if err := snap.SetTerrain(region, c, landingID); err != nil {
			// Unknown landings stay absent and therefore unbuildable.
			r.logger.Warn("Skipping tile with unknown landing", "x", c.X, "y", c.Y, "landing_id", landingID)
		}
	}
	return rows.Err()
}

func (r *txRepository) loadDeposits(ctx context.Context, snap *world.Snapshot, region int, area tile.Rect, maxX, maxY int) error {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT id, deposit_type_id, x, y, resource_amount
		FROM deposits
		WHERE region_id = $1 AND x BETWEEN $2 AND $3 AND y BETWEEN $4 AND $5
	`, region, area.X, maxX, area.Y, maxY)
	if err != nil {
		return fmt.Errorf("failed to query deposits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d := world.Deposit{Region: region}
		if err := rows.Scan(&d.ID, &d.TypeID, &d.Position.X, &d.Position.Y, &d.Amount); err != nil {
			return fmt.Errorf("failed to scan deposit: %w", err)
		}
		snap.AddDeposit(d)
	}
	return rows.Err()
}

func (r *txRepository) loadEntities(ctx context.Context, snap *world.Snapshot, region int, area tile.Rect, maxX, maxY int) error {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT e.id, e.entity_type_id, e.x, e.y, e.width, e.height, e.state, e.durability,
			e.owner_id, e.ship_owner_id, e.created_at, e.updated_at
		FROM entities e
		WHERE e.id IN (
			SELECT entity_id FROM entity_tiles
			WHERE region_id = $1 AND x BETWEEN $2 AND $3 AND y BETWEEN $4 AND $5
		)
	`, region, area.X, maxX, area.Y, maxY)
	if err != nil {
		return fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []world.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return err
		}
		e.Region = region
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating entities: %w", err)
	}

	if err := r.attachResources(ctx, entities); err != nil {
		return err
	}
	for _, e := range entities {
		if err := snap.AddEntity(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) attachResources(ctx context.Context, entities []world.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	ids := make([]int64, len(entities))
	index := make(map[int64]int, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
		index[e.ID] = i
	}

	rows, err := r.tx.QueryContext(ctx,
		`SELECT entity_id, resource_id, quantity FROM entity_resources WHERE entity_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query entity resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityID int64
		var resourceID int
		var quantity int64
		if err := rows.Scan(&entityID, &resourceID, &quantity); err != nil {
			return fmt.Errorf("failed to scan entity resource: %w", err)
		}
		e := &entities[index[entityID]]
		if e.Resources == nil {
			e.Resources = make(map[int]int64)
		}
		e.Resources[resourceID] = quantity
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*world.Entity, error) {
	var e world.Entity
	var ownerID, shipOwnerID sql.NullInt64
	err := row.Scan(
		&e.ID,
		&e.TypeID,
		&e.Origin.X,
		&e.Origin.Y,
		&e.Width,
		&e.Height,
		&e.State,
		&e.Durability,
		&ownerID,
		&shipOwnerID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		id := int(ownerID.Int64)
		e.OwnerID = &id
	}
	if shipOwnerID.Valid {
		id := int(shipOwnerID.Int64)
		e.ShipOwnerID = &id
	}
	return &e, nil
}

func (r *txRepository) LockEntity(ctx context.Context, id int64) (*world.Entity, error) {
	logger := r.logger.With("component", "building_repository", "operation", "lock_entity", "entity_id", id)

	row := r.tx.QueryRowContext(ctx, `
		SELECT id, entity_type_id, x, y, width, height, state, durability,
			owner_id, ship_owner_id, created_at, updated_at, region_id
		FROM entities
		WHERE id = $1
		FOR UPDATE
	`, id)

	var region int
	e, err := scanEntity(scanWithRegion{row: row, region: &region})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("Entity not found")
			return nil, ErrNotFound
		}
		logger.Error("Failed to load entity", "error", err)
		return nil, fmt.Errorf("failed to load entity: %w", err)
	}
	e.Region = region

	entities := []world.Entity{*e}
	if err := r.attachResources(ctx, entities); err != nil {
		logger.Error("Failed to load entity resources", "error", err)
		return nil, err
	}
	return &entities[0], nil
}

// scanWithRegion appends the region column to an entity scan.
type scanWithRegion struct {
	row    rowScanner
	region *int
}

func (s scanWithRegion) Scan(dest ...any) error {
	return s.row.Scan(append(dest, s.region)...)
}

func (r *txRepository) InsertEntity(ctx context.Context, e *world.Entity) error {
	logger := r.logger.With(
		"component", "building_repository",
		"operation", "insert_entity",
		"entity_type_id", e.TypeID,
		"region", e.Region,
		"x", e.Origin.X,
		"y", e.Origin.Y,
	)
	logger.Debug("Inserting entity")

	err := r.tx.QueryRowContext(ctx, `
		INSERT INTO entities (region_id, entity_type_id, x, y, width, height, state, durability, owner_id, ship_owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, e.Region, e.TypeID, e.Origin.X, e.Origin.Y, e.Width, e.Height, e.State, e.Durability, e.OwnerID, e.ShipOwnerID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		logger.Error("Failed to insert entity", "error", err)
		return classify(fmt.Errorf("failed to insert entity: %w", err))
	}

	for _, c := range e.Footprint().Tiles() {
		_, err := r.tx.ExecContext(ctx,
			`INSERT INTO entity_tiles (region_id, x, y, entity_id) VALUES ($1, $2, $3, $4)`,
			e.Region, c.X, c.Y, e.ID,
		)
		if err != nil {
			logger.Debug("Failed to claim tile", "tile", c.String(), "error", err)
			return classify(fmt.Errorf("failed to claim tile %s: %w", c, err))
		}
	}

	for resourceID, quantity := range e.Resources {
		if quantity <= 0 {
			continue
		}
		_, err := r.tx.ExecContext(ctx,
			`INSERT INTO entity_resources (entity_id, resource_id, quantity) VALUES ($1, $2, $3)`,
			e.ID, resourceID, quantity,
		)
		if err != nil {
			logger.Error("Failed to store entity resources", "error", err)
			return fmt.Errorf("failed to store entity resources: %w", err)
		}
	}

	logger.Debug("Entity inserted", "entity_id", e.ID)
	return nil
}

func (r *txRepository) DeleteEntity(ctx context.Context, id int64) error {
	logger := r.logger.With("component", "building_repository", "operation", "delete_entity", "entity_id", id)

	result, err := r.tx.ExecContext(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		logger.Error("Failed to delete entity", "error", err)
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logger.Error("Failed to get rows affected", "error", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		logger.Warn("Entity not found for deletion")
		return ErrNotFound
	}

	logger.Debug("Entity deleted")
	return nil
}

func (r *txRepository) SetEntityState(ctx context.Context, id int64, state world.EntityState) error {
	logger := r.logger.With("component", "building_repository", "operation", "set_entity_state", "entity_id", id, "state", state)

	result, err := r.tx.ExecContext(ctx, `UPDATE entities SET state = $1, updated_at = NOW() WHERE id = $2`, state, id)
	if err != nil {
		logger.Error("Failed to update entity state", "error", err)
		return fmt.Errorf("failed to update entity state: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteDeposits(ctx context.Context, ids []int64) ([]world.Deposit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	logger := r.logger.With("component", "building_repository", "operation", "delete_deposits", "count", len(ids))

	rows, err := r.tx.QueryContext(ctx, `
		DELETE FROM deposits
		WHERE id = ANY($1)
		RETURNING id, region_id, deposit_type_id, x, y, resource_amount
	`, pq.Array(ids))
	if err != nil {
		logger.Error("Failed to delete deposits", "error", err)
		return nil, fmt.Errorf("failed to delete deposits: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var removed []world.Deposit
	for rows.Next() {
		var d world.Deposit
		if err := rows.Scan(&d.ID, &d.Region, &d.TypeID, &d.Position.X, &d.Position.Y, &d.Amount); err != nil {
			logger.Error("Failed to scan deposit row", "error", err)
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		removed = append(removed, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposits: %w", err)
	}

	if len(removed) != len(ids) {
		logger.Warn("Some deposits were already gone", "requested", len(ids), "removed", len(removed))
		return nil, fmt.Errorf("%w: deposits changed during placement", ErrSerialization)
	}

	logger.Debug("Deposits deleted")
	return removed, nil
}

func (r *txRepository) SetTerrain(ctx context.Context, region int, tiles []tile.Coord, landingID int) error {
	logger := r.logger.With("component", "building_repository", "operation", "set_terrain", "region", region, "landing_id", landingID)

	for _, c := range tiles {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO tiles (region_id, x, y, landing_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (region_id, x, y) DO UPDATE SET landing_id = EXCLUDED.landing_id
		`, region, c.X, c.Y, landingID)
		if err != nil {
			logger.Error("Failed to set terrain", "tile", c.String(), "error", err)
			return fmt.Errorf("failed to set terrain at %s: %w", c, err)
		}
	}

	logger.Debug("Terrain updated", "tiles", len(tiles))
	return nil
}

var _ database.Executor = (*database.Tx)(nil)

// ledger implements cost.Ledger on player_resources inside a transaction.
type ledger struct {
	exec   database.Executor
	logger *slog.Logger
}

func (l *ledger) Balances(ctx context.Context, playerID int) (map[int]int64, error) {
	rows, err := l.exec.QueryContext(ctx,
		`SELECT resource_id, quantity FROM player_resources WHERE player_id = $1 FOR UPDATE`,
		playerID,
	)
	if err != nil {
		l.logger.Error("Failed to query balances", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[int]int64)
	for rows.Next() {
		var resourceID int
		var quantity int64
		if err := rows.Scan(&resourceID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[resourceID] = quantity
	}
	return balances, rows.Err()
}

func (l *ledger) Adjust(ctx context.Context, playerID, resourceID int, delta int64) error {
	if delta >= 0 {
		_, err := l.exec.ExecContext(ctx, `
			INSERT INTO player_resources (player_id, resource_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (player_id, resource_id) DO UPDATE SET quantity = player_resources.quantity + EXCLUDED.quantity
		`, playerID, resourceID, delta)
		if err != nil {
			return fmt.Errorf("failed to credit resource: %w", err)
		}
		return nil
	}

	result, err := l.exec.ExecContext(ctx, `
		UPDATE player_resources
		SET quantity = quantity + $3
		WHERE player_id = $1 AND resource_id = $2 AND quantity + $3 >= 0
	`, playerID, resourceID, delta)
	if err != nil {
		return classify(fmt.Errorf("failed to debit resource: %w", err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return cost.ErrNegativeBalance
	}
	return nil
}

// PlayerInRegion reports whether the player's ship is docked in region.
func (r *Repository) PlayerInRegion(ctx context.Context, playerID, region int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ships WHERE player_id = $1 AND region_id = $2)`,
		playerID, region,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check region membership",
			"component", "building_repository", "player_id", playerID, "region", region, "error", err)
		return false, fmt.Errorf("failed to check region membership: %w", err)
	}
	return exists, nil
}
