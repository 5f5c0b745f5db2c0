package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"factory-server/internal/shared/database"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing player repository")
	return &Repository{db: db, logger: logger}
}

func (r *Repository) GetPlayerByID(ctx context.Context, id int) (*Player, error) {
	logger := r.logger.With("component", "player_repository", "operation", "get_by_id", "player_id", id)

	var p Player
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, role, created_at FROM players WHERE id = $1`, id,
	).Scan(&p.ID, &p.Username, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("Player not found")
			return nil, ErrPlayerNotFound
		}
		logger.Error("Failed to get player", "error", err)
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// GetBalances returns raw resource quantities keyed by resource id.
func (r *Repository) GetBalances(ctx context.Context, playerID int) (map[int]int64, error) {
	logger := r.logger.With("component", "player_repository", "operation", "get_balances", "player_id", playerID)

	rows, err := r.db.QueryContext(ctx,
		`SELECT resource_id, quantity FROM player_resources WHERE player_id = $1`, playerID)
	if err != nil {
		logger.Error("Failed to query balances", "error", err)
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	balances := make(map[int]int64)
	for rows.Next() {
		var resourceID int
		var qty int64
		if err := rows.Scan(&resourceID, &qty); err != nil {
			logger.Error("Failed to scan balance row", "error", err)
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[resourceID] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}
	return balances, nil
}

// GetShip returns nil without error for players that have no ship yet.
func (r *Repository) GetShip(ctx context.Context, playerID int) (*Ship, error) {
	var s Ship
	err := r.db.QueryRowContext(ctx,
		`SELECT region_id, x, y, width, height FROM ships WHERE player_id = $1`, playerID,
	).Scan(&s.Region, &s.Area.X, &s.Area.Y, &s.Area.W, &s.Area.H)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ship", "component", "player_repository", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to get ship: %w", err)
	}
	return &s, nil
}
