package player

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"factory-server/internal/entitytype"
	appErrors "factory-server/internal/shared/errors"
)

// Store is the read side the profile needs.
type Store interface {
	GetPlayerByID(ctx context.Context, id int) (*Player, error)
	GetBalances(ctx context.Context, playerID int) (map[int]int64, error)
	GetShip(ctx context.Context, playerID int) (*Ship, error)
}

type Service struct {
	repo     Store
	registry *entitytype.Registry
	logger   *slog.Logger
}

func NewService(repo Store, registry *entitytype.Registry, logger *slog.Logger) *Service {
	logger.Debug("Initializing player service")

	return &Service{
		repo:     repo,
		registry: registry,
		logger:   logger,
	}
}

// GetProfile returns the player with named balances sorted by resource id.
func (s *Service) GetProfile(ctx context.Context, playerID int) (*Profile, error) {
	p, err := s.repo.GetPlayerByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, appErrors.NotFoundf("player not found with id: %d", playerID)
		}
		return nil, appErrors.WrapInternal("failed to load player", err)
	}

	raw, err := s.repo.GetBalances(ctx, playerID)
	if err != nil {
		return nil, appErrors.WrapInternal("failed to load balances", err)
	}
	balances := make([]Balance, 0, len(raw))
	for id, qty := range raw {
		b := Balance{ResourceID: id, Quantity: qty}
		if res, ok := s.registry.Resource(id); ok {
			b.Name = res.Name
		} else {
			s.logger.Warn("Balance for unknown resource", "component", "player_service", "player_id", playerID, "resource_id", id)
		}
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].ResourceID < balances[j].ResourceID })

	ship, err := s.repo.GetShip(ctx, playerID)
	if err != nil {
		return nil, appErrors.WrapInternal("failed to load ship", err)
	}

	return &Profile{Player: *p, Resources: balances, Ship: ship}, nil
}
