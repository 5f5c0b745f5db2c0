package building

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"factory-server/internal/cost"
	"factory-server/internal/entitytype"
	"factory-server/internal/placement"
	appErrors "factory-server/internal/shared/errors"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
	"factory-server/internal/world"
)

// errDenied aborts a placement transaction after the decision was made.
var errDenied = errors.New("placement denied")

type Service struct {
	store      Store
	engine     *placement.Engine
	registry   *entitytype.Registry
	fogCache   visibility.Cache
	fogEnabled bool
	sight      map[int]int
	logger     *slog.Logger
}

func NewService(store Store, engine *placement.Engine, fogCache visibility.Cache, fogEnabled bool, logger *slog.Logger) *Service {
	logger.Debug("Initializing building service", "fog_of_war", fogEnabled)

	registry := engine.Registry()
	sight := make(map[int]int)
	for _, spec := range registry.Specs() {
		if spec.SightRadius > 0 {
			sight[spec.ID] = spec.SightRadius
		}
	}
	if fogCache == nil {
		fogCache = visibility.NewMemoryCache()
	}

	return &Service{
		store:      store,
		engine:     engine,
		registry:   registry,
		fogCache:   fogCache,
		fogEnabled: fogEnabled,
		sight:      sight,
		logger:     logger,
	}
}

// EntityTypes lists the catalog sorted by id.
func (s *Service) EntityTypes() []entitytype.Spec {
	return s.registry.Specs()
}

// visibleSet returns the tiles the player may act on, or nil when fog of war
// is not enforced for this request.
func (s *Service) visibleSet(ctx context.Context, playerID, region int, mode visibility.Mode) (*visibility.Set, error) {
	if !s.fogEnabled || mode == visibility.FogBypass {
		return nil, nil
	}
	logger := s.logger.With("component", "building_service", "operation", "visible_set", "player_id", playerID, "region", region)

	set, ok, err := s.fogCache.Get(ctx, playerID, region)
	if err != nil {
		logger.Warn("Fog cache read failed, recomputing", "error", err)
	} else if ok {
		return set, nil
	}

	eyes, err := s.store.Eyes(ctx, playerID, region, s.sight)
	if err != nil {
		return nil, fmt.Errorf("failed to load sight sources: %w", err)
	}
	set = visibility.Compute(eyes)
	if err := s.fogCache.Put(ctx, playerID, region, set); err != nil {
		logger.Warn("Failed to cache fog set", "error", err)
	}

	logger.Debug("Fog set computed", "eyes", len(eyes), "visible_tiles", set.Len())
	return set, nil
}

func (s *Service) validate(req PlaceRequest) error {
	if req.PlayerID <= 0 {
		return appErrors.Validation("player id is required")
	}
	if req.Fog != visibility.FogEnforced && req.Fog != visibility.FogBypass {
		return appErrors.Validationf("fog mode must be set explicitly, got %d", req.Fog)
	}
	return nil
}

// decide runs the cost check and then the rule engine against a snapshot
// loaded inside tx.
func (s *Service) decide(ctx context.Context, tx TxStore, spec *entitytype.Spec, req PlaceRequest, visible *visibility.Set) (placement.Decision, []cost.Shortfall, error) {
	checker := cost.NewChecker(s.registry, tx.Ledger())
	missing, err := checker.Missing(ctx, req.PlayerID, spec.ID)
	if err != nil {
		return placement.Decision{}, nil, err
	}
	if len(missing) > 0 {
		return placement.Deny(placement.CodeInsufficientResources, placement.MsgInsufficientResources), missing, nil
	}

	fp := tile.Footprint(req.Origin, spec.Width, spec.Height)
	if !fp.InBounds() {
		return placement.DenyAt(placement.CodeNotBuildable, placement.MsgNotBuildable, req.Origin), nil, nil
	}
	area := fp.Expand(spec.ReachDistance)
	snap, err := tx.LoadSnapshot(ctx, req.Region, area, req.PlayerID)
	if err != nil {
		return placement.Decision{}, nil, fmt.Errorf("failed to load world snapshot: %w", err)
	}

	d := s.engine.Evaluate(placement.Request{
		TypeID:   req.TypeID,
		Origin:   req.Origin,
		Region:   req.Region,
		PlayerID: req.PlayerID,
		Visible:  visible,
	}, snap)
	return d, nil, nil
}

// Evaluate answers a placement request without writing anything.
func (s *Service) Evaluate(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	logger := s.logger.With(
		"component", "building_service",
		"operation", "evaluate",
		"player_id", req.PlayerID,
		"entity_type_id", req.TypeID,
		"origin", req.Origin.String(),
	)

	if err := s.validate(req); err != nil {
		return nil, err
	}
	spec, ok := s.registry.Spec(req.TypeID)
	if !ok {
		logger.Debug("Unknown entity type")
		return &PlaceResult{Decision: placement.Deny(placement.CodeInvalidEntityType, placement.MsgInvalidEntityType)}, nil
	}

	visible, err := s.visibleSet(ctx, req.PlayerID, req.Region, req.Fog)
	if err != nil {
		return nil, appErrors.WrapInternal("failed to compute visibility", err)
	}

	result := &PlaceResult{}
	err = s.store.WithinTx(ctx, func(tx TxStore) error {
		d, missing, err := s.decide(ctx, tx, spec, req, visible)
		if err != nil {
			return err
		}
		result.Decision = d
		result.Missing = missing
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSerialization) {
			return nil, appErrors.WrapConflict("world changed during evaluation", err)
		}
		return nil, appErrors.WrapInternal("failed to evaluate placement", err)
	}

	logger.Debug("Placement evaluated", "allowed", result.Allowed, "code", result.Code)
	return result, nil
}

// Place evaluates the request and, when allowed, applies it in one
// transaction: the target entity and deposits are consumed into the new
// blueprint entity and the build cost is deducted.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	logger := s.logger.With(
		"component", "building_service",
		"operation", "place",
		"player_id", req.PlayerID,
		"entity_type_id", req.TypeID,
		"region", req.Region,
		"origin", req.Origin.String(),
		"fog", req.Fog.String(),
	)
	logger.Debug("Placing entity")

	if err := s.validate(req); err != nil {
		return nil, err
	}
	spec, ok := s.registry.Spec(req.TypeID)
	if !ok {
		logger.Debug("Unknown entity type")
		return &PlaceResult{Decision: placement.Deny(placement.CodeInvalidEntityType, placement.MsgInvalidEntityType)}, nil
	}

	visible, err := s.visibleSet(ctx, req.PlayerID, req.Region, req.Fog)
	if err != nil {
		return nil, appErrors.WrapInternal("failed to compute visibility", err)
	}

	result := &PlaceResult{}
	var eyeOwner *int
	err = s.store.WithinTx(ctx, func(tx TxStore) error {
		d, missing, err := s.decide(ctx, tx, spec, req, visible)
		if err != nil {
			return err
		}
		result.Decision = d
		result.Missing = missing
		if !d.Allowed {
			return errDenied
		}

		playerID := req.PlayerID
		entity := &world.Entity{
			TypeID:     spec.ID,
			Region:     req.Region,
			Origin:     req.Origin,
			Width:      spec.Width,
			Height:     spec.Height,
			State:      world.StateBlueprint,
			Durability: spec.Durability,
			OwnerID:    &playerID,
			Resources:  make(map[int]int64),
		}
		if spec.Category == entitytype.CategoryShipComponent {
			entity.ShipOwnerID = &playerID
		}

		if d.TargetEntity != nil {
			target, err := tx.LockEntity(ctx, d.TargetEntity.ID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: target entity %d vanished", ErrSerialization, d.TargetEntity.ID)
				}
				return err
			}
			if target.OwnerID == nil || *target.OwnerID != req.PlayerID {
				return fmt.Errorf("%w: target entity %d changed owner", ErrSerialization, target.ID)
			}
			for resourceID, qty := range target.Resources {
				entity.Resources[resourceID] += qty
			}
			if err := tx.DeleteEntity(ctx, target.ID); err != nil {
				return err
			}
			if _, ok := s.sight[target.TypeID]; ok {
				eyeOwner = target.OwnerID
			}
		}

		deposits, err := tx.DeleteDeposits(ctx, d.DepositsToRemove)
		if err != nil {
			return err
		}
		for _, dep := range deposits {
			dt, ok := s.registry.Deposit(dep.TypeID)
			if !ok {
				return fmt.Errorf("deposit %d has unknown type %d", dep.ID, dep.TypeID)
			}
			entity.Resources[dt.ResourceID] += dep.Amount
		}

		if err := tx.InsertEntity(ctx, entity); err != nil {
			return err
		}
		if err := cost.NewChecker(s.registry, tx.Ledger()).Deduct(ctx, req.PlayerID, spec.ID); err != nil {
			return err
		}

		result.Entity = entity
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errDenied):
		logger.Debug("Placement denied", "code", result.Code, "reason", result.Error)
		return result, nil
	case errors.Is(err, ErrTileTaken):
		logger.Info("Tile claimed by a concurrent placement", "error", err)
		return &PlaceResult{Decision: placement.Deny(placement.CodeOccupied, placement.MsgOccupied)}, nil
	case errors.Is(err, cost.ErrNegativeBalance):
		logger.Info("Balance changed during placement", "error", err)
		return &PlaceResult{Decision: placement.Deny(placement.CodeInsufficientResources, placement.MsgInsufficientResources)}, nil
	case errors.Is(err, ErrSerialization):
		return nil, appErrors.WrapConflict("placement conflicted with a concurrent update", err)
	default:
		return nil, appErrors.WrapInternal("failed to place entity", err)
	}

	stale := make(map[int]struct{}, 2)
	if _, isEye := s.sight[spec.ID]; isEye {
		stale[req.PlayerID] = struct{}{}
	}
	if eyeOwner != nil {
		stale[*eyeOwner] = struct{}{}
	}
	for playerID := range stale {
		s.invalidateFog(ctx, playerID, req.Region)
	}

	logger.Info("Entity placed",
		"entity_id", result.Entity.ID,
		"target_entity", result.TargetEntity != nil,
		"deposits_removed", len(result.DepositsToRemove),
	)
	return result, nil
}

func (s *Service) invalidateFog(ctx context.Context, playerID, region int) {
	if err := s.fogCache.Invalidate(ctx, playerID, region); err != nil {
		s.logger.Warn("Failed to invalidate fog cache",
			"component", "building_service", "player_id", playerID, "region", region, "error", err)
	}
}

// Remove deletes an entity owned by the player. Blueprints have their build
// cost refunded; built entities do not.
func (s *Service) Remove(ctx context.Context, playerID int, entityID int64, asAdmin bool) (*RemoveResult, error) {
	logger := s.logger.With("component", "building_service", "operation", "remove", "player_id", playerID, "entity_id", entityID)
	logger.Debug("Removing entity")

	result := &RemoveResult{EntityID: entityID}
	var removed *world.Entity
	err := s.store.WithinTx(ctx, func(tx TxStore) error {
		e, err := tx.LockEntity(ctx, entityID)
		if err != nil {
			return err
		}
		if !asAdmin && (e.OwnerID == nil || *e.OwnerID != playerID) {
			return appErrors.Forbidden("entity belongs to another player")
		}
		if err := tx.DeleteEntity(ctx, e.ID); err != nil {
			return err
		}
		if e.State == world.StateBlueprint && e.OwnerID != nil {
			if err := cost.NewChecker(s.registry, tx.Ledger()).Refund(ctx, *e.OwnerID, e.TypeID); err != nil {
				return err
			}
			result.Refunded = true
		}
		removed = e
		return nil
	})
	if err != nil {
		return nil, s.mapEntityError(err, entityID, "failed to remove entity")
	}

	if _, isEye := s.sight[removed.TypeID]; isEye && removed.OwnerID != nil {
		s.invalidateFog(ctx, *removed.OwnerID, removed.Region)
	}

	logger.Info("Entity removed", "refunded", result.Refunded)
	return result, nil
}

// Complete finishes construction of a blueprint. Types that convert into
// terrain replace their footprint with the target landing and disappear.
func (s *Service) Complete(ctx context.Context, playerID int, entityID int64, asAdmin bool) (*CompleteResult, error) {
	logger := s.logger.With("component", "building_service", "operation", "complete", "player_id", playerID, "entity_id", entityID)
	logger.Debug("Completing construction")

	result := &CompleteResult{EntityID: entityID}
	err := s.store.WithinTx(ctx, func(tx TxStore) error {
		e, err := tx.LockEntity(ctx, entityID)
		if err != nil {
			return err
		}
		if !asAdmin && (e.OwnerID == nil || *e.OwnerID != playerID) {
			return appErrors.Forbidden("entity belongs to another player")
		}
		if e.State != world.StateBlueprint {
			return appErrors.Conflictf("entity %d is already built", e.ID)
		}
		spec, ok := s.registry.Spec(e.TypeID)
		if !ok {
			return fmt.Errorf("entity %d has unknown type %d", e.ID, e.TypeID)
		}

		if spec.ConvertsToLandingID != nil {
			landingID := *spec.ConvertsToLandingID
			if err := tx.DeleteEntity(ctx, e.ID); err != nil {
				return err
			}
			if err := tx.SetTerrain(ctx, e.Region, e.Footprint().Tiles(), landingID); err != nil {
				return err
			}
			result.LandingID = &landingID
			return nil
		}

		if err := tx.SetEntityState(ctx, e.ID, world.StateBuilt); err != nil {
			return err
		}
		e.State = world.StateBuilt
		result.Entity = e
		return nil
	})
	if err != nil {
		return nil, s.mapEntityError(err, entityID, "failed to complete construction")
	}

	logger.Info("Construction completed", "converted", result.LandingID != nil)
	return result, nil
}

func (s *Service) mapEntityError(err error, entityID int64, msg string) error {
	var appErr *appErrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, ErrNotFound):
		return appErrors.NotFoundf("entity not found with id: %d", entityID)
	case errors.Is(err, ErrSerialization):
		return appErrors.WrapConflict(msg, err)
	default:
		return appErrors.WrapInternal(msg, err)
	}
}
