package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"factory-server/internal/building"
	"factory-server/internal/entitytype"
	"factory-server/internal/middleware"
	"factory-server/internal/placement"
	"factory-server/internal/shared/errors"
	"factory-server/internal/shared/response"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
)

const maxBodyBytes = 1 << 16

type PlacementService interface {
	Evaluate(ctx context.Context, req building.PlaceRequest) (*building.PlaceResult, error)
	Place(ctx context.Context, req building.PlaceRequest) (*building.PlaceResult, error)
	Remove(ctx context.Context, playerID int, entityID int64, asAdmin bool) (*building.RemoveResult, error)
	Complete(ctx context.Context, playerID int, entityID int64, asAdmin bool) (*building.CompleteResult, error)
	EntityTypes() []entitytype.Spec
}

type PlacementHandler struct {
	service PlacementService
}

func NewPlacementHandler(service PlacementService) *PlacementHandler {
	return &PlacementHandler{service: service}
}

type placementBody struct {
	EntityTypeID int `json:"entity_type_id"`
	X            int `json:"x"`
	Y            int `json:"y"`
	// PlayerID is honoured on the admin route only.
	PlayerID int `json:"player_id,omitempty"`
}

// decodePlacement builds a PlaceRequest from the path region, the body and
// the authenticated player.
func decodePlacement(w http.ResponseWriter, r *http.Request, fog visibility.Mode) (building.PlaceRequest, error) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		return building.PlaceRequest{}, errors.Unauthorized("authentication required")
	}

	region, err := strconv.Atoi(r.PathValue("region"))
	if err != nil {
		return building.PlaceRequest{}, errors.WrapValidation("invalid region ID format", err)
	}

	var body placementBody
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return building.PlaceRequest{}, errors.WrapValidation("invalid JSON in request body", err)
	}
	if body.EntityTypeID <= 0 {
		return building.PlaceRequest{}, errors.Validation("entity_type_id is required")
	}
	if body.X < tile.MinCoord || body.X > tile.MaxCoord || body.Y < tile.MinCoord || body.Y > tile.MaxCoord {
		return building.PlaceRequest{}, errors.Validation("x and y must fit in a 32-bit integer")
	}

	playerID := claims.PlayerID
	if fog == visibility.FogBypass && body.PlayerID > 0 {
		playerID = body.PlayerID
	}

	return building.PlaceRequest{
		PlayerID: playerID,
		TypeID:   body.EntityTypeID,
		Region:   region,
		Origin:   tile.Coord{X: body.X, Y: body.Y},
		Fog:      fog,
	}, nil
}

// placeStatus maps an apply outcome to a status code. Denials keep the
// decision as body so clients can show the reason and offending tile.
func placeStatus(res *building.PlaceResult) int {
	switch {
	case res.Allowed:
		return http.StatusCreated
	case res.Code == placement.CodeInvalidEntityType:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func (h *PlacementHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "evaluate_placement")

	req, err := decodePlacement(w, r, visibility.FogEnforced)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	res, err := h.service.Evaluate(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, res)
}

func (h *PlacementHandler) Place(w http.ResponseWriter, r *http.Request) {
	h.place(w, r, visibility.FogEnforced, "place_entity")
}

// AdminPlace places without fog of war, optionally on behalf of a player.
func (h *PlacementHandler) AdminPlace(w http.ResponseWriter, r *http.Request) {
	h.place(w, r, visibility.FogBypass, "admin_place_entity")
}

func (h *PlacementHandler) place(w http.ResponseWriter, r *http.Request, fog visibility.Mode, name string) {
	logger := slog.With("handler", name)

	req, err := decodePlacement(w, r, fog)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	res, err := h.service.Place(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if !res.Allowed {
		logger.Debug("Placement denied", "player_id", req.PlayerID, "code", res.Code, "reason", res.Error)
	}
	response.Success(w, placeStatus(res), res)
}

func entityID(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, errors.Validation("entity ID is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validationf("invalid entity ID: %q", idStr)
	}
	return id, nil
}

func (h *PlacementHandler) Remove(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "remove_entity")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}
	id, err := entityID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	res, err := h.service.Remove(r.Context(), claims.PlayerID, id, claims.IsAdmin())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, res)
}

func (h *PlacementHandler) Complete(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "complete_entity")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}
	id, err := entityID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	res, err := h.service.Complete(r.Context(), claims.PlayerID, id, claims.IsAdmin())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, res)
}

func (h *PlacementHandler) EntityTypes(w http.ResponseWriter, r *http.Request) {
	specs := h.service.EntityTypes()
	if specs == nil {
		specs = []entitytype.Spec{}
	}
	response.Success(w, http.StatusOK, specs)
}
