package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"factory-server/internal/middleware"
	"factory-server/internal/player"
	"factory-server/internal/shared/errors"
	"factory-server/internal/shared/response"
)

type ProfileService interface {
	GetProfile(ctx context.Context, playerID int) (*player.Profile, error)
}

type MeHandler struct {
	service ProfileService
}

func NewMeHandler(service ProfileService) *MeHandler {
	return &MeHandler{service: service}
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "me")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("no user claims found in context"))
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.PlayerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, profile)
}
