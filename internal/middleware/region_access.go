package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"factory-server/internal/shared/errors"
	"factory-server/internal/shared/response"
)

// RegionMembership reports whether a player currently has a presence in a
// region.
type RegionMembership interface {
	PlayerInRegion(ctx context.Context, playerID, region int) (bool, error)
}

type RegionAccessMiddleware struct {
	members RegionMembership
}

func NewRegionAccessMiddleware(members RegionMembership) *RegionAccessMiddleware {
	return &RegionAccessMiddleware{members: members}
}

// Require authenticates the request and rejects players acting in a region
// where their ship is not docked. Admins pass through.
func (m *RegionAccessMiddleware) Require(next http.Handler) http.Handler {
	return JWTMiddleware(m.check(next))
}

func (m *RegionAccessMiddleware) check(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "region_access",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		regionStr := r.PathValue("region")
		if regionStr == "" {
			response.Error(w, r, logger, errors.Validation("region ID is required"))
			return
		}

		region, err := strconv.Atoi(regionStr)
		if err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid region ID format", err))
			return
		}

		if claims.IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}

		ok, err := m.members.PlayerInRegion(r.Context(), claims.PlayerID, region)
		if err != nil {
			response.Error(w, r, logger, errors.WrapInternal("failed to check region access", err))
			return
		}
		if !ok {
			response.Error(w, r, logger, errors.Forbidden("region access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
