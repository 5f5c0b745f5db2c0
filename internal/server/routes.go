package server

import (
	"log/slog"
	"net/http"

	buildingHandlers "factory-server/internal/building/handlers"
	"factory-server/internal/middleware"
	playerHandlers "factory-server/internal/player/handlers"
	serverHandlers "factory-server/internal/server/handlers"
)

type Routes struct {
	placements   buildingHandlers.PlacementService
	regionAccess middleware.RegionMembership
	profiles     playerHandlers.ProfileService
	health       http.Handler
	logger       *slog.Logger
}

func NewRoutes(placements buildingHandlers.PlacementService, regionAccess middleware.RegionMembership, profiles playerHandlers.ProfileService, health *serverHandlers.HealthHandler, logger *slog.Logger) *Routes {
	return &Routes{
		placements:   placements,
		regionAccess: regionAccess,
		profiles:     profiles,
		health:       health,
		logger:       logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	placementHandler := buildingHandlers.NewPlacementHandler(r.placements)
	inRegion := middleware.NewRegionAccessMiddleware(r.regionAccess)
	meHandler := playerHandlers.NewMeHandler(r.profiles)

	// Public endpoints
	mux.Handle("GET /api/server/health", r.health)
	mux.HandleFunc("GET /api/entity-types", placementHandler.EntityTypes)

	// Player endpoints (authenticated, ship docked in region)
	mux.Handle("GET /api/players/me", middleware.JWTMiddleware(meHandler))
	mux.Handle("POST /api/regions/{region}/placements/evaluate", inRegion.Require(http.HandlerFunc(placementHandler.Evaluate)))
	mux.Handle("POST /api/regions/{region}/placements", inRegion.Require(http.HandlerFunc(placementHandler.Place)))
	mux.Handle("DELETE /api/entities/{id}", middleware.JWTMiddleware(http.HandlerFunc(placementHandler.Remove)))
	mux.Handle("POST /api/entities/{id}/complete", middleware.JWTMiddleware(http.HandlerFunc(placementHandler.Complete)))

	// Admin-only endpoints (authenticated + admin role)
	mux.Handle("POST /api/admin/regions/{region}/placements", middleware.RequireAdmin(http.HandlerFunc(placementHandler.AdminPlace)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/entity-types"},
		"protected_endpoints", []string{
			"/api/players/me",
			"/api/regions/{region}/placements/evaluate",
			"/api/regions/{region}/placements",
			"/api/entities/{id}",
			"/api/entities/{id}/complete",
		},
		"admin_endpoints", []string{"/api/admin/regions/{region}/placements"},
	)

	return mux
}
