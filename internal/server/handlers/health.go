package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"factory-server/internal/shared/response"
)

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	EntityTypes int    `json:"entity_types"`
}

// Pinger is satisfied by the database handle and the redis client.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	cache       Pinger
	entityTypes int
}

// NewHealthHandler reports on db and, when non-nil, the fog cache backend.
func NewHealthHandler(db Pinger, cache Pinger, entityTypes int) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, entityTypes: entityTypes}
}

func probe(ctx context.Context, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.PingContext(ctx); err != nil {
		slog.Warn("Health probe failed", "handler", "health", "error", err)
		return "disconnected"
	}
	return "connected"
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().Format(time.RFC3339),
		Database:    probe(r.Context(), h.db),
		Cache:       "memory",
		EntityTypes: h.entityTypes,
	}
	if h.cache != nil {
		resp.Cache = probe(r.Context(), h.cache)
	}
	if resp.Database != "connected" {
		resp.Status = "degraded"
	}

	response.Success(w, http.StatusOK, resp)
}
