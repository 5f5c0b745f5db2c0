package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"factory-server/internal/building"
	"factory-server/internal/entitytype"
	"factory-server/internal/player"
	serverHandlers "factory-server/internal/server/handlers"
)

type stubPlacements struct{}

func (stubPlacements) Evaluate(context.Context, building.PlaceRequest) (*building.PlaceResult, error) {
	return &building.PlaceResult{}, nil
}

func (stubPlacements) Place(context.Context, building.PlaceRequest) (*building.PlaceResult, error) {
	return &building.PlaceResult{}, nil
}

func (stubPlacements) Remove(context.Context, int, int64, bool) (*building.RemoveResult, error) {
	return &building.RemoveResult{}, nil
}

func (stubPlacements) Complete(context.Context, int, int64, bool) (*building.CompleteResult, error) {
	return &building.CompleteResult{}, nil
}

func (stubPlacements) EntityTypes() []entitytype.Spec {
	return []entitytype.Spec{{ID: 101}}
}

type stubMembership struct{}

func (stubMembership) PlayerInRegion(context.Context, int, int) (bool, error) {
	return true, nil
}

type stubProfiles struct{}

func (stubProfiles) GetProfile(context.Context, int) (*player.Profile, error) {
	return &player.Profile{}, nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error {
	return p.err
}

func newMux() *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	health := serverHandlers.NewHealthHandler(pinger{}, nil, 1)
	return NewRoutes(stubPlacements{}, stubMembership{}, stubProfiles{}, health, logger).Setup()
}

func TestRoutes(t *testing.T) {
	mux := newMux()

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/server/health", http.StatusOK},
		{http.MethodGet, "/api/entity-types", http.StatusOK},
		{http.MethodPost, "/api/regions/1/placements/evaluate", http.StatusUnauthorized},
		{http.MethodPost, "/api/regions/1/placements", http.StatusUnauthorized},
		{http.MethodDelete, "/api/entities/5", http.StatusUnauthorized},
		{http.MethodPost, "/api/entities/5/complete", http.StatusUnauthorized},
		{http.MethodPost, "/api/admin/regions/1/placements", http.StatusUnauthorized},
		{http.MethodGet, "/api/players/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/regions/1/placements", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s %s: status = %d, want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}
}

func TestHealthReportsDegradedDatabase(t *testing.T) {
	h := serverHandlers.NewHealthHandler(pinger{err: io.ErrUnexpectedEOF}, pinger{}, 3)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/server/health", nil))

	var resp serverHandlers.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Database != "disconnected" || resp.Cache != "connected" || resp.EntityTypes != 3 {
		t.Fatalf("unexpected health: %+v", resp)
	}
}
