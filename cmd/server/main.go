package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"factory-server/internal/building"
	"factory-server/internal/entitytype"
	"factory-server/internal/middleware"
	"factory-server/internal/placement"
	"factory-server/internal/player"
	"factory-server/internal/server"
	serverHandlers "factory-server/internal/server/handlers"
	"factory-server/internal/shared/config"
	"factory-server/internal/shared/database"
	"factory-server/internal/shared/logger"
	"factory-server/internal/shared/redis"
	"factory-server/internal/visibility"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := entitytype.Load(cfg.Game.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load entity catalog: %w", err)
	}
	log.Info("Entity catalog loaded", "path", cfg.Game.CatalogPath, "entity_types", len(registry.Specs()))

	engine := placement.NewEngine(registry)
	engine.Seal()

	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := redis.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis", "error", err)
		}
	}()

	var fogCache visibility.Cache = visibility.NewMemoryCache()
	var cachePinger serverHandlers.Pinger
	if redisClient != nil {
		fogCache = visibility.NewRedisCache(redisClient.Client, cfg.Game.FogCacheTTL, slog.Default())
		cachePinger = redisClient
	}

	repo := building.NewRepository(db, registry, slog.Default())
	service := building.NewService(repo, engine, fogCache, cfg.Game.FogOfWar, slog.Default())
	players := player.NewService(player.NewRepository(db, slog.Default()), registry, slog.Default())
	health := serverHandlers.NewHealthHandler(db, cachePinger, len(registry.Specs()))

	mux := server.NewRoutes(service, repo, players, health, slog.Default()).Setup()

	cors := middleware.NewCORS(cfg.Frontend)
	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	handler := middleware.RequestID(cors.Middleware(limiter.Middleware(mux)))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Factory server starting",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"fog_of_war", cfg.Game.FogOfWar,
			"redis", redisClient != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
