package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/farukkamcici/ibb-transport-sub001/internal/config"
	"github.com/farukkamcici/ibb-transport-sub001/internal/favorites"
	"github.com/farukkamcici/ibb-transport-sub001/internal/logger"
	"github.com/farukkamcici/ibb-transport-sub001/internal/metroapi"
	"github.com/farukkamcici/ibb-transport-sub001/internal/routes"
	"github.com/farukkamcici/ibb-transport-sub001/internal/server"
	"github.com/farukkamcici/ibb-transport-sub001/internal/topology"
)

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(logger.Config{Level: cfg.LogLevel, Console: true, FilePath: cfg.LogFile})
	logg.Info().
		Str("base_url", cfg.MetroAPIBaseURL).
		Dur("refresh_interval", cfg.RefreshInterval).
		Str("log_level", cfg.LogLevel).
		Msg("starting transit service")

	client := metroapi.New(metroapi.Config{
		BaseURL:       cfg.MetroAPIBaseURL,
		StaticBaseURL: cfg.StaticDataBaseURL,
		Timeout:       cfg.RequestTimeout,
	}, logg)

	cache := topology.New(client, logg)
	geo := routes.NewStore(client, logg)

	if dir := filepath.Dir(cfg.SQLitePath); cfg.DatabaseURL == "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logg.Fatal().Err(err).Str("dir", dir).Msg("failed to create data directory")
		}
	}

	favs, err := favorites.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to open favorites store")
	}
	defer favs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cache.Refresh(ctx); err != nil {
		// Continue anyway - the cache loads lazily on first read.
		logg.Warn().Err(err).Msg("topology warm-up failed")
	}

	srv := server.New(server.Config{
		Addr:            cfg.Addr(),
		AllowedOrigins:  cfg.AllowedOrigins,
		RefreshInterval: cfg.RefreshInterval,
	}, cache, geo, client, favs, logg)

	if err := srv.Run(ctx); err != nil {
		logg.Fatal().Err(err).Msg("server stopped")
	}
	logg.Info().Msg("goodbye")
}
