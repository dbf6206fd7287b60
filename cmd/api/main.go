package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"batchgen/internal/adapter/repo"
	"batchgen/internal/http/handlers"
	httpapi "batchgen/internal/http/httpapi"
	"batchgen/internal/infra"
	"batchgen/internal/storage"
)

func main() {
	// Konfigurasi & logger
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "api").Logger()

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	jobs := repo.NewBatchJobRepository(runner)
	refs := repo.NewReferenceRepository(runner)
	images := repo.NewGeneratedImageRepository(runner)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	assets, err := storage.NewAssetStore(storage.AssetStoreOptions{
		Files:         fileStore,
		Images:        images,
		ThumbnailSize: cfg.ThumbnailSize,
		Logger:        &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure asset store")
	}

	app := handlers.NewApp(jobs, refs, assets, dbpool)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		RateLimitPerMin:    cfg.RateLimitPerMin,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminJWTSecret:     cfg.AdminJWTSecret,
		DefaultLocale:      cfg.DefaultLocale,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Warn().Msg("ADMIN_JWT_SECRET not set, batch job API is unauthenticated")
	}

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
