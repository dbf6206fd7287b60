package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"batchgen/internal/adapter/repo"
	"batchgen/internal/batch"
	"batchgen/internal/bus"
	"batchgen/internal/infra"
	"batchgen/internal/infra/credentials"
	"batchgen/internal/providers/genai"
	"batchgen/internal/providers/image"
	"batchgen/internal/providers/prompt"
	"batchgen/internal/storage"
	"batchgen/internal/worker"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewBatchJobRepository(runner)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}
	assets, err := storage.NewAssetStore(storage.AssetStoreOptions{
		Files:         fileStore,
		Images:        repo.NewGeneratedImageRepository(runner),
		ThumbnailSize: cfg.ThumbnailSize,
		Logger:        &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure asset store")
	}

	gemini, err := credentials.NewStore(runner).ResolveGemini(ctx, credentials.GeminiCredential{
		APIKey:     cfg.GeminiAPIKey,
		ImageModel: cfg.GeminiImageModel,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load gemini credential from store")
	}
	geminiClient, err := genai.NewClient(genai.Options{
		APIKey:     gemini.APIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		ImageModel: gemini.ImageModel,
		HTTPClient: &http.Client{Timeout: cfg.GeminiHTTPTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
	}
	if !geminiClient.HasAPIKey() {
		logger.Warn().Str("model", geminiClient.ImageModel()).Msg("worker: gemini api key missing, using synthetic asset generation")
	}

	var reporter batch.ProgressReporter
	if cfg.NATSURL != "" {
		nc, err := bus.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("worker: nats connection failed")
		}
		defer nc.Close()
		reporter = bus.NewProgressPublisher(nc, cfg.NATSProgressSubject)
		logger.Info().Str("subject", cfg.NATSProgressSubject+".<job_id>").Msg("worker: publishing progress events")
	}

	processor, err := batch.NewProcessor(batch.Options{
		Store:      jobs,
		References: repo.NewReferenceRepository(runner),
		Generator:  image.NewGeminiVariationGenerator(geminiClient),
		Describer:  prompt.NewGeminiDescriber(prompt.GeminiDescriberOptions{Client: geminiClient}),
		Assets:     assets,
		Reporter:   reporter,
		Logger:     &logger,
		Speed:      cfg.SpeedConfig(),
		ItemDelay:  cfg.BatchItemDelay,
		Pacing:     batch.ParsePacingPolicy(cfg.BatchPacingPolicy),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure processor")
	}

	loop, err := worker.New(worker.Options{
		Claimer:      jobs,
		Runner:       processor,
		PollInterval: cfg.WorkerPollInterval,
		StaleAfter:   cfg.WorkerStaleAfter,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure loop")
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
