package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booknotes/internal/app"
	"booknotes/internal/bot"
	"booknotes/internal/config"
	"booknotes/internal/dedup"
	"booknotes/internal/util"
	"booknotes/pkg/ai"
	"booknotes/pkg/storage"
	"booknotes/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init postgres store: %v", err)
	}

	aiClient := ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.GenerationModel, cfg.TranscriptionModel)

	var archive storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		archive, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init voice archive: %v", err)
		}
	}

	var marker *dedup.Marker
	if cfg.RedisAddr != "" {
		marker, err = dedup.New(cfg.RedisAddr, cfg.RedisPassword, "booknotes:update", 24*time.Hour)
		if err != nil {
			log.Fatalf("failed to init dedup marker: %v", err)
		}
		defer marker.Close()
	}

	core, err := app.New(app.Config{
		Store:        dataStore,
		Generator:    aiClient,
		Transcriber:  aiClient,
		VoiceArchive: archive,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	tgBot, err := bot.New(bot.Config{
		Token: cfg.TelegramToken,
		App:   core,
		Dedup: marker,
	})
	if err != nil {
		log.Fatalf("failed to init telegram bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("booknotes bot running", "account", tgBot.Username())
	if err := tgBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("booknotes bot stopped")
}
