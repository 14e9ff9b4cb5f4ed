package main

import (
	"AssocVerify/internal/adapters/httpapi"
	"AssocVerify/internal/adapters/postgres"
	"AssocVerify/internal/adapters/security"
	"AssocVerify/internal/shared/config"
	"AssocVerify/internal/shared/logger"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev(), "status-api")
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("listen_addr", cfg.HTTP.ListenAddr).
		Msg("Configuration loaded")

	// 3. Initialize the Security Service
	keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	secSvc, err := security.NewAESService(keyBytes, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Initialize Database
	db, err := postgres.NewDB(ctx, cfg.Postgres.URL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// 5. Initialize Repositories
	repo := postgres.NewVerificationRepository(db, secSvc, &baseLogger)

	// 6. Serve
	handler := httpapi.NewHandler(repo, db, &baseLogger)
	srv := httpapi.NewServer(cfg.HTTP.ListenAddr, handler.Routes(), &baseLogger)

	baseLogger.Info().Msg("All services initialized successfully")
	if err := srv.Run(ctx, 10*time.Second); err != nil {
		baseLogger.Error().Err(err).Msg("HTTP server stopped with error")
		return
	}
	baseLogger.Info().Msg("Status API stopped")
}
