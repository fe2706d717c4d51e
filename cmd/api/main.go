package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dhima/dbhelper/internal/api"
	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/dhima/dbhelper/pkg/config"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	if err := serve(cfg, logger); err != nil {
		logger.Error("api server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(cfg config.App, logger logging.Logger) error {
	dialect, err := database.DialectFor(cfg.DBDriver)
	if err != nil {
		return err
	}
	if cfg.DBErrorMode != "return" {
		logger.Info("DB_ERROR_MODE ignored; the API always returns errors to the caller",
			zap.String("configured", cfg.DBErrorMode),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := database.New(ctx, cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName,
		database.WithDialect(dialect),
		database.WithErrorMode(database.ErrorModeReturn),
		database.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close database session", zap.Error(err))
		}
	}()

	return api.NewServer(cfg, logger, client).Serve()
}
