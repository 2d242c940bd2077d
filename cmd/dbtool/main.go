package main

import (
	"fmt"
	"navigation-session-service/internal/adapters/repositories"
	"navigation-session-service/internal/config"
	"navigation-session-service/internal/platform/db"
	"navigation-session-service/internal/platform/obs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbtool prepares the Postgres session store ahead of a deploy.
func main() {
	_ = godotenv.Load()

	logger, err := obs.NewLogger(config.Get("APP_ENV", "production"), config.Get("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	logger.Info("initializing session schema")
	if err := repositories.InitPostgresSchema(conn); err != nil {
		logger.Fatal("schema initialization failed", zap.Error(err))
	}
	logger.Info("schema ready")
}
