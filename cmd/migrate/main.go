// Command migrate applies the document schema to the database named by
// ZEUS_DATABASE_DSN (or DATABASE_URL) and exits.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"zeus-backend/internal/config"
	"zeus-backend/internal/infrastructure/logging"
	"zeus-backend/internal/repository/postgres"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver != config.DatabasePostgres {
		log.Fatalf("database driver is %q, migrations only apply to %q", cfg.Database.Driver, config.DatabasePostgres)
	}

	logger, _, err := logging.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := postgres.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("Migration failed", zap.Error(err))
		return
	}
	logger.Info("Migrations applied")
}
