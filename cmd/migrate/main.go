package main

// Run database migrations and seed the catalog:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"inspection-backend/internal/catalog"
	"inspection-backend/internal/shared/config"
	"inspection-backend/internal/shared/storage/db"
	"inspection-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("failed to connect database", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("failed to run migrations", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	n, err := catalog.Seed(ctx, &catalog.PGRepo{DB: sqlDB})
	if err != nil {
		telemetry.Error("failed to seed catalog", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	files, _ := db.Migrations()
	telemetry.Info("migrations applied", map[string]any{"migrations": len(files), "catalog_items": n})
}
