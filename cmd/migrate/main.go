package main

import (
	"context"
	"time"

	appointmentrepo "consultly/internal/appointments/repository"
	mongoMigration "consultly/internal/migrations/mongo"
	partyrepo "consultly/internal/parties/repository"
	"consultly/pkg/config"
)

const (
	JobName = "migration"

	migrationTimeout = 120 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	if cfg.UsesMongo() {
		cfg.SetMongo()
		cfg.Log.Info("Starting Mongo migration job")
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Mongo migration failed", "error", err)
		}
	}

	if cfg.UsesSQL() {
		cfg.SetSQL()
		cfg.Log.Info("Starting SQL migration job", "driver", cfg.StoreDriver)
		db := cfg.Client.SQL.WithContext(ctx)
		if err := appointmentrepo.AutoMigrate(db); err != nil {
			cfg.Log.Fatal("Appointments table migration failed", "error", err)
		}
		if err := partyrepo.AutoMigrate(db); err != nil {
			cfg.Log.Fatal("Users table migration failed", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}
