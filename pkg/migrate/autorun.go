package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/angelmondragon/pickupz-backend/pkg/db"
	"github.com/angelmondragon/pickupz-backend/pkg/db/models"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
	"gorm.io/gorm"
)

// MaybeRunDev brings the schema up to date at boot when running in dev with
// PICKUPZ_AUTO_MIGRATE set. sqlite gets AutoMigrate, postgres gets the goose files.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.Driver == config.DBDriverSQLite {
		logg.Info(ctx, "migrate.auto_sqlite")
		return AutoMigrateModels(client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := NewRunner(sqlDB, DefaultDir, logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.auto_goose")
	return runner.Up(ctx)
}

// AutoMigrateModels creates the schema from the GORM models. Used for sqlite, where the
// Postgres enum and jsonb DDL does not apply.
func AutoMigrateModels(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	if err := conn.AutoMigrate(&models.Store{}, &models.PickupOrder{}); err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}
	return nil
}
