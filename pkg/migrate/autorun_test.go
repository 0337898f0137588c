package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/angelmondragon/pickupz-backend/pkg/db"
	"github.com/angelmondragon/pickupz-backend/pkg/db/models"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

func TestAutoMigrateModelsOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrateModels(conn); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	store := models.Store{ID: uuid.New(), OwnerID: uuid.New(), Name: "Corner Mart", Inventory: map[string]int{"rice": 3}}
	if err := conn.Create(&store).Error; err != nil {
		t.Fatalf("insert store: %v", err)
	}
	order := models.PickupOrder{
		ID:             uuid.New(),
		StoreID:        store.ID,
		Status:         enums.OrderStatusPending,
		Items:          []byte(`[]`),
		CustomerUserID: uuid.New(),
		CustomerName:   "Asha",
		CustomerPhone:  "555",
		Subtotal:       decimal.NewFromInt(10),
		TaxRatePercent: decimal.NewFromInt(5),
		Tax:            decimal.NewFromInt(1),
		PlatformFee:    decimal.NewFromInt(1),
		Total:          decimal.NewFromInt(12),
		PickupCode:     "0427",
		PlacedAt:       time.Now().UTC(),
	}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("insert order: %v", err)
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), (*db.Client)(nil)); err != nil {
		t.Fatalf("expected no-op outside dev, got %v", err)
	}
}
