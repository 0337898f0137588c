package stores

import (
	"context"

	"github.com/angelmondragon/pickupz-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository persists stores through GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Save upserts the store row.
func (r *GormRepository) Save(ctx context.Context, store Store) error {
	record := toModel(store)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

// LoadAll returns every persisted store.
func (r *GormRepository) LoadAll(ctx context.Context) ([]Store, error) {
	var rows []models.Store
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Store, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func toModel(s Store) models.Store {
	inventory := s.Inventory
	if inventory == nil {
		inventory = map[string]int{}
	}
	return models.Store{
		ID:               s.ID,
		OwnerID:          s.OwnerID,
		Name:             s.Name,
		IsOnline:         s.IsOnline,
		AckWindowSeconds: s.AckWindowSeconds,
		TaxRatePercent:   s.TaxRatePercent,
		Inventory:        inventory,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func fromModel(m models.Store) Store {
	inventory := m.Inventory
	if inventory == nil {
		inventory = map[string]int{}
	}
	return Store{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Name:             m.Name,
		IsOnline:         m.IsOnline,
		AckWindowSeconds: m.AckWindowSeconds,
		TaxRatePercent:   m.TaxRatePercent,
		Inventory:        inventory,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
