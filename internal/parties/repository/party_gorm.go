package repository

import (
	"context"
	"errors"
	"fmt"

	"consultly/pkg/config"
	"consultly/pkg/model"

	"gorm.io/gorm"
)

type gormPartyRepository struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewGormPartyRepository(cfg *config.Config) PartyRepository {
	return &gormPartyRepository{cfg: cfg, db: cfg.Client.SQL}
}

// AutoMigrate creates the users table. Production rows are written by the
// identity service; the table is created here for local and test setups.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Party{})
}

func (r *gormPartyRepository) FindByID(ctx context.Context, id string) (*model.Party, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var party model.Party
	if err := r.db.WithContext(ctx).First(&party, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find party: %w", err)
	}
	return &party, nil
}

func (r *gormPartyRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.Party, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	parties := []*model.Party{}
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("name ASC").Find(&parties).Error; err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	return parties, nil
}

func (r *gormPartyRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
