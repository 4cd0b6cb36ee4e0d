package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"gorm.io/gorm"
)

type FeaturesRepository struct {
	db *gorm.DB
}

func NewFeaturesRepository(db *gorm.DB) *FeaturesRepository {
	return &FeaturesRepository{db: db}
}

func (r *FeaturesRepository) FindByID(ctx context.Context, id string) (*models.UserFeatures, error) {
	var f models.UserFeatures
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&f).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &f, nil
}

func (r *FeaturesRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.UserFeatures, error) {
	var items []models.UserFeatures
	err := r.db.WithContext(ctx).
		Where("gen_confi_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
