package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"gorm.io/gorm"
)

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) Create(ctx context.Context, analysis *models.UserAnalysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

func (r *AnalysisRepository) FindByID(ctx context.Context, id uint) (*models.UserAnalysis, error) {
	var analysis models.UserAnalysis
	if err := r.db.WithContext(ctx).First(&analysis, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &analysis, nil
}

func (r *AnalysisRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]models.UserAnalysis, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.UserAnalysis{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.UserAnalysis
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order(page.orderClause()).
		Offset(page.Skip).Limit(page.Limit).
		Find(&items).Error
	return items, total, err
}

// SaveResults writes the three result documents in a single update.
func (r *AnalysisRepository) SaveResults(ctx context.Context, analysis *models.UserAnalysis) error {
	return r.db.WithContext(ctx).Model(analysis).
		Select("face_analysis", "style_recommendations", "personalized_insights", "updated_at").
		Updates(analysis).Error
}
