package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"gorm.io/gorm"
)

type GroomingHistoryRepository struct {
	db *gorm.DB
}

func NewGroomingHistoryRepository(db *gorm.DB) *GroomingHistoryRepository {
	return &GroomingHistoryRepository{db: db}
}

func (r *GroomingHistoryRepository) ownedBy(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.GroomingHistory{}).Where("user_id = ?", userID)
}

func (r *GroomingHistoryRepository) Create(ctx context.Context, record *models.GroomingHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID loads a record regardless of owner so callers can tell
// "missing" from "not yours".
func (r *GroomingHistoryRepository) FindByID(ctx context.Context, id uint) (*models.GroomingHistory, error) {
	var record models.GroomingHistory
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &record, nil
}

func (r *GroomingHistoryRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]models.GroomingHistory, int64, error) {
	var total int64
	if err := r.ownedBy(ctx, userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []models.GroomingHistory
	err := r.ownedBy(ctx, userID).
		Order(page.orderClause()).
		Offset(page.Skip).Limit(page.Limit).
		Find(&records).Error
	return records, total, err
}

func (r *GroomingHistoryRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.ownedBy(ctx, userID).Count(&total).Error
	return total, err
}

// Recent returns the user's newest records, newest first.
func (r *GroomingHistoryRepository) Recent(ctx context.Context, userID uint, n int) ([]models.GroomingHistory, error) {
	var records []models.GroomingHistory
	err := r.ownedBy(ctx, userID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&records).Error
	return records, err
}

// InRange returns records with from <= created_at <= to.
func (r *GroomingHistoryRepository) InRange(ctx context.Context, userID uint, from, to time.Time) ([]models.GroomingHistory, error) {
	var records []models.GroomingHistory
	err := r.ownedBy(ctx, userID).
		Where("created_at >= ? AND created_at <= ?", from.UTC(), to.UTC()).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

func (r *GroomingHistoryRepository) CreatedTimes(ctx context.Context, userID uint) ([]time.Time, error) {
	var times []time.Time
	err := r.ownedBy(ctx, userID).
		Order("created_at DESC").
		Pluck("created_at", &times).Error
	return times, err
}

func (r *GroomingHistoryRepository) Update(ctx context.Context, record *models.GroomingHistory) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *GroomingHistoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.GroomingHistory{}, id).Error
}
