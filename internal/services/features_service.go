package services

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
)

type FeaturesService struct {
	features *repository.FeaturesRepository
}

func NewFeaturesService(features *repository.FeaturesRepository) *FeaturesService {
	return &FeaturesService{features: features}
}

func (s *FeaturesService) List(ctx context.Context, userID uint) ([]models.UserFeatures, error) {
	return s.features.ListByOwner(ctx, userID)
}

// Get returns a snapshot only when it is linked to userID. Unlinked
// snapshots are treated as belonging to someone else.
func (s *FeaturesService) Get(ctx context.Context, userID uint, id string) (*models.UserFeatures, error) {
	f, err := s.features.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if f.OwnerID == nil || *f.OwnerID != userID {
		return nil, ErrForbidden
	}
	return f, nil
}
