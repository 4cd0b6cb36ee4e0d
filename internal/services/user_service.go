package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/mlclient"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/storage"
)

type UserService struct {
	users  *repository.UserRepository
	store  *storage.FileStore
	policy AdminPolicy
}

func NewUserService(users *repository.UserRepository, store *storage.FileStore, policy AdminPolicy) *UserService {
	return &UserService{users: users, store: store, policy: policy}
}

// IsAdmin reports whether userID currently has admin rights.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.policy.IsAdmin(u), nil
}

func (s *UserService) List(ctx context.Context, page repository.Page) ([]models.User, int64, error) {
	return s.users.List(ctx, page)
}

// Get loads targetID for actorID, who must be the same user or an admin.
func (s *UserService) Get(ctx context.Context, actorID, targetID uint) (*models.User, error) {
	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.ID != actorID {
		admin, err := s.IsAdmin(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, ErrForbidden
		}
	}
	return target, nil
}

func (s *UserService) Update(ctx context.Context, actorID, targetID uint, req *dto.UpdateUserRequest) (*models.User, error) {
	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	admin, err := s.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if target.ID != actorID && !admin {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name cannot be empty")
		}
		target.Name = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, invalid("a valid email is required")
		}
		taken, err := s.users.EmailTaken(ctx, email, target.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		target.Email = email
	}
	if req.Phone != nil {
		target.Phone = trimmedOrNil(req.Phone)
	}
	if req.Gender != nil {
		if strings.TrimSpace(*req.Gender) == "" {
			target.Gender = nil
		} else {
			g, err := mlclient.NormalizeGender(*req.Gender)
			if err != nil {
				return nil, invalid("gender must be male or female")
			}
			target.Gender = &g
		}
	}
	if req.Role != nil && *req.Role != target.Role {
		if !admin {
			return nil, ErrForbidden
		}
		if !models.ValidRole(*req.Role) {
			return nil, invalid("role must be one of client, expert, admin")
		}
		target.Role = *req.Role
	}

	if err := s.users.Update(ctx, target); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return target, nil
}

// Delete hard-deletes a user and everything they own. Admin only.
func (s *UserService) Delete(ctx context.Context, targetID uint) error {
	target, err := s.load(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if target.AvatarURL != nil {
		s.removeUpload(*target.AvatarURL)
	}
	slog.Info("user deleted", "user_id", targetID)
	return nil
}

func (s *UserService) UploadAvatar(ctx context.Context, userID uint, filename string, r io.Reader) (*models.User, error) {
	ext, err := storage.ImageExt(filename)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	rel := storage.AvatarName(userID, ext)
	if err := s.store.Save(rel, r); err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	previous := user.AvatarURL
	url := s.store.URL(rel)
	user.AvatarURL = &url
	if err := s.users.Update(ctx, user); err != nil {
		_ = s.store.Remove(rel)
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	if previous != nil {
		s.removeUpload(*previous)
	}
	return user, nil
}

func (s *UserService) removeUpload(url string) {
	prefix := s.store.URL("")
	if !strings.HasPrefix(url, prefix) {
		return
	}
	if err := s.store.Remove(strings.TrimPrefix(url, prefix)); err != nil {
		slog.Warn("failed to remove upload", "url", url, "error", err)
	}
}

func (s *UserService) load(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
