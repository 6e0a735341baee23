package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourista/internal/cache"
	apperrors "tourista/internal/errors"
	"tourista/internal/model"
	"tourista/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileUpdate carries the fields a user may change on their own profile.
// Password fields are deliberately absent; those go through UpdatePassword.
type ProfileUpdate struct {
	Name  string
	Email string
	Photo string
}

// UserService exposes profile and admin user operations.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateMe(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*model.User, error)
	DeactivateMe(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, name string, role model.Role) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.ErrUserNotFound
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

// UpdateMe updates name, email and photo. Empty fields are left untouched.
func (s *userService) UpdateMe(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if update.Name != "" {
		fields["name"] = update.Name
	}
	if update.Email != "" {
		fields["email"] = NormalizeEmail(update.Email)
	}
	if update.Photo != "" {
		fields["photo"] = update.Photo
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		_ = s.cache.Delete(ctx, s.cacheKey(id))
	}

	return s.GetUser(ctx, id)
}

// DeactivateMe soft-deletes the account. The user disappears from all lookups
// but the row is kept.
func (s *userService) DeactivateMe(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// UpdateUser is the admin update path: name and role only, never passwords.
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, name string, role model.Role) (*model.User, error) {
	fields := map[string]interface{}{}
	if name != "" {
		fields["name"] = name
	}
	if role != "" {
		if !model.ValidRole(role) {
			return nil, apperrors.NewHTTPError(400, "invalid role", "BAD_REQUEST")
		}
		fields["role"] = role
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		_ = s.cache.Delete(ctx, s.cacheKey(id))
	}
	return s.GetUser(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
