package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "tourista/internal/errors"
	"tourista/internal/model"
)

func TestUserService_GetUser(t *testing.T) {
	t.Run("returns an active user", func(t *testing.T) {
		userID := uuid.New()
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID:     userID,
			Name:   "Jo Example",
			Active: true,
		}, nil)

		service := NewUserService(mockRepo, nil)
		user, err := service.GetUser(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, "Jo Example", user.Name)
	})

	t.Run("deactivated users read as missing", func(t *testing.T) {
		userID := uuid.New()
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID:     userID,
			Active: false,
		}, nil)

		service := NewUserService(mockRepo, nil)
		user, err := service.GetUser(context.Background(), userID)

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		assert.Nil(t, user)
	})

	t.Run("unknown user", func(t *testing.T) {
		userID := uuid.New()
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(nil, gorm.ErrRecordNotFound)

		service := NewUserService(mockRepo, nil)
		_, err := service.GetUser(context.Background(), userID)

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestUserService_UpdateMe(t *testing.T) {
	userID := uuid.New()

	t.Run("updates only the provided fields", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("UpdateFields", mock.Anything, userID, map[string]interface{}{
			"name":  "New Name",
			"email": "new@example.com",
		}).Return(nil)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID:     userID,
			Name:   "New Name",
			Email:  "new@example.com",
			Active: true,
		}, nil)

		service := NewUserService(mockRepo, nil)
		user, err := service.UpdateMe(context.Background(), userID, ProfileUpdate{
			Name:  "New Name",
			Email: "New@Example.com",
		})

		assert.NoError(t, err)
		assert.Equal(t, "New Name", user.Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty update touches nothing", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID:     userID,
			Active: true,
		}, nil)

		service := NewUserService(mockRepo, nil)
		_, err := service.UpdateMe(context.Background(), userID, ProfileUpdate{})

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserService_UpdateUser_RejectsUnknownRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, nil)

	_, err := service.UpdateUser(context.Background(), uuid.New(), "", model.Role("superuser"))

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_DeactivateMe(t *testing.T) {
	userID := uuid.New()
	mockRepo := new(MockUserRepository)
	mockRepo.On("Deactivate", mock.Anything, userID).Return(nil)

	service := NewUserService(mockRepo, nil)
	assert.NoError(t, service.DeactivateMe(context.Background(), userID))
	mockRepo.AssertExpectations(t)
}
