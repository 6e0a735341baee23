package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tourista/internal/auth"
	apperrors "tourista/internal/errors"
	"tourista/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMailer is a mock implementation of Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWelcome(ctx context.Context, to, firstName, url string) error {
	args := m.Called(ctx, to, firstName, url)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to, firstName, url string) error {
	args := m.Called(ctx, to, firstName, url)
	return args.Error(0)
}

func newTestAuthService(repo *MockUserRepository, mailer *MockMailer) *authService {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	return NewAuthService(repo, jwtService, mailer, "http://localhost:8080").(*authService)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		input         SignupInput
		setupMock     func(*MockUserRepository, *MockMailer)
		expectedError error
	}{
		{
			name:  "successful signup",
			input: SignupInput{Name: "Test User", Email: "Test@Example.com", Password: "password123"},
			setupMock: func(mRepo *MockUserRepository, mMail *MockMailer) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				mRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mMail.On("SendWelcome", mock.Anything, "test@example.com", "Test", "http://localhost:8080/me").Return(nil)
			},
			expectedError: nil,
		},
		{
			name:  "duplicate email",
			input: SignupInput{Name: "Existing", Email: "existing@example.com", Password: "password123"},
			setupMock: func(mRepo *MockUserRepository, mMail *MockMailer) {
				mRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrDuplicateEmail,
		},
		{
			name:  "welcome email failure does not undo signup",
			input: SignupInput{Name: "Solo", Email: "solo@example.com", Password: "password123"},
			setupMock: func(mRepo *MockUserRepository, mMail *MockMailer) {
				mRepo.On("FindByEmail", mock.Anything, "solo@example.com").Return(nil, gorm.ErrRecordNotFound)
				mRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mMail.On("SendWelcome", mock.Anything, "solo@example.com", "Solo", mock.Anything).Return(assert.AnError)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockMailer := new(MockMailer)
			tt.setupMock(mockRepo, mockMailer)

			service := newTestAuthService(mockRepo, mockMailer)
			user, token, err := service.Signup(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.NotEmpty(t, token)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
			}

			mockRepo.AssertExpectations(t)
			mockMailer.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           uuid.New(),
					Email:        "test@example.com",
					PasswordHash: string(hashedPassword),
					Active:       true,
				}, nil)
			},
			expectedError: nil,
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository) {
				mRepo.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "not-the-password",
			setupMock: func(mRepo *MockUserRepository) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           uuid.New(),
					Email:        "test@example.com",
					PasswordHash: string(hashedPassword),
					Active:       true,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := newTestAuthService(mockRepo, new(MockMailer))
			user, token, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.NotEmpty(t, token)
				assert.Equal(t, tt.email, user.Email)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "known@example.com").Return(&model.User{
		ID:           uuid.New(),
		Email:        "known@example.com",
		PasswordHash: string(hashedPassword),
		Active:       true,
	}, nil)
	mockRepo.On("FindByEmail", mock.Anything, "unknown@example.com").Return(nil, gorm.ErrRecordNotFound)

	service := newTestAuthService(mockRepo, new(MockMailer))

	_, _, errUnknown := service.Login(context.Background(), "unknown@example.com", "whatever")
	_, _, errWrong := service.Login(context.Background(), "known@example.com", "whatever")

	assert.Equal(t, errUnknown, errWrong)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	user := &model.User{
		ID:     uuid.New(),
		Name:   "Test User",
		Email:  "test@example.com",
		Active: true,
	}

	t.Run("stores token hash and mails raw token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockMailer := new(MockMailer)

		mockRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)

		var storedHash string
		mockRepo.On("UpdateFields", mock.Anything, user.ID, mock.Anything).Run(func(args mock.Arguments) {
			fields := args.Get(2).(map[string]interface{})
			storedHash, _ = fields["password_reset_token"].(string)
		}).Return(nil)

		var mailedURL string
		mockMailer.On("SendPasswordReset", mock.Anything, user.Email, "Test", mock.Anything).Run(func(args mock.Arguments) {
			mailedURL = args.String(3)
		}).Return(nil)

		service := newTestAuthService(mockRepo, mockMailer)
		err := service.ForgotPassword(context.Background(), user.Email)

		assert.NoError(t, err)
		assert.NotEmpty(t, storedHash)

		// the mailed URL carries the raw token, the store carries only its hash
		raw := mailedURL[len("http://localhost:8080/api/v1/users/resetPassword/"):]
		assert.NotEqual(t, raw, storedHash)
		assert.Equal(t, auth.HashResetToken(raw), storedHash)

		mockRepo.AssertExpectations(t)
		mockMailer.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

		service := newTestAuthService(mockRepo, new(MockMailer))
		err := service.ForgotPassword(context.Background(), "nobody@example.com")

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("clears token when delivery fails", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockMailer := new(MockMailer)

		mockRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)

		var updates []map[string]interface{}
		mockRepo.On("UpdateFields", mock.Anything, user.ID, mock.Anything).Run(func(args mock.Arguments) {
			updates = append(updates, args.Get(2).(map[string]interface{}))
		}).Return(nil)

		mockMailer.On("SendPasswordReset", mock.Anything, user.Email, "Test", mock.Anything).Return(assert.AnError)

		service := newTestAuthService(mockRepo, mockMailer)
		err := service.ForgotPassword(context.Background(), user.Email)

		assert.ErrorIs(t, err, apperrors.ErrEmailDelivery)

		// second update rolls the stored token back
		assert.Len(t, updates, 2)
		assert.Equal(t, "", updates[1]["password_reset_token"])
		assert.Nil(t, updates[1]["password_reset_expires"])

		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	raw, hash, err := auth.GenerateResetToken()
	assert.NoError(t, err)

	t.Run("valid token sets a new password", func(t *testing.T) {
		user := &model.User{ID: uuid.New(), Email: "test@example.com", Active: true}

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByResetToken", mock.Anything, hash, mock.Anything).Return(user, nil)

		var fields map[string]interface{}
		mockRepo.On("UpdateFields", mock.Anything, user.ID, mock.Anything).Run(func(args mock.Arguments) {
			fields = args.Get(2).(map[string]interface{})
		}).Return(nil)

		service := newTestAuthService(mockRepo, new(MockMailer))
		got, token, err := service.ResetPassword(context.Background(), raw, "new-password")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, user.ID, got.ID)

		// token fields are cleared so it cannot be redeemed twice
		assert.Equal(t, "", fields["password_reset_token"])
		assert.Nil(t, fields["password_reset_expires"])
		assert.NotNil(t, fields["password_changed_at"])

		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("new-password")))

		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown or expired token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByResetToken", mock.Anything, mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

		service := newTestAuthService(mockRepo, new(MockMailer))
		user, token, err := service.ResetPassword(context.Background(), "bogus", "new-password")

		assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
		assert.Nil(t, user)
		assert.Empty(t, token)
	})

	t.Run("expiry is checked against the current time", func(t *testing.T) {
		mockRepo := new(MockUserRepository)

		frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		mockRepo.On("FindByResetToken", mock.Anything, hash, frozen).Return(nil, gorm.ErrRecordNotFound)

		service := newTestAuthService(mockRepo, new(MockMailer))
		service.NowFunc = func() time.Time { return frozen }

		_, _, err := service.ResetPassword(context.Background(), raw, "new-password")

		assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_UpdatePassword(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("current-pass"), 10)

	tests := []struct {
		name          string
		current       string
		setupMock     func(*MockUserRepository, uuid.UUID)
		expectedError error
	}{
		{
			name:    "successful change",
			current: "current-pass",
			setupMock: func(mRepo *MockUserRepository, id uuid.UUID) {
				mRepo.On("FindByID", mock.Anything, id).Return(&model.User{
					ID:           id,
					PasswordHash: string(hashedPassword),
					Active:       true,
				}, nil)
				mRepo.On("UpdateFields", mock.Anything, id, mock.Anything).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:    "wrong current password",
			current: "not-current",
			setupMock: func(mRepo *MockUserRepository, id uuid.UUID) {
				mRepo.On("FindByID", mock.Anything, id).Return(&model.User{
					ID:           id,
					PasswordHash: string(hashedPassword),
					Active:       true,
				}, nil)
			},
			expectedError: apperrors.ErrWrongPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := uuid.New()
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo, userID)

			service := newTestAuthService(mockRepo, new(MockMailer))
			user, token, err := service.UpdatePassword(context.Background(), userID, tt.current, "brand-new-pass")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brand-new-pass")))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_SetPassword_TokenValidAfterChange(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("current-pass"), 10)
	userID := uuid.New()

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
		ID:           userID,
		PasswordHash: string(hashedPassword),
		Active:       true,
	}, nil)
	mockRepo.On("UpdateFields", mock.Anything, userID, mock.Anything).Return(nil)

	service := newTestAuthService(mockRepo, new(MockMailer))
	user, token, err := service.UpdatePassword(context.Background(), userID, "current-pass", "brand-new-pass")
	assert.NoError(t, err)

	// the session issued alongside the change must survive the stale check
	claims, err := service.jwtService.ValidateToken(token)
	assert.NoError(t, err)
	assert.False(t, user.ChangedPasswordAfter(claims.IssuedAt.Time))
}
