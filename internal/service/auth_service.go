package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tourista/internal/auth"
	apperrors "tourista/internal/errors"
	"tourista/internal/model"
	"tourista/internal/repository"
)

const (
	bcryptCost       = 12
	resetTokenExpiry = 10 * time.Minute
)

// dummyHash is compared against when no user matches a login email, so the
// request takes as long as a real password check. Without it, response timing
// would reveal which emails are registered.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcryptCost)

// Mailer sends the templated transactional emails.
type Mailer interface {
	SendWelcome(ctx context.Context, to, firstName, url string) error
	SendPasswordReset(ctx context.Context, to, firstName, url string) error
}

// SignupInput is the validated signup payload.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService handles authentication and the password lifecycle.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, password string) (*model.User, string, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, current, password string) (*model.User, string, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	mailer     Mailer
	baseURL    string

	// NowFunc returns the current time. Exposed for tests.
	NowFunc func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, mailer Mailer, baseURL string) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		mailer:     mailer,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		NowFunc:    time.Now,
	}
}

// NormalizeEmail lowercases and trims an email address. All store lookups go
// through the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func firstName(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

// Signup creates a new user with a hashed password and logs them in. The role
// is always "user"; elevated roles are assigned by admins afterwards.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*model.User, string, error) {
	email := NormalizeEmail(in.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", apperrors.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         model.RoleUser,
		Photo:        "default.jpg",
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	// Welcome email is best effort; a delivery failure must not undo signup.
	if err := s.mailer.SendWelcome(ctx, user.Email, firstName(user.Name), s.baseURL+"/me"); err != nil {
		log.Printf("send welcome email to %s: %v", user.Email, err)
	}

	return user, token, nil
}

// Login authenticates a user and returns a fresh session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// ForgotPassword starts the reset flow: store the hash of a fresh token with
// a 10 minute expiry and mail the raw value. If the email cannot be sent the
// stored hash is cleared again, otherwise an undelivered token would stay
// redeemable.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	raw, hash, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}

	expires := s.NowFunc().Add(resetTokenExpiry)
	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_reset_token":   hash,
		"password_reset_expires": expires,
	})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := s.baseURL + "/api/v1/users/resetPassword/" + raw
	if err := s.mailer.SendPasswordReset(ctx, user.Email, firstName(user.Name), resetURL); err != nil {
		// rollback: the token was never delivered, it must not be redeemable
		rollbackErr := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
			"password_reset_token":   "",
			"password_reset_expires": nil,
		})
		if rollbackErr != nil {
			log.Printf("rollback reset token for %s: %v", user.Email, rollbackErr)
		}
		return apperrors.ErrEmailDelivery
	}

	return nil
}

// ResetPassword redeems a reset token exactly once: a matching, non-expired
// hash sets the new password, clears the token and logs the user in.
func (s *authService) ResetPassword(ctx context.Context, rawToken, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByResetToken(ctx, auth.HashResetToken(rawToken), s.NowFunc())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrInvalidResetToken
		}
		return nil, "", fmt.Errorf("find user by reset token: %w", err)
	}

	token, err := s.setPassword(ctx, user, password)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdatePassword changes the password of a logged-in user after re-verifying
// the current one.
func (s *authService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return nil, "", apperrors.ErrWrongPassword
	}

	token, err := s.setPassword(ctx, user, password)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// setPassword stores the new hash and the password-changed timestamp, then
// issues a fresh session token. Persisting before issuing guarantees the new
// token's issue time is never earlier than the stored change time, so the
// access gate cannot reject the token it just handed out.
func (s *authService) setPassword(ctx context.Context, user *model.User, password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := s.NowFunc()
	user.PasswordHash = string(hashed)
	user.PasswordChangedAt = &now
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil

	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_hash":          user.PasswordHash,
		"password_changed_at":    now,
		"password_reset_token":   "",
		"password_reset_expires": nil,
	})
	if err != nil {
		return "", fmt.Errorf("store new password: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
