package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tourista/internal/auth"
	"tourista/internal/model"
	"tourista/internal/service"
)

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, in service.SignupInput) (*model.User, string, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, rawToken, password string) (*model.User, string, error) {
	args := m.Called(ctx, rawToken, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, password string) (*model.User, string, error) {
	args := m.Called(ctx, userID, current, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = &requestValidator{validator: validator.New()}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, cookie := range res.Cookies() {
		if cookie.Name == auth.SessionCookie {
			return cookie
		}
	}
	return nil
}

func TestAuthHandler_Signup(t *testing.T) {
	t.Run("creates the user and sets the session cookie", func(t *testing.T) {
		mockAuth := new(MockAuthService)
		mockAuth.On("Signup", mock.Anything, service.SignupInput{
			Name:     "Test User",
			Email:    "test@example.com",
			Password: "password123",
		}).Return(&model.User{
			ID:           uuid.New(),
			Name:         "Test User",
			Email:        "test@example.com",
			PasswordHash: "$2a$12$hash",
			Role:         model.RoleUser,
		}, "signed.token.value", nil)

		h := NewAuthHandler(mockAuth, 24*time.Hour, false)
		c, rec := newTestContext(http.MethodPost, "/api/v1/users/signup",
			`{"name":"Test User","email":"test@example.com","password":"password123","passwordConfirm":"password123"}`)

		assert.NoError(t, h.Signup(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `"token":"signed.token.value"`)
		assert.Contains(t, body, `"email":"test@example.com"`)
		assert.NotContains(t, body, "hash")
		assert.NotContains(t, body, "password_hash")

		cookie := sessionCookie(rec)
		assert.NotNil(t, cookie)
		assert.Equal(t, "signed.token.value", cookie.Value)
		assert.True(t, cookie.HttpOnly)

		mockAuth.AssertExpectations(t)
	})

	t.Run("rejects a short password before the service runs", func(t *testing.T) {
		mockAuth := new(MockAuthService)
		h := NewAuthHandler(mockAuth, 24*time.Hour, false)
		c, _ := newTestContext(http.MethodPost, "/api/v1/users/signup",
			`{"name":"Test User","email":"test@example.com","password":"short","passwordConfirm":"short"}`)

		err := h.Signup(c)
		assert.Error(t, err)
		var validationErrs validator.ValidationErrors
		assert.ErrorAs(t, err, &validationErrs)
		mockAuth.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
	})

	t.Run("rejects mismatched password confirmation", func(t *testing.T) {
		mockAuth := new(MockAuthService)
		h := NewAuthHandler(mockAuth, 24*time.Hour, false)
		c, _ := newTestContext(http.MethodPost, "/api/v1/users/signup",
			`{"name":"Test User","email":"test@example.com","password":"password123","passwordConfirm":"different123"}`)

		assert.Error(t, h.Signup(c))
		mockAuth.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockAuth.On("Login", mock.Anything, "test@example.com", "password123").Return(&model.User{
		ID:    uuid.New(),
		Email: "test@example.com",
	}, "signed.token.value", nil)

	h := NewAuthHandler(mockAuth, 24*time.Hour, true)
	c, rec := newTestContext(http.MethodPost, "/api/v1/users/login",
		`{"email":"test@example.com","password":"password123"}`)

	assert.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	assert.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), cookie.Expires, time.Minute)
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(new(MockAuthService), 24*time.Hour, false)
	c, rec := newTestContext(http.MethodGet, "/api/v1/users/logout", "")

	assert.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	assert.NotNil(t, cookie)
	assert.Equal(t, "loggedOut", cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockAuth.On("ForgotPassword", mock.Anything, "test@example.com").Return(nil)

	h := NewAuthHandler(mockAuth, 24*time.Hour, false)
	c, rec := newTestContext(http.MethodPost, "/api/v1/users/forgotPassword",
		`{"email":"test@example.com"}`)

	assert.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token sent to email")
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockAuth.On("ResetPassword", mock.Anything, "rawtokenvalue", "newpassword1").Return(&model.User{
		ID: uuid.New(),
	}, "fresh.token.value", nil)

	h := NewAuthHandler(mockAuth, 24*time.Hour, false)
	c, rec := newTestContext(http.MethodPatch, "/api/v1/users/resetPassword/rawtokenvalue",
		`{"password":"newpassword1","passwordConfirm":"newpassword1"}`)
	c.SetParamNames("token")
	c.SetParamValues("rawtokenvalue")

	assert.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fresh.token.value")

	mockAuth.AssertExpectations(t)
}
