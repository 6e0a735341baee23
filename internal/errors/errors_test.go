package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		operational bool
	}{
		{"not logged in", ErrNotLoggedIn, http.StatusUnauthorized, "UNAUTHENTICATED", true},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized, "UNAUTHENTICATED", true},
		{"stale token", ErrStaleToken, http.StatusUnauthorized, "UNAUTHENTICATED", true},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHENTICATED", true},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN", true},
		{"tour not found", ErrTourNotFound, http.StatusNotFound, "NOT_FOUND", true},
		{"invalid reset token", ErrInvalidResetToken, http.StatusBadRequest, "BAD_REQUEST", true},
		{"password on profile route", ErrPasswordRoute, http.StatusBadRequest, "BAD_REQUEST", true},
		{"email delivery", ErrEmailDelivery, http.StatusInternalServerError, "DELIVERY_FAILURE", true},
		{"gorm record not found", gorm.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND", true},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062}, http.StatusBadRequest, "BAD_REQUEST", true},
		{"unclassified", errors.New("pq: connection refused to 10.0.0.3"), http.StatusInternalServerError, "INTERNAL_ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.operational, httpErr.Operational)
		})
	}
}

func TestMapErrorToHTTP_WrappedOperationalError(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", ErrInvalidCredentials)
	httpErr := MapErrorToHTTP(wrapped)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, ErrInvalidCredentials.Error(), httpErr.Message)
}

func TestMapErrorToHTTP_UnclassifiedHidesDetails(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("dial tcp 10.0.0.3:3306: i/o timeout"))
	assert.Equal(t, "something went wrong", httpErr.Message)
	assert.NotContains(t, httpErr.Message, "10.0.0.3")
}

func TestMapErrorToHTTP_ValidationErrors(t *testing.T) {
	type payload struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	err := validator.New().Struct(payload{Email: "not-an-email", Password: "short"})
	assert.Error(t, err)

	httpErr := MapErrorToHTTP(err)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.True(t, httpErr.Operational)
	assert.Len(t, httpErr.Fields, 2)
	assert.Contains(t, httpErr.Fields, "Email must be a valid email address")
	assert.Contains(t, httpErr.Fields, "Password must be at least 8 characters")
}

func TestHTTPError_ToErrorResponse(t *testing.T) {
	fail := NewHTTPError(http.StatusNotFound, "tour not found", "NOT_FOUND")
	assert.Equal(t, "fail", fail.ToErrorResponse().Status)

	errResp := NewHTTPError(http.StatusInternalServerError, "something went wrong", "INTERNAL_ERROR")
	assert.Equal(t, "error", errResp.ToErrorResponse().Status)
}
