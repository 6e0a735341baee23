// Package middleware implements the request gates: token verification, user
// resolution and role restriction.
package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"tourista/internal/auth"
	apperrors "tourista/internal/errors"
	"tourista/internal/model"
	"tourista/internal/repository"
)

const (
	// claimsKey is where the token parser stores the verified claims.
	claimsKey = "claims"
	// userKey is where LoadUser stores the resolved user.
	userKey = "currentUser"
)

// CurrentUser returns the authenticated user attached to the request, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userKey).(*model.User)
	return user
}

// TokenParser extracts the session token from the Authorization header or the
// jwt cookie and verifies its signature and expiry. Verified claims end up in
// the request context for LoadUser.
func TokenParser(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ,cookie:" + auth.SessionCookie,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return jwtService.ValidateToken(tokenString)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return apperrors.MapErrorToHTTP(apperrors.ErrNotLoggedIn)
			}
			return apperrors.MapErrorToHTTP(apperrors.ErrInvalidToken)
		},
	})
}

// LoadUser resolves the verified claims to a user and attaches it to the
// request. It rejects credentials of users that no longer exist (or were
// deactivated) and credentials issued before the user's last password change.
func LoadUser(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return apperrors.MapErrorToHTTP(apperrors.ErrNotLoggedIn)
			}

			user, err := userRepo.FindByID(c.Request().Context(), claims.UserID)
			if err != nil || !user.Active {
				return apperrors.MapErrorToHTTP(apperrors.ErrInvalidToken)
			}

			if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
				return apperrors.MapErrorToHTTP(apperrors.ErrStaleToken)
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// RestrictTo limits a route to the given roles. Must run after LoadUser.
func RestrictTo(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return apperrors.MapErrorToHTTP(apperrors.ErrNotLoggedIn)
			}
			if !allowed[user.Role] {
				return apperrors.MapErrorToHTTP(apperrors.ErrForbidden)
			}
			return next(c)
		}
	}
}

// IsLoggedIn is the best-effort variant for rendered pages: it resolves the
// cookie token like LoadUser but proceeds unauthenticated on any failure.
func IsLoggedIn(jwtService *auth.JWTService, userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims, err := jwtService.ValidateToken(cookie.Value)
			if err != nil {
				return next(c)
			}

			user, err := userRepo.FindByID(c.Request().Context(), claims.UserID)
			if err != nil || !user.Active || user.ChangedPasswordAfter(claims.IssuedAt.Time) {
				return next(c)
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}
