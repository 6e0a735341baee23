package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "tourista/internal/errors"
	"tourista/internal/middleware"
	"tourista/internal/model"
	"tourista/internal/service"
)

// UserHandler handles profile and admin user endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateMeRequest represents a profile update. Password fields are rejected
// before this struct is even bound, see UpdateMe.
type UpdateMeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Photo string `json:"photo"`

	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdateUserRequest represents an admin user update.
type UpdateUserRequest struct {
	Name string     `json:"name"`
	Role model.Role `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
}

// GetMe godoc
// @Summary Get the logged-in user's profile
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": user},
	})
}

// UpdateMe godoc
// @Summary Update the logged-in user's name, email or photo
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateMeRequest true "Profile fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/updateMe [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req UpdateMeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		return apperrors.ErrPasswordRoute
	}

	user := middleware.CurrentUser(c)
	updated, err := h.svc.UpdateMe(c.Request().Context(), user.ID, service.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": updated},
	})
}

// DeleteMe godoc
// @Summary Deactivate the logged-in user's account
// @Tags users
// @Produce json
// @Success 204
// @Security BearerAuth
// @Router /users/deleteMe [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if err := h.svc.DeactivateMe(c.Request().Context(), user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers godoc
// @Summary List all active users
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(users),
		"data":    echo.Map{"users": users},
	})
}

// GetUser godoc
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": user},
	})
}

// CreateUser always fails: accounts are created through signup so the
// password lifecycle cannot be bypassed.
func (h *UserHandler) CreateUser(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"status":  "error",
		"message": "this route is not defined, please use /signup instead",
	})
}

// UpdateUser godoc
// @Summary Update a user's name or role (admin)
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), id, req.Name, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": user},
	})
}

// DeleteUser godoc
// @Summary Soft-delete a user (admin)
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 204
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
