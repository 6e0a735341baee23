package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tourista/internal/middleware"
	"tourista/internal/repository"
	"tourista/internal/service"
)

// ViewHandler serves the rendered pages. All view routes run behind the
// best-effort login middleware so templates know the visitor.
type ViewHandler struct {
	tourService service.TourService
	userService service.UserService
}

// NewViewHandler creates a new view handler.
func NewViewHandler(tourService service.TourService, userService service.UserService) *ViewHandler {
	return &ViewHandler{
		tourService: tourService,
		userService: userService,
	}
}

// Overview renders the tour overview page.
func (h *ViewHandler) Overview(c echo.Context) error {
	tours, err := h.tourService.ListTours(c.Request().Context(), repository.TourQuery{})
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "overview", echo.Map{
		"Title": "All tours",
		"Tours": tours,
		"User":  middleware.CurrentUser(c),
	})
}

// Tour renders a single tour page by slug.
func (h *ViewHandler) Tour(c echo.Context) error {
	tour, err := h.tourService.GetTourBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "tour", echo.Map{
		"Title": tour.Name,
		"Tour":  tour,
		"User":  middleware.CurrentUser(c),
	})
}

// LoginForm renders the login page.
func (h *ViewHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", echo.Map{
		"Title": "Log into your account",
		"User":  middleware.CurrentUser(c),
	})
}

// Account renders the account page, or redirects anonymous visitors to the
// login page.
func (h *ViewHandler) Account(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	return c.Render(http.StatusOK, "account", echo.Map{
		"Title": "Your account",
		"User":  user,
	})
}

// SubmitUserData handles the account form post (name and email).
func (h *ViewHandler) SubmitUserData(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	updated, err := h.userService.UpdateMe(c.Request().Context(), user.ID, service.ProfileUpdate{
		Name:  c.FormValue("name"),
		Email: c.FormValue("email"),
	})
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "account", echo.Map{
		"Title": "Your account",
		"User":  updated,
	})
}
