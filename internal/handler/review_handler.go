package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tourista/internal/middleware"
	"tourista/internal/model"
	"tourista/internal/service"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	svc service.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// CreateReviewRequest represents a review creation payload. The tour may come
// from the nested route instead of the body; the user always comes from the
// session.
type CreateReviewRequest struct {
	Review string    `json:"review" validate:"required"`
	Rating float64   `json:"rating" validate:"required,gte=1,lte=5"`
	TourID uuid.UUID `json:"tour"`
}

// UpdateReviewRequest represents a review update.
type UpdateReviewRequest struct {
	Review string  `json:"review"`
	Rating float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

// ListReviews godoc
// @Summary List reviews, optionally scoped to a tour
// @Tags reviews
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reviews [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	tourID := uuid.Nil
	if raw := c.Param("tourId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid tour id")
		}
		tourID = parsed
	}

	reviews, err := h.svc.ListReviews(c.Request().Context(), tourID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(reviews),
		"data":    echo.Map{"reviews": reviews},
	})
}

// GetReview godoc
// @Summary Get a review by id
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetReview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	review, err := h.svc.GetReview(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"review": review},
	})
}

// CreateReview godoc
// @Summary Create a review for a tour
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body CreateReviewRequest true "Review payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tours/{tourId}/reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// nested route wins over the body
	if raw := c.Param("tourId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid tour id")
		}
		req.TourID = parsed
	}
	if req.TourID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "review must belong to a tour")
	}

	user := middleware.CurrentUser(c)
	review, err := h.svc.CreateReview(c.Request().Context(), &model.Review{
		Review: req.Review,
		Rating: req.Rating,
		TourID: req.TourID,
		UserID: user.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"data":   echo.Map{"review": review},
	})
}

// UpdateReview godoc
// @Summary Update a review
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body UpdateReviewRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /reviews/{id} [patch]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, err := h.svc.UpdateReview(c.Request().Context(), id, middleware.CurrentUser(c), req.Review, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"review": review},
	})
}

// DeleteReview godoc
// @Summary Delete a review
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.DeleteReview(c.Request().Context(), id, middleware.CurrentUser(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
