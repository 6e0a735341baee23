package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"tourista/internal/model"
	"tourista/internal/repository"
	"tourista/internal/service"
)

// TourHandler handles tour endpoints.
type TourHandler struct {
	svc service.TourService
}

// NewTourHandler creates a new tour handler.
func NewTourHandler(svc service.TourService) *TourHandler {
	return &TourHandler{svc: svc}
}

// TourRequest represents a tour creation payload.
type TourRequest struct {
	Name          string           `json:"name" validate:"required,min=10,max=40"`
	Duration      int              `json:"duration" validate:"required,gt=0"`
	MaxGroupSize  int              `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty    model.Difficulty `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64          `json:"price" validate:"required,gt=0"`
	PriceDiscount float64          `json:"priceDiscount" validate:"omitempty,gt=0"`
	Summary       string           `json:"summary" validate:"required"`
	Description   string           `json:"description"`
	ImageCover    string           `json:"imageCover" validate:"required"`
	Images        []string         `json:"images"`
	StartDates    []time.Time      `json:"startDates"`
	Secret        bool             `json:"secret"`
	StartLocation *model.Location  `json:"startLocation"`
	Locations     []model.Location `json:"locations"`
	Guides        []uuid.UUID      `json:"guides"`
}

// UpdateTourRequest represents a partial tour update.
type UpdateTourRequest struct {
	Name          *string           `json:"name" validate:"omitempty,min=10,max=40"`
	Duration      *int              `json:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize  *int              `json:"maxGroupSize" validate:"omitempty,gt=0"`
	Difficulty    *model.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	Price         *float64          `json:"price" validate:"omitempty,gt=0"`
	PriceDiscount *float64          `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary       *string           `json:"summary"`
	Description   *string           `json:"description"`
	ImageCover    *string           `json:"imageCover"`
	Images        []string          `json:"images"`
	StartDates    []time.Time       `json:"startDates"`
	Secret        *bool             `json:"secret"`
	StartLocation *model.Location   `json:"startLocation"`
	Locations     []model.Location  `json:"locations"`
}

// queryColumns maps the JSON field names clients use to database columns.
var queryColumns = map[string]string{
	"name":            "name",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
}

// parseTourQuery translates the query string features into a repository
// query: `?duration[gte]=5&sort=-price&fields=name,price&page=2&limit=10`.
func parseTourQuery(c echo.Context) repository.TourQuery {
	q := repository.TourQuery{}

	for key, vals := range c.QueryParams() {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case "sort":
			for _, field := range strings.Split(vals[0], ",") {
				desc := strings.HasPrefix(field, "-")
				field = strings.TrimPrefix(field, "-")
				if col, ok := queryColumns[field]; ok {
					q.Sort = append(q.Sort, repository.SortField{Column: col, Desc: desc})
				}
			}
		case "fields":
			for _, field := range strings.Split(vals[0], ",") {
				if col, ok := queryColumns[field]; ok {
					q.Fields = append(q.Fields, col)
				}
			}
		case "page":
			q.Page, _ = strconv.Atoi(vals[0])
		case "limit":
			q.Limit, _ = strconv.Atoi(vals[0])
		default:
			field, op := key, "eq"
			if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
				field, op = key[:i], key[i+1:len(key)-1]
			}
			if col, ok := queryColumns[field]; ok {
				q.Conditions = append(q.Conditions, repository.Condition{
					Column: col,
					Op:     op,
					Value:  vals[0],
				})
			}
		}
	}

	return q
}

func (req *TourRequest) toModel() *model.Tour {
	tour := &model.Tour{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         decimal.NewFromFloat(req.Price),
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
		StartLocation: req.StartLocation,
		Locations:     req.Locations,
	}
	if req.PriceDiscount > 0 {
		tour.PriceDiscount = decimal.NewFromFloat(req.PriceDiscount)
	}
	for _, id := range req.Guides {
		tour.Guides = append(tour.Guides, model.User{ID: id})
	}
	return tour
}

// ListTours godoc
// @Summary List tours with filtering, sorting and pagination
// @Tags tours
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /tours [get]
func (h *TourHandler) ListTours(c echo.Context) error {
	tours, err := h.svc.ListTours(c.Request().Context(), parseTourQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(tours),
		"data":    echo.Map{"tours": tours},
	})
}

// TopCheapTours presets the list query to the five best cheap tours.
func (h *TourHandler) TopCheapTours(c echo.Context) error {
	q := repository.TourQuery{
		Limit: 5,
		Sort: []repository.SortField{
			{Column: "ratings_average", Desc: true},
			{Column: "price"},
		},
	}
	tours, err := h.svc.ListTours(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(tours),
		"data":    echo.Map{"tours": tours},
	})
}

// GetTour godoc
// @Summary Get a tour with its guides and reviews
// @Tags tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /tours/{id} [get]
func (h *TourHandler) GetTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	tour, err := h.svc.GetTour(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": tour},
	})
}

// CreateTour godoc
// @Summary Create a tour
// @Tags tours
// @Accept json
// @Produce json
// @Param request body TourRequest true "Tour payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tours [post]
func (h *TourHandler) CreateTour(c echo.Context) error {
	var req TourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tour, err := h.svc.CreateTour(c.Request().Context(), req.toModel())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": tour},
	})
}

// UpdateTour godoc
// @Summary Update a tour
// @Tags tours
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body UpdateTourRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tours/{id} [patch]
func (h *TourHandler) UpdateTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req UpdateTourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tour, err := h.svc.UpdateTour(c.Request().Context(), id, func(t *model.Tour) {
		if req.Name != nil {
			t.Name = *req.Name
		}
		if req.Duration != nil {
			t.Duration = *req.Duration
		}
		if req.MaxGroupSize != nil {
			t.MaxGroupSize = *req.MaxGroupSize
		}
		if req.Difficulty != nil {
			t.Difficulty = *req.Difficulty
		}
		if req.Price != nil {
			t.Price = decimal.NewFromFloat(*req.Price)
		}
		if req.PriceDiscount != nil {
			t.PriceDiscount = decimal.NewFromFloat(*req.PriceDiscount)
		}
		if req.Summary != nil {
			t.Summary = *req.Summary
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		if req.ImageCover != nil {
			t.ImageCover = *req.ImageCover
		}
		if req.Images != nil {
			t.Images = req.Images
		}
		if req.StartDates != nil {
			t.StartDates = req.StartDates
		}
		if req.Secret != nil {
			t.Secret = *req.Secret
		}
		if req.StartLocation != nil {
			t.StartLocation = req.StartLocation
		}
		if req.Locations != nil {
			t.Locations = req.Locations
		}
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": tour},
	})
}

// DeleteTour godoc
// @Summary Delete a tour
// @Tags tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tours/{id} [delete]
func (h *TourHandler) DeleteTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.DeleteTour(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// parseLatLng parses a "lat,lng" path segment.
func parseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "please provide latitude and longitude as lat,lng")
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid latitude")
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid longitude")
	}
	return lat, lng, nil
}

func parseUnit(raw string) (string, error) {
	if raw != "mi" && raw != "km" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unit must be mi or km")
	}
	return raw, nil
}

// ToursWithin godoc
// @Summary List tours starting within a radius of a point
// @Tags tours
// @Produce json
// @Param distance path number true "Radius"
// @Param latlng path string true "Center as lat,lng"
// @Param unit path string true "mi or km"
// @Success 200 {object} map[string]interface{}
// @Router /tours/tours-within/{distance}/center/{latlng}/unit/{unit} [get]
func (h *TourHandler) ToursWithin(c echo.Context) error {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid distance")
	}
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	unit, err := parseUnit(c.Param("unit"))
	if err != nil {
		return err
	}

	tours, err := h.svc.ToursWithin(c.Request().Context(), lat, lng, distance, unit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(tours),
		"data":    echo.Map{"tours": tours},
	})
}

// Distances godoc
// @Summary Distances from a point to every tour
// @Tags tours
// @Produce json
// @Param latlng path string true "Point as lat,lng"
// @Param unit path string true "mi or km"
// @Success 200 {object} map[string]interface{}
// @Router /tours/distances/{latlng}/unit/{unit} [get]
func (h *TourHandler) Distances(c echo.Context) error {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	unit, err := parseUnit(c.Param("unit"))
	if err != nil {
		return err
	}

	distances, err := h.svc.Distances(c.Request().Context(), lat, lng, unit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"distances": distances},
	})
}

// TourStats godoc
// @Summary Aggregate stats of highly rated tours per difficulty
// @Tags tours
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tours/stats [get]
func (h *TourHandler) TourStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"stats": stats},
	})
}
