package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourista/internal/model"
)

// Earth radii used by the geo queries.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
)

// TourQuery captures the list query features: filtering, sorting, field
// selection and pagination.
type TourQuery struct {
	Conditions []Condition
	Sort       []SortField
	Fields     []string
	Page       int
	Limit      int
}

// Condition is a single column comparison, e.g. duration >= 5.
type Condition struct {
	Column string
	Op     string // one of eq, gt, gte, lt, lte
	Value  string
}

// SortField is a single sort clause.
type SortField struct {
	Column string
	Desc   bool
}

// TourDistance is a tour paired with its distance from a reference point.
type TourDistance struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
}

// TourStats is the per-difficulty aggregate.
type TourStats struct {
	Difficulty model.Difficulty `json:"difficulty"`
	NumTours   int              `json:"numTours"`
	NumRatings int              `json:"numRatings"`
	AvgRating  float64          `json:"avgRating"`
	AvgPrice   float64          `json:"avgPrice"`
	MinPrice   float64          `json:"minPrice"`
	MaxPrice   float64          `json:"maxPrice"`
}

// TourRepository defines tour persistence operations. Secret tours are
// excluded from every read path.
type TourRepository interface {
	Create(ctx context.Context, tour *model.Tour) error
	Save(ctx context.Context, tour *model.Tour) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tour, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tour, error)
	List(ctx context.Context, q TourQuery) ([]model.Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateRatings(ctx context.Context, id uuid.UUID, avg float64, quantity int) error
	Within(ctx context.Context, lat, lng, distance float64, unit string) ([]model.Tour, error)
	Distances(ctx context.Context, lat, lng float64, unit string) ([]TourDistance, error)
	Stats(ctx context.Context) ([]TourStats, error)
}

type tourRepository struct {
	db *gorm.DB
}

// NewTourRepository builds a GORM-backed repository.
func NewTourRepository(db *gorm.DB) TourRepository {
	return &tourRepository{db: db}
}

// filterColumns whitelists the columns the query features may reference.
var filterColumns = map[string]bool{
	"name":             true,
	"duration":         true,
	"max_group_size":   true,
	"difficulty":       true,
	"ratings_average":  true,
	"ratings_quantity": true,
	"price":            true,
}

var condOps = map[string]string{
	"eq":  "=",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

func (r *tourRepository) public(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("secret = ?", false)
}

func (r *tourRepository) Create(ctx context.Context, tour *model.Tour) error {
	return r.db.WithContext(ctx).Create(tour).Error
}

func (r *tourRepository) Save(ctx context.Context, tour *model.Tour) error {
	return r.db.WithContext(ctx).Save(tour).Error
}

func (r *tourRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	var tour model.Tour
	err := r.public(ctx).
		Preload("Guides").
		Preload("Reviews").
		Preload("Reviews.User").
		Where("id = ?", id).
		First(&tour).Error
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *tourRepository) FindBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	var tour model.Tour
	err := r.public(ctx).
		Preload("Guides").
		Preload("Reviews").
		Preload("Reviews.User").
		Where("slug = ?", slug).
		First(&tour).Error
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *tourRepository) List(ctx context.Context, q TourQuery) ([]model.Tour, error) {
	db := r.public(ctx)

	for _, cond := range q.Conditions {
		op, ok := condOps[cond.Op]
		if !ok || !filterColumns[cond.Column] {
			continue
		}
		db = db.Where(fmt.Sprintf("%s %s ?", cond.Column, op), cond.Value)
	}

	for _, s := range q.Sort {
		if !filterColumns[s.Column] {
			continue
		}
		clause := s.Column
		if s.Desc {
			clause += " DESC"
		}
		db = db.Order(clause)
	}
	if len(q.Sort) == 0 {
		db = db.Order("created_at DESC")
	}

	// field selection always keeps the primary key
	if len(q.Fields) > 0 {
		selected := []string{"id"}
		for _, f := range q.Fields {
			if filterColumns[f] {
				selected = append(selected, f)
			}
		}
		db = db.Select(selected)
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	db = db.Offset((page - 1) * limit).Limit(limit)

	var tours []model.Tour
	if err := db.Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *tourRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Tour{}).Error
}

// UpdateRatings overwrites the denormalized rating aggregate of a tour.
func (r *tourRepository) UpdateRatings(ctx context.Context, id uuid.UUID, avg float64, quantity int) error {
	return r.db.WithContext(ctx).Model(&model.Tour{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ratings_average":  avg,
			"ratings_quantity": quantity,
		}).Error
}

func earthRadius(unit string) float64 {
	if unit == "mi" {
		return earthRadiusMiles
	}
	return earthRadiusKm
}

// haversine computes the great-circle distance in the unit's radius between
// the reference point and each tour's start location.
const haversine = "(? * ACOS(LEAST(1.0, COS(RADIANS(?)) * COS(RADIANS(start_lat)) * COS(RADIANS(start_lng) - RADIANS(?)) + SIN(RADIANS(?)) * SIN(RADIANS(start_lat)))))"

// Within returns tours whose start location lies inside the given radius.
func (r *tourRepository) Within(ctx context.Context, lat, lng, distance float64, unit string) ([]model.Tour, error) {
	radius := earthRadius(unit)

	var tours []model.Tour
	err := r.public(ctx).
		Where(haversine+" <= ?", radius, lat, lng, lat, distance).
		Find(&tours).Error
	if err != nil {
		return nil, err
	}
	return tours, nil
}

// Distances returns the distance from the reference point to every tour,
// closest first.
func (r *tourRepository) Distances(ctx context.Context, lat, lng float64, unit string) ([]TourDistance, error) {
	radius := earthRadius(unit)

	var distances []TourDistance
	err := r.public(ctx).
		Model(&model.Tour{}).
		Select("id, name, "+haversine+" AS distance", radius, lat, lng, lat).
		Order("distance").
		Scan(&distances).Error
	if err != nil {
		return nil, err
	}
	return distances, nil
}

// Stats aggregates highly rated tours per difficulty.
func (r *tourRepository) Stats(ctx context.Context) ([]TourStats, error) {
	var stats []TourStats
	err := r.public(ctx).
		Model(&model.Tour{}).
		Select("difficulty, COUNT(*) AS num_tours, SUM(ratings_quantity) AS num_ratings, " +
			"AVG(ratings_average) AS avg_rating, AVG(price) AS avg_price, " +
			"MIN(price) AS min_price, MAX(price) AS max_price").
		Where("ratings_average >= ?", 4.5).
		Group("difficulty").
		Order("avg_price").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
