package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourista/internal/model"
)

// RatingAggregate is the result of aggregating the reviews of a tour.
type RatingAggregate struct {
	NumRatings int
	AvgRating  float64
}

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Save(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	List(ctx context.Context, tourID uuid.UUID) ([]model.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AggregateForTour(ctx context.Context, tourID uuid.UUID) (*RatingAggregate, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository builds a GORM-backed repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) Save(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// List returns reviews, optionally narrowed to a single tour when tourID is
// not the nil UUID.
func (r *reviewRepository) List(ctx context.Context, tourID uuid.UUID) ([]model.Review, error) {
	db := r.db.WithContext(ctx).Preload("User")
	if tourID != uuid.Nil {
		db = db.Where("tour_id = ?", tourID)
	}

	var reviews []model.Review
	if err := db.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Review{}).Error
}

// AggregateForTour computes the review count and average rating of a tour.
func (r *reviewRepository) AggregateForTour(ctx context.Context, tourID uuid.UUID) (*RatingAggregate, error) {
	var agg struct {
		NumRatings int
		AvgRating  *float64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COUNT(*) AS num_ratings, AVG(rating) AS avg_rating").
		Where("tour_id = ?", tourID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	result := &RatingAggregate{NumRatings: agg.NumRatings}
	if agg.AvgRating != nil {
		result.AvgRating = *agg.AvgRating
	}
	return result, nil
}
