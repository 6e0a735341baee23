package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourista/internal/cache"
	apperrors "tourista/internal/errors"
	"tourista/internal/model"
	"tourista/internal/repository"
)

// defaultRatingsAverage is the rating shown for tours without any reviews.
const defaultRatingsAverage = 4.5

// ReviewService exposes review operations. Every mutation recomputes the
// owning tour's rating aggregate.
type ReviewService interface {
	CreateReview(ctx context.Context, review *model.Review) (*model.Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*model.Review, error)
	ListReviews(ctx context.Context, tourID uuid.UUID) ([]model.Review, error)
	UpdateReview(ctx context.Context, id uuid.UUID, actor *model.User, text string, rating float64) (*model.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID, actor *model.User) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	tourRepo   repository.TourRepository
	cache      *cache.Client
}

// NewReviewService builds a ReviewService.
func NewReviewService(reviewRepo repository.ReviewRepository, tourRepo repository.TourRepository, cache *cache.Client) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		tourRepo:   tourRepo,
		cache:      cache,
	}
}

func (s *reviewService) CreateReview(ctx context.Context, review *model.Review) (*model.Review, error) {
	if _, err := s.tourRepo.FindByID(ctx, review.TourID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTourNotFound
		}
		return nil, err
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := s.recalcRatings(ctx, review.TourID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) GetReview(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) ListReviews(ctx context.Context, tourID uuid.UUID) ([]model.Review, error) {
	return s.reviewRepo.List(ctx, tourID)
}

// UpdateReview changes text and rating. Authors can edit their own reviews,
// admins can edit any.
func (s *reviewService) UpdateReview(ctx context.Context, id uuid.UUID, actor *model.User, text string, rating float64) (*model.Review, error) {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.ID && actor.Role != model.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	if text != "" {
		review.Review = text
	}
	if rating > 0 {
		review.Rating = rating
	}
	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}

	if err := s.recalcRatings(ctx, review.TourID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, id uuid.UUID, actor *model.User) error {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != actor.ID && actor.Role != model.RoleAdmin {
		return apperrors.ErrForbidden
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.recalcRatings(ctx, review.TourID)
}

// recalcRatings recomputes the tour's denormalized rating fields from the
// live review rows. When the last review disappears the tour falls back to
// the default average.
func (s *reviewService) recalcRatings(ctx context.Context, tourID uuid.UUID) error {
	agg, err := s.reviewRepo.AggregateForTour(ctx, tourID)
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}

	avg := defaultRatingsAverage
	if agg.NumRatings > 0 {
		avg = math.Round(agg.AvgRating*10) / 10
	}

	if err := s.tourRepo.UpdateRatings(ctx, tourID, avg, agg.NumRatings); err != nil {
		return fmt.Errorf("update tour ratings: %w", err)
	}
	_ = s.cache.Delete(ctx, fmt.Sprintf("tour:%s", tourID))
	return nil
}
