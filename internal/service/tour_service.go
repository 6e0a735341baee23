package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourista/internal/cache"
	apperrors "tourista/internal/errors"
	"tourista/internal/model"
	"tourista/internal/repository"
)

const tourCacheTTL = 5 * time.Minute

// TourService exposes tour operations.
type TourService interface {
	CreateTour(ctx context.Context, tour *model.Tour) (*model.Tour, error)
	GetTour(ctx context.Context, id uuid.UUID) (*model.Tour, error)
	GetTourBySlug(ctx context.Context, slug string) (*model.Tour, error)
	ListTours(ctx context.Context, q repository.TourQuery) ([]model.Tour, error)
	UpdateTour(ctx context.Context, id uuid.UUID, apply func(*model.Tour)) (*model.Tour, error)
	DeleteTour(ctx context.Context, id uuid.UUID) error
	ToursWithin(ctx context.Context, lat, lng, distance float64, unit string) ([]model.Tour, error)
	Distances(ctx context.Context, lat, lng float64, unit string) ([]repository.TourDistance, error)
	Stats(ctx context.Context) ([]repository.TourStats, error)
}

type tourService struct {
	repo  repository.TourRepository
	cache *cache.Client
}

// NewTourService builds a TourService with repository and cache.
func NewTourService(repo repository.TourRepository, cache *cache.Client) TourService {
	return &tourService{repo: repo, cache: cache}
}

func (s *tourService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("tour:%s", id)
}

// InvalidateTour drops the cached copy of a tour. Called by the review
// service after a rating recompute.
func (s *tourService) InvalidateTour(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

func (s *tourService) CreateTour(ctx context.Context, tour *model.Tour) (*model.Tour, error) {
	if !tour.PriceDiscount.IsZero() && tour.PriceDiscount.GreaterThanOrEqual(tour.Price) {
		return nil, apperrors.NewHTTPError(400, "discount price should be below the regular price", "BAD_REQUEST")
	}
	if err := s.repo.Create(ctx, tour); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}
	return tour, nil
}

func (s *tourService) GetTour(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Tour
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	tour, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTourNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(tour); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, tourCacheTTL)
	}
	return tour, nil
}

func (s *tourService) GetTourBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	tour, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTourNotFound
		}
		return nil, err
	}
	return tour, nil
}

func (s *tourService) ListTours(ctx context.Context, q repository.TourQuery) ([]model.Tour, error) {
	return s.repo.List(ctx, q)
}

// UpdateTour loads the tour, applies the mutation and saves it, re-running
// the slug and coordinate derivation in BeforeSave.
func (s *tourService) UpdateTour(ctx context.Context, id uuid.UUID, apply func(*model.Tour)) (*model.Tour, error) {
	tour, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTourNotFound
		}
		return nil, err
	}

	apply(tour)
	if !tour.PriceDiscount.IsZero() && tour.PriceDiscount.GreaterThanOrEqual(tour.Price) {
		return nil, apperrors.NewHTTPError(400, "discount price should be below the regular price", "BAD_REQUEST")
	}

	if err := s.repo.Save(ctx, tour); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}
	s.InvalidateTour(ctx, id)
	return tour, nil
}

func (s *tourService) DeleteTour(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTourNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}
	s.InvalidateTour(ctx, id)
	return nil
}

func (s *tourService) ToursWithin(ctx context.Context, lat, lng, distance float64, unit string) ([]model.Tour, error) {
	return s.repo.Within(ctx, lat, lng, distance, unit)
}

func (s *tourService) Distances(ctx context.Context, lat, lng float64, unit string) ([]repository.TourDistance, error) {
	return s.repo.Distances(ctx, lat, lng, unit)
}

func (s *tourService) Stats(ctx context.Context) ([]repository.TourStats, error) {
	return s.repo.Stats(ctx)
}
