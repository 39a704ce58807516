package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/admissions-api/internal/models"
	"github.com/noah-isme/admissions-api/internal/repository"
	appErrors "github.com/noah-isme/admissions-api/pkg/errors"
)

const catalogCacheKey = "catalog:courses"

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByTitle(ctx context.Context, title string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CourseService manages the admin-owned course catalog.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the catalog, served from cache when warm.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if hit, err := s.cache.Get(ctx, catalogCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, catalogCacheKey, courses); err != nil {
		s.logger.Warn("failed to cache catalog", zap.Error(err))
	}
	return courses, nil
}

// Get returns a single course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a catalog entry. Titles are unique; schedule dates must be
// ordered when both are present.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if _, err := s.repo.FindByTitle(ctx, req.Title); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course title already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course title")
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Tuition:     req.Tuition,
		Instructor:  req.Instructor,
		CreatedAt:   time.Now().UTC(),
	}

	if req.StartsAt != "" {
		starts, err := time.Parse("2006-01-02", req.StartsAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
		}
		course.StartsAt = &starts
	}
	if req.EndsAt != "" {
		ends, err := time.Parse("2006-01-02", req.EndsAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
		}
		course.EndsAt = &ends
	}
	if course.StartsAt != nil && course.EndsAt != nil && course.EndsAt.Before(*course.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule end precedes start")
	}

	if err := s.repo.Create(ctx, course); err != nil {
		// Two concurrent creates for the same title race past the
		// title check; the unique constraint decides the winner.
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course title already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Delete removes a course; its applications cascade away with it.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}
