package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/admissions-api/internal/models"
	appErrors "github.com/noah-isme/admissions-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

// UserService exposes account and admissions-profile operations.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// UpdateProfile stores the admissions profile fields and recomputes the
// completeness flag that gates application submission.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
	}

	user.Phone = req.Phone
	user.DateOfBirth = &dob
	user.Street = req.Street
	user.City = req.City
	user.State = req.State
	user.ZipCode = req.ZipCode
	user.Country = req.Country
	user.PreviousEducation = req.PreviousEducation
	user.EmergencyName = req.EmergencyName
	user.EmergencyRelation = req.EmergencyRelation
	user.EmergencyPhone = req.EmergencyPhone
	user.ProfileCompleted = user.ProfileComplete()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return user, nil
}

// IsProfileComplete reports whether the account may submit applications.
func (s *UserService) IsProfileComplete(ctx context.Context, userID string) (bool, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.ProfileCompleted, nil
}
