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

type applicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	ExistsActive(ctx context.Context, studentID, courseID string) (bool, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	Delete(ctx context.Context, id string) error
	EnrolledCourses(ctx context.Context, studentID string) ([]models.Course, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type profileReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ApplicantSnapshot carries the personal fields captured at submission time.
// Values are stored as provided; the server does not re-derive them from the
// account.
type ApplicantSnapshot struct {
	FirstName         string `json:"first_name" validate:"required"`
	LastName          string `json:"last_name" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"required"`
	DateOfBirth       string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	PreviousEducation string `json:"previous_education" validate:"required"`
}

// SubmitApplicationRequest submits one application for one course.
type SubmitApplicationRequest struct {
	ApplicantSnapshot
	CourseID string `json:"course_id" validate:"required"`
}

// BatchSubmitRequest submits the same snapshot against several courses.
type BatchSubmitRequest struct {
	ApplicantSnapshot
	CourseIDs []string `json:"course_ids" validate:"required,min=1,dive,required"`
}

// CourseSubmitResult reports the per-course outcome of a batch submission.
type CourseSubmitResult struct {
	CourseID    string              `json:"course_id"`
	Application *models.Application `json:"application,omitempty"`
	Error       *appErrors.Error    `json:"error,omitempty"`
}

// UpdateApplicationStatusRequest is the admin decision payload.
type UpdateApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,oneof=accepted rejected"`
}

// ApplicationService owns the application-state invariants and queries.
type ApplicationService struct {
	repo      applicationRepository
	courses   courseReader
	profiles  profileReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs ApplicationService.
func NewApplicationService(repo applicationRepository, courses courseReader, profiles profileReader, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, courses: courses, profiles: profiles, validator: validate, logger: logger}
}

// Submit creates a pending application for the student. The student's profile
// must be completed first, the course must exist, and at most one
// pending/accepted application may exist per (student, course) pairing.
// Re-application after rejection is permitted.
func (s *ApplicationService) Submit(ctx context.Context, studentID string, req SubmitApplicationRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	student, err := s.profiles.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.ProfileCompleted {
		return nil, appErrors.ErrProfileIncomplete
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.repo.ExistsActive(ctx, studentID, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate application")
	}
	if exists {
		return nil, appErrors.ErrDuplicateApplication
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date of birth")
	}

	application := &models.Application{
		StudentID:         studentID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		DateOfBirth:       dob,
		PreviousEducation: req.PreviousEducation,
		CourseID:          course.ID,
		CourseTitle:       course.Title,
		Status:            models.ApplicationStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, application); err != nil {
		// Two concurrent submits for the same pairing race past the
		// existence check; the partial unique index decides the winner.
		if errors.Is(err, repository.ErrDuplicateApplication) {
			return nil, appErrors.ErrDuplicateApplication
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	return application, nil
}

// SubmitBatch runs one independent Submit per requested course and reports
// per-course outcomes. Partial success is expected, not rolled back.
func (s *ApplicationService) SubmitBatch(ctx context.Context, studentID string, req BatchSubmitRequest) ([]CourseSubmitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	results := make([]CourseSubmitResult, 0, len(req.CourseIDs))
	for _, courseID := range req.CourseIDs {
		application, err := s.Submit(ctx, studentID, SubmitApplicationRequest{ApplicantSnapshot: req.ApplicantSnapshot, CourseID: courseID})
		result := CourseSubmitResult{CourseID: courseID}
		if err != nil {
			result.Error = appErrors.FromError(err)
		} else {
			result.Application = application
		}
		results = append(results, result)
	}
	return results, nil
}

// UpdateStatus applies an admin decision. Setting the current status again is
// an idempotent no-op returning the stored record.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id string, req UpdateApplicationStatusRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	application, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if application.Status == req.Status {
		return application, nil
	}

	if application.Status.Terminal() {
		s.logger.Info("overriding terminal application decision",
			zap.String("application_id", id),
			zap.String("from", string(application.Status)),
			zap.String("to", string(req.Status)))
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}
	application.Status = req.Status
	s.logger.Info("application status updated", zap.String("application_id", id), zap.String("status", string(req.Status)))
	return application, nil
}

// Delete permanently removes an application.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}
	return nil
}

// ListForAdmin returns all applications with student details populated,
// ordered by submission time descending.
func (s *ApplicationService) ListForAdmin(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}
	applications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return applications, pagination, nil
}

// ListForStudent returns the student's own applications, any status.
func (s *ApplicationService) ListForStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	applications, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return applications, nil
}

// Enrollment returns the courses for which the student holds an accepted
// application.
func (s *ApplicationService) Enrollment(ctx context.Context, studentID string) ([]models.Course, error) {
	courses, err := s.repo.EnrolledCourses(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled courses")
	}
	return courses, nil
}
