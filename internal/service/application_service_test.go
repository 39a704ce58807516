package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/admissions-api/internal/models"
	"github.com/noah-isme/admissions-api/internal/repository"
	appErrors "github.com/noah-isme/admissions-api/pkg/errors"
)

type mockApplicationRepo struct {
	applications map[string]models.Application
	createErr    error
	created      *models.Application
	deleted      []string
	statusSet    map[string]models.ApplicationStatus
}

func (m *mockApplicationRepo) Create(ctx context.Context, application *models.Application) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.applications == nil {
		m.applications = make(map[string]models.Application)
	}
	if application.ID == "" {
		application.ID = "new-app"
	}
	m.applications[application.ID] = *application
	m.created = application
	return nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if a, ok := m.applications[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	for _, a := range m.applications {
		if a.StudentID == studentID && a.CourseID == courseID && a.Status != models.ApplicationStatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	var list []models.ApplicationDetail
	for _, a := range m.applications {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		list = append(list, models.ApplicationDetail{Application: a})
	}
	return list, len(list), nil
}

func (m *mockApplicationRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	var list []models.Application
	for _, a := range m.applications {
		if a.StudentID == studentID {
			list = append(list, a)
		}
	}
	return list, nil
}

func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	if m.statusSet == nil {
		m.statusSet = make(map[string]models.ApplicationStatus)
	}
	m.statusSet[id] = status
	if a, ok := m.applications[id]; ok {
		a.Status = status
		m.applications[id] = a
	}
	return nil
}

func (m *mockApplicationRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.applications[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.applications, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockApplicationRepo) EnrolledCourses(ctx context.Context, studentID string) ([]models.Course, error) {
	var courses []models.Course
	for _, a := range m.applications {
		if a.StudentID == studentID && a.Status == models.ApplicationStatusAccepted {
			courses = append(courses, models.Course{ID: a.CourseID, Title: a.CourseTitle})
		}
	}
	return courses, nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockProfileReader struct {
	users map[string]*models.User
}

func (m *mockProfileReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func completeStudent(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", FullName: "Student", Role: models.RoleStudent, Active: true, ProfileCompleted: true}
}

func snapshot() ApplicantSnapshot {
	return ApplicantSnapshot{
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Email:             "ada@example.com",
		Phone:             "+100",
		DateOfBirth:       "1990-01-02",
		PreviousEducation: "High School",
	}
}

func newApplicationService(repo *mockApplicationRepo, courses *mockCourseReader, profiles *mockProfileReader) *ApplicationService {
	return NewApplicationService(repo, courses, profiles, validator.New(), zap.NewNop())
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	repo := &mockApplicationRepo{}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", Title: "Mathematics"}}}
	profiles := &mockProfileReader{users: map[string]*models.User{"s1": completeStudent("s1")}}
	svc := newApplicationService(repo, courses, profiles)

	application, err := svc.Submit(context.Background(), "s1", SubmitApplicationRequest{ApplicantSnapshot: snapshot(), CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, application.Status)
	assert.Equal(t, "Mathematics", application.CourseTitle)
	assert.Equal(t, "s1", application.StudentID)
	require.NotNil(t, repo.created)
}

func TestSubmitRequiresCompleteProfile(t *testing.T) {
	repo := &mockApplicationRepo{}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", Title: "Mathematics"}}}
	student := completeStudent("s1")
	student.ProfileCompleted = false
	profiles := &mockProfileReader{users: map[string]*models.User{"s1": student}}
	svc := newApplicationService(repo, courses, profiles)

	_, err := svc.Submit(context.Background(), "s1", SubmitApplicationRequest{ApplicantSnapshot: snapshot(), CourseID: "c1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrProfileIncomplete.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestSubmitUnknownCourse(t *testing.T) {
	repo := &mockApplicationRepo{}
	courses := &mockCourseReader{}
	profiles := &mockProfileReader{users: map[string]*models.User{"s1": completeStudent("s1")}}
	svc := newApplicationService(repo, courses, profiles)

	_, err := svc.Submit(context.Background(), "s1", SubmitApplicationRequest{ApplicantSnapshot: snapshot(), CourseID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmitBlocksActiveDuplicate(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", CourseID: "c1", Status: models.ApplicationStatusPending},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", Title: "Mathematics"}}}
	profiles := &mockProfileReader{users: map[string]*models.User{"s1": completeStudent("s1")}}
	svc := newApplicationService(repo, courses, profiles)

	_, err := svc.Submit(context.Background(), "s1", SubmitApplicationRequest{ApplicantSnapshot: snapshot(), CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateApplication.Code, appErrors.FromError(err).Code)
}

func TestSubmitAllowedAfterRejection(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", CourseID: "c1", Status: models.ApplicationStatusRejected},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", Title: "Mathematics"}}}
	profiles := &mockProfileReader{users: map[string]*models.User{"s1": completeStudent("s1")}}
	svc := newApplicationService(repo, courses, profiles)

	application, err := svc.Submit(context.Background(), "s1", SubmitApplicationRequest{ApplicantSnapshot: snapshot(), CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, application.Status)
}

func TestSubmitRaceLoserGetsDuplicate(t *testing.T) {
	repo := &mockApplicationRepo{createErr: repository.ErrDuplicateApplication}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", Title: "Mathematics"}}}
	profiles := &mockProfileReader{users: map[string]*models.User{"s1": completeStudent("s1")}}
	svc := newApplicationService(repo, courses, profiles)

	_, err := svc.Submit(context.Background(), "s1", SubmitApplicationRequest{ApplicantSnapshot: snapshot(), CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateApplication.Code, appErrors.FromError(err).Code)
}

func TestSubmitBatchPartialSuccess(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", CourseID: "c1", Status: models.ApplicationStatusAccepted},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"c1": {ID: "c1", Title: "Mathematics"},
		"c2": {ID: "c2", Title: "Physics"},
	}}
	profiles := &mockProfileReader{users: map[string]*models.User{"s1": completeStudent("s1")}}
	svc := newApplicationService(repo, courses, profiles)

	results, err := svc.SubmitBatch(context.Background(), "s1", BatchSubmitRequest{ApplicantSnapshot: snapshot(), CourseIDs: []string{"c1", "c2", "missing"}})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Nil(t, results[0].Application)
	require.NotNil(t, results[0].Error)
	assert.Equal(t, appErrors.ErrDuplicateApplication.Code, results[0].Error.Code)

	require.NotNil(t, results[1].Application)
	assert.Nil(t, results[1].Error)

	require.NotNil(t, results[2].Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, results[2].Error.Code)
}

func TestUpdateStatusAccept(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", CourseID: "c1", Status: models.ApplicationStatusPending},
	}}
	svc := newApplicationService(repo, &mockCourseReader{}, &mockProfileReader{})

	application, err := svc.UpdateStatus(context.Background(), "a1", UpdateApplicationStatusRequest{Status: models.ApplicationStatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, application.Status)
	assert.Equal(t, models.ApplicationStatusAccepted, repo.statusSet["a1"])
}

func TestUpdateStatusFlipsTerminalDecision(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", CourseID: "c1", Status: models.ApplicationStatusAccepted},
	}}
	svc := newApplicationService(repo, &mockCourseReader{}, &mockProfileReader{})

	application, err := svc.UpdateStatus(context.Background(), "a1", UpdateApplicationStatusRequest{Status: models.ApplicationStatusRejected})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, application.Status)
	assert.Equal(t, models.ApplicationStatusRejected, repo.statusSet["a1"])
}

func TestUpdateStatusIdempotent(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", Status: models.ApplicationStatusAccepted},
	}}
	svc := newApplicationService(repo, &mockCourseReader{}, &mockProfileReader{})

	application, err := svc.UpdateStatus(context.Background(), "a1", UpdateApplicationStatusRequest{Status: models.ApplicationStatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, application.Status)
	assert.Empty(t, repo.statusSet)
}

func TestUpdateStatusNotFound(t *testing.T) {
	svc := newApplicationService(&mockApplicationRepo{}, &mockCourseReader{}, &mockProfileReader{})

	_, err := svc.UpdateStatus(context.Background(), "missing", UpdateApplicationStatusRequest{Status: models.ApplicationStatusRejected})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc := newApplicationService(&mockApplicationRepo{}, &mockCourseReader{}, &mockProfileReader{})

	_, err := svc.UpdateStatus(context.Background(), "a1", UpdateApplicationStatusRequest{Status: "approved"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteApplicationNotFound(t *testing.T) {
	svc := newApplicationService(&mockApplicationRepo{}, &mockCourseReader{}, &mockProfileReader{})

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListForAdminRejectsUnknownStatus(t *testing.T) {
	svc := newApplicationService(&mockApplicationRepo{}, &mockCourseReader{}, &mockProfileReader{})

	_, _, err := svc.ListForAdmin(context.Background(), models.ApplicationFilter{Status: "bogus"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentOnlyAcceptedCourses(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", CourseID: "c1", CourseTitle: "Mathematics", Status: models.ApplicationStatusAccepted},
		"a2": {ID: "a2", StudentID: "s1", CourseID: "c2", CourseTitle: "Physics", Status: models.ApplicationStatusPending},
		"a3": {ID: "a3", StudentID: "s1", CourseID: "c3", CourseTitle: "Chemistry", Status: models.ApplicationStatusRejected},
	}}
	svc := newApplicationService(repo, &mockCourseReader{}, &mockProfileReader{})

	courses, err := svc.Enrollment(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Mathematics", courses[0].Title)
}
