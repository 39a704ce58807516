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
	appErrors "github.com/noah-isme/admissions-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	updated *models.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	m.updated = user
	m.users[user.ID] = user
	return nil
}

func profileRequest() models.UpdateProfileRequest {
	return models.UpdateProfileRequest{
		Phone:             "+100",
		DateOfBirth:       "2000-05-04",
		Street:            "1 Main St",
		City:              "Springfield",
		Country:           "USA",
		PreviousEducation: "High School",
		EmergencyName:     "Jo Doe",
		EmergencyPhone:    "+200",
	}
}

func TestUpdateProfileMarksComplete(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "u1@example.com", FullName: "User", Role: models.RoleStudent, Active: true}}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := svc.UpdateProfile(context.Background(), "u1", profileRequest())
	require.NoError(t, err)
	assert.True(t, user.ProfileCompleted)
	require.NotNil(t, repo.updated)
	assert.True(t, repo.updated.ProfileCompleted)
}

func TestUpdateProfileMissingFieldsRejected(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1"}}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	req := profileRequest()
	req.Phone = ""
	_, err := svc.UpdateProfile(context.Background(), "u1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updated)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.UpdateProfile(context.Background(), "missing", profileRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestIsProfileComplete(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", ProfileCompleted: true}}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	complete, err := svc.IsProfileComplete(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, complete)
}
