package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/admissions-api/internal/models"
)

func courseRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "duration", "tuition", "instructor", "starts_at", "ends_at", "created_at"}).
		AddRow("c1", "Mathematics", "Numbers", "12 weeks", 1500.0, "Dr. Turing", nil, nil, now)
}

func TestCourseList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+courseColumns+" FROM courses ORDER BY title ASC")).
		WillReturnRows(courseRows(time.Now()))

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Mathematics", courses[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+courseColumns+" FROM courses WHERE id = $1 LIMIT 1")).
		WithArgs("c1").
		WillReturnRows(courseRows(time.Now()))

	course, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseFindByTitle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+courseColumns+" FROM courses WHERE title = $1 LIMIT 1")).
		WithArgs("Mathematics").
		WillReturnRows(courseRows(time.Now()))

	course, err := repo.FindByTitle(context.Background(), "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, "c1", course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCreateDuplicateTitle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Course{Title: "Mathematics", Description: "Numbers", Duration: "12 weeks"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTitle))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
