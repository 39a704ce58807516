package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/admissions-api/internal/models"
)

// ErrDuplicateTitle is returned when a course title already exists in the
// catalog. Titles are the natural key the application flow matches on.
var ErrDuplicateTitle = errors.New("course title already exists")

const courseColumns = `id, title, description, duration, tuition, instructor, starts_at, ends_at, created_at`

// CourseRepository handles persistence of catalog offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns the full catalog ordered by title.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses ORDER BY title ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindByTitle returns a course by its unique title.
func (r *CourseRepository) FindByTitle(ctx context.Context, title string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE title = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, title); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by title: %w", err)
	}
	return &course, nil
}

// Create persists a new course. A title collision surfaces as
// ErrDuplicateTitle via the unique constraint.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, title, description, duration, tuition, instructor, starts_at, ends_at, created_at)
        VALUES (:id, :title, :description, :duration, :tuition, :instructor, :starts_at, :ends_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Delete removes a course; applications referencing it cascade away.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
