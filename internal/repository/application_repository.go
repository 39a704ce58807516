package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/admissions-api/internal/models"
)

// ErrDuplicateApplication is returned when an insert collides with the
// partial unique index over (student_id, course_id) for pending/accepted
// rows. It is what makes the guard hold under concurrent submits.
var ErrDuplicateApplication = errors.New("active application already exists for student and course")

const applicationColumns = `id, student_id, first_name, last_name, email, phone, date_of_birth, previous_education, course_id, course_title, status, created_at`

// ApplicationRepository handles persistence of applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create persists a new application record.
func (r *ApplicationRepository) Create(ctx context.Context, application *models.Application) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	if application.CreatedAt.IsZero() {
		application.CreatedAt = time.Now().UTC()
	}
	if application.Status == "" {
		application.Status = models.ApplicationStatusPending
	}
	const query = `INSERT INTO applications (id, student_id, first_name, last_name, email, phone, date_of_birth, previous_education, course_id, course_title, status, created_at)
        VALUES (:id, :student_id, :first_name, :last_name, :email, :phone, :date_of_birth, :previous_education, :course_id, :course_title, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateApplication
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1 LIMIT 1`, applicationColumns)
	var application models.Application
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return &application, nil
}

// ExistsActive checks whether a pending or accepted application exists for
// the (student, course) pairing.
func (r *ApplicationRepository) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM applications WHERE student_id = $1 AND course_id = $2 AND status IN ($3, $4) LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.ApplicationStatusPending, models.ApplicationStatusAccepted)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active application: %w", err)
	}
	return true, nil
}

// List returns applications with student details, filtered and ordered by
// created_at descending.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	base := `FROM applications a
LEFT JOIN users u ON u.id = a.student_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("a.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.first_name, a.last_name, a.email, a.phone, a.date_of_birth, a.previous_education, a.course_id, a.course_title, a.status, a.created_at,
        u.full_name AS student_name, u.email AS student_email
        %s ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return applications, total, nil
}

// ListByStudent returns all applications owned by a student, newest first.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE student_id = $1 ORDER BY created_at DESC`, applicationColumns)
	var applications []models.Application
	if err := r.db.SelectContext(ctx, &applications, query, studentID); err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	return applications, nil
}

// UpdateStatus updates the status in place; created_at is never touched.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	const query = `UPDATE applications SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}

// Delete permanently removes the application record.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM applications WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// EnrolledCourses returns courses the student holds an accepted application
// for, newest acceptance first.
func (r *ApplicationRepository) EnrolledCourses(ctx context.Context, studentID string) ([]models.Course, error) {
	const query = `SELECT c.id, c.title, c.description, c.duration, c.tuition, c.instructor, c.starts_at, c.ends_at, c.created_at
        FROM applications a
        JOIN courses c ON c.id = a.course_id
        WHERE a.student_id = $1 AND a.status = $2
        ORDER BY a.created_at DESC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID, models.ApplicationStatusAccepted); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return courses, nil
}
