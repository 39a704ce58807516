package models

import "time"

// ApplicationStatus represents the lifecycle of an application.
type ApplicationStatus string

// Possible application statuses. pending is the only non-terminal state.
const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Valid reports whether the status is one of the known values.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status ends the workflow.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusAccepted || s == ApplicationStatusRejected
}

// Application is one student's request to enroll in one course. The applicant
// fields are a snapshot captured at submission time and are stored as
// provided, never re-derived from the account.
type Application struct {
	ID                string            `db:"id" json:"id"`
	StudentID         string            `db:"student_id" json:"student_id"`
	FirstName         string            `db:"first_name" json:"first_name"`
	LastName          string            `db:"last_name" json:"last_name"`
	Email             string            `db:"email" json:"email"`
	Phone             string            `db:"phone" json:"phone"`
	DateOfBirth       time.Time         `db:"date_of_birth" json:"date_of_birth"`
	PreviousEducation string            `db:"previous_education" json:"previous_education"`
	CourseID          string            `db:"course_id" json:"course_id"`
	CourseTitle       string            `db:"course_title" json:"course_title"`
	Status            ApplicationStatus `db:"status" json:"status"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
}

// ApplicationDetail enriches Application with account info for admin views.
type ApplicationDetail struct {
	Application
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
}

// ApplicationFilter provides filters for listing applications.
type ApplicationFilter struct {
	StudentID string
	CourseID  string
	Status    ApplicationStatus
	Page      int
	PageSize  int
}
