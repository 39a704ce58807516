package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// User represents an account stored in the users table. Students carry an
// admissions profile whose completeness gates application submission.
type User struct {
	ID                string     `db:"id" json:"id"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	FullName          string     `db:"full_name" json:"full_name"`
	Role              UserRole   `db:"role" json:"role"`
	Active            bool       `db:"active" json:"active"`
	Phone             string     `db:"phone" json:"phone,omitempty"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Street            string     `db:"street" json:"street,omitempty"`
	City              string     `db:"city" json:"city,omitempty"`
	State             string     `db:"state" json:"state,omitempty"`
	ZipCode           string     `db:"zip_code" json:"zip_code,omitempty"`
	Country           string     `db:"country" json:"country,omitempty"`
	PreviousEducation string     `db:"previous_education" json:"previous_education,omitempty"`
	EmergencyName     string     `db:"emergency_name" json:"emergency_name,omitempty"`
	EmergencyRelation string     `db:"emergency_relation" json:"emergency_relation,omitempty"`
	EmergencyPhone    string     `db:"emergency_phone" json:"emergency_phone,omitempty"`
	ProfileCompleted  bool       `db:"profile_completed" json:"profile_completed"`
	LastLogin         *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// ProfileComplete reports whether every required admissions field is populated.
// The stored profile_completed column is kept in sync on each profile update.
func (u *User) ProfileComplete() bool {
	if u.Phone == "" || u.DateOfBirth == nil || u.PreviousEducation == "" {
		return false
	}
	if u.Street == "" || u.City == "" || u.Country == "" {
		return false
	}
	if u.EmergencyName == "" || u.EmergencyPhone == "" {
		return false
	}
	return true
}

// UpdateProfileRequest carries the mutable admissions profile fields.
type UpdateProfileRequest struct {
	Phone             string `json:"phone" validate:"required"`
	DateOfBirth       string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Street            string `json:"street" validate:"required"`
	City              string `json:"city" validate:"required"`
	State             string `json:"state"`
	ZipCode           string `json:"zip_code"`
	Country           string `json:"country" validate:"required"`
	PreviousEducation string `json:"previous_education" validate:"required"`
	EmergencyName     string `json:"emergency_name" validate:"required"`
	EmergencyRelation string `json:"emergency_relation"`
	EmergencyPhone    string `json:"emergency_phone" validate:"required"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
