package models

import "time"

// Course is a catalog offering students can apply to. Title is the catalog's
// natural key and is unique.
type Course struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Duration    string     `db:"duration" json:"duration"`
	Tuition     float64    `db:"tuition" json:"tuition"`
	Instructor  string     `db:"instructor" json:"instructor,omitempty"`
	StartsAt    *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// CreateCourseRequest is the admin payload for adding a catalog entry.
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Duration    string  `json:"duration" validate:"required"`
	Tuition     float64 `json:"tuition" validate:"gte=0"`
	Instructor  string  `json:"instructor"`
	StartsAt    string  `json:"starts_at" validate:"omitempty,datetime=2006-01-02"`
	EndsAt      string  `json:"ends_at" validate:"omitempty,datetime=2006-01-02"`
}
