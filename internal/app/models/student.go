package models

import (
	"time"
)

// Student defines a per-teacher student record based on the 'students' table.
// The tuple (user_id, name, subject) is the natural key used to detect an
// existing record on add and import; it is enforced by a unique index.
type Student struct {
	ID        int64     `json:"id" db:"id" example:"1"`                                   // Unique identifier for the record
	UserID    int64     `json:"-" db:"user_id"`                                           // Owning teacher account
	Name      string    `json:"name" db:"name" example:"Alice Smith"`                     // Student's full name
	Subject   string    `json:"subject" db:"subject" example:"Math"`                      // Subject the mark belongs to
	Marks     int       `json:"marks" db:"marks" example:"87"`                            // Integer score, no enforced range
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"` // Set once at creation
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"` // Refreshed on every mutation
}

// MergePolicy selects how marks are combined when a natural-key match exists.
type MergePolicy int

const (
	// MergeOverwrite replaces the stored marks with the supplied value.
	// Used by the manual add endpoint.
	MergeOverwrite MergePolicy = iota
	// MergeAccumulate adds the supplied value to the stored marks.
	// Used by the CSV importer.
	MergeAccumulate
)

// SubjectSummary holds per-subject aggregates for the dashboard.
type SubjectSummary struct {
	Subject string  `json:"subject" db:"subject" example:"Math"`
	Average float64 `json:"average" db:"average" example:"72.5"`
	Max     int     `json:"max" db:"max" example:"98"`
	Min     int     `json:"min" db:"min" example:"41"`
	Count   int     `json:"count" db:"count" example:"12"`
}
