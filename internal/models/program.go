package models

import "time"

// Program is a reusable course template that sections are instantiated from.
type Program struct {
	ID                    string    `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	Description           string    `db:"description" json:"description"`
	PriceCents            int       `db:"price_cents" json:"price_cents"`
	MaxStudentsPerSection int       `db:"max_students_per_section" json:"max_students_per_section"`
	MeetingsPerWeek       int       `db:"meetings_per_week" json:"meetings_per_week"`
	DurationMinutes       int       `db:"duration_minutes" json:"duration_minutes"`
	Active                bool      `db:"active" json:"active"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// ProgramFilter defines filter criteria for listing programs.
type ProgramFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
