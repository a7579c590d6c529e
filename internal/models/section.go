package models

import "time"

// SectionStatus represents the lifecycle of a section.
type SectionStatus string

// Possible section statuses.
const (
	SectionStatusActive   SectionStatus = "ACTIVE"
	SectionStatusFull     SectionStatus = "FULL"
	SectionStatusArchived SectionStatus = "ARCHIVED"
)

// Section is a scheduled instance of a program template, with a tutor and
// enrolled students. Labels order lexicographically: A, B, ..., Z, AA, ...
type Section struct {
	ID                 string        `db:"id" json:"id"`
	ProgramID          string        `db:"program_id" json:"program_id"`
	Label              string        `db:"label" json:"label"`
	TutorID            string        `db:"tutor_id" json:"tutor_id"`
	Status             SectionStatus `db:"status" json:"status"`
	CurrentEnrollments int           `db:"current_enrollments" json:"current_enrollments"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// SectionDetail enriches Section with program and tutor info.
type SectionDetail struct {
	Section
	ProgramName           string `db:"program_name" json:"program_name"`
	TutorName             string `db:"tutor_name" json:"tutor_name"`
	MaxStudentsPerSection int    `db:"max_students_per_section" json:"max_students_per_section"`
}

// SectionFilter defines filter criteria for listing sections.
type SectionFilter struct {
	ProgramID string
	TutorID   string
	Status    SectionStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SectionSuggestion surfaces a program whose latest active section is near
// capacity and should get a sibling section.
type SectionSuggestion struct {
	ProgramID          string `json:"program_id"`
	ProgramName        string `json:"program_name"`
	LatestLabel        string `json:"latest_label"`
	SuggestedLabel     string `json:"suggested_label"`
	CurrentEnrollments int    `json:"current_enrollments"`
	MaxStudents        int    `json:"max_students"`
}
