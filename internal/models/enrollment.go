package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusExpired   EnrollmentStatus = "EXPIRED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// Enrollment captures a student's registration to a section.
type Enrollment struct {
	ID                string           `db:"id" json:"id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	SectionID         string           `db:"section_id" json:"section_id"`
	Status            EnrollmentStatus `db:"status" json:"status"`
	StartDate         *time.Time       `db:"start_date" json:"start_date,omitempty"`
	ExpiryDate        *time.Time       `db:"expiry_date" json:"expiry_date,omitempty"`
	MeetingsRemaining int              `db:"meetings_remaining" json:"meetings_remaining"`
	TotalMeetings     int              `db:"total_meetings" json:"total_meetings"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student and section info plus the
// derived days-remaining counter (never persisted, recomputed per read).
type EnrollmentDetail struct {
	Enrollment
	StudentName   string `db:"student_name" json:"student_name"`
	SectionLabel  string `db:"section_label" json:"section_label"`
	ProgramName   string `db:"program_name" json:"program_name"`
	DaysRemaining int    `db:"-" json:"days_remaining"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	SectionID string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
