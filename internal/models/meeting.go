package models

import "time"

// MeetingStatus represents the lifecycle of a scheduled meeting.
type MeetingStatus string

// Possible meeting statuses. CANCELLED is terminal and excluded from
// conflict checks.
const (
	MeetingStatusScheduled MeetingStatus = "SCHEDULED"
	MeetingStatusLive      MeetingStatus = "LIVE"
	MeetingStatusCompleted MeetingStatus = "COMPLETED"
	MeetingStatusCancelled MeetingStatus = "CANCELLED"
)

// Meeting is a single scheduled session for a section. The tutor is derived
// from the section at creation time and denormalised here for conflict scans.
type Meeting struct {
	ID              string        `db:"id" json:"id"`
	SectionID       string        `db:"section_id" json:"section_id"`
	TutorID         string        `db:"tutor_id" json:"tutor_id"`
	Title           string        `db:"title" json:"title"`
	ScheduledAt     time.Time     `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Status          MeetingStatus `db:"status" json:"status"`
	MeetingURL      *string       `db:"meeting_url" json:"meeting_url,omitempty"`
	RecordingURL    *string       `db:"recording_url" json:"recording_url,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// End returns the meeting's end instant.
func (m Meeting) End() time.Time {
	return m.ScheduledAt.Add(time.Duration(m.DurationMinutes) * time.Minute)
}

// MeetingDetail enriches Meeting with section and tutor info.
type MeetingDetail struct {
	Meeting
	SectionLabel string `db:"section_label" json:"section_label"`
	ProgramName  string `db:"program_name" json:"program_name"`
	TutorName    string `db:"tutor_name" json:"tutor_name"`
}

// MeetingFilter defines filter criteria for listing meetings.
type MeetingFilter struct {
	SectionID string
	TutorID   string
	Status    MeetingStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
