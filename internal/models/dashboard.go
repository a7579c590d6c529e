package models

import "time"

// DashboardOverview aggregates platform counters for the admin landing page.
type DashboardOverview struct {
	ActiveSections    int       `json:"active_sections"`
	ActiveEnrollments int       `json:"active_enrollments"`
	UpcomingMeetings  int       `json:"upcoming_meetings"`
	PendingGrading    int       `json:"pending_grading"`
	GeneratedAt       time.Time `json:"generated_at"`
}
