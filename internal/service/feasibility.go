package service

import (
	"fmt"
	"time"

	"github.com/edunest/tutorhub-api/internal/models"
)

// FeasibilityCandidate describes a proposed meeting to validate. Availability
// windows and the enrolled-student count are snapshots supplied by the caller;
// the checker itself performs no reads or writes.
type FeasibilityCandidate struct {
	SectionID        string
	TutorID          string
	TutorName        string
	ScheduledAt      time.Time
	DurationMinutes  int
	EnrolledStudents int
	Windows          []models.AvailabilityWindow
}

// FeasibilityResult is a validation outcome meant to be rendered inline by a
// form, so rejections are values rather than errors.
type FeasibilityResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// CheckMeetingFeasibility decides whether the candidate meeting can be
// scheduled: the tutor must have an availability window covering the start
// time and no other non-cancelled meeting of the same tutor may overlap.
//
// Window coverage is start-inclusive, end-exclusive: a meeting starting
// exactly at a window's end time is not covered. Back-to-back meetings are
// allowed.
//
// When editing a meeting whose start is already in the past
// (editingMeetingID set and scheduledAt < now), the availability check is
// skipped so historical records stay editable; the overlap check still runs
// unconditionally.
func CheckMeetingFeasibility(candidate FeasibilityCandidate, existing []models.MeetingDetail, editingMeetingID string, now time.Time) FeasibilityResult {
	editingPast := editingMeetingID != "" && candidate.ScheduledAt.Before(now)

	day := int(candidate.ScheduledAt.Weekday())
	timeStr := candidate.ScheduledAt.Format("15:04")

	if !editingPast && !coveredByWindow(candidate.Windows, day, timeStr) {
		return FeasibilityResult{
			Valid:   false,
			Message: fmt.Sprintf("%s is not available on %s at %s", candidate.TutorName, candidate.ScheduledAt.Weekday(), timeStr),
		}
	}

	candStart := candidate.ScheduledAt
	candEnd := candStart.Add(time.Duration(candidate.DurationMinutes) * time.Minute)

	for _, m := range existing {
		if m.ID == editingMeetingID {
			continue
		}
		if m.Status == models.MeetingStatusCancelled {
			continue
		}
		if m.TutorID != candidate.TutorID {
			continue
		}
		if intervalsOverlap(candStart, candEnd, m.ScheduledAt, m.End()) {
			return FeasibilityResult{
				Valid:   false,
				Message: fmt.Sprintf("conflicts with '%s' in Section %s", m.Title, m.SectionLabel),
			}
		}
	}

	if editingPast {
		return FeasibilityResult{Valid: true, Message: "meeting already passed; recording URL may still be edited"}
	}
	return FeasibilityResult{
		Valid:   true,
		Message: fmt.Sprintf("%s is available; %d students enrolled", candidate.TutorName, candidate.EnrolledStudents),
	}
}

// coveredByWindow reports whether any window spans the weekday/time pair.
// "HH:MM" strings compare correctly as plain strings.
func coveredByWindow(windows []models.AvailabilityWindow, day int, timeStr string) bool {
	for _, w := range windows {
		if w.DayOfWeek != day {
			continue
		}
		if w.StartTime <= timeStr && w.EndTime > timeStr {
			return true
		}
	}
	return false
}

// intervalsOverlap applies the three collision cases: candidate starts inside
// the existing meeting, candidate ends inside it, or candidate fully contains
// it. Touching endpoints do not collide.
func intervalsOverlap(candStart, candEnd, otherStart, otherEnd time.Time) bool {
	if !candStart.Before(otherStart) && candStart.Before(otherEnd) {
		return true
	}
	if candEnd.After(otherStart) && !candEnd.After(otherEnd) {
		return true
	}
	if !candStart.After(otherStart) && !candEnd.Before(otherEnd) {
		return true
	}
	return false
}
