package service

import (
	"math"
	"time"

	"github.com/edunest/tutorhub-api/internal/models"
)

// DeriveAssignmentStatus computes the display status for an assignment from a
// viewer's perspective. Missing submissions derive PENDING or OVERDUE from the
// due date; an existing submission returns its stored status verbatim —
// SUBMITTED/LATE/GRADED are stamped on the write path and never reclassified
// here.
func DeriveAssignmentStatus(assignment models.Assignment, submission *models.Submission, now time.Time) models.EffectiveStatus {
	if submission == nil {
		if now.After(assignment.DueDate) {
			return models.EffectiveStatusOverdue
		}
		return models.EffectiveStatusPending
	}
	return models.EffectiveStatus(submission.Status)
}

// AssignmentActionFor maps a derived status to the affordance the viewer gets:
// PENDING/OVERDUE can submit, SUBMITTED/LATE can view and resubmit while the
// deadline has not passed, GRADED is view-only.
func AssignmentActionFor(status models.EffectiveStatus, pastDue bool) models.AssignmentAction {
	switch status {
	case models.EffectiveStatusPending, models.EffectiveStatusOverdue:
		return models.AssignmentActionSubmit
	case models.EffectiveStatusSubmitted, models.EffectiveStatusLate:
		if pastDue {
			return models.AssignmentActionView
		}
		return models.AssignmentActionResubmit
	default:
		return models.AssignmentActionView
	}
}

// AggregateAssignmentStats buckets derived statuses for reporting. The late
// bucket counts both LATE and OVERDUE on purpose: they are distinct in the UI
// but equivalent for reporting.
func AggregateAssignmentStats(views []models.AssignmentView) models.AssignmentStats {
	stats := models.AssignmentStats{Total: len(views)}
	for _, v := range views {
		switch v.EffectiveStatus {
		case models.EffectiveStatusPending:
			stats.Pending++
		case models.EffectiveStatusSubmitted:
			stats.Submitted++
		case models.EffectiveStatusGraded:
			stats.Graded++
		case models.EffectiveStatusLate:
			stats.Late++
		case models.EffectiveStatusOverdue:
			stats.Late++
		}
	}
	return stats
}

// DeriveQuizStatus mirrors the assignment derivation for quizzes. An attempt
// that was started but never submitted carries no stamped status yet, so it
// derives like a missing submission.
func DeriveQuizStatus(quiz models.Quiz, attempt *models.QuizAttempt, now time.Time) models.EffectiveStatus {
	if attempt == nil || attempt.SubmittedAt == nil {
		if now.After(quiz.DueDate) {
			return models.EffectiveStatusOverdue
		}
		return models.EffectiveStatusPending
	}
	return models.EffectiveStatus(attempt.Status)
}

// MeetingIsLive reports whether a meeting should render as live: either the
// stored status says so or the current time falls inside its scheduled span.
func MeetingIsLive(m models.Meeting, now time.Time) bool {
	if m.Status == models.MeetingStatusLive {
		return true
	}
	if m.Status == models.MeetingStatusCancelled {
		return false
	}
	return !now.Before(m.ScheduledAt) && !now.After(m.End())
}

// MeetingIsPast reports whether a meeting belongs to history.
func MeetingIsPast(m models.Meeting, now time.Time) bool {
	return m.Status == models.MeetingStatusCompleted || m.ScheduledAt.Before(now)
}

// DaysRemaining computes the whole days left until expiry, rounded up and
// clamped at zero. A nil expiry means the enrollment does not lapse.
func DaysRemaining(expiry *time.Time, now time.Time) int {
	if expiry == nil {
		return 0
	}
	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
