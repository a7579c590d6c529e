package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edunest/tutorhub-api/internal/models"
)

func TestDeriveAssignmentStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := models.Assignment{DueDate: now.Add(-24 * time.Hour)}
	tomorrow := models.Assignment{DueDate: now.Add(24 * time.Hour)}

	assert.Equal(t, models.EffectiveStatusOverdue, DeriveAssignmentStatus(yesterday, nil, now))
	assert.Equal(t, models.EffectiveStatusPending, DeriveAssignmentStatus(tomorrow, nil, now))

	// Submission presence overrides the due-date lateness check.
	sub := &models.Submission{Status: models.SubmissionStatusSubmitted}
	assert.Equal(t, models.EffectiveStatusSubmitted, DeriveAssignmentStatus(yesterday, sub, now))

	sub.Status = models.SubmissionStatusLate
	assert.Equal(t, models.EffectiveStatusLate, DeriveAssignmentStatus(yesterday, sub, now))

	sub.Status = models.SubmissionStatusGraded
	assert.Equal(t, models.EffectiveStatusGraded, DeriveAssignmentStatus(yesterday, sub, now))
}

func TestAssignmentActionFor(t *testing.T) {
	assert.Equal(t, models.AssignmentActionSubmit, AssignmentActionFor(models.EffectiveStatusPending, false))
	assert.Equal(t, models.AssignmentActionSubmit, AssignmentActionFor(models.EffectiveStatusOverdue, true))
	assert.Equal(t, models.AssignmentActionResubmit, AssignmentActionFor(models.EffectiveStatusSubmitted, false))
	assert.Equal(t, models.AssignmentActionView, AssignmentActionFor(models.EffectiveStatusSubmitted, true))
	assert.Equal(t, models.AssignmentActionResubmit, AssignmentActionFor(models.EffectiveStatusLate, false))
	assert.Equal(t, models.AssignmentActionView, AssignmentActionFor(models.EffectiveStatusGraded, false))
}

func TestAggregateAssignmentStatsCountsOverdueAsLate(t *testing.T) {
	views := []models.AssignmentView{
		{EffectiveStatus: models.EffectiveStatusPending},
		{EffectiveStatus: models.EffectiveStatusSubmitted},
		{EffectiveStatus: models.EffectiveStatusGraded},
		{EffectiveStatus: models.EffectiveStatusLate},
		{EffectiveStatus: models.EffectiveStatusOverdue},
	}
	stats := AggregateAssignmentStats(views)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Submitted)
	assert.Equal(t, 1, stats.Graded)
	assert.Equal(t, 2, stats.Late, "late counts both LATE and OVERDUE")
}

func TestDeriveQuizStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	quiz := models.Quiz{DueDate: now.Add(24 * time.Hour)}

	assert.Equal(t, models.EffectiveStatusPending, DeriveQuizStatus(quiz, nil, now))

	// An unsubmitted attempt derives like a missing submission.
	started := &models.QuizAttempt{StartedAt: now}
	assert.Equal(t, models.EffectiveStatusPending, DeriveQuizStatus(quiz, started, now))

	quiz.DueDate = now.Add(-time.Hour)
	assert.Equal(t, models.EffectiveStatusOverdue, DeriveQuizStatus(quiz, started, now))

	submittedAt := now.Add(-30 * time.Minute)
	done := &models.QuizAttempt{StartedAt: now.Add(-time.Hour), SubmittedAt: &submittedAt, Status: models.SubmissionStatusLate}
	assert.Equal(t, models.EffectiveStatusLate, DeriveQuizStatus(quiz, done, now))
}

func TestMeetingLiveAndPast(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	inWindow := models.Meeting{ScheduledAt: now.Add(-30 * time.Minute), DurationMinutes: 60, Status: models.MeetingStatusScheduled}
	assert.True(t, MeetingIsLive(inWindow, now))
	assert.True(t, MeetingIsPast(inWindow, now), "started meetings count as past")

	upcoming := models.Meeting{ScheduledAt: now.Add(time.Hour), DurationMinutes: 60, Status: models.MeetingStatusScheduled}
	assert.False(t, MeetingIsLive(upcoming, now))
	assert.False(t, MeetingIsPast(upcoming, now))

	flagged := models.Meeting{ScheduledAt: now.Add(time.Hour), DurationMinutes: 60, Status: models.MeetingStatusLive}
	assert.True(t, MeetingIsLive(flagged, now))

	cancelled := models.Meeting{ScheduledAt: now.Add(-30 * time.Minute), DurationMinutes: 60, Status: models.MeetingStatusCancelled}
	assert.False(t, MeetingIsLive(cancelled, now))

	completed := models.Meeting{ScheduledAt: now.Add(time.Hour), Status: models.MeetingStatusCompleted}
	assert.True(t, MeetingIsPast(completed, now))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysRemaining(nil, now))

	in36h := now.Add(36 * time.Hour)
	assert.Equal(t, 2, DaysRemaining(&in36h, now), "partial days round up")

	passed := now.Add(-time.Hour)
	assert.Equal(t, 0, DaysRemaining(&passed, now))
}
