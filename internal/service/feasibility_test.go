package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutorhub-api/internal/models"
)

// Monday 2026-03-02.
var mondayBase = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func mondayWindow(start, end string) []models.AvailabilityWindow {
	return []models.AvailabilityWindow{{TutorID: "tut-1", DayOfWeek: 1, StartTime: start, EndTime: end}}
}

func candidateAt(hour, minute, duration int) FeasibilityCandidate {
	return FeasibilityCandidate{
		SectionID:        "sec-1",
		TutorID:          "tut-1",
		TutorName:        "Dina",
		ScheduledAt:      mondayBase.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
		DurationMinutes:  duration,
		EnrolledStudents: 6,
		Windows:          mondayWindow("14:00", "21:00"),
	}
}

func existingMeeting(id string, start time.Time, duration int) models.MeetingDetail {
	return models.MeetingDetail{
		Meeting: models.Meeting{
			ID:              id,
			SectionID:       "sec-2",
			TutorID:         "tut-1",
			Title:           "Algebra Review",
			ScheduledAt:     start,
			DurationMinutes: duration,
			Status:          models.MeetingStatusScheduled,
		},
		SectionLabel: "B",
	}
}

func TestCheckMeetingFeasibilityWindowBoundaries(t *testing.T) {
	now := mondayBase.Add(-24 * time.Hour)

	res := CheckMeetingFeasibility(candidateAt(14, 0, 60), nil, "", now)
	assert.True(t, res.Valid, "window start is inclusive")

	res = CheckMeetingFeasibility(candidateAt(20, 59, 60), nil, "", now)
	assert.True(t, res.Valid)

	res = CheckMeetingFeasibility(candidateAt(21, 0, 60), nil, "", now)
	require.False(t, res.Valid, "window end is exclusive")
	assert.Contains(t, res.Message, "not available")
	assert.Contains(t, res.Message, "Dina")
}

func TestCheckMeetingFeasibilityWrongDay(t *testing.T) {
	now := mondayBase.Add(-24 * time.Hour)
	cand := candidateAt(15, 0, 60)
	cand.ScheduledAt = cand.ScheduledAt.Add(24 * time.Hour) // Tuesday

	res := CheckMeetingFeasibility(cand, nil, "", now)
	assert.False(t, res.Valid)
}

func TestCheckMeetingFeasibilityOverlapCases(t *testing.T) {
	now := mondayBase.Add(-24 * time.Hour)
	existing := []models.MeetingDetail{existingMeeting("m-1", mondayBase.Add(16*time.Hour), 90)} // 16:00-17:30

	// Candidate starts during the existing meeting.
	res := CheckMeetingFeasibility(candidateAt(16, 30, 90), existing, "", now)
	require.False(t, res.Valid)
	assert.Contains(t, res.Message, "Algebra Review")
	assert.Contains(t, res.Message, "Section B")

	// Candidate ends during the existing meeting.
	res = CheckMeetingFeasibility(candidateAt(15, 0, 90), existing, "", now)
	assert.False(t, res.Valid)

	// Candidate fully contains the existing meeting.
	cand := candidateAt(15, 30, 150)
	res = CheckMeetingFeasibility(cand, existing, "", now)
	assert.False(t, res.Valid)

	// Back-to-back is allowed: candidate starts exactly at the existing end.
	res = CheckMeetingFeasibility(candidateAt(17, 30, 90), existing, "", now)
	assert.True(t, res.Valid)
}

func TestCheckMeetingFeasibilityIgnoresOtherTutorsAndCancelled(t *testing.T) {
	now := mondayBase.Add(-24 * time.Hour)

	other := existingMeeting("m-1", mondayBase.Add(16*time.Hour), 90)
	other.TutorID = "tut-2"
	res := CheckMeetingFeasibility(candidateAt(16, 0, 90), []models.MeetingDetail{other}, "", now)
	assert.True(t, res.Valid, "other tutors' meetings never conflict")

	cancelled := existingMeeting("m-2", mondayBase.Add(16*time.Hour), 90)
	cancelled.Status = models.MeetingStatusCancelled
	res = CheckMeetingFeasibility(candidateAt(16, 0, 90), []models.MeetingDetail{cancelled}, "", now)
	assert.True(t, res.Valid, "cancelled meetings are excluded from conflict checks")
}

func TestCheckMeetingFeasibilityNoSelfOverlap(t *testing.T) {
	now := mondayBase.Add(-24 * time.Hour)
	self := existingMeeting("m-1", mondayBase.Add(16*time.Hour), 90)

	res := CheckMeetingFeasibility(candidateAt(16, 0, 90), []models.MeetingDetail{self}, "m-1", now)
	assert.True(t, res.Valid, "a meeting must not conflict with itself when edited")
}

func TestCheckMeetingFeasibilityPastEdit(t *testing.T) {
	now := mondayBase.Add(7 * 24 * time.Hour)

	// Editing a past meeting skips the availability check...
	cand := candidateAt(22, 0, 60) // outside the window
	res := CheckMeetingFeasibility(cand, nil, "m-1", now)
	require.True(t, res.Valid)
	assert.Contains(t, res.Message, "recording URL")

	// ...but the overlap check still applies.
	existing := []models.MeetingDetail{existingMeeting("m-9", mondayBase.Add(22*time.Hour), 90)}
	res = CheckMeetingFeasibility(cand, existing, "m-1", now)
	assert.False(t, res.Valid)

	// Creating (not editing) in the past still validates availability.
	res = CheckMeetingFeasibility(cand, nil, "", now)
	assert.False(t, res.Valid)
}

func TestCheckMeetingFeasibilitySuccessMessage(t *testing.T) {
	now := mondayBase.Add(-24 * time.Hour)
	res := CheckMeetingFeasibility(candidateAt(15, 0, 60), nil, "", now)
	require.True(t, res.Valid)
	assert.Equal(t, "Dina is available; 6 students enrolled", res.Message)
}
