package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
)

type stubMeetingRepo struct {
	byTutor []models.MeetingDetail
	stored  map[string]models.MeetingDetail
	created []*models.Meeting
	updated []*models.Meeting
}

func newStubMeetingRepo(existing ...models.MeetingDetail) *stubMeetingRepo {
	r := &stubMeetingRepo{stored: make(map[string]models.MeetingDetail)}
	for _, m := range existing {
		r.byTutor = append(r.byTutor, m)
		r.stored[m.ID] = m
	}
	return r
}

func (r *stubMeetingRepo) List(_ context.Context, _ models.MeetingFilter) ([]models.MeetingDetail, int, error) {
	return r.byTutor, len(r.byTutor), nil
}

func (r *stubMeetingRepo) FindByID(_ context.Context, id string) (*models.MeetingDetail, error) {
	m, ok := r.stored[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (r *stubMeetingRepo) ListByTutor(_ context.Context, _ string) ([]models.MeetingDetail, error) {
	return r.byTutor, nil
}

func (r *stubMeetingRepo) Create(_ context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = "m-new"
	}
	r.created = append(r.created, meeting)
	r.stored[meeting.ID] = models.MeetingDetail{Meeting: *meeting}
	return nil
}

func (r *stubMeetingRepo) Update(_ context.Context, meeting *models.Meeting) error {
	r.updated = append(r.updated, meeting)
	r.stored[meeting.ID] = models.MeetingDetail{Meeting: *meeting}
	return nil
}

func (r *stubMeetingRepo) UpdateStatus(_ context.Context, id string, status models.MeetingStatus) error {
	m := r.stored[id]
	m.Status = status
	r.stored[id] = m
	return nil
}

type stubAvailability struct {
	windows []models.AvailabilityWindow
}

func (r *stubAvailability) ListWindowsByTutor(_ context.Context, _ string) ([]models.AvailabilityWindow, error) {
	return r.windows, nil
}

type stubSectionReader struct {
	section *models.SectionDetail
}

func (r *stubSectionReader) FindDetailByID(_ context.Context, id string) (*models.SectionDetail, error) {
	if r.section == nil || r.section.ID != id {
		return nil, sql.ErrNoRows
	}
	s := *r.section
	return &s, nil
}

func testSection() *models.SectionDetail {
	return &models.SectionDetail{
		Section: models.Section{
			ID:                 "sec-1",
			ProgramID:          "prog-1",
			Label:              "A",
			TutorID:            "tut-1",
			Status:             models.SectionStatusActive,
			CurrentEnrollments: 6,
		},
		ProgramName:           "Algebra Foundations",
		TutorName:             "Dina",
		MaxStudentsPerSection: 10,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMeetingServiceCreate(t *testing.T) {
	repo := newStubMeetingRepo()
	windows := &stubAvailability{windows: mondayWindow("14:00", "21:00")}
	svc := NewMeetingService(repo, windows, &stubSectionReader{section: testSection()}, nil, nil, nil, fixedClock(mondayBase.Add(-24*time.Hour)))

	detail, err := svc.Create(context.Background(), CreateMeetingRequest{
		SectionID:       "sec-1",
		Title:           "Kickoff",
		ScheduledAt:     mondayBase.Add(15 * time.Hour),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "tut-1", detail.TutorID, "tutor comes from the section")
	assert.Equal(t, models.MeetingStatusScheduled, detail.Status)
}

func TestMeetingServiceCreateConflict(t *testing.T) {
	existing := existingMeeting("m-1", mondayBase.Add(15*time.Hour), 90)
	repo := newStubMeetingRepo(existing)
	windows := &stubAvailability{windows: mondayWindow("14:00", "21:00")}
	svc := NewMeetingService(repo, windows, &stubSectionReader{section: testSection()}, nil, nil, nil, fixedClock(mondayBase.Add(-24*time.Hour)))

	_, err := svc.Create(context.Background(), CreateMeetingRequest{
		SectionID:       "sec-1",
		Title:           "Kickoff",
		ScheduledAt:     mondayBase.Add(15*time.Hour + 30*time.Minute),
		DurationMinutes: 60,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Algebra Review")
	assert.Empty(t, repo.created, "rejected candidates must not be persisted")
}

func TestMeetingServiceFeasibilityDryRun(t *testing.T) {
	repo := newStubMeetingRepo()
	windows := &stubAvailability{windows: mondayWindow("14:00", "21:00")}
	svc := NewMeetingService(repo, windows, &stubSectionReader{section: testSection()}, nil, nil, nil, fixedClock(mondayBase.Add(-24*time.Hour)))

	res, err := svc.Feasibility(context.Background(), FeasibilityRequest{
		SectionID:       "sec-1",
		ScheduledAt:     mondayBase.Add(22 * time.Hour),
		DurationMinutes: 60,
	})
	require.NoError(t, err, "an infeasible candidate is a result, not an error")
	assert.False(t, res.Valid)
	assert.Empty(t, repo.created)
}

func TestMeetingServiceUpdatePastMeetingRecording(t *testing.T) {
	past := existingMeeting("m-1", mondayBase.Add(22*time.Hour), 60) // outside the window
	past.SectionID = "sec-1"
	repo := newStubMeetingRepo(past)
	windows := &stubAvailability{windows: mondayWindow("14:00", "21:00")}
	now := mondayBase.Add(7 * 24 * time.Hour)
	svc := NewMeetingService(repo, windows, &stubSectionReader{section: testSection()}, nil, nil, nil, fixedClock(now))

	url := "https://recordings.example.com/m-1"
	detail, err := svc.Update(context.Background(), "m-1", UpdateMeetingRequest{RecordingURL: &url})
	require.NoError(t, err, "past meetings stay editable")
	require.NotNil(t, detail.RecordingURL)
	assert.Equal(t, url, *detail.RecordingURL)
}

type vanishingMeetingRepo struct {
	*stubMeetingRepo
}

func (r *vanishingMeetingRepo) UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) error {
	if err := r.stubMeetingRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	delete(r.stored, id)
	return nil
}

func TestMeetingServiceCancelReloadFailureIsWrapped(t *testing.T) {
	m := existingMeeting("m-1", mondayBase.Add(15*time.Hour), 60)
	repo := &vanishingMeetingRepo{stubMeetingRepo: newStubMeetingRepo(m)}
	svc := NewMeetingService(repo, &stubAvailability{}, &stubSectionReader{section: testSection()}, nil, nil, nil, fixedClock(mondayBase))

	_, err := svc.Cancel(context.Background(), "m-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr, "repository errors must not leak raw")
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestMeetingServiceCancelIsTerminal(t *testing.T) {
	m := existingMeeting("m-1", mondayBase.Add(15*time.Hour), 60)
	repo := newStubMeetingRepo(m)
	svc := NewMeetingService(repo, &stubAvailability{}, &stubSectionReader{section: testSection()}, nil, nil, nil, fixedClock(mondayBase))

	detail, err := svc.Cancel(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusCancelled, detail.Status)

	_, err = svc.Cancel(context.Background(), "m-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
