package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutorhub-api/internal/models"
	"github.com/edunest/tutorhub-api/internal/service"
)

type fakeMeetingRepo struct {
	existing []models.MeetingDetail
	created  []*models.Meeting
}

func (f *fakeMeetingRepo) List(context.Context, models.MeetingFilter) ([]models.MeetingDetail, int, error) {
	return f.existing, len(f.existing), nil
}

func (f *fakeMeetingRepo) FindByID(_ context.Context, id string) (*models.MeetingDetail, error) {
	for _, m := range f.existing {
		if m.ID == id {
			return &m, nil
		}
	}
	for _, m := range f.created {
		if m.ID == id {
			return &models.MeetingDetail{Meeting: *m}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMeetingRepo) ListByTutor(context.Context, string) ([]models.MeetingDetail, error) {
	return f.existing, nil
}

func (f *fakeMeetingRepo) Create(_ context.Context, meeting *models.Meeting) error {
	meeting.ID = "m-new"
	f.created = append(f.created, meeting)
	return nil
}

func (f *fakeMeetingRepo) Update(context.Context, *models.Meeting) error { return nil }

func (f *fakeMeetingRepo) UpdateStatus(context.Context, string, models.MeetingStatus) error {
	return nil
}

type fakeWindows struct{ windows []models.AvailabilityWindow }

func (f *fakeWindows) ListWindowsByTutor(context.Context, string) ([]models.AvailabilityWindow, error) {
	return f.windows, nil
}

type fakeSections struct{ section models.SectionDetail }

func (f *fakeSections) FindDetailByID(_ context.Context, id string) (*models.SectionDetail, error) {
	if f.section.ID != id {
		return nil, sql.ErrNoRows
	}
	s := f.section
	return &s, nil
}

// Monday 2026-03-02.
var handlerMonday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newMeetingHandler(repo *fakeMeetingRepo) *MeetingHandler {
	windows := &fakeWindows{windows: []models.AvailabilityWindow{
		{TutorID: "tut-1", DayOfWeek: 1, StartTime: "14:00", EndTime: "21:00"},
	}}
	sections := &fakeSections{section: models.SectionDetail{
		Section: models.Section{
			ID:                 "sec-1",
			TutorID:            "tut-1",
			Label:              "A",
			Status:             models.SectionStatusActive,
			CurrentEnrollments: 6,
		},
		TutorName:             "Dina",
		MaxStudentsPerSection: 10,
	}}
	clock := func() time.Time { return handlerMonday.Add(-24 * time.Hour) }
	svc := service.NewMeetingService(repo, windows, sections, nil, nil, nil, clock)
	return NewMeetingHandler(svc)
}

func TestMeetingHandlerFeasibilityInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newMeetingHandler(&fakeMeetingRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/meetings/feasibility", strings.NewReader("{not-json"))

	handler.Feasibility(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeetingHandlerFeasibilityRejectsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	existing := models.MeetingDetail{
		Meeting: models.Meeting{
			ID:              "m-1",
			SectionID:       "sec-1",
			TutorID:         "tut-1",
			Title:           "Algebra Review",
			ScheduledAt:     handlerMonday.Add(16 * time.Hour),
			DurationMinutes: 90,
			Status:          models.MeetingStatusScheduled,
		},
		SectionLabel: "B",
	}
	handler := newMeetingHandler(&fakeMeetingRepo{existing: []models.MeetingDetail{existing}})

	body := `{"section_id":"sec-1","scheduled_at":"2026-03-02T16:30:00Z","duration_minutes":60}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/meetings/feasibility", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Feasibility(c)

	require.Equal(t, http.StatusOK, rec.Code, "an infeasible slot is still a 200 with valid=false")
	var envelope struct {
		Data struct {
			Valid   bool   `json:"valid"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Valid)
	assert.Contains(t, envelope.Data.Message, "Algebra Review")
}

func TestMeetingHandlerCreateConflictStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	existing := models.MeetingDetail{
		Meeting: models.Meeting{
			ID:              "m-1",
			SectionID:       "sec-1",
			TutorID:         "tut-1",
			Title:           "Algebra Review",
			ScheduledAt:     handlerMonday.Add(16 * time.Hour),
			DurationMinutes: 90,
			Status:          models.MeetingStatusScheduled,
		},
		SectionLabel: "B",
	}
	repo := &fakeMeetingRepo{existing: []models.MeetingDetail{existing}}
	handler := newMeetingHandler(repo)

	body := `{"section_id":"sec-1","title":"Kickoff","scheduled_at":"2026-03-02T16:30:00Z","duration_minutes":60}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/meetings", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, repo.created)
}

func TestMeetingHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeMeetingRepo{}
	handler := newMeetingHandler(repo)

	body := `{"section_id":"sec-1","title":"Kickoff","scheduled_at":"2026-03-02T15:00:00Z","duration_minutes":60}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/meetings", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "tut-1", repo.created[0].TutorID)
}
