package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
)

type meetingRepository interface {
	List(ctx context.Context, filter models.MeetingFilter) ([]models.MeetingDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.MeetingDetail, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.MeetingDetail, error)
	Create(ctx context.Context, meeting *models.Meeting) error
	Update(ctx context.Context, meeting *models.Meeting) error
	UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) error
}

type availabilityReader interface {
	ListWindowsByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error)
}

type meetingSectionReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
}

type feasibilityRecorder interface {
	RecordFeasibilityCheck(valid bool)
}

// CreateMeetingRequest describes meeting creation payload. The tutor is
// derived from the section, never supplied by the caller.
type CreateMeetingRequest struct {
	SectionID       string    `json:"section_id" validate:"required"`
	Title           string    `json:"title" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	MeetingURL      *string   `json:"meeting_url,omitempty"`
}

// UpdateMeetingRequest describes meeting update payload. Zero-valued fields
// keep their stored values.
type UpdateMeetingRequest struct {
	Title           string     `json:"title"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	MeetingURL      *string    `json:"meeting_url,omitempty"`
	RecordingURL    *string    `json:"recording_url,omitempty"`
}

// FeasibilityRequest is a dry-run check used by scheduling forms; it is meant
// to be re-evaluated on every change to section, date, time or duration.
type FeasibilityRequest struct {
	SectionID        string    `json:"section_id" validate:"required"`
	ScheduledAt      time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes  int       `json:"duration_minutes" validate:"required,gt=0"`
	EditingMeetingID string    `json:"editing_meeting_id,omitempty"`
}

// MeetingService orchestrates meeting scheduling around the feasibility
// checker. All persistence is delegated; a rejected candidate performs no
// writes.
type MeetingService struct {
	meetings  meetingRepository
	windows   availabilityReader
	sections  meetingSectionReader
	metrics   feasibilityRecorder
	validator *validator.Validate
	logger    *zap.Logger
	clock     func() time.Time
}

// NewMeetingService constructs MeetingService. A nil clock falls back to
// time.Now so tests can pin the current time.
func NewMeetingService(meetings meetingRepository, windows availabilityReader, sections meetingSectionReader, metrics feasibilityRecorder, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *MeetingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &MeetingService{meetings: meetings, windows: windows, sections: sections, metrics: metrics, validator: validate, logger: logger, clock: clock}
}

// List returns meetings with pagination metadata.
func (s *MeetingService) List(ctx context.Context, filter models.MeetingFilter) ([]models.MeetingDetail, *models.Pagination, error) {
	meetings, total, err := s.meetings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return meetings, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Feasibility runs the conflict and availability checks without writing
// anything. Invalid candidates are a normal result here, not an error.
func (s *MeetingService) Feasibility(ctx context.Context, req FeasibilityRequest) (*FeasibilityResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feasibility payload")
	}
	res, _, err := s.evaluate(ctx, req.SectionID, req.ScheduledAt, req.DurationMinutes, req.EditingMeetingID)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Create schedules a meeting after the feasibility check passes.
func (s *MeetingService) Create(ctx context.Context, req CreateMeetingRequest) (*models.MeetingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid meeting payload")
	}
	res, section, err := s.evaluate(ctx, req.SectionID, req.ScheduledAt, req.DurationMinutes, "")
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, appErrors.Clone(appErrors.ErrScheduleConflict, res.Message)
	}

	meeting := &models.Meeting{
		SectionID:       req.SectionID,
		TutorID:         section.TutorID,
		Title:           req.Title,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          models.MeetingStatusScheduled,
		MeetingURL:      req.MeetingURL,
	}
	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create meeting")
	}
	detail, err := s.meetings.FindByID(ctx, meeting.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	s.logger.Sugar().Infow("meeting scheduled", "meeting_id", meeting.ID, "section_id", meeting.SectionID, "tutor_id", meeting.TutorID)
	return detail, nil
}

// Update reschedules or annotates a meeting. Past meetings stay editable so
// recording URLs can be attached afterwards; the overlap check applies to
// every edit regardless.
func (s *MeetingService) Update(ctx context.Context, id string, req UpdateMeetingRequest) (*models.MeetingDetail, error) {
	existing, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	if existing.Status == models.MeetingStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled meetings cannot be edited")
	}

	updated := existing.Meeting
	if req.Title != "" {
		updated.Title = req.Title
	}
	if req.ScheduledAt != nil {
		updated.ScheduledAt = *req.ScheduledAt
	}
	if req.DurationMinutes > 0 {
		updated.DurationMinutes = req.DurationMinutes
	}
	if req.MeetingURL != nil {
		updated.MeetingURL = req.MeetingURL
	}
	if req.RecordingURL != nil {
		updated.RecordingURL = req.RecordingURL
	}

	res, _, err := s.evaluate(ctx, updated.SectionID, updated.ScheduledAt, updated.DurationMinutes, id)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, appErrors.Clone(appErrors.ErrScheduleConflict, res.Message)
	}

	if err := s.meetings.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update meeting")
	}
	detail, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	return detail, nil
}

// Cancel marks a meeting cancelled. Cancelled is terminal; the meeting no
// longer participates in conflict checks.
func (s *MeetingService) Cancel(ctx context.Context, id string) (*models.MeetingDetail, error) {
	existing, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	if existing.Status == models.MeetingStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "meeting already cancelled")
	}
	if err := s.meetings.UpdateStatus(ctx, id, models.MeetingStatusCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel meeting")
	}
	detail, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	return detail, nil
}

// ListByTutor returns a tutor's meetings enriched with live/past flags.
func (s *MeetingService) ListByTutor(ctx context.Context, tutorID string) ([]MeetingScheduleEntry, error) {
	meetings, err := s.meetings.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutor meetings")
	}
	now := s.clock()
	entries := make([]MeetingScheduleEntry, 0, len(meetings))
	for _, m := range meetings {
		entries = append(entries, MeetingScheduleEntry{
			MeetingDetail: m,
			Live:          MeetingIsLive(m.Meeting, now),
			Past:          MeetingIsPast(m.Meeting, now),
		})
	}
	return entries, nil
}

// MeetingScheduleEntry decorates a meeting with time-derived display flags.
type MeetingScheduleEntry struct {
	models.MeetingDetail
	Live bool `json:"live"`
	Past bool `json:"past"`
}

func (s *MeetingService) evaluate(ctx context.Context, sectionID string, scheduledAt time.Time, durationMinutes int, editingMeetingID string) (*FeasibilityResult, *models.SectionDetail, error) {
	section, err := s.sections.FindDetailByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	windows, err := s.windows.ListWindowsByTutor(ctx, section.TutorID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor availability")
	}
	existing, err := s.meetings.ListByTutor(ctx, section.TutorID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor meetings")
	}

	candidate := FeasibilityCandidate{
		SectionID:        sectionID,
		TutorID:          section.TutorID,
		TutorName:        section.TutorName,
		ScheduledAt:      scheduledAt,
		DurationMinutes:  durationMinutes,
		EnrolledStudents: section.CurrentEnrollments,
		Windows:          windows,
	}
	res := CheckMeetingFeasibility(candidate, existing, editingMeetingID, s.clock())
	if s.metrics != nil {
		s.metrics.RecordFeasibilityCheck(res.Valid)
	}
	return &res, section, nil
}
