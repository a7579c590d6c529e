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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	CountActiveBySection(ctx context.Context, sectionID string) (int, error)
}

type enrollmentSectionStore interface {
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error
	SetEnrollmentCount(ctx context.Context, id string, count int) error
}

// CreateEnrollmentRequest registers a student into a section.
type CreateEnrollmentRequest struct {
	StudentID     string     `json:"student_id" validate:"required"`
	SectionID     string     `json:"section_id" validate:"required"`
	TotalMeetings int        `json:"total_meetings" validate:"required,gt=0"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
}

// EnrollmentService manages enrollments and keeps section occupancy counters
// in step with them.
type EnrollmentService struct {
	enrollments enrollmentRepository
	sections    enrollmentSectionStore
	validator   *validator.Validate
	logger      *zap.Logger
	clock       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepository, sections enrollmentSectionStore, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &EnrollmentService{enrollments: enrollments, sections: sections, validator: validate, logger: logger, clock: clock}
}

// List returns enrollments with the days-remaining counter recomputed against
// the current time; it is never read from storage.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	now := s.clock()
	for i := range enrollments {
		enrollments[i].DaysRemaining = DaysRemaining(enrollments[i].ExpiryDate, now)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	enrollment.DaysRemaining = DaysRemaining(enrollment.ExpiryDate, s.clock())
	return enrollment, nil
}

// Create enrolls a student after a capacity check, then refreshes the
// section's occupancy counter and flips it to FULL when it fills up.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	section, err := s.sections.FindDetailByID(ctx, req.SectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.Status == models.SectionStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section is archived")
	}

	active, err := s.enrollments.CountActiveBySection(ctx, req.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if active >= section.MaxStudentsPerSection {
		return nil, appErrors.ErrSectionFull
	}

	now := s.clock()
	enrollment := &models.Enrollment{
		StudentID:         req.StudentID,
		SectionID:         req.SectionID,
		Status:            models.EnrollmentStatusActive,
		StartDate:         &now,
		ExpiryDate:        req.ExpiryDate,
		MeetingsRemaining: req.TotalMeetings,
		TotalMeetings:     req.TotalMeetings,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	if err := s.syncSectionOccupancy(ctx, section, active+1); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("student enrolled", "enrollment_id", enrollment.ID, "section_id", req.SectionID, "occupancy", active+1)
	return s.enrollments.FindDetailByID(ctx, enrollment.ID)
}

// Withdraw removes a student from a section and reopens the section if it had
// been marked FULL.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only active enrollments can be withdrawn")
	}
	if err := s.enrollments.UpdateStatus(ctx, id, models.EnrollmentStatusWithdrawn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}

	section, err := s.sections.FindDetailByID(ctx, enrollment.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	active, err := s.enrollments.CountActiveBySection(ctx, enrollment.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if err := s.syncSectionOccupancy(ctx, section, active); err != nil {
		return nil, err
	}
	return s.enrollments.FindDetailByID(ctx, id)
}

func (s *EnrollmentService) syncSectionOccupancy(ctx context.Context, section *models.SectionDetail, occupancy int) error {
	if err := s.sections.SetEnrollmentCount(ctx, section.ID, occupancy); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section occupancy")
	}
	switch {
	case occupancy >= section.MaxStudentsPerSection && section.Status == models.SectionStatusActive:
		if err := s.sections.UpdateStatus(ctx, section.ID, models.SectionStatusFull); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark section full")
		}
	case occupancy < section.MaxStudentsPerSection && section.Status == models.SectionStatusFull:
		if err := s.sections.UpdateStatus(ctx, section.ID, models.SectionStatusActive); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen section")
		}
	}
	return nil
}
