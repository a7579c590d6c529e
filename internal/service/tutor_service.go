package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
)

type tutorRepository interface {
	List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, int, error)
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	Create(ctx context.Context, tutor *models.Tutor) error
	Update(ctx context.Context, tutor *models.Tutor) error
	ListWindowsByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, tutorID string, windows []models.AvailabilityWindow) error
}

// CreateTutorRequest describes tutor creation payload.
type CreateTutorRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FullName  string `json:"full_name" validate:"required"`
	Phone     string `json:"phone"`
	Expertise string `json:"expertise"`
}

// AvailabilityWindowRequest is one recurring weekly slot.
type AvailabilityWindowRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// SetAvailabilityRequest replaces the tutor's weekly availability wholesale.
type SetAvailabilityRequest struct {
	Windows []AvailabilityWindowRequest `json:"windows" validate:"dive"`
}

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// TutorService manages tutors and their recurring availability windows.
type TutorService struct {
	tutors    tutorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutorService constructs TutorService.
func NewTutorService(tutors tutorRepository, validate *validator.Validate, logger *zap.Logger) *TutorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorService{tutors: tutors, validator: validate, logger: logger}
}

// List returns tutors with pagination metadata.
func (s *TutorService) List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, *models.Pagination, error) {
	tutors, total, err := s.tutors.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return tutors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single tutor.
func (s *TutorService) Get(ctx context.Context, id string) (*models.Tutor, error) {
	tutor, err := s.tutors.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return tutor, nil
}

// Create registers a tutor, active by default.
func (s *TutorService) Create(ctx context.Context, req CreateTutorRequest) (*models.Tutor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tutor payload")
	}
	tutor := &models.Tutor{
		Email:     req.Email,
		FullName:  req.FullName,
		Phone:     req.Phone,
		Expertise: req.Expertise,
		Active:    true,
	}
	if err := s.tutors.Create(ctx, tutor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tutor")
	}
	s.logger.Sugar().Infow("tutor created", "tutor_id", tutor.ID, "email", tutor.Email)
	return tutor, nil
}

// Availability returns the tutor's weekly windows.
func (s *TutorService) Availability(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error) {
	if _, err := s.Get(ctx, tutorID); err != nil {
		return nil, err
	}
	windows, err := s.tutors.ListWindowsByTutor(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return windows, nil
}

// SetAvailability replaces the tutor's weekly windows. Times must be 24-hour
// "HH:MM" with start strictly before end; windows may overlap freely.
func (s *TutorService) SetAvailability(ctx context.Context, tutorID string, req SetAvailabilityRequest) ([]models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if _, err := s.Get(ctx, tutorID); err != nil {
		return nil, err
	}

	windows := make([]models.AvailabilityWindow, 0, len(req.Windows))
	for i, w := range req.Windows {
		if !hhmmPattern.MatchString(w.StartTime) || !hhmmPattern.MatchString(w.EndTime) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %d: times must be HH:MM", i))
		}
		if w.StartTime >= w.EndTime {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %d: start must be before end", i))
		}
		windows = append(windows, models.AvailabilityWindow{
			TutorID:   tutorID,
			DayOfWeek: w.DayOfWeek,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
		})
	}
	if err := s.tutors.ReplaceWindows(ctx, tutorID, windows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
	}
	return s.tutors.ListWindowsByTutor(ctx, tutorID)
}
