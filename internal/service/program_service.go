package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
)

type programRepository interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
}

// CreateProgramRequest describes program creation payload.
type CreateProgramRequest struct {
	Name                  string `json:"name" validate:"required"`
	Description           string `json:"description"`
	PriceCents            int    `json:"price_cents" validate:"gte=0"`
	MaxStudentsPerSection int    `json:"max_students_per_section" validate:"required,gt=0"`
	MeetingsPerWeek       int    `json:"meetings_per_week" validate:"required,gt=0"`
	DurationMinutes       int    `json:"duration_minutes" validate:"required,gt=0"`
}

// UpdateProgramRequest describes program update payload. Nil pointers keep
// their stored values.
type UpdateProgramRequest struct {
	Name                  *string `json:"name,omitempty"`
	Description           *string `json:"description,omitempty"`
	PriceCents            *int    `json:"price_cents,omitempty"`
	MaxStudentsPerSection *int    `json:"max_students_per_section,omitempty"`
	MeetingsPerWeek       *int    `json:"meetings_per_week,omitempty"`
	DurationMinutes       *int    `json:"duration_minutes,omitempty"`
	Active                *bool   `json:"active,omitempty"`
}

// ProgramService manages course program templates.
type ProgramService struct {
	programs  programRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs ProgramService.
func NewProgramService(programs programRepository, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{programs: programs, validator: validate, logger: logger}
}

// List returns programs with pagination metadata.
func (s *ProgramService) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, *models.Pagination, error) {
	programs, total, err := s.programs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return programs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single program.
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// Create registers a new program template, active by default.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program := &models.Program{
		Name:                  req.Name,
		Description:           req.Description,
		PriceCents:            req.PriceCents,
		MaxStudentsPerSection: req.MaxStudentsPerSection,
		MeetingsPerWeek:       req.MeetingsPerWeek,
		DurationMinutes:       req.DurationMinutes,
		Active:                true,
	}
	if err := s.programs.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.logger.Sugar().Infow("program created", "program_id", program.ID, "name", program.Name)
	return program, nil
}

// Update patches a program. Capacity changes affect future suggestions only;
// existing sections are not resized.
func (s *ProgramService) Update(ctx context.Context, id string, req UpdateProgramRequest) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	if req.Name != nil {
		program.Name = *req.Name
	}
	if req.Description != nil {
		program.Description = *req.Description
	}
	if req.PriceCents != nil {
		program.PriceCents = *req.PriceCents
	}
	if req.MaxStudentsPerSection != nil {
		if *req.MaxStudentsPerSection <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max_students_per_section must be positive")
		}
		program.MaxStudentsPerSection = *req.MaxStudentsPerSection
	}
	if req.MeetingsPerWeek != nil {
		program.MeetingsPerWeek = *req.MeetingsPerWeek
	}
	if req.DurationMinutes != nil {
		program.DurationMinutes = *req.DurationMinutes
	}
	if req.Active != nil {
		program.Active = *req.Active
	}

	if err := s.programs.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	return program, nil
}
