package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
	ListByProgram(ctx context.Context, programID string) ([]models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error
}

type programReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ListActive(ctx context.Context) ([]models.Program, error)
}

type sectionOpenRecorder interface {
	RecordSectionOpened()
}

// CreateSectionRequest opens a new section under a program. The label is
// assigned server-side, always the successor of the program's greatest label.
type CreateSectionRequest struct {
	ProgramID string `json:"program_id" validate:"required"`
	TutorID   string `json:"tutor_id" validate:"required"`
}

// SectionService manages section lifecycle and capacity suggestions.
type SectionService struct {
	sections     sectionRepository
	programs     programReader
	metrics      sectionOpenRecorder
	thresholdPct int
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewSectionService constructs SectionService. thresholdPct is the inclusive
// fill percentage at which a program is suggested a sibling section; values
// outside (0,100] fall back to 90.
func NewSectionService(sections sectionRepository, programs programReader, metrics sectionOpenRecorder, thresholdPct int, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if thresholdPct <= 0 || thresholdPct > 100 {
		thresholdPct = 90
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{sections: sections, programs: programs, metrics: metrics, thresholdPct: thresholdPct, validator: validate, logger: logger}
}

// List returns sections with pagination metadata.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sections, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single section with program and tutor info.
func (s *SectionService) Get(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.sections.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create opens a new section for a program with the next label in sequence.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if !program.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "program is inactive")
	}

	siblings, err := s.sections.ListByProgram(ctx, req.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program sections")
	}
	labels := make([]string, 0, len(siblings))
	for _, sib := range siblings {
		labels = append(labels, sib.Label)
	}

	section := &models.Section{
		ProgramID: req.ProgramID,
		Label:     NextSectionLabel(labels),
		TutorID:   req.TutorID,
		Status:    models.SectionStatusActive,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	if s.metrics != nil {
		s.metrics.RecordSectionOpened()
	}
	s.logger.Sugar().Infow("section opened", "section_id", section.ID, "program_id", section.ProgramID, "label", section.Label)
	return s.sections.FindDetailByID(ctx, section.ID)
}

// Archive retires a section. Archived sections no longer count toward
// capacity suggestions.
func (s *SectionService) Archive(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.sections.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.Status == models.SectionStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section already archived")
	}
	if err := s.sections.UpdateStatus(ctx, id, models.SectionStatusArchived); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive section")
	}
	return s.sections.FindDetailByID(ctx, id)
}

// Suggestions scans active programs and surfaces at most one whose latest
// active section crossed the fill threshold; the first undismissed hit in
// iteration order wins. Dismissals live with the caller, so dismissed program
// IDs arrive as a parameter and are simply skipped.
func (s *SectionService) Suggestions(ctx context.Context, dismissedProgramIDs []string) ([]models.SectionSuggestion, error) {
	programs, err := s.programs.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	dismissed := make(map[string]struct{}, len(dismissedProgramIDs))
	for _, id := range dismissedProgramIDs {
		dismissed[id] = struct{}{}
	}

	suggestions := make([]models.SectionSuggestion, 0)
	for _, program := range programs {
		if _, ok := dismissed[program.ID]; ok {
			continue
		}
		sections, err := s.sections.ListByProgram(ctx, program.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program sections")
		}
		if !NeedsNewSection(sections, program.MaxStudentsPerSection, s.thresholdPct) {
			continue
		}

		labels := make([]string, 0, len(sections))
		var latest models.Section
		for _, sec := range sections {
			labels = append(labels, sec.Label)
			if sec.Status == models.SectionStatusActive && (latest.Label == "" || labelLess(latest.Label, sec.Label)) {
				latest = sec
			}
		}
		suggestions = append(suggestions, models.SectionSuggestion{
			ProgramID:          program.ID,
			ProgramName:        program.Name,
			LatestLabel:        latest.Label,
			SuggestedLabel:     NextSectionLabel(labels),
			CurrentEnrollments: latest.CurrentEnrollments,
			MaxStudents:        program.MaxStudentsPerSection,
		})
		break
	}
	return suggestions, nil
}
