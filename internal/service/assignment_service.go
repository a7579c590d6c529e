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

type assignmentRepository interface {
	ListBySection(ctx context.Context, sectionID string, publishedOnly bool) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error
}

type submissionRepository interface {
	FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	ListForStudentSection(ctx context.Context, sectionID, studentID string) ([]models.Submission, error)
	Upsert(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
}

// CreateAssignmentRequest describes assignment creation payload.
type CreateAssignmentRequest struct {
	SectionID   string    `json:"section_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	MaxPoints   float64   `json:"max_points" validate:"gte=0"`
	Publish     bool      `json:"publish"`
}

// SubmitAssignmentRequest is a student handing in work.
type SubmitAssignmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

// GradeSubmissionRequest records a tutor's grade.
type GradeSubmissionRequest struct {
	Score float64 `json:"score" validate:"gte=0"`
}

// AssignmentService manages assignments and submissions. Submission statuses
// are stamped once on the write path; reads only derive PENDING/OVERDUE for
// missing submissions.
type AssignmentService struct {
	assignments assignmentRepository
	submissions submissionRepository
	validator   *validator.Validate
	logger      *zap.Logger
	clock       func() time.Time
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assignments assignmentRepository, submissions submissionRepository, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &AssignmentService{assignments: assignments, submissions: submissions, validator: validate, logger: logger, clock: clock}
}

// Create registers an assignment, optionally publishing it immediately.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	status := models.AssignmentStatusDraft
	if req.Publish {
		status = models.AssignmentStatusPublished
	}
	assignment := &models.Assignment{
		SectionID:   req.SectionID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxPoints:   req.MaxPoints,
		Status:      status,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Publish makes a draft assignment visible to students.
func (s *AssignmentService) Publish(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.Status == models.AssignmentStatusPublished {
		return assignment, nil
	}
	if err := s.assignments.UpdateStatus(ctx, id, models.AssignmentStatusPublished); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish assignment")
	}
	assignment.Status = models.AssignmentStatusPublished
	return assignment, nil
}

// ListForStudent returns the student's view of a section's published
// assignments, with derived status and next action per assignment.
func (s *AssignmentService) ListForStudent(ctx context.Context, sectionID, studentID string) ([]models.AssignmentView, error) {
	assignments, err := s.assignments.ListBySection(ctx, sectionID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	submissions, err := s.submissions.ListForStudentSection(ctx, sectionID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	byAssignment := make(map[string]*models.Submission, len(submissions))
	for i := range submissions {
		byAssignment[submissions[i].AssignmentID] = &submissions[i]
	}

	now := s.clock()
	views := make([]models.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		sub := byAssignment[a.ID]
		status := DeriveAssignmentStatus(a, sub, now)
		views = append(views, models.AssignmentView{
			Assignment:      a,
			EffectiveStatus: status,
			Action:          AssignmentActionFor(status, now.After(a.DueDate)),
			Submission:      sub,
		})
	}
	return views, nil
}

// StatsForStudent buckets the student's derived assignment statuses.
func (s *AssignmentService) StatsForStudent(ctx context.Context, sectionID, studentID string) (*models.AssignmentStats, error) {
	views, err := s.ListForStudent(ctx, sectionID, studentID)
	if err != nil {
		return nil, err
	}
	stats := AggregateAssignmentStats(views)
	return &stats, nil
}

// Submit stores a student's work. The SUBMITTED/LATE stamp is decided here,
// against the submission moment, and never revisited.
func (s *AssignmentService) Submit(ctx context.Context, assignmentID string, req SubmitAssignmentRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.Status != models.AssignmentStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment is not published")
	}

	existing, err := s.submissions.FindByAssignmentAndStudent(ctx, assignmentID, req.StudentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if existing != nil && existing.Status == models.SubmissionStatusGraded {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "graded submissions cannot be resubmitted")
	}

	now := s.clock()
	status := models.SubmissionStatusSubmitted
	if now.After(assignment.DueDate) {
		status = models.SubmissionStatusLate
	}
	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    req.StudentID,
		Status:       status,
		Content:      req.Content,
		SubmittedAt:  now,
	}
	if existing != nil {
		submission.ID = existing.ID
	}
	if err := s.submissions.Upsert(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	s.logger.Sugar().Infow("submission stored", "assignment_id", assignmentID, "student_id", req.StudentID, "status", status)
	return submission, nil
}

// Grade scores a submission and stamps it GRADED.
func (s *AssignmentService) Grade(ctx context.Context, submissionID string, req GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	assignment, err := s.assignments.FindByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if req.Score > assignment.MaxPoints {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds max points")
	}

	now := s.clock()
	submission.Status = models.SubmissionStatusGraded
	submission.Score = &req.Score
	submission.GradedAt = &now
	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}
	return submission, nil
}
