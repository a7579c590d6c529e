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

type quizRepository interface {
	ListBySection(ctx context.Context, sectionID string, publishedOnly bool) ([]models.Quiz, error)
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
}

type quizAttemptRepository interface {
	FindByQuizAndStudent(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error)
	ListForStudentSection(ctx context.Context, sectionID, studentID string) ([]models.QuizAttempt, error)
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	Update(ctx context.Context, attempt *models.QuizAttempt) error
}

// CreateQuizRequest describes quiz creation payload.
type CreateQuizRequest struct {
	SectionID        string    `json:"section_id" validate:"required"`
	Title            string    `json:"title" validate:"required"`
	DueDate          time.Time `json:"due_date" validate:"required"`
	MaxPoints        float64   `json:"max_points" validate:"gte=0"`
	TimeLimitMinutes int       `json:"time_limit_minutes" validate:"gte=0"`
	Publish          bool      `json:"publish"`
}

// QuizService manages quizzes and attempts with the same write-time stamping
// discipline as assignments.
type QuizService struct {
	quizzes   quizRepository
	attempts  quizAttemptRepository
	validator *validator.Validate
	logger    *zap.Logger
	clock     func() time.Time
}

// NewQuizService constructs QuizService.
func NewQuizService(quizzes quizRepository, attempts quizAttemptRepository, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &QuizService{quizzes: quizzes, attempts: attempts, validator: validate, logger: logger, clock: clock}
}

// Create registers a quiz, optionally publishing it immediately.
func (s *QuizService) Create(ctx context.Context, req CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	status := models.AssignmentStatusDraft
	if req.Publish {
		status = models.AssignmentStatusPublished
	}
	quiz := &models.Quiz{
		SectionID:        req.SectionID,
		Title:            req.Title,
		DueDate:          req.DueDate,
		MaxPoints:        req.MaxPoints,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Status:           status,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	return quiz, nil
}

// ListForStudent returns the student's view of a section's published quizzes.
func (s *QuizService) ListForStudent(ctx context.Context, sectionID, studentID string) ([]models.QuizView, error) {
	quizzes, err := s.quizzes.ListBySection(ctx, sectionID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	attempts, err := s.attempts.ListForStudentSection(ctx, sectionID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	byQuiz := make(map[string]*models.QuizAttempt, len(attempts))
	for i := range attempts {
		byQuiz[attempts[i].QuizID] = &attempts[i]
	}

	now := s.clock()
	views := make([]models.QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		attempt := byQuiz[q.ID]
		views = append(views, models.QuizView{
			Quiz:            q,
			EffectiveStatus: DeriveQuizStatus(q, attempt, now),
			Attempt:         attempt,
		})
	}
	return views, nil
}

// StartAttempt begins (or resumes) the student's attempt at a quiz.
func (s *QuizService) StartAttempt(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	if quiz.Status != models.AssignmentStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "quiz is not published")
	}

	existing, err := s.attempts.FindByQuizAndStudent(ctx, quizID, studentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if existing != nil {
		if existing.SubmittedAt != nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "quiz already submitted")
		}
		return existing, nil
	}

	attempt := &models.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		StartedAt: s.clock(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start attempt")
	}
	s.logger.Sugar().Infow("quiz attempt started", "quiz_id", quizID, "student_id", studentID)
	return attempt, nil
}

// SubmitAttempt closes the attempt. The SUBMITTED/LATE stamp is decided now:
// late when past the due date or over the time limit.
func (s *QuizService) SubmitAttempt(ctx context.Context, quizID, studentID string, score *float64) (*models.QuizAttempt, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	attempt, err := s.attempts.FindByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt.SubmittedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "quiz already submitted")
	}

	now := s.clock()
	status := models.SubmissionStatusSubmitted
	if now.After(quiz.DueDate) {
		status = models.SubmissionStatusLate
	}
	if quiz.TimeLimitMinutes > 0 {
		deadline := attempt.StartedAt.Add(time.Duration(quiz.TimeLimitMinutes) * time.Minute)
		if now.After(deadline) {
			status = models.SubmissionStatusLate
		}
	}

	attempt.Status = status
	attempt.SubmittedAt = &now
	attempt.Score = score
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit attempt")
	}
	return attempt, nil
}
