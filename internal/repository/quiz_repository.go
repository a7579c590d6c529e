package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edunest/tutorhub-api/internal/models"
)

// QuizRepository manages persistence for quizzes.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// ListBySection returns a section's quizzes ordered by due date.
func (r *QuizRepository) ListBySection(ctx context.Context, sectionID string, publishedOnly bool) ([]models.Quiz, error) {
	query := `SELECT id, section_id, title, due_date, max_points, time_limit_minutes, status, created_at, updated_at
        FROM quizzes WHERE section_id = $1`
	args := []interface{}{sectionID}
	if publishedOnly {
		query += " AND status = $2"
		args = append(args, models.AssignmentStatusPublished)
	}
	query += " ORDER BY due_date"

	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, args...); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// FindByID fetches a quiz by ID.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	const query = `SELECT id, section_id, title, due_date, max_points, time_limit_minutes, status, created_at, updated_at
        FROM quizzes WHERE id = $1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Create inserts a new quiz record.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now
	const query = `INSERT INTO quizzes (id, section_id, title, due_date, max_points, time_limit_minutes, status, created_at, updated_at)
        VALUES (:id, :section_id, :title, :due_date, :max_points, :time_limit_minutes, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// QuizAttemptRepository manages persistence for quiz attempts.
type QuizAttemptRepository struct {
	db *sqlx.DB
}

// NewQuizAttemptRepository constructs a QuizAttemptRepository.
func NewQuizAttemptRepository(db *sqlx.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{db: db}
}

// FindByQuizAndStudent fetches the student's attempt at a quiz.
func (r *QuizAttemptRepository) FindByQuizAndStudent(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	const query = `SELECT id, quiz_id, student_id, status, started_at, submitted_at, score
        FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2`
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, query, quizID, studentID); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListForStudentSection returns the student's attempts across a section's
// quizzes.
func (r *QuizAttemptRepository) ListForStudentSection(ctx context.Context, sectionID, studentID string) ([]models.QuizAttempt, error) {
	const query = `SELECT qa.id, qa.quiz_id, qa.student_id, qa.status, qa.started_at, qa.submitted_at, qa.score
        FROM quiz_attempts qa
        JOIN quizzes q ON q.id = qa.quiz_id
        WHERE q.section_id = $1 AND qa.student_id = $2`
	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, sectionID, studentID); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}

// Create inserts a new attempt record.
func (r *QuizAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	const query = `INSERT INTO quiz_attempts (id, quiz_id, student_id, status, started_at, submitted_at, score)
        VALUES (:id, :quiz_id, :student_id, :status, :started_at, :submitted_at, :score)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create quiz attempt: %w", err)
	}
	return nil
}

// Update modifies an existing attempt, used at submission time.
func (r *QuizAttemptRepository) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	const query = `UPDATE quiz_attempts SET status = :status, submitted_at = :submitted_at, score = :score WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("update quiz attempt: %w", err)
	}
	return nil
}
