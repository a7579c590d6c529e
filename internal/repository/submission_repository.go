package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edunest/tutorhub-api/internal/models"
)

// SubmissionRepository manages persistence for assignment submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// FindByAssignmentAndStudent fetches the student's submission for an
// assignment. At most one exists per pair.
func (r *SubmissionRepository) FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	const query = `SELECT id, assignment_id, student_id, status, content, score, submitted_at, graded_at
        FROM submissions WHERE assignment_id = $1 AND student_id = $2`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByID fetches a submission by ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, assignment_id, student_id, status, content, score, submitted_at, graded_at
        FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListForStudentSection returns the student's submissions across a section's
// assignments.
func (r *SubmissionRepository) ListForStudentSection(ctx context.Context, sectionID, studentID string) ([]models.Submission, error) {
	const query = `SELECT sub.id, sub.assignment_id, sub.student_id, sub.status, sub.content, sub.score, sub.submitted_at, sub.graded_at
        FROM submissions sub
        JOIN assignments a ON a.id = sub.assignment_id
        WHERE a.section_id = $1 AND sub.student_id = $2`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, sectionID, studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return submissions, nil
}

// Upsert stores a submission, replacing content and the write-time status
// stamp on resubmission.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	const query = `INSERT INTO submissions (id, assignment_id, student_id, status, content, score, submitted_at, graded_at)
        VALUES (:id, :assignment_id, :student_id, :status, :content, :score, :submitted_at, :graded_at)
        ON CONFLICT (assignment_id, student_id) DO UPDATE SET status = EXCLUDED.status, content = EXCLUDED.content, submitted_at = EXCLUDED.submitted_at`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// Update modifies an existing submission, used by grading.
func (r *SubmissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	const query = `UPDATE submissions SET status = :status, content = :content, score = :score, graded_at = :graded_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}
