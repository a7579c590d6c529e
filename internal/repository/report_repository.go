package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edunest/tutorhub-api/internal/models"
)

// ReportRepository manages report job metadata and the read queries feeding
// report generation.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a queued report job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (id, type, params, status, progress, created_at)
        VALUES (:id, :type, :params, :status, :progress, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID fetches a report job by ID.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `SELECT id, type, params, status, progress, result_url, created_at, finished_at, error_message
        FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns recent report jobs, newest first.
func (r *ReportRepository) List(ctx context.Context, limit int) ([]models.ReportJob, error) {
	const query = `SELECT id, type, params, status, progress, result_url, created_at, finished_at, error_message
        FROM report_jobs ORDER BY created_at DESC LIMIT $1`
	var jobsList []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobsList, query, limit); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobsList, nil
}

// SetStatus updates a job's status and progress counter.
func (r *ReportRepository) SetStatus(ctx context.Context, id string, status models.ReportStatus, progress int) error {
	const query = `UPDATE report_jobs SET status = $2, progress = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, progress); err != nil {
		return fmt.Errorf("update report job status: %w", err)
	}
	return nil
}

// MarkFinished records a successful run and its download URL.
func (r *ReportRepository) MarkFinished(ctx context.Context, id, resultURL string) error {
	const query = `UPDATE report_jobs SET status = $2, progress = 100, result_url = $3, finished_at = $4, error_message = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportStatusFinished, resultURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("finish report job: %w", err)
	}
	return nil
}

// MarkFailed records a failed run.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE report_jobs SET status = $2, finished_at = $3, error_message = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportStatusFailed, time.Now().UTC(), message); err != nil {
		return fmt.Errorf("fail report job: %w", err)
	}
	return nil
}

func reportScopeCondition(params models.ReportJobParams, sectionColumn, programColumn string, args *[]interface{}) string {
	switch {
	case params.SectionID != nil:
		*args = append(*args, *params.SectionID)
		return fmt.Sprintf("%s = $%d", sectionColumn, len(*args))
	case params.ProgramID != nil:
		*args = append(*args, *params.ProgramID)
		return fmt.Sprintf("%s = $%d", programColumn, len(*args))
	default:
		return "1=1"
	}
}

// RosterRows returns enrollment rows for roster reports, scoped to a section
// or program when requested.
func (r *ReportRepository) RosterRows(ctx context.Context, params models.ReportJobParams) ([]models.EnrollmentDetail, error) {
	args := []interface{}{}
	condition := reportScopeCondition(params, "e.section_id", "s.program_id", &args)
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY p.name, s.label, st.full_name", enrollmentDetailColumns, enrollmentDetailJoins, condition)

	var rows []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("roster rows: %w", err)
	}
	return rows, nil
}

// MeetingRows returns meeting rows for schedule reports.
func (r *ReportRepository) MeetingRows(ctx context.Context, params models.ReportJobParams) ([]models.MeetingDetail, error) {
	args := []interface{}{}
	condition := reportScopeCondition(params, "m.section_id", "s.program_id", &args)
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY m.scheduled_at", meetingDetailColumns, meetingDetailJoins, condition)

	var rows []models.MeetingDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("meeting rows: %w", err)
	}
	return rows, nil
}

type submissionStatRow struct {
	StudentID    string          `db:"student_id"`
	StudentName  string          `db:"student_name"`
	AssignmentID string          `db:"assignment_id"`
	SectionID    string          `db:"assignment_section_id"`
	Title        string          `db:"title"`
	DueDate      time.Time       `db:"due_date"`
	SubID        sql.NullString  `db:"sub_id"`
	SubStatus    sql.NullString  `db:"sub_status"`
	SubmittedAt  sql.NullTime    `db:"sub_submitted_at"`
	Score        sql.NullFloat64 `db:"sub_score"`
	GradedAt     sql.NullTime    `db:"sub_graded_at"`
}

// SubmissionRows returns one row per enrolled student and published
// assignment, with the submission columns NULL when nothing was handed in.
// Status derivation stays with the caller.
func (r *ReportRepository) SubmissionRows(ctx context.Context, params models.ReportJobParams) ([]models.StudentSubmissionRow, error) {
	args := []interface{}{models.EnrollmentStatusActive, models.AssignmentStatusPublished}
	condition := reportScopeCondition(params, "e.section_id", "s.program_id", &args)

	query := fmt.Sprintf(`SELECT e.student_id, st.full_name AS student_name,
        a.id AS assignment_id, a.section_id AS assignment_section_id, a.title, a.due_date,
        sub.id AS sub_id, sub.status AS sub_status, sub.submitted_at AS sub_submitted_at, sub.score AS sub_score, sub.graded_at AS sub_graded_at
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN sections s ON s.id = e.section_id
        JOIN assignments a ON a.section_id = e.section_id AND a.status = $2
        LEFT JOIN submissions sub ON sub.assignment_id = a.id AND sub.student_id = e.student_id
        WHERE e.status = $1 AND %s
        ORDER BY st.full_name, a.due_date`, condition)

	var raw []submissionStatRow
	if err := r.db.SelectContext(ctx, &raw, query, args...); err != nil {
		return nil, fmt.Errorf("submission rows: %w", err)
	}

	rows := make([]models.StudentSubmissionRow, 0, len(raw))
	for _, row := range raw {
		out := models.StudentSubmissionRow{
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			Assignment: models.Assignment{
				ID:        row.AssignmentID,
				SectionID: row.SectionID,
				Title:     row.Title,
				DueDate:   row.DueDate,
				Status:    models.AssignmentStatusPublished,
			},
		}
		if row.SubID.Valid {
			sub := &models.Submission{
				ID:           row.SubID.String,
				AssignmentID: row.AssignmentID,
				StudentID:    row.StudentID,
				Status:       models.SubmissionStatus(row.SubStatus.String),
			}
			if row.SubmittedAt.Valid {
				sub.SubmittedAt = row.SubmittedAt.Time
			}
			if row.Score.Valid {
				score := row.Score.Float64
				sub.Score = &score
			}
			if row.GradedAt.Valid {
				gradedAt := row.GradedAt.Time
				sub.GradedAt = &gradedAt
			}
			out.Submission = sub
		}
		rows = append(rows, out)
	}
	return rows, nil
}
