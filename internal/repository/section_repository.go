package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edunest/tutorhub-api/internal/models"
)

// SectionRepository manages persistence for sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionDetailColumns = `s.id, s.program_id, s.label, s.tutor_id, s.status, s.current_enrollments, s.created_at, s.updated_at,
        p.name AS program_name, p.max_students_per_section, t.full_name AS tutor_name`

const sectionDetailJoins = `FROM sections s
        JOIN programs p ON p.id = s.program_id
        JOIN tutors t ON t.id = s.tutor_id`

// List returns sections matching the provided filters.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	base := sectionDetailJoins
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("s.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"label":      "s.label",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", sectionDetailColumns, base, column, order, size, offset)

	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// FindDetailByID fetches a section with program and tutor info.
func (r *SectionRepository) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1", sectionDetailColumns, sectionDetailJoins)
	var detail models.SectionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByProgram returns every section of a program regardless of status.
// Label ordering is length-then-lexicographic so "AA" sorts after "Z".
func (r *SectionRepository) ListByProgram(ctx context.Context, programID string) ([]models.Section, error) {
	const query = `SELECT id, program_id, label, tutor_id, status, current_enrollments, created_at, updated_at
        FROM sections WHERE program_id = $1 ORDER BY LENGTH(label), label`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, programID); err != nil {
		return nil, fmt.Errorf("list program sections: %w", err)
	}
	return sections, nil
}

// Create inserts a new section record.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO sections (id, program_id, label, tutor_id, status, current_enrollments, created_at, updated_at)
        VALUES (:id, :program_id, :label, :tutor_id, :status, :current_enrollments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// UpdateStatus transitions a section's lifecycle state.
func (r *SectionRepository) UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error {
	const query = `UPDATE sections SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update section status: %w", err)
	}
	return nil
}

// SetEnrollmentCount refreshes the denormalised occupancy counter.
func (r *SectionRepository) SetEnrollmentCount(ctx context.Context, id string, count int) error {
	const query = `UPDATE sections SET current_enrollments = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, count, time.Now().UTC()); err != nil {
		return fmt.Errorf("update section occupancy: %w", err)
	}
	return nil
}
