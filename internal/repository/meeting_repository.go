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

// MeetingRepository manages persistence for meetings.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository constructs a MeetingRepository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingDetailColumns = `m.id, m.section_id, m.tutor_id, m.title, m.scheduled_at, m.duration_minutes, m.status, m.meeting_url, m.recording_url, m.created_at, m.updated_at,
        s.label AS section_label, p.name AS program_name, t.full_name AS tutor_name`

const meetingDetailJoins = `FROM meetings m
        JOIN sections s ON s.id = m.section_id
        JOIN programs p ON p.id = s.program_id
        JOIN tutors t ON t.id = m.tutor_id`

// List returns meetings matching the provided filters.
func (r *MeetingRepository) List(ctx context.Context, filter models.MeetingFilter) ([]models.MeetingDetail, int, error) {
	base := meetingDetailJoins
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("m.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("m.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("m.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("m.scheduled_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("m.scheduled_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"scheduled_at": "m.scheduled_at",
		"created_at":   "m.created_at",
	}
	if sortBy == "" {
		sortBy = "scheduled_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "m.scheduled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", meetingDetailColumns, base, column, order, size, offset)

	var meetings []models.MeetingDetail
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list meetings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count meetings: %w", err)
	}
	return meetings, total, nil
}

// FindByID fetches a meeting with section, program and tutor info.
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.MeetingDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE m.id = $1", meetingDetailColumns, meetingDetailJoins)
	var detail models.MeetingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByTutor returns every meeting of a tutor. The conflict checker needs
// the full set, cancelled ones included; it does its own filtering.
func (r *MeetingRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.MeetingDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE m.tutor_id = $1 ORDER BY m.scheduled_at", meetingDetailColumns, meetingDetailJoins)
	var meetings []models.MeetingDetail
	if err := r.db.SelectContext(ctx, &meetings, query, tutorID); err != nil {
		return nil, fmt.Errorf("list tutor meetings: %w", err)
	}
	return meetings, nil
}

// Create inserts a new meeting record.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	meeting.UpdatedAt = now
	const query = `INSERT INTO meetings (id, section_id, tutor_id, title, scheduled_at, duration_minutes, status, meeting_url, recording_url, created_at, updated_at)
        VALUES (:id, :section_id, :tutor_id, :title, :scheduled_at, :duration_minutes, :status, :meeting_url, :recording_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, meeting); err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// Update modifies an existing meeting.
func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	meeting.UpdatedAt = time.Now().UTC()
	const query = `UPDATE meetings SET title = :title, scheduled_at = :scheduled_at, duration_minutes = :duration_minutes, status = :status, meeting_url = :meeting_url, recording_url = :recording_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, meeting); err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	return nil
}

// UpdateStatus transitions a meeting's lifecycle state.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) error {
	const query = `UPDATE meetings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}
	return nil
}
