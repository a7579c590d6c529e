package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edunest/tutorhub-api/internal/models"
)

// StatsRepository serves the dashboard counters.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountActiveSections counts sections that are open or full.
func (r *StatsRepository) CountActiveSections(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM sections WHERE status IN ($1, $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.SectionStatusActive, models.SectionStatusFull); err != nil {
		return 0, fmt.Errorf("count active sections: %w", err)
	}
	return count, nil
}

// CountActiveEnrollments counts enrollments currently in effect.
func (r *StatsRepository) CountActiveEnrollments(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// CountUpcomingMeetings counts non-cancelled meetings scheduled from the
// given instant onward.
func (r *StatsRepository) CountUpcomingMeetings(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM meetings WHERE scheduled_at >= $1 AND status <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, since, models.MeetingStatusCancelled); err != nil {
		return 0, fmt.Errorf("count upcoming meetings: %w", err)
	}
	return count, nil
}

// CountPendingGrading counts submissions that were handed in but not graded.
func (r *StatsRepository) CountPendingGrading(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM submissions WHERE status IN ($1, $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.SubmissionStatusSubmitted, models.SubmissionStatusLate); err != nil {
		return 0, fmt.Errorf("count pending grading: %w", err)
	}
	return count, nil
}
