package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutorhub-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func meetingRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "section_id", "tutor_id", "title", "scheduled_at", "duration_minutes", "status",
		"meeting_url", "recording_url", "created_at", "updated_at",
		"section_label", "program_name", "tutor_name",
	}).AddRow("m-1", "sec-1", "tut-1", "Algebra Review", now, 90, models.MeetingStatusScheduled,
		nil, nil, now, now, "B", "Algebra Foundations", "Dina")
}

func TestMeetingRepositoryListByTutor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM meetings m\s+JOIN sections s .+ WHERE m\.tutor_id = \$1 ORDER BY m\.scheduled_at`).
		WithArgs("tut-1").
		WillReturnRows(meetingRows())

	meetings, err := repo.ListByTutor(context.Background(), "tut-1")
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	require.Equal(t, "Algebra Review", meetings[0].Title)
	require.Equal(t, "B", meetings[0].SectionLabel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	mock.ExpectExec(`INSERT INTO meetings`).WillReturnResult(sqlmock.NewResult(0, 1))

	meeting := &models.Meeting{
		SectionID:       "sec-1",
		TutorID:         "tut-1",
		Title:           "Kickoff",
		ScheduledAt:     time.Now().UTC(),
		DurationMinutes: 60,
		Status:          models.MeetingStatusScheduled,
	}
	require.NoError(t, repo.Create(context.Background(), meeting))
	require.NotEmpty(t, meeting.ID)
	require.False(t, meeting.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	mock.ExpectExec(`UPDATE meetings SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("m-1", models.MeetingStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "m-1", models.MeetingStatusCancelled))
	require.NoError(t, mock.ExpectationsWereMet())
}
