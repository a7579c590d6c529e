package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutorhub-api/internal/models"
)

func TestSectionRepositoryListByProgram(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "program_id", "label", "tutor_id", "status", "current_enrollments", "created_at", "updated_at"}).
		AddRow("s-1", "prog-1", "Z", "tut-1", models.SectionStatusActive, 8, now, now).
		AddRow("s-2", "prog-1", "AA", "tut-2", models.SectionStatusActive, 2, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, program_id, label, tutor_id, status, current_enrollments, created_at, updated_at\n        FROM sections WHERE program_id = $1 ORDER BY LENGTH(label), label")).
		WithArgs("prog-1").
		WillReturnRows(rows)

	sections, err := repo.ListByProgram(context.Background(), "prog-1")
	require.NoError(t, err)
	require.Len(t, sections, 2)
	require.Equal(t, "Z", sections[0].Label, "length-then-lexicographic ordering")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositorySetEnrollmentCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec(`UPDATE sections SET current_enrollments = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("s-1", 9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetEnrollmentCount(context.Background(), "s-1", 9))
	require.NoError(t, mock.ExpectationsWereMet())
}
