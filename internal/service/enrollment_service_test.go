package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutorhub-api/internal/models"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
)

type stubEnrollmentRepo struct {
	details     map[string]models.EnrollmentDetail
	activeCount int
	created     []*models.Enrollment
}

func (r *stubEnrollmentRepo) List(_ context.Context, _ models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	out := make([]models.EnrollmentDetail, 0, len(r.details))
	for _, d := range r.details {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *stubEnrollmentRepo) FindDetailByID(_ context.Context, id string) (*models.EnrollmentDetail, error) {
	d, ok := r.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (r *stubEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "enr-new"
	}
	r.created = append(r.created, enrollment)
	r.details[enrollment.ID] = models.EnrollmentDetail{Enrollment: *enrollment}
	r.activeCount++
	return nil
}

func (r *stubEnrollmentRepo) UpdateStatus(_ context.Context, id string, status models.EnrollmentStatus) error {
	d := r.details[id]
	d.Status = status
	r.details[id] = d
	if status != models.EnrollmentStatusActive {
		r.activeCount--
	}
	return nil
}

func (r *stubEnrollmentRepo) CountActiveBySection(_ context.Context, _ string) (int, error) {
	return r.activeCount, nil
}

type stubSectionStore struct {
	detail   models.SectionDetail
	statuses []models.SectionStatus
	counts   []int
}

func (r *stubSectionStore) FindDetailByID(_ context.Context, id string) (*models.SectionDetail, error) {
	if r.detail.ID != id {
		return nil, sql.ErrNoRows
	}
	d := r.detail
	return &d, nil
}

func (r *stubSectionStore) UpdateStatus(_ context.Context, _ string, status models.SectionStatus) error {
	r.statuses = append(r.statuses, status)
	r.detail.Status = status
	return nil
}

func (r *stubSectionStore) SetEnrollmentCount(_ context.Context, _ string, count int) error {
	r.counts = append(r.counts, count)
	r.detail.CurrentEnrollments = count
	return nil
}

func enrollmentFixtures(active int, status models.SectionStatus) (*stubEnrollmentRepo, *stubSectionStore) {
	enrollments := &stubEnrollmentRepo{details: make(map[string]models.EnrollmentDetail), activeCount: active}
	sections := &stubSectionStore{detail: models.SectionDetail{
		Section:               models.Section{ID: "sec-1", Status: status, CurrentEnrollments: active},
		MaxStudentsPerSection: 3,
	}}
	return enrollments, sections
}

func TestEnrollmentServiceCreateFillsSection(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	enrollments, sections := enrollmentFixtures(2, models.SectionStatusActive)
	svc := NewEnrollmentService(enrollments, sections, nil, nil, fixedClock(now))

	detail, err := svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID:     "stu-1",
		SectionID:     "sec-1",
		TotalMeetings: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, detail.Status)
	assert.Equal(t, 8, detail.MeetingsRemaining)
	assert.Equal(t, []int{3}, sections.counts)
	assert.Equal(t, []models.SectionStatus{models.SectionStatusFull}, sections.statuses, "hitting capacity flips the section to FULL")
}

func TestEnrollmentServiceCreateRejectsFullSection(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	enrollments, sections := enrollmentFixtures(3, models.SectionStatusFull)
	svc := NewEnrollmentService(enrollments, sections, nil, nil, fixedClock(now))

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID:     "stu-1",
		SectionID:     "sec-1",
		TotalMeetings: 8,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSectionFull.Code, appErrors.FromError(err).Code)
	assert.Empty(t, enrollments.created)
}

func TestEnrollmentServiceWithdrawReopensSection(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	enrollments, sections := enrollmentFixtures(3, models.SectionStatusFull)
	enrollments.details["enr-1"] = models.EnrollmentDetail{
		Enrollment: models.Enrollment{ID: "enr-1", SectionID: "sec-1", Status: models.EnrollmentStatusActive},
	}
	svc := NewEnrollmentService(enrollments, sections, nil, nil, fixedClock(now))

	detail, err := svc.Withdraw(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, detail.Status)
	assert.Contains(t, sections.statuses, models.SectionStatusActive, "a vacated FULL section reopens")
}

func TestEnrollmentServiceDaysRemainingRecomputed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(36 * time.Hour)
	enrollments, sections := enrollmentFixtures(1, models.SectionStatusActive)
	enrollments.details["enr-1"] = models.EnrollmentDetail{
		Enrollment: models.Enrollment{ID: "enr-1", SectionID: "sec-1", Status: models.EnrollmentStatusActive, ExpiryDate: &expiry},
	}
	svc := NewEnrollmentService(enrollments, sections, nil, nil, fixedClock(now))

	detail, err := svc.Get(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, detail.DaysRemaining)
}
