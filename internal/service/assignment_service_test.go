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

type stubAssignmentRepo struct {
	assignments map[string]models.Assignment
}

func (r *stubAssignmentRepo) ListBySection(_ context.Context, sectionID string, publishedOnly bool) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0)
	for _, a := range r.assignments {
		if a.SectionID != sectionID {
			continue
		}
		if publishedOnly && a.Status != models.AssignmentStatusPublished {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *stubAssignmentRepo) FindByID(_ context.Context, id string) (*models.Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (r *stubAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = "a-new"
	}
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *stubAssignmentRepo) UpdateStatus(_ context.Context, id string, status models.AssignmentStatus) error {
	a := r.assignments[id]
	a.Status = status
	r.assignments[id] = a
	return nil
}

type stubSubmissionRepo struct {
	submissions map[string]models.Submission // keyed assignmentID|studentID
	updated     []*models.Submission
}

func submissionKey(assignmentID, studentID string) string {
	return assignmentID + "|" + studentID
}

func (r *stubSubmissionRepo) FindByAssignmentAndStudent(_ context.Context, assignmentID, studentID string) (*models.Submission, error) {
	s, ok := r.submissions[submissionKey(assignmentID, studentID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *stubSubmissionRepo) ListForStudentSection(_ context.Context, _, studentID string) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, s := range r.submissions {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSubmissionRepo) Upsert(_ context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = "sub-new"
	}
	r.submissions[submissionKey(submission.AssignmentID, submission.StudentID)] = *submission
	return nil
}

func (r *stubSubmissionRepo) FindByID(_ context.Context, id string) (*models.Submission, error) {
	for _, s := range r.submissions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubSubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	r.updated = append(r.updated, submission)
	r.submissions[submissionKey(submission.AssignmentID, submission.StudentID)] = *submission
	return nil
}

func newAssignmentService(now time.Time, assignments map[string]models.Assignment, submissions map[string]models.Submission) (*AssignmentService, *stubSubmissionRepo) {
	if submissions == nil {
		submissions = make(map[string]models.Submission)
	}
	subs := &stubSubmissionRepo{submissions: submissions}
	svc := NewAssignmentService(&stubAssignmentRepo{assignments: assignments}, subs, nil, nil, fixedClock(now))
	return svc, subs
}

func TestAssignmentServiceSubmitStampsOnTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assignments := map[string]models.Assignment{
		"a-1": {ID: "a-1", SectionID: "sec-1", DueDate: now.Add(time.Hour), Status: models.AssignmentStatusPublished},
	}
	svc, _ := newAssignmentService(now, assignments, nil)

	sub, err := svc.Submit(context.Background(), "a-1", SubmitAssignmentRequest{StudentID: "stu-1", Content: "answers"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusSubmitted, sub.Status)
	assert.Equal(t, now, sub.SubmittedAt)
}

func TestAssignmentServiceSubmitStampsLate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assignments := map[string]models.Assignment{
		"a-1": {ID: "a-1", SectionID: "sec-1", DueDate: now.Add(-time.Hour), Status: models.AssignmentStatusPublished},
	}
	svc, _ := newAssignmentService(now, assignments, nil)

	sub, err := svc.Submit(context.Background(), "a-1", SubmitAssignmentRequest{StudentID: "stu-1", Content: "answers"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusLate, sub.Status, "lateness is stamped at submission time")
}

func TestAssignmentServiceSubmitDraftRejected(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assignments := map[string]models.Assignment{
		"a-1": {ID: "a-1", SectionID: "sec-1", DueDate: now.Add(time.Hour), Status: models.AssignmentStatusDraft},
	}
	svc, _ := newAssignmentService(now, assignments, nil)

	_, err := svc.Submit(context.Background(), "a-1", SubmitAssignmentRequest{StudentID: "stu-1", Content: "answers"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceResubmitAfterGradeRejected(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assignments := map[string]models.Assignment{
		"a-1": {ID: "a-1", SectionID: "sec-1", DueDate: now.Add(time.Hour), Status: models.AssignmentStatusPublished},
	}
	submissions := map[string]models.Submission{
		submissionKey("a-1", "stu-1"): {ID: "sub-1", AssignmentID: "a-1", StudentID: "stu-1", Status: models.SubmissionStatusGraded},
	}
	svc, _ := newAssignmentService(now, assignments, submissions)

	_, err := svc.Submit(context.Background(), "a-1", SubmitAssignmentRequest{StudentID: "stu-1", Content: "revised"})
	require.Error(t, err)
}

func TestAssignmentServiceListForStudentDerivesStatuses(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assignments := map[string]models.Assignment{
		"a-1": {ID: "a-1", SectionID: "sec-1", DueDate: now.Add(time.Hour), Status: models.AssignmentStatusPublished},
		"a-2": {ID: "a-2", SectionID: "sec-1", DueDate: now.Add(-time.Hour), Status: models.AssignmentStatusPublished},
		"a-3": {ID: "a-3", SectionID: "sec-1", DueDate: now.Add(time.Hour), Status: models.AssignmentStatusDraft},
	}
	svc, _ := newAssignmentService(now, assignments, nil)

	views, err := svc.ListForStudent(context.Background(), "sec-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, views, 2, "drafts are invisible to students")

	statuses := make(map[string]models.EffectiveStatus)
	actions := make(map[string]models.AssignmentAction)
	for _, v := range views {
		statuses[v.ID] = v.EffectiveStatus
		actions[v.ID] = v.Action
	}
	assert.Equal(t, models.EffectiveStatusPending, statuses["a-1"])
	assert.Equal(t, models.EffectiveStatusOverdue, statuses["a-2"])
	assert.Equal(t, models.AssignmentActionSubmit, actions["a-2"], "overdue work can still be submitted")
}

func TestAssignmentServiceGrade(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assignments := map[string]models.Assignment{
		"a-1": {ID: "a-1", SectionID: "sec-1", DueDate: now.Add(time.Hour), MaxPoints: 100, Status: models.AssignmentStatusPublished},
	}
	submissions := map[string]models.Submission{
		submissionKey("a-1", "stu-1"): {ID: "sub-1", AssignmentID: "a-1", StudentID: "stu-1", Status: models.SubmissionStatusSubmitted},
	}
	svc, _ := newAssignmentService(now, assignments, submissions)

	graded, err := svc.Grade(context.Background(), "sub-1", GradeSubmissionRequest{Score: 87})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusGraded, graded.Status)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 87.0, *graded.Score)
	require.NotNil(t, graded.GradedAt)

	_, err = svc.Grade(context.Background(), "sub-1", GradeSubmissionRequest{Score: 150})
	require.Error(t, err, "score above max points is rejected")
}
