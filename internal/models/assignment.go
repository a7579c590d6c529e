package models

import "time"

// AssignmentStatus is the authoring state of an assignment.
type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "DRAFT"
	AssignmentStatusPublished AssignmentStatus = "PUBLISHED"
)

// SubmissionStatus is stamped on the write path when a student submits or a
// tutor grades. It is never recomputed at read time.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionStatusLate      SubmissionStatus = "LATE"
	SubmissionStatusGraded    SubmissionStatus = "GRADED"
)

// EffectiveStatus is the UI-facing derived state combining the stored
// submission status and the current time. Never persisted.
type EffectiveStatus string

const (
	EffectiveStatusPending   EffectiveStatus = "PENDING"
	EffectiveStatusSubmitted EffectiveStatus = "SUBMITTED"
	EffectiveStatusGraded    EffectiveStatus = "GRADED"
	EffectiveStatusLate      EffectiveStatus = "LATE"
	EffectiveStatusOverdue   EffectiveStatus = "OVERDUE"
)

// AssignmentAction drives the affordance shown for an assignment.
type AssignmentAction string

const (
	AssignmentActionSubmit   AssignmentAction = "SUBMIT"
	AssignmentActionResubmit AssignmentAction = "RESUBMIT"
	AssignmentActionView     AssignmentAction = "VIEW"
)

// Assignment is graded coursework attached to a section.
type Assignment struct {
	ID          string           `db:"id" json:"id"`
	SectionID   string           `db:"section_id" json:"section_id"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	DueDate     time.Time        `db:"due_date" json:"due_date"`
	MaxPoints   float64          `db:"max_points" json:"max_points"`
	Status      AssignmentStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Submission is a student's answer to an assignment; zero or one per student.
type Submission struct {
	ID           string           `db:"id" json:"id"`
	AssignmentID string           `db:"assignment_id" json:"assignment_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	Status       SubmissionStatus `db:"status" json:"status"`
	Content      string           `db:"content" json:"content"`
	Score        *float64         `db:"score" json:"score,omitempty"`
	SubmittedAt  time.Time        `db:"submitted_at" json:"submitted_at"`
	GradedAt     *time.Time       `db:"graded_at" json:"graded_at,omitempty"`
}

// AssignmentView pairs an assignment with the viewer's derived state.
type AssignmentView struct {
	Assignment
	EffectiveStatus EffectiveStatus  `json:"effective_status"`
	Action          AssignmentAction `json:"action"`
	Submission      *Submission      `json:"submission,omitempty"`
}

// AssignmentStats buckets a student's assignments for reporting. Late counts
// both LATE and OVERDUE; the overlap with the five-way status is intentional.
type AssignmentStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Submitted int `json:"submitted"`
	Graded    int `json:"graded"`
	Late      int `json:"late"`
}

// StudentSubmissionRow is a flat join row used by report generation: one
// published assignment paired with a student's submission, if any.
type StudentSubmissionRow struct {
	StudentID   string
	StudentName string
	Assignment  Assignment
	Submission  *Submission
}
