package models

import "time"

// Quiz is timed coursework attached to a section. Authoring state reuses
// AssignmentStatus; attempt stamping reuses SubmissionStatus.
type Quiz struct {
	ID               string           `db:"id" json:"id"`
	SectionID        string           `db:"section_id" json:"section_id"`
	Title            string           `db:"title" json:"title"`
	DueDate          time.Time        `db:"due_date" json:"due_date"`
	MaxPoints        float64          `db:"max_points" json:"max_points"`
	TimeLimitMinutes int              `db:"time_limit_minutes" json:"time_limit_minutes"`
	Status           AssignmentStatus `db:"status" json:"status"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// QuizAttempt is a student's run at a quiz.
type QuizAttempt struct {
	ID          string           `db:"id" json:"id"`
	QuizID      string           `db:"quiz_id" json:"quiz_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	Status      SubmissionStatus `db:"status" json:"status"`
	StartedAt   time.Time        `db:"started_at" json:"started_at"`
	SubmittedAt *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	Score       *float64         `db:"score" json:"score,omitempty"`
}

// QuizView pairs a quiz with the viewer's derived state.
type QuizView struct {
	Quiz
	EffectiveStatus EffectiveStatus `json:"effective_status"`
	Attempt         *QuizAttempt    `json:"attempt,omitempty"`
}
