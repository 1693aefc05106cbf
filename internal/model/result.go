package model

import (
	"time"

	"github.com/google/uuid"
)

// EndReason records how a graded session finished.
type EndReason string

const (
	EndReasonSubmitted EndReason = "SUBMITTED"
	EndReasonTimeout   EndReason = "TIMEOUT"
)

// QuestionOutcome is the graded state of one question.
type QuestionOutcome struct {
	QuestionID uuid.UUID     `json:"question_id"`
	Position   int           `json:"position"`
	Selected   *int          `json:"selected,omitempty"` // original option numbering
	Correct    bool          `json:"correct"`
	Marked     bool          `json:"marked"`
	TimeSpent  time.Duration `json:"time_spent"`
}

// Result is the graded outcome of a finished session.
type Result struct {
	SessionID      uuid.UUID         `json:"session_id"`
	StudentID      int               `json:"student_id"`
	Score          float64           `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	Correct        int               `json:"correct"`
	Wrong          int               `json:"wrong"`
	Unanswered     int               `json:"unanswered"`
	Percentage     float64           `json:"percentage"`
	Passed         bool              `json:"passed"`
	Duration       time.Duration     `json:"duration"`
	EndReason      EndReason         `json:"end_reason"`
	Correctness    []bool            `json:"correctness"`
	Outcomes       []QuestionOutcome `json:"outcomes"`
	CompletedAt    time.Time         `json:"completed_at"`
}
