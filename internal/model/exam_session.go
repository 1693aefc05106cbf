package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusNone      SessionStatus = ""
	SessionStatusCreated   SessionStatus = "CREATED"
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusPaused    SessionStatus = "PAUSED"
	SessionStatusTimedOut  SessionStatus = "TIMED_OUT"
	SessionStatusSubmitted SessionStatus = "SUBMITTED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusTimedOut, SessionStatusSubmitted, SessionStatusCancelled:
		return true
	}
	return false
}

// QuestionView is the student-facing state of one question.
type QuestionView struct {
	Position  int                `json:"position"`
	Question  QuestionForStudent `json:"question"`
	Selected  *int               `json:"selected,omitempty"` // display numbering
	Answered  bool               `json:"answered"`
	Marked    bool               `json:"marked"`
	Visited   bool               `json:"visited"`
	TimeSpent time.Duration      `json:"time_spent"`
}

// SessionSnapshot is a read-only copy of a session's progress.
type SessionSnapshot struct {
	ID             uuid.UUID      `json:"id"`
	StudentID      int            `json:"student_id"`
	Status         SessionStatus  `json:"status"`
	CurrentIndex   int            `json:"current_index"`
	Total          int            `json:"total"`
	AnsweredCount  int            `json:"answered_count"`
	MarkedCount    int            `json:"marked_count"`
	NavigationMode NavigationMode `json:"navigation_mode"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	Elapsed        time.Duration  `json:"elapsed"`
	// Remaining is nil when the session has no time limit.
	Remaining *time.Duration `json:"remaining,omitempty"`
	Current   *QuestionView  `json:"current,omitempty"`
}

// StartSessionRequest is the payload for starting a new exam session.
// Settings falls back to the server defaults when omitted.
type StartSessionRequest struct {
	StudentID int       `json:"student_id" binding:"required,gt=0"`
	Settings  *Settings `json:"settings"`
}
