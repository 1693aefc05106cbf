package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/model"
)

func (e *Engine) ID() uuid.UUID { return e.id }
func (e *Engine) StudentID() int { return e.studentID }
func (e *Engine) Settings() model.Settings { return e.settings }
func (e *Engine) Status() model.SessionStatus { return e.status }
func (e *Engine) CurrentIndex() int { return e.current }
func (e *Engine) Count() int { return len(e.states) }
func (e *Engine) AnsweredCount() int { return e.answeredCount }
func (e *Engine) MarkedCount() int { return e.markedCount }
func (e *Engine) StartedAt() (time.Time, bool) { return e.startedAt, !e.startedAt.IsZero() }

// Current returns a copy of the current question's state.
func (e *Engine) Current() (QuestionState, error) {
	return e.QuestionAt(e.current)
}

// QuestionAt returns a copy of the state at index i.
func (e *Engine) QuestionAt(i int) (QuestionState, error) {
	if i < 0 || i >= len(e.states) {
		return QuestionState{}, newError(CodeNoSuchQuestion, "question_at", "index %d outside [0, %d)", i, len(e.states))
	}
	return e.states[i], nil
}

// Elapsed reports active time including the running interval, without
// mutating the session.
func (e *Engine) Elapsed() time.Duration {
	if e.status != model.SessionStatusActive {
		return e.elapsed
	}
	if d := e.clock.Now().Sub(e.lastMark); d > 0 {
		return e.elapsed + d
	}
	return e.elapsed
}

// Remaining reports the time left. ok is false when the session is unbounded.
func (e *Engine) Remaining() (time.Duration, bool) {
	limit := e.settings.TimeLimit()
	if limit <= 0 {
		return 0, false
	}
	return max(limit-e.Elapsed(), 0), true
}

// Snapshot copies the session's progress for display.
func (e *Engine) Snapshot() model.SessionSnapshot {
	snap := model.SessionSnapshot{
		ID:             e.id,
		StudentID:      e.studentID,
		Status:         e.status,
		CurrentIndex:   e.current,
		Total:          len(e.states),
		AnsweredCount:  e.answeredCount,
		MarkedCount:    e.markedCount,
		NavigationMode: e.settings.NavigationMode,
		Elapsed:        e.Elapsed(),
	}
	if t, ok := e.StartedAt(); ok {
		snap.StartedAt = &t
	}
	if r, ok := e.Remaining(); ok {
		snap.Remaining = &r
	}
	if e.current < len(e.states) && !e.status.Terminal() {
		v := e.view(e.current)
		snap.Current = &v
	}
	return snap
}

// view builds the student-facing state of question i. The selection is
// restored from the answer cache.
func (e *Engine) view(i int) model.QuestionView {
	st := e.states[i]
	v := model.QuestionView{
		Position:  i,
		Question:  st.forStudent(),
		Answered:  st.Answered,
		Marked:    st.Marked,
		Visited:   st.Visited,
		TimeSpent: st.TimeSpent,
	}
	if sel, ok := e.answers.Get(i); ok {
		v.Selected = &sel
	}
	return v
}
