package engine

import "github.com/stemsi/exstem-quiz/internal/model"

// Next moves to the following question.
func (e *Engine) Next() error {
	const op = "next"
	if err := e.requireActive(op); err != nil {
		return err
	}
	if e.current >= len(e.states)-1 {
		return newError(CodeAtBoundary, op, "already at the last question")
	}
	e.moveTo(e.current+1, true)
	return nil
}

// Previous returns to the position the student came from. After a jump that
// is the jump's source, not current-1. Illegal in sequential mode.
func (e *Engine) Previous() error {
	const op = "previous"
	if err := e.requireActive(op); err != nil {
		return err
	}
	if e.settings.NavigationMode == model.NavigationSequential {
		return newError(CodeIllegalState, op, "backtracking is disabled in sequential mode")
	}

	if idx, ok := e.nav.Pop(); ok {
		e.current = idx
		e.states[idx].Visited = true
		return nil
	}
	if e.current == 0 {
		return newError(CodeAtBoundary, op, "already at the first question")
	}
	e.current--
	e.states[e.current].Visited = true
	return nil
}

// GoTo jumps to question i.
func (e *Engine) GoTo(i int) error {
	const op = "goto"
	if err := e.requireActive(op); err != nil {
		return err
	}
	if i < 0 || i >= len(e.states) {
		return newError(CodeNoSuchQuestion, op, "index %d outside [0, %d)", i, len(e.states))
	}
	if i == e.current {
		return nil
	}
	if i < e.current && e.settings.NavigationMode == model.NavigationSequential {
		return newError(CodeIllegalState, op, "backtracking is disabled in sequential mode")
	}
	e.moveTo(i, i > e.current)
	return nil
}

// FirstUnanswered jumps to the first unanswered question and returns its index.
// In sequential mode only the current and later questions are considered.
func (e *Engine) FirstUnanswered() (int, error) {
	return e.jumpToFirst("first_unanswered", func(s *QuestionState) bool { return !s.Answered })
}

// FirstMarked jumps to the first question marked for review.
func (e *Engine) FirstMarked() (int, error) {
	return e.jumpToFirst("first_marked", func(s *QuestionState) bool { return s.Marked })
}

func (e *Engine) jumpToFirst(op string, match func(*QuestionState) bool) (int, error) {
	if err := e.requireActive(op); err != nil {
		return e.current, err
	}
	from := 0
	if e.settings.NavigationMode == model.NavigationSequential {
		from = e.current
	}
	for i := from; i < len(e.states); i++ {
		if !match(&e.states[i]) {
			continue
		}
		if i != e.current {
			e.moveTo(i, i > e.current)
		}
		return i, nil
	}
	return e.current, newError(CodeAtBoundary, op, "no matching question")
}

// moveTo records the current position on the navigation stack and moves to i.
// The caller has already validated i and ticked.
func (e *Engine) moveTo(i int, forward bool) {
	if forward {
		e.states[e.current].leftForward = true
	}
	e.nav.Push(e.current)
	e.current = i
	e.states[i].Visited = true
}
