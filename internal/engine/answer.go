package engine

import "github.com/stemsi/exstem-quiz/internal/model"

// Answer records option v (display numbering, 0..3) for the current question.
func (e *Engine) Answer(v int) error {
	const op = "answer"
	if err := e.requireActive(op); err != nil {
		return err
	}
	if v < 0 || v >= model.OptionCount {
		return newError(CodeValidation, op, "option %d outside [0, %d)", v, model.OptionCount)
	}
	st := &e.states[e.current]
	if err := e.checkReview(op, e.current); err != nil {
		return err
	}

	if err := e.answers.Put(e.current, v); err != nil {
		return err
	}
	if !st.Answered {
		e.answeredCount++
	}
	st.Selected = v
	st.Answered = true
	return nil
}

// ClearAnswer withdraws the current question's answer. Same review rule as Answer.
func (e *Engine) ClearAnswer() error {
	const op = "clear_answer"
	if err := e.requireActive(op); err != nil {
		return err
	}
	st := &e.states[e.current]
	if !st.Answered {
		return nil
	}
	if err := e.checkReview(op, e.current); err != nil {
		return err
	}

	e.answers.Remove(e.current)
	e.answeredCount--
	st.Answered = false
	st.Selected = 0
	return nil
}

// MarkForReview flags the current question. Marking twice is a no-op.
func (e *Engine) MarkForReview() error {
	if err := e.requireActive("mark"); err != nil {
		return err
	}
	if st := &e.states[e.current]; !st.Marked {
		st.Marked = true
		e.markedCount++
	}
	return nil
}

// Unmark clears the review flag on the current question.
func (e *Engine) Unmark() error {
	if err := e.requireActive("unmark"); err != nil {
		return err
	}
	if st := &e.states[e.current]; st.Marked {
		st.Marked = false
		e.markedCount--
	}
	return nil
}

// CanEdit reports whether question i's answer could be changed after moving
// to it. Nothing moves.
func (e *Engine) CanEdit(i int) error {
	const op = "edit"
	if err := e.requireActive(op); err != nil {
		return err
	}
	if i < 0 || i >= len(e.states) {
		return newError(CodeNoSuchQuestion, op, "index %d outside [0, %d)", i, len(e.states))
	}
	if i < e.current && e.settings.NavigationMode == model.NavigationSequential {
		return newError(CodeIllegalState, op, "backtracking is disabled in sequential mode")
	}
	return e.checkReview(op, i)
}

// checkReview rejects changing question i's answer once it was left forward,
// unless review is allowed.
func (e *Engine) checkReview(op string, i int) error {
	st := &e.states[i]
	if e.settings.AllowReview || !st.Answered || !st.leftForward {
		return nil
	}
	return newError(CodeReviewNotAllowed, op, "question %d can no longer be changed", i)
}
