package service

import (
	"github.com/stemsi/exstem-quiz/internal/engine"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// historyEntry is one undoable edit on a question. Before and after are the
// question's answer or mark state around the edit.
type historyEntry struct {
	kind   model.ActionType
	index  int
	before questionEdit
	after  questionEdit
}

type questionEdit struct {
	answered bool
	selected int
	marked   bool
}

func editOf(st engine.QuestionState) questionEdit {
	return questionEdit{answered: st.Answered, selected: st.Selected, marked: st.Marked}
}

func undoable(t model.ActionType) bool {
	switch t {
	case model.ActionAnswer, model.ActionClear, model.ActionMark, model.ActionUnmark:
		return true
	}
	return false
}

func touchesAnswer(t model.ActionType) bool {
	return t == model.ActionAnswer || t == model.ActionClear
}

// restore drives e until question index matches target. It moves to
// the question first, which counts as navigation, but only once the edit is
// known to be accepted there.
func restore(e *engine.Engine, index int, kind model.ActionType, target questionEdit) error {
	if touchesAnswer(kind) {
		if err := e.CanEdit(index); err != nil {
			return err
		}
	}
	if e.CurrentIndex() != index {
		if err := e.GoTo(index); err != nil {
			return err
		}
	}

	if touchesAnswer(kind) {
		if target.answered {
			return e.Answer(target.selected)
		}
		return e.ClearAnswer()
	}
	if target.marked {
		return e.MarkForReview()
	}
	return e.Unmark()
}
