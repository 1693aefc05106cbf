package engine

import (
	"time"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// QuestionState is the per-question progress record of a session.
// Values returned by the engine are copies.
type QuestionState struct {
	Question model.Question
	// Selected is the chosen option in display numbering; valid only when Answered.
	Selected  int
	Answered  bool
	Marked    bool
	Visited   bool
	TimeSpent time.Duration

	// order maps display position to the question's original option index.
	order       [model.OptionCount]int
	leftForward bool
}

func newQuestionState(q model.Question, order [model.OptionCount]int) QuestionState {
	return QuestionState{Question: q, order: order}
}

// DisplayOptions returns the options in the order the student sees them.
func (s QuestionState) DisplayOptions() [model.OptionCount]string {
	var out [model.OptionCount]string
	for i, orig := range s.order {
		out[i] = s.Question.Options[orig]
	}
	return out
}

// OriginalOption converts a display index to the question's own numbering.
func (s QuestionState) OriginalOption(display int) int {
	return s.order[display]
}

// Correct reports whether the recorded answer matches the key.
func (s QuestionState) Correct() bool {
	return s.Answered && s.order[s.Selected] == s.Question.CorrectIndex
}

func (s QuestionState) forStudent() model.QuestionForStudent {
	return model.QuestionForStudent{
		ID:         s.Question.ID,
		Subject:    s.Question.Subject,
		Text:       s.Question.Text,
		Options:    s.DisplayOptions(),
		Difficulty: s.Question.Difficulty,
	}
}
