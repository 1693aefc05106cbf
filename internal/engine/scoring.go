package engine

import (
	"github.com/stemsi/exstem-quiz/internal/model"
)

// grade scores the states. Unanswered questions neither score nor cost.
// Negative scores and percentages are reported as computed.
func grade(states []QuestionState, s model.Settings) model.Result {
	r := model.Result{
		TotalQuestions: len(states),
		Correctness:    make([]bool, len(states)),
		Outcomes:       make([]model.QuestionOutcome, len(states)),
	}

	for i, st := range states {
		out := model.QuestionOutcome{
			QuestionID: st.Question.ID,
			Position:   i,
			Marked:     st.Marked,
			TimeSpent:  st.TimeSpent,
		}
		switch {
		case !st.Answered:
			r.Unanswered++
		case st.Correct():
			r.Correct++
			out.Correct = true
		default:
			r.Wrong++
		}
		if st.Answered {
			sel := st.OriginalOption(st.Selected)
			out.Selected = &sel
		}
		r.Correctness[i] = out.Correct
		r.Outcomes[i] = out
	}

	r.Score = float64(r.Correct)
	if s.NegativeMarking {
		r.Score -= s.NegativeMarkValue * float64(r.Wrong)
	}
	if r.TotalQuestions > 0 {
		r.Percentage = 100 * r.Score / float64(r.TotalQuestions)
	}
	r.Passed = r.Percentage >= s.PassingPercentage
	return r
}
