package engine

import (
	"math/rand/v2"
	"strings"

	"github.com/stemsi/exstem-quiz/internal/collection"
	"github.com/stemsi/exstem-quiz/internal/model"
)

var identityOrder = [model.OptionCount]int{0, 1, 2, 3}

// selectQuestions filters the pool, optionally shuffles it and clamps it to
// the requested count.
func selectQuestions(pool []model.Question, s model.Settings, rng *rand.Rand) ([]model.Question, error) {
	const op = "initialize"

	filtered := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if s.SubjectFilter != "" && !strings.EqualFold(q.Subject, s.SubjectFilter) {
			continue
		}
		if s.DifficultyFilter != "" && q.Difficulty != s.DifficultyFilter {
			continue
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= model.OptionCount {
			return nil, newError(CodeValidation, op, "question %s has correct index %d", q.ID, q.CorrectIndex)
		}
		filtered = append(filtered, q)
	}

	if len(filtered) == 0 {
		return nil, newError(CodeInsufficientQuestions, op, "no question matches the filters")
	}
	if len(filtered) < s.QuestionCount && s.Strict {
		return nil, newError(CodeInsufficientQuestions, op,
			"requested %d questions, pool has %d", s.QuestionCount, len(filtered))
	}

	if s.ShuffleQuestions {
		rng.Shuffle(len(filtered), func(i, j int) {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		})
	}

	return filtered[:min(s.QuestionCount, len(filtered))], nil
}

// buildStates materializes the delivery order through a queue and assigns
// option permutations.
func buildStates(selected []model.Question, s model.Settings, rng *rand.Rand) []QuestionState {
	queue := collection.NewSequentialQueue[model.Question](len(selected))
	for _, q := range selected {
		queue.Push(q)
	}

	states := make([]QuestionState, 0, queue.Len())
	for !queue.Empty() {
		q, _ := queue.Pop()
		order := identityOrder
		if s.ShuffleOptions {
			rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}
		states = append(states, newQuestionState(q, order))
	}
	return states
}
