package engine_test

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/engine"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

// testPool builds n questions whose correct option is i%4.
func testPool(n int) []model.Question {
	pool := make([]model.Question, n)
	for i := range pool {
		pool[i] = model.Question{
			ID:           uuid.New(),
			Subject:      "Math",
			Text:         fmt.Sprintf("question %d", i),
			Options:      [model.OptionCount]string{"a", "b", "c", "d"},
			CorrectIndex: i % model.OptionCount,
			Difficulty:   model.DifficultyEasy,
		}
	}
	return pool
}

func baseSettings(n int) model.Settings {
	return model.Settings{
		QuestionCount:     n,
		AllowReview:       true,
		PassingPercentage: 50,
		NavigationMode:    model.NavigationFree,
	}
}

// startSession initializes and starts an engine over testPool(n).
func startSession(t *testing.T, n int, tweak func(*model.Settings)) (*engine.Engine, *engine.ManualClock, []model.Question) {
	t.Helper()
	s := baseSettings(n)
	if tweak != nil {
		tweak(&s)
	}
	clock := engine.NewManualClock(t0)
	e := engine.New(uuid.New(), 42, engine.WithClock(clock), engine.WithRand(rand.New(rand.NewPCG(1, 2))))
	pool := testPool(n)
	actual, err := e.Initialize(pool, s)
	require.NoError(t, err)
	require.Equal(t, n, actual)
	require.NoError(t, e.Start())
	return e, clock, pool
}

func assertCounters(t *testing.T, e *engine.Engine) {
	t.Helper()
	answered, marked := 0, 0
	for i := 0; i < e.Count(); i++ {
		st, err := e.QuestionAt(i)
		require.NoError(t, err)
		if st.Answered {
			answered++
		}
		if st.Marked {
			marked++
		}
	}
	assert.Equal(t, answered, e.AnsweredCount(), "answered counter")
	assert.Equal(t, marked, e.MarkedCount(), "marked counter")
}

func TestInitialize_ClampsToPoolSize(t *testing.T) {
	e := engine.New(uuid.New(), 1)
	s := baseSettings(5)

	actual, err := e.Initialize(testPool(3), s)
	require.NoError(t, err)
	assert.Equal(t, 3, actual)
	assert.Equal(t, 3, e.Count())
	assert.Equal(t, model.SessionStatusCreated, e.Status())
}

func TestInitialize_StrictRejectsSmallPool(t *testing.T) {
	e := engine.New(uuid.New(), 1)
	s := baseSettings(5)
	s.Strict = true

	_, err := e.Initialize(testPool(3), s)
	assert.ErrorIs(t, err, engine.ErrInsufficientQuestions)
	assert.Equal(t, model.SessionStatusNone, e.Status())
}

func TestInitialize_Filters(t *testing.T) {
	pool := testPool(6)
	pool[1].Subject = "Physics"
	pool[4].Subject = "physics"
	pool[4].Difficulty = model.DifficultyHard

	e := engine.New(uuid.New(), 1)
	s := baseSettings(10)
	s.SubjectFilter = "PHYSICS"
	actual, err := e.Initialize(pool, s)
	require.NoError(t, err)
	assert.Equal(t, 2, actual)

	e = engine.New(uuid.New(), 1)
	s.DifficultyFilter = model.DifficultyHard
	actual, err = e.Initialize(pool, s)
	require.NoError(t, err)
	assert.Equal(t, 1, actual)
	st, err := e.QuestionAt(0)
	require.NoError(t, err)
	assert.Equal(t, pool[4].ID, st.Question.ID)

	e = engine.New(uuid.New(), 1)
	s.SubjectFilter = "Biology"
	_, err = e.Initialize(pool, s)
	assert.ErrorIs(t, err, engine.ErrInsufficientQuestions)
}

func TestInitialize_ValidatesSettings(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*model.Settings)
		field string
	}{
		{"zero count", func(s *model.Settings) { s.QuestionCount = 0 }, "question_count"},
		{"negative limit", func(s *model.Settings) { s.TimeLimitSeconds = -1 }, "time_limit_seconds"},
		{"missing mode", func(s *model.Settings) { s.NavigationMode = "" }, "navigation_mode"},
		{"passing above 100", func(s *model.Settings) { s.PassingPercentage = 101 }, "passing_percentage"},
		{"unknown difficulty", func(s *model.Settings) { s.DifficultyFilter = "EXTREME" }, "difficulty_filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSettings(3)
			tt.tweak(&s)
			e := engine.New(uuid.New(), 1)

			_, err := e.Initialize(testPool(3), s)
			require.ErrorIs(t, err, engine.ErrValidation)
			var ee *engine.Error
			require.ErrorAs(t, err, &ee)
			assert.Contains(t, ee.Fields, tt.field)
			assert.Equal(t, model.SessionStatusNone, e.Status())
		})
	}
}

func TestInitialize_RejectsBadCorrectIndex(t *testing.T) {
	pool := testPool(3)
	pool[2].CorrectIndex = 4

	_, err := engine.New(uuid.New(), 1).Initialize(pool, baseSettings(3))
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestInitialize_OnlyOnce(t *testing.T) {
	e, _, pool := startSession(t, 3, nil)
	_, err := e.Initialize(pool, baseSettings(3))
	assert.ErrorIs(t, err, engine.ErrIllegalState)
}

func TestLifecycle_IllegalBeforeStart(t *testing.T) {
	e := engine.New(uuid.New(), 1)
	assert.ErrorIs(t, e.Start(), engine.ErrIllegalState)

	_, err := e.Initialize(testPool(3), baseSettings(3))
	require.NoError(t, err)
	assert.ErrorIs(t, e.Next(), engine.ErrIllegalState)
	assert.ErrorIs(t, e.Answer(0), engine.ErrIllegalState)
	assert.ErrorIs(t, e.Pause(), engine.ErrIllegalState)
	_, err = e.Submit()
	assert.ErrorIs(t, err, engine.ErrIllegalState)

	require.NoError(t, e.Start())
	assert.ErrorIs(t, e.Start(), engine.ErrIllegalState)
	st, err := e.Current()
	require.NoError(t, err)
	assert.True(t, st.Visited)
}

func TestCounters_StayConsistent(t *testing.T) {
	e, _, _ := startSession(t, 6, nil)

	steps := []func() error{
		func() error { return e.Answer(1) },
		func() error { return e.MarkForReview() },
		func() error { return e.Answer(2) },
		func() error { return e.MarkForReview() },
		func() error { return e.GoTo(4) },
		func() error { return e.MarkForReview() },
		func() error { return e.Answer(0) },
		func() error { return e.Unmark() },
		func() error { return e.Unmark() },
		func() error { return e.GoTo(0) },
		func() error { return e.Unmark() },
		func() error { return e.ClearAnswer() },
		func() error { return e.Next() },
		func() error { return e.Answer(3) },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertCounters(t, e)
	}
	assert.Equal(t, 2, e.AnsweredCount())
	assert.Equal(t, 0, e.MarkedCount())
}

func TestGoTo_EveryIndex(t *testing.T) {
	e, _, pool := startSession(t, 7, nil)

	for i := range pool {
		require.NoError(t, e.GoTo(i))
		st, err := e.Current()
		require.NoError(t, err)
		assert.Equal(t, i, e.CurrentIndex())
		assert.Equal(t, pool[i].ID, st.Question.ID)
	}
}

func TestGoTo_OutOfRange(t *testing.T) {
	e, _, _ := startSession(t, 3, nil)
	require.NoError(t, e.GoTo(1))

	for _, i := range []int{-1, 3, 100} {
		err := e.GoTo(i)
		assert.ErrorIs(t, err, engine.ErrNoSuchQuestion)
		assert.Equal(t, 1, e.CurrentIndex())
	}
}

func TestPrevious_ReturnsToJumpSource(t *testing.T) {
	e, _, _ := startSession(t, 6, nil)

	require.NoError(t, e.GoTo(3))
	require.NoError(t, e.Next())
	assert.Equal(t, 4, e.CurrentIndex())

	require.NoError(t, e.Previous())
	assert.Equal(t, 3, e.CurrentIndex(), "previous must return to the exact prior position")

	require.NoError(t, e.Previous())
	assert.Equal(t, 0, e.CurrentIndex())

	err := e.Previous()
	assert.True(t, engine.IsBoundary(err))
	assert.Equal(t, 0, e.CurrentIndex())
}

func TestNext_AtLastQuestion(t *testing.T) {
	e, _, _ := startSession(t, 2, nil)
	require.NoError(t, e.Next())

	err := e.Next()
	assert.ErrorIs(t, err, engine.ErrAtBoundary)
	assert.Equal(t, 1, e.CurrentIndex())
}

func TestSequentialMode(t *testing.T) {
	e, _, _ := startSession(t, 5, func(s *model.Settings) {
		s.NavigationMode = model.NavigationSequential
	})

	require.NoError(t, e.Answer(0))
	require.NoError(t, e.Next())
	require.NoError(t, e.Next())
	assert.ErrorIs(t, e.Previous(), engine.ErrIllegalState)
	assert.ErrorIs(t, e.GoTo(0), engine.ErrIllegalState)
	assert.Equal(t, 2, e.CurrentIndex())

	// q1 is unanswered but behind us; the search only looks forward.
	idx, err := e.FirstUnanswered()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	require.NoError(t, e.GoTo(4))
	assert.Equal(t, 4, e.CurrentIndex())
}

func TestFirstUnansweredAndMarked(t *testing.T) {
	e, _, _ := startSession(t, 5, nil)

	_, err := e.FirstMarked()
	assert.ErrorIs(t, err, engine.ErrAtBoundary)

	require.NoError(t, e.Answer(0))
	require.NoError(t, e.Next())
	require.NoError(t, e.Answer(1))
	require.NoError(t, e.GoTo(3))
	require.NoError(t, e.MarkForReview())

	idx, err := e.FirstUnanswered()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 2, e.CurrentIndex())

	idx, err = e.FirstMarked()
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	require.NoError(t, e.Previous())
	assert.Equal(t, 2, e.CurrentIndex())
}

func TestAnswer_RejectsOutOfRange(t *testing.T) {
	e, _, _ := startSession(t, 2, nil)

	for _, v := range []int{-1, 4} {
		assert.ErrorIs(t, e.Answer(v), engine.ErrValidation)
	}
	st, err := e.Current()
	require.NoError(t, err)
	assert.False(t, st.Answered)
	assert.Equal(t, 0, e.AnsweredCount())
}

func TestAnswer_ReviewRule(t *testing.T) {
	e, _, _ := startSession(t, 3, func(s *model.Settings) { s.AllowReview = false })

	require.NoError(t, e.Answer(1))
	require.NoError(t, e.Answer(2), "changing an answer before leaving is allowed")
	require.NoError(t, e.Next())
	require.NoError(t, e.Answer(0))
	require.NoError(t, e.Previous())
	assert.Equal(t, 0, e.CurrentIndex())

	assert.ErrorIs(t, e.Answer(3), engine.ErrReviewNotAllowed)
	assert.ErrorIs(t, e.ClearAnswer(), engine.ErrReviewNotAllowed)
	st, err := e.Current()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Selected)

	// q1 was left backwards, so it is still open.
	require.NoError(t, e.Next())
	require.NoError(t, e.Answer(3))
}

func TestAnswer_ReviewAllowed(t *testing.T) {
	e, _, _ := startSession(t, 3, nil)

	require.NoError(t, e.Answer(1))
	require.NoError(t, e.Next())
	require.NoError(t, e.Previous())
	require.NoError(t, e.Answer(3))
	assert.Equal(t, 1, e.AnsweredCount())
}

func TestScoring_WithoutNegativeMarking(t *testing.T) {
	e, _, _ := startSession(t, 5, nil)

	// correct options by position: 0 1 2 3 0
	answers := map[int]int{0: 0, 1: 3, 2: 2, 4: 0}
	for i := 0; i < 5; i++ {
		require.NoError(t, e.GoTo(i))
		if v, ok := answers[i]; ok {
			require.NoError(t, e.Answer(v))
		}
	}

	res, err := e.Submit()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InDelta(t, 3.0, res.Score, 1e-9)
	assert.InDelta(t, 60.0, res.Percentage, 1e-9)
	assert.Equal(t, 5, res.TotalQuestions)
	assert.Equal(t, 3, res.Correct)
	assert.Equal(t, 1, res.Wrong)
	assert.Equal(t, 1, res.Unanswered)
	assert.Equal(t, []bool{true, false, true, false, true}, res.Correctness)
	assert.True(t, res.Passed)
	assert.Equal(t, model.EndReasonSubmitted, res.EndReason)
	assert.Equal(t, model.SessionStatusSubmitted, e.Status())
	assert.Nil(t, res.Outcomes[3].Selected)
	require.NotNil(t, res.Outcomes[1].Selected)
	assert.Equal(t, 3, *res.Outcomes[1].Selected)
}

func TestScoring_NegativeMarking(t *testing.T) {
	e, _, _ := startSession(t, 4, func(s *model.Settings) {
		s.NegativeMarking = true
		s.NegativeMarkValue = 0.25
	})

	require.NoError(t, e.Answer(0))
	require.NoError(t, e.Next())
	require.NoError(t, e.Answer(1))
	require.NoError(t, e.Next())
	require.NoError(t, e.Answer(0))

	res, err := e.Submit()
	require.NoError(t, err)
	assert.InDelta(t, 1.75, res.Score, 1e-9)
	assert.InDelta(t, 43.75, res.Percentage, 1e-9)
	assert.False(t, res.Passed)
}

func TestScoring_NegativeScoreIsNotClamped(t *testing.T) {
	e, _, _ := startSession(t, 2, func(s *model.Settings) {
		s.NegativeMarking = true
		s.NegativeMarkValue = 1
	})

	require.NoError(t, e.Answer(3))
	require.NoError(t, e.Next())
	require.NoError(t, e.Answer(3))

	res, err := e.Submit()
	require.NoError(t, err)
	assert.InDelta(t, -2.0, res.Score, 1e-9)
	assert.InDelta(t, -100.0, res.Percentage, 1e-9)
}

func TestTimeout_AutoSubmit(t *testing.T) {
	e, clock, _ := startSession(t, 3, func(s *model.Settings) {
		s.TimeLimitSeconds = 1
		s.AutoSubmit = true
	})
	require.NoError(t, e.Answer(0))

	clock.Advance(500 * time.Millisecond)
	assert.Nil(t, e.Tick())
	assert.Equal(t, model.SessionStatusActive, e.Status())

	clock.Advance(600 * time.Millisecond)
	res := e.Tick()
	require.NotNil(t, res)
	assert.Equal(t, model.SessionStatusSubmitted, e.Status())
	assert.Equal(t, model.EndReasonTimeout, res.EndReason)
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 1100*time.Millisecond, res.Duration)

	assert.Nil(t, e.Tick(), "result is handed over once")
	_, err := e.Submit()
	assert.ErrorIs(t, err, engine.ErrIllegalState)
}

func TestSubmit_AtTimeLimitReturnsTimeoutResult(t *testing.T) {
	e, clock, _ := startSession(t, 3, func(s *model.Settings) {
		s.TimeLimitSeconds = 1
		s.AutoSubmit = true
	})
	require.NoError(t, e.Answer(0))

	clock.Advance(2 * time.Second)
	res, err := e.Submit()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, model.EndReasonTimeout, res.EndReason)
	assert.Equal(t, 2*time.Second, res.Duration)
	assert.Equal(t, model.SessionStatusSubmitted, e.Status())
	assert.Nil(t, e.TakeResult(), "result is handed over once")
}

func TestCanEdit(t *testing.T) {
	e, _, _ := startSession(t, 3, func(s *model.Settings) { s.AllowReview = false })
	require.NoError(t, e.Answer(0))
	require.NoError(t, e.Next())

	assert.ErrorIs(t, e.CanEdit(0), engine.ErrReviewNotAllowed)
	assert.NoError(t, e.CanEdit(2))
	assert.ErrorIs(t, e.CanEdit(3), engine.ErrNoSuchQuestion)
	assert.Equal(t, 1, e.CurrentIndex())
}

func TestTimeout_WithoutAutoSubmit(t *testing.T) {
	e, clock, _ := startSession(t, 3, func(s *model.Settings) { s.TimeLimitSeconds = 1 })

	clock.Advance(2 * time.Second)
	assert.Nil(t, e.Tick())
	assert.Equal(t, model.SessionStatusTimedOut, e.Status())

	_, err := e.Submit()
	assert.ErrorIs(t, err, engine.ErrIllegalState)
	assert.ErrorIs(t, e.Next(), engine.ErrIllegalState)
	assert.ErrorIs(t, e.Cancel(), engine.ErrIllegalState)
}

func TestTimeout_DetectedByMutatingCall(t *testing.T) {
	e, clock, _ := startSession(t, 3, func(s *model.Settings) {
		s.TimeLimitSeconds = 1
		s.AutoSubmit = true
	})

	clock.Advance(time.Second)
	err := e.Answer(0)
	assert.ErrorIs(t, err, engine.ErrIllegalState)
	assert.Equal(t, model.SessionStatusSubmitted, e.Status())

	res := e.TakeResult()
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Correct)
}

func TestPause_ExcludesTime(t *testing.T) {
	e, clock, _ := startSession(t, 3, func(s *model.Settings) { s.TimeLimitSeconds = 10 })

	clock.Advance(3 * time.Second)
	require.NoError(t, e.Pause())
	clock.Advance(time.Hour)
	assert.Nil(t, e.Tick())
	assert.Equal(t, model.SessionStatusPaused, e.Status())
	assert.Equal(t, 3*time.Second, e.Elapsed())

	assert.ErrorIs(t, e.Answer(0), engine.ErrIllegalState)
	assert.ErrorIs(t, e.Pause(), engine.ErrIllegalState)

	require.NoError(t, e.Resume())
	clock.Advance(3 * time.Second)
	assert.Equal(t, 6*time.Second, e.Elapsed())
	remaining, ok := e.Remaining()
	require.True(t, ok)
	assert.Equal(t, 4*time.Second, remaining)
}

func TestSubmit_FromPaused(t *testing.T) {
	e, _, _ := startSession(t, 2, nil)
	require.NoError(t, e.Answer(0))
	require.NoError(t, e.Pause())

	res, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Correct)
}

func TestTimeSpent_PerQuestion(t *testing.T) {
	e, clock, _ := startSession(t, 3, nil)

	clock.Advance(2 * time.Second)
	require.NoError(t, e.Next())
	clock.Advance(3 * time.Second)
	require.NoError(t, e.Pause())
	clock.Advance(time.Minute)
	require.NoError(t, e.Resume())
	require.NoError(t, e.Previous())
	clock.Advance(time.Second)

	res, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, res.Outcomes[0].TimeSpent)
	assert.Equal(t, 3*time.Second, res.Outcomes[1].TimeSpent)
	assert.Equal(t, time.Duration(0), res.Outcomes[2].TimeSpent)
	assert.Equal(t, 6*time.Second, res.Duration)
}

func TestCancel_DiscardsAnswers(t *testing.T) {
	e, _, _ := startSession(t, 3, nil)
	require.NoError(t, e.Answer(0))
	require.NoError(t, e.Next())
	require.NoError(t, e.Answer(1))

	require.NoError(t, e.Cancel())
	assert.Equal(t, model.SessionStatusCancelled, e.Status())
	assert.Equal(t, 0, e.AnsweredCount())
	assertCounters(t, e)

	res, err := e.Submit()
	assert.Nil(t, res)
	assert.ErrorIs(t, err, engine.ErrIllegalState)
	assert.ErrorIs(t, e.Cancel(), engine.ErrIllegalState)
}

func TestCancel_FromCreated(t *testing.T) {
	e := engine.New(uuid.New(), 1)
	assert.ErrorIs(t, e.Cancel(), engine.ErrIllegalState)

	_, err := e.Initialize(testPool(2), baseSettings(2))
	require.NoError(t, err)
	require.NoError(t, e.Cancel())
	assert.ErrorIs(t, e.Start(), engine.ErrIllegalState)
}

func TestShuffle_KeepsGradingConsistent(t *testing.T) {
	pool := testPool(8)
	for i := range pool {
		pool[i].Options = [model.OptionCount]string{
			fmt.Sprintf("%d-a", i), fmt.Sprintf("%d-b", i), fmt.Sprintf("%d-c", i), fmt.Sprintf("%d-d", i),
		}
	}
	s := baseSettings(8)
	s.ShuffleQuestions = true
	s.ShuffleOptions = true

	e := engine.New(uuid.New(), 1, engine.WithRand(rand.New(rand.NewPCG(7, 11))), engine.WithClock(engine.NewManualClock(t0)))
	_, err := e.Initialize(pool, s)
	require.NoError(t, err)
	require.NoError(t, e.Start())

	var ids []uuid.UUID
	for i := 0; i < e.Count(); i++ {
		require.NoError(t, e.GoTo(i))
		st, err := e.Current()
		require.NoError(t, err)
		ids = append(ids, st.Question.ID)

		want := st.Question.Options[st.Question.CorrectIndex]
		display := st.DisplayOptions()
		for d, text := range display {
			if text == want {
				require.NoError(t, e.Answer(d))
				assert.Equal(t, st.Question.CorrectIndex, st.OriginalOption(d))
			}
		}
	}

	poolIDs := make([]uuid.UUID, len(pool))
	for i, q := range pool {
		poolIDs[i] = q.ID
	}
	assert.ElementsMatch(t, poolIDs, ids)

	res, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, 8, res.Correct)
	for _, o := range res.Outcomes {
		require.NotNil(t, o.Selected)
	}
}

func TestSnapshot(t *testing.T) {
	e, clock, _ := startSession(t, 4, func(s *model.Settings) { s.TimeLimitSeconds = 60 })

	require.NoError(t, e.GoTo(2))
	require.NoError(t, e.Answer(1))
	require.NoError(t, e.MarkForReview())
	clock.Advance(15 * time.Second)

	snap := e.Snapshot()
	assert.Equal(t, model.SessionStatusActive, snap.Status)
	assert.Equal(t, 2, snap.CurrentIndex)
	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 1, snap.AnsweredCount)
	assert.Equal(t, 1, snap.MarkedCount)
	assert.Equal(t, 15*time.Second, snap.Elapsed)
	require.NotNil(t, snap.Remaining)
	assert.Equal(t, 45*time.Second, *snap.Remaining)
	require.NotNil(t, snap.StartedAt)
	assert.Equal(t, t0, *snap.StartedAt)
	require.NotNil(t, snap.Current)
	require.NotNil(t, snap.Current.Selected)
	assert.Equal(t, 1, *snap.Current.Selected)
	assert.True(t, snap.Current.Marked)

	// Snapshot is read-only: elapsed is not folded into the session.
	assert.Equal(t, model.SessionStatusActive, e.Status())

	_, err := e.Submit()
	require.NoError(t, err)
	assert.Nil(t, e.Snapshot().Current)
}

func TestSnapshot_Unbounded(t *testing.T) {
	e, _, _ := startSession(t, 2, nil)
	assert.Nil(t, e.Snapshot().Remaining)
	_, ok := e.Remaining()
	assert.False(t, ok)
}
