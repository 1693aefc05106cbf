// Package engine drives a single student's attempt at an exam: a timed,
// navigable, resumable state machine over a fixed sequence of questions.
//
// An Engine is not safe for concurrent use. Hosts serialize every call for a
// session, Tick included, through one goroutine or a per-session mutex.
package engine

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/collection"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// Engine is the exam session state machine:
//
//	Created → Active ⇄ Paused → {TimedOut, Submitted, Cancelled}
type Engine struct {
	id        uuid.UUID
	studentID int
	settings  model.Settings
	status    model.SessionStatus

	states  []QuestionState
	current int
	answers *collection.KeyedCache[int, int]
	nav     *collection.NavigationStack[int]

	answeredCount int
	markedCount   int

	startedAt time.Time
	elapsed   time.Duration
	lastMark  time.Time
	timedOut  bool

	// pending holds an auto-submitted result until the caller takes it.
	pending *model.Result

	clock Clock
	rng   *rand.Rand
	log   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Defaults to SystemClock.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// New creates an engine with no session yet. Call Initialize next.
func New(id uuid.UUID, studentID int, opts ...Option) *Engine {
	e := &Engine{
		id:        id,
		studentID: studentID,
		status:    model.SessionStatusNone,
		answers:   collection.NewKeyedCache[int, int](0),
		nav:       collection.NewNavigationStack[int](),
		clock:     SystemClock{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.log = e.log.With().
		Str("component", "exam_engine").
		Str("session_id", id.String()).
		Int("student_id", studentID).
		Logger()
	return e
}

// Initialize selects and orders the session's questions from pool. It returns
// the number of questions actually used, which is below the requested count
// when the pool is smaller and Strict is off. Legal only once.
func (e *Engine) Initialize(pool []model.Question, s model.Settings) (int, error) {
	const op = "initialize"
	if e.status != model.SessionStatusNone {
		return 0, newError(CodeIllegalState, op, "session already initialized")
	}
	if err := validator.Struct(s); err != nil {
		verr := newError(CodeValidation, op, "invalid settings")
		verr.Fields = validator.TranslateErrors(err)
		return 0, verr
	}

	selected, err := selectQuestions(pool, s, e.rng)
	if err != nil {
		return 0, err
	}

	e.settings = s
	e.states = buildStates(selected, s, e.rng)
	e.current = 0
	e.answeredCount = 0
	e.markedCount = 0
	e.elapsed = 0
	e.answers.Clear()
	e.nav.Clear()
	e.transition(model.SessionStatusCreated)

	if len(e.states) < s.QuestionCount {
		e.log.Warn().
			Int("requested", s.QuestionCount).
			Int("actual", len(e.states)).
			Msg("Question pool smaller than requested, clamped")
	}
	return len(e.states), nil
}

// Start moves Created → Active and starts time accounting.
func (e *Engine) Start() error {
	if e.status != model.SessionStatusCreated {
		return newError(CodeIllegalState, "start", "cannot start from %s", e.statusName())
	}
	now := e.clock.Now()
	e.startedAt = now
	e.lastMark = now
	e.states[0].Visited = true
	e.transition(model.SessionStatusActive)
	return nil
}

// Pause moves Active → Paused. Paused time does not count against the limit.
func (e *Engine) Pause() error {
	const op = "pause"
	if err := e.requireActive(op); err != nil {
		return err
	}
	e.transition(model.SessionStatusPaused)
	return nil
}

// Resume moves Paused → Active.
func (e *Engine) Resume() error {
	const op = "resume"
	e.tick()
	if e.status != model.SessionStatusPaused {
		return e.illegal(op)
	}
	e.lastMark = e.clock.Now()
	e.transition(model.SessionStatusActive)
	return nil
}

// Tick accounts elapsed active time and forces the timeout transition once the
// limit is reached. With AutoSubmit it returns the graded result; the caller
// owns it from then on.
func (e *Engine) Tick() *model.Result {
	e.tick()
	return e.TakeResult()
}

// Submit grades the session and moves it to Submitted. The returned result is
// owned by the caller. When the time limit has just run out under AutoSubmit,
// the timeout result is returned instead.
func (e *Engine) Submit() (*model.Result, error) {
	const op = "submit"
	e.tick()
	if e.pending != nil {
		return e.TakeResult(), nil
	}
	if e.status != model.SessionStatusActive && e.status != model.SessionStatusPaused {
		return nil, e.illegal(op)
	}
	e.finish(model.EndReasonSubmitted)
	return e.TakeResult(), nil
}

// Cancel abandons the session from any non-terminal state and discards answers.
func (e *Engine) Cancel() error {
	if e.status == model.SessionStatusNone || e.status.Terminal() {
		return e.illegal("cancel")
	}
	e.account()
	for i := range e.states {
		e.states[i].Answered = false
		e.states[i].Selected = 0
	}
	e.answers.Clear()
	e.answeredCount = 0
	e.pending = nil
	e.transition(model.SessionStatusCancelled)
	return nil
}

// TakeResult hands over a result produced by an auto-submit, once.
func (e *Engine) TakeResult() *model.Result {
	r := e.pending
	e.pending = nil
	return r
}

// tick is called at the top of every mutating operation.
func (e *Engine) tick() {
	e.account()
	limit := e.settings.TimeLimit()
	if limit <= 0 || e.elapsed < limit {
		return
	}
	if e.status != model.SessionStatusActive && e.status != model.SessionStatusPaused {
		return
	}

	e.timedOut = true
	e.transition(model.SessionStatusTimedOut)
	if e.settings.AutoSubmit {
		e.finish(model.EndReasonTimeout)
	}
}

// account advances active time and charges it to the current question.
func (e *Engine) account() {
	if e.status != model.SessionStatusActive {
		return
	}
	now := e.clock.Now()
	if d := now.Sub(e.lastMark); d > 0 {
		e.elapsed += d
		e.states[e.current].TimeSpent += d
	}
	e.lastMark = now
}

func (e *Engine) finish(reason model.EndReason) {
	r := grade(e.states, e.settings)
	r.SessionID = e.id
	r.StudentID = e.studentID
	r.Duration = e.elapsed
	r.EndReason = reason
	r.CompletedAt = e.clock.Now()
	e.pending = &r
	e.transition(model.SessionStatusSubmitted)

	e.log.Info().
		Float64("score", r.Score).
		Float64("percentage", r.Percentage).
		Str("end_reason", string(reason)).
		Msg("Session graded")
}

func (e *Engine) transition(to model.SessionStatus) {
	e.log.Debug().
		Str("from", e.statusName()).
		Str("to", string(to)).
		Msg("Session transition")
	e.status = to
}

func (e *Engine) requireActive(op string) error {
	e.tick()
	if e.status != model.SessionStatusActive {
		return e.illegal(op)
	}
	return nil
}

func (e *Engine) illegal(op string) *Error {
	if e.timedOut {
		return newError(CodeIllegalState, op, "time limit reached")
	}
	return newError(CodeIllegalState, op, "not allowed while %s", e.statusName())
}

func (e *Engine) statusName() string {
	if e.status == model.SessionStatusNone {
		return "UNINITIALIZED"
	}
	return string(e.status)
}
