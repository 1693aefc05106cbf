package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/collection"
	"github.com/stemsi/exstem-quiz/internal/engine"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyActive = errors.New("student already has a live session")
	ErrResultNotFound       = errors.New("result not found")
	ErrInvalidAction        = errors.New("invalid action")
)

// QuestionStore loads the question pool for a new session.
type QuestionStore interface {
	ListPool(ctx context.Context, filter model.PoolFilter) ([]model.Question, error)
}

// ProgressStore mirrors live session progress outside the process.
type ProgressStore interface {
	Claim(ctx context.Context, studentID int, sessionID uuid.UUID, ttl time.Duration) (bool, error)
	MarkStarted(ctx context.Context, sessionID uuid.UUID, at time.Time, ttl time.Duration) error
	SaveAnswer(ctx context.Context, sessionID uuid.UUID, position, option int) error
	ClearAnswer(ctx context.Context, sessionID uuid.UUID, position int) error
	Release(ctx context.Context, sessionID uuid.UUID, studentID int) error
}

// ResultPublisher hands a graded result over for persistence.
type ResultPublisher interface {
	Publish(ctx context.Context, r *model.Result) error
}

// ResultReader loads results that are no longer held in memory.
type ResultReader interface {
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.Result, error)
}

// claimTTL bounds how long an unbounded session keeps a student's claim.
const claimTTL = 12 * time.Hour

// liveSession is one engine plus the host state around it. mu serializes
// every call into the engine, ticks included.
type liveSession struct {
	mu      sync.Mutex
	engine  *engine.Engine
	history *collection.History[historyEntry]

	result      *model.Result
	published   bool
	released    bool
	finishedAt  time.Time
	subscribers map[chan model.SessionView]struct{}
}

func (ls *liveSession) settled() bool {
	return ls.released && (ls.result == nil || ls.published)
}

// ExamSessionService hosts exam session engines.
type ExamSessionService struct {
	questions QuestionStore
	progress  ProgressStore
	results   ResultPublisher
	stored    ResultReader
	defaults  model.Settings
	retention time.Duration
	clock     engine.Clock
	log       zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*liveSession
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	questions QuestionStore,
	progress ProgressStore,
	results ResultPublisher,
	stored ResultReader,
	defaults model.Settings,
	retention time.Duration,
	clock engine.Clock,
	log zerolog.Logger,
) *ExamSessionService {
	if clock == nil {
		clock = engine.SystemClock{}
	}
	return &ExamSessionService{
		questions: questions,
		progress:  progress,
		results:   results,
		stored:    stored,
		defaults:  defaults,
		retention: retention,
		clock:     clock,
		log:       log.With().Str("component", "exam_session_service").Logger(),
		sessions:  make(map[uuid.UUID]*liveSession),
	}
}

// StartSession builds, initializes and starts a session for the student.
func (s *ExamSessionService) StartSession(ctx context.Context, req model.StartSessionRequest) (*model.StartSessionResult, error) {
	settings := s.defaults
	if req.Settings != nil {
		settings = *req.Settings
	}

	id := uuid.New()
	ttl := claimTTL
	if limit := settings.TimeLimit(); limit > 0 {
		ttl = limit + s.retention
	}

	ok, err := s.progress.Claim(ctx, req.StudentID, id, ttl)
	if err != nil {
		return nil, fmt.Errorf("claim session: %w", err)
	}
	if !ok {
		return nil, ErrSessionAlreadyActive
	}

	res, err := s.start(ctx, id, req.StudentID, settings, ttl)
	if err != nil {
		if relErr := s.progress.Release(ctx, id, req.StudentID); relErr != nil {
			s.log.Warn().Err(relErr).Str("session_id", id.String()).Msg("Failed to release claim")
		}
		return nil, err
	}
	return res, nil
}

func (s *ExamSessionService) start(ctx context.Context, id uuid.UUID, studentID int, settings model.Settings, ttl time.Duration) (*model.StartSessionResult, error) {
	pool, err := s.questions.ListPool(ctx, settings.Filter())
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}

	e := engine.New(id, studentID, engine.WithClock(s.clock), engine.WithLogger(s.log))
	actual, err := e.Initialize(pool, settings)
	if err != nil {
		return nil, err
	}
	if err := e.Start(); err != nil {
		return nil, err
	}

	startedAt, _ := e.StartedAt()
	if err := s.progress.MarkStarted(ctx, id, startedAt, ttl); err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Failed to record session start")
	}

	ls := &liveSession{
		engine:      e,
		history:     collection.NewHistory[historyEntry](),
		subscribers: make(map[chan model.SessionView]struct{}),
	}
	s.mu.Lock()
	s.sessions[id] = ls
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", id.String()).
		Int("student_id", studentID).
		Int("requested", settings.QuestionCount).
		Int("actual", actual).
		Msg("Session started")

	return &model.StartSessionResult{
		Snapshot:  e.Snapshot(),
		Requested: settings.QuestionCount,
		Actual:    actual,
	}, nil
}

// Apply runs one action against a session.
func (s *ExamSessionService) Apply(ctx context.Context, sessionID uuid.UUID, req model.ActionRequest) (*model.ActionOutcome, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	out := &model.ActionOutcome{}
	err = s.dispatch(ctx, ls, req)
	if engine.IsBoundary(err) {
		out.AtBoundary = true
		err = nil
	}

	s.settle(ctx, ls)
	out.Snapshot = ls.engine.Snapshot()
	out.Result = ls.result
	s.notify(ls)
	return out, err
}

func (s *ExamSessionService) dispatch(ctx context.Context, ls *liveSession, req model.ActionRequest) error {
	if undoable(req.Type) {
		return s.edit(ctx, ls, req)
	}

	e := ls.engine
	switch req.Type {
	case model.ActionNext:
		return e.Next()
	case model.ActionPrevious:
		return e.Previous()
	case model.ActionGoTo:
		if req.Index == nil {
			return fmt.Errorf("%w: goto requires index", ErrInvalidAction)
		}
		return e.GoTo(*req.Index)
	case model.ActionFirstUnanswered:
		_, err := e.FirstUnanswered()
		return err
	case model.ActionFirstMarked:
		_, err := e.FirstMarked()
		return err
	case model.ActionPause:
		return e.Pause()
	case model.ActionResume:
		return e.Resume()
	case model.ActionSubmit:
		res, err := e.Submit()
		if err != nil {
			return err
		}
		ls.result = res
		return nil
	case model.ActionCancel:
		return e.Cancel()
	case model.ActionUndo:
		return s.undo(ctx, ls)
	case model.ActionRedo:
		return s.redo(ctx, ls)
	case model.ActionState:
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, req.Type)
	}
}

// edit applies an undoable action and records it in the session history.
func (s *ExamSessionService) edit(ctx context.Context, ls *liveSession, req model.ActionRequest) error {
	e := ls.engine
	before, err := e.Current()
	if err != nil {
		return err
	}
	idx := e.CurrentIndex()

	switch req.Type {
	case model.ActionAnswer:
		if req.Option == nil {
			return fmt.Errorf("%w: answer requires option", ErrInvalidAction)
		}
		err = e.Answer(*req.Option)
	case model.ActionClear:
		err = e.ClearAnswer()
	case model.ActionMark:
		err = e.MarkForReview()
	case model.ActionUnmark:
		err = e.Unmark()
	}
	if err != nil {
		return err
	}

	after, _ := e.QuestionAt(idx)
	if editOf(before) != editOf(after) {
		ls.history.Execute(historyEntry{kind: req.Type, index: idx, before: editOf(before), after: editOf(after)})
	}
	if touchesAnswer(req.Type) {
		s.autosave(ctx, ls, idx)
	}
	return nil
}

func (s *ExamSessionService) undo(ctx context.Context, ls *liveSession) error {
	entry, ok := ls.history.Undo()
	if !ok {
		return engine.ErrAtBoundary
	}
	if err := restore(ls.engine, entry.index, entry.kind, entry.before); err != nil {
		ls.history.Redo()
		return err
	}
	if touchesAnswer(entry.kind) {
		s.autosave(ctx, ls, entry.index)
	}
	return nil
}

func (s *ExamSessionService) redo(ctx context.Context, ls *liveSession) error {
	entry, ok := ls.history.Redo()
	if !ok {
		return engine.ErrAtBoundary
	}
	if err := restore(ls.engine, entry.index, entry.kind, entry.after); err != nil {
		ls.history.Undo()
		return err
	}
	if touchesAnswer(entry.kind) {
		s.autosave(ctx, ls, entry.index)
	}
	return nil
}

// autosave mirrors question idx's answer to the progress store. Failures are
// logged; the engine stays authoritative.
func (s *ExamSessionService) autosave(ctx context.Context, ls *liveSession, idx int) {
	st, err := ls.engine.QuestionAt(idx)
	if err != nil {
		return
	}
	id := ls.engine.ID()
	if st.Answered {
		err = s.progress.SaveAnswer(ctx, id, idx, st.OriginalOption(st.Selected))
	} else {
		err = s.progress.ClearAnswer(ctx, id, idx)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Int("position", idx).Msg("Autosave failed")
	}
}

// settle finishes the host side of a session once its engine is terminal:
// it collects an auto-submitted result, publishes it and releases progress.
// Safe to call repeatedly; failed steps are retried on the next call.
func (s *ExamSessionService) settle(ctx context.Context, ls *liveSession) {
	e := ls.engine
	if r := e.TakeResult(); r != nil {
		ls.result = r
	}
	if !e.Status().Terminal() {
		return
	}
	if ls.finishedAt.IsZero() {
		ls.finishedAt = s.clock.Now()
		s.log.Info().
			Str("session_id", e.ID().String()).
			Str("status", string(e.Status())).
			Msg("Session finished")
	}

	if ls.result != nil && !ls.published {
		if err := s.results.Publish(ctx, ls.result); err != nil {
			s.log.Error().Err(err).Str("session_id", e.ID().String()).Msg("Failed to publish result, will retry")
			return
		}
		ls.published = true
	}
	if !ls.released {
		if err := s.progress.Release(ctx, e.ID(), e.StudentID()); err != nil {
			s.log.Warn().Err(err).Str("session_id", e.ID().String()).Msg("Failed to release progress")
			return
		}
		ls.released = true
	}
}

// Snapshot returns a session's current state.
func (s *ExamSessionService) Snapshot(_ context.Context, sessionID uuid.UUID) (*model.SessionView, error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return &model.SessionView{Snapshot: ls.engine.Snapshot(), Result: ls.result}, nil
}

// Result returns a session's graded result, from memory while the session is
// retained and from storage afterwards.
func (s *ExamSessionService) Result(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	if ls, err := s.lookup(sessionID); err == nil {
		ls.mu.Lock()
		r := ls.result
		ls.mu.Unlock()
		if r != nil {
			return r, nil
		}
	}

	r, err := s.stored.GetBySession(ctx, sessionID)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	return r, nil
}

// TickAll ticks every live session, settles the ones that finished and evicts
// finished sessions past the retention window. It returns how many sessions
// finished during this pass.
func (s *ExamSessionService) TickAll(ctx context.Context) int {
	s.mu.RLock()
	live := make(map[uuid.UUID]*liveSession, len(s.sessions))
	for id, ls := range s.sessions {
		live[id] = ls
	}
	s.mu.RUnlock()

	now := s.clock.Now()
	finished := 0
	var expired []uuid.UUID

	for id, ls := range live {
		ls.mu.Lock()
		wasTerminal := ls.engine.Status().Terminal()
		if !wasTerminal {
			if r := ls.engine.Tick(); r != nil {
				ls.result = r
			}
		}
		s.settle(ctx, ls)
		if !wasTerminal && ls.engine.Status().Terminal() {
			finished++
			s.notify(ls)
		}
		if wasTerminal && ls.settled() && now.Sub(ls.finishedAt) >= s.retention {
			expired = append(expired, id)
			s.closeSubscribers(ls)
		}
		ls.mu.Unlock()
	}

	if len(expired) > 0 {
		s.mu.Lock()
		for _, id := range expired {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		s.log.Debug().Int("count", len(expired)).Msg("Evicted finished sessions")
	}
	return finished
}

// LiveCount returns the number of sessions held in memory.
func (s *ExamSessionService) LiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Subscribe returns a channel receiving the session's state after every
// change. The returned func unsubscribes; the channel is closed when the
// session is evicted.
func (s *ExamSessionService) Subscribe(sessionID uuid.UUID) (<-chan model.SessionView, func(), error) {
	ls, err := s.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan model.SessionView, 8)

	ls.mu.Lock()
	ls.subscribers[ch] = struct{}{}
	ls.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ls.mu.Lock()
			if _, ok := ls.subscribers[ch]; ok {
				delete(ls.subscribers, ch)
				close(ch)
			}
			ls.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// notify pushes the current state to subscribers. Slow subscribers miss
// updates rather than block the session. Caller holds ls.mu.
func (s *ExamSessionService) notify(ls *liveSession) {
	if len(ls.subscribers) == 0 {
		return
	}
	view := model.SessionView{Snapshot: ls.engine.Snapshot(), Result: ls.result}
	for ch := range ls.subscribers {
		select {
		case ch <- view:
		default:
		}
	}
}

func (s *ExamSessionService) closeSubscribers(ls *liveSession) {
	for ch := range ls.subscribers {
		delete(ls.subscribers, ch)
		close(ch)
	}
}

func (s *ExamSessionService) lookup(id uuid.UUID) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}
