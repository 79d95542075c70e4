package quiz

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"socrat/internal/apperr"
	"socrat/internal/models/domain"
	"socrat/internal/timing"
	"socrat/pkg/logger"
)

// Service is the slice of the remote quiz service the engine talks to.
type Service interface {
	GenerateQuiz(ctx context.Context, sessionID string, numQuestions int) (domain.Quiz, error)
	GenerateAdaptiveQuiz(ctx context.Context, sessionID string, numQuestions int) (domain.Quiz, error)
	SubmitQuiz(ctx context.Context, payload domain.SubmissionPayload) (domain.Result, error)
}

type State string

const (
	StateLoading    State = "loading"
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var (
	ErrInvalidState = apperr.New(apperr.Conflict, "quiz", "operation not allowed in the current quiz state")
	ErrIncomplete   = apperr.New(apperr.ValidationFailed, "submit", "answer every question before submitting")
	ErrOutOfRange   = apperr.New(apperr.ValidationFailed, "select", "question or option index out of range")
	ErrAbandoned    = apperr.New(apperr.Conflict, "quiz", "quiz attempt is no longer active")
	ErrEmptyQuiz    = apperr.New(apperr.RemoteUnavailable, "load", "generated quiz has no questions")
)

type Options struct {
	SessionID    string
	Type         domain.QuizType
	NumQuestions int
}

// Engine owns one quiz attempt from generation to results.
// Remote calls run outside the lock and are bound to an attempt id; a response
// for an attempt that is no longer current is dropped.
type Engine struct {
	svc   Service
	clock timing.Clock
	log   *logger.Logger
	opts  Options

	loadIssued atomic.Bool
	flight     singleflight.Group

	mu        sync.Mutex
	state     State
	failedIn  State
	attempt   string
	abandoned bool
	quiz      domain.Quiz
	answers   domain.AnswerMap
	current   int
	tracker   *timing.Tracker
	payload   *domain.SubmissionPayload
	result    *domain.Result
	expanded  *int
	lastErr   error
}

func New(svc Service, clock timing.Clock, log *logger.Logger, opts Options) *Engine {
	if clock == nil {
		clock = timing.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if !opts.Type.Valid() {
		opts.Type = domain.QuizInitial
	}
	return &Engine{
		svc:     svc,
		clock:   clock,
		log:     log.With("component", "quiz_engine", "quiz_type", string(opts.Type)),
		opts:    opts,
		state:   StateLoading,
		answers: domain.AnswerMap{},
		tracker: timing.NewTracker(),
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Type() domain.QuizType { return e.opts.Type }

// Load issues the generation request once per engine. Re-entrant calls while the
// request is in flight wait for it; calls after it finished are no-ops.
// Only a failed load re-arms the guard, and only Retry re-issues it.
func (e *Engine) Load(ctx context.Context) error {
	_, err, _ := e.flight.Do("load", func() (interface{}, error) {
		return nil, e.load(ctx)
	})
	return err
}

func (e *Engine) load(ctx context.Context) error {
	if !e.loadIssued.CompareAndSwap(false, true) {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.lastErr
	}

	e.mu.Lock()
	if e.abandoned {
		e.mu.Unlock()
		return ErrAbandoned
	}
	if e.state != StateLoading {
		err := e.lastErr
		e.mu.Unlock()
		e.loadIssued.Store(false)
		return err
	}
	attempt := uuid.NewString()
	e.attempt = attempt
	e.lastErr = nil
	e.mu.Unlock()

	e.log.Debug("generating quiz", "attempt", attempt, "session", e.opts.SessionID)
	q, err := e.generate(context.WithoutCancel(ctx))

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.abandoned || e.attempt != attempt {
		e.log.Info("dropping stale quiz generation response", "attempt", attempt)
		return ErrAbandoned
	}
	if err == nil && len(q.Questions) == 0 {
		err = ErrEmptyQuiz
	}
	if err != nil {
		e.log.Warn("quiz generation failed", "attempt", attempt, "error", err)
		e.state = StateFailed
		e.failedIn = StateLoading
		e.lastErr = err
		e.loadIssued.Store(false)
		return err
	}

	e.quiz = q
	e.answers = domain.AnswerMap{}
	e.current = 0
	e.tracker = timing.NewTracker()
	e.tracker.Start(e.clock.Now())
	e.state = StateActive
	e.log.Debug("quiz active", "attempt", attempt, "quiz_id", q.ID, "questions", len(q.Questions))
	return nil
}

func (e *Engine) generate(ctx context.Context) (domain.Quiz, error) {
	if e.opts.Type == domain.QuizAdaptive {
		return e.svc.GenerateAdaptiveQuiz(ctx, e.opts.SessionID, e.opts.NumQuestions)
	}
	return e.svc.GenerateQuiz(ctx, e.opts.SessionID, e.opts.NumQuestions)
}

// SelectAnswer records optionIndex for questionIndex, replacing any earlier choice.
func (e *Engine) SelectAnswer(questionIndex, optionIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return ErrInvalidState
	}
	if questionIndex < 0 || questionIndex >= len(e.quiz.Questions) {
		return ErrOutOfRange
	}
	if optionIndex < 0 || optionIndex >= len(e.quiz.Questions[questionIndex].Options) {
		return ErrOutOfRange
	}
	e.answers[questionIndex] = optionIndex
	return nil
}

func (e *Engine) Next() error     { return e.step(1) }
func (e *Engine) Previous() error { return e.step(-1) }

func (e *Engine) step(delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return ErrInvalidState
	}
	to := e.current + delta
	if to < 0 {
		to = 0
	}
	if last := len(e.quiz.Questions) - 1; to > last {
		to = last
	}
	e.tracker.MoveTo(to, e.clock.Now())
	e.current = to
	return nil
}

func (e *Engine) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canSubmitLocked()
}

func (e *Engine) canSubmitLocked() bool {
	if len(e.quiz.Questions) == 0 {
		return false
	}
	for i := range e.quiz.Questions {
		if _, ok := e.answers[i]; !ok {
			return false
		}
	}
	return true
}

// Submit freezes the answers and timings into a payload and sends it.
// Incomplete answers are rejected before any request is made.
func (e *Engine) Submit(ctx context.Context) (domain.Result, error) {
	v, err, _ := e.flight.Do("submit", func() (interface{}, error) {
		e.mu.Lock()
		if e.state != StateActive {
			e.mu.Unlock()
			return nil, ErrInvalidState
		}
		if !e.canSubmitLocked() {
			e.mu.Unlock()
			return nil, ErrIncomplete
		}
		now := e.clock.Now()
		times := e.tracker.Snapshot(now)
		e.tracker.Mark(now)
		payload := domain.SubmissionPayload{
			QuizID:    e.quiz.ID,
			SessionID: e.opts.SessionID,
			Answers:   e.answers.Clone(),
			TimeTaken: times,
		}
		e.payload = &payload
		attempt := e.beginSubmitLocked()
		e.mu.Unlock()

		return e.send(ctx, attempt, payload)
	})
	if err != nil {
		return domain.Result{}, err
	}
	return v.(domain.Result), nil
}

func (e *Engine) beginSubmitLocked() string {
	e.state = StateSubmitting
	e.attempt = uuid.NewString()
	e.lastErr = nil
	return e.attempt
}

func (e *Engine) send(ctx context.Context, attempt string, payload domain.SubmissionPayload) (domain.Result, error) {
	e.log.Debug("submitting quiz", "attempt", attempt, "quiz_id", payload.QuizID, "answers", len(payload.Answers))
	res, err := e.svc.SubmitQuiz(context.WithoutCancel(ctx), payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.abandoned || e.attempt != attempt {
		e.log.Info("dropping stale submission response", "attempt", attempt)
		return domain.Result{}, ErrAbandoned
	}
	if err != nil {
		e.log.Warn("quiz submission failed", "attempt", attempt, "error", err)
		e.state = StateFailed
		e.failedIn = StateSubmitting
		e.lastErr = err
		return domain.Result{}, err
	}
	e.result = &res
	e.expanded = nil
	e.state = StateCompleted
	return res, nil
}

// Retry repeats whatever failed: generation is re-issued, a submission is resent
// with the exact payload that failed.
func (e *Engine) Retry(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateFailed || e.abandoned {
		e.mu.Unlock()
		return ErrInvalidState
	}
	switch e.failedIn {
	case StateLoading:
		e.state = StateLoading
		e.lastErr = nil
		e.mu.Unlock()
		return e.Load(ctx)
	case StateSubmitting:
		payload := *e.payload
		e.mu.Unlock()
		_, err, _ := e.flight.Do("submit", func() (interface{}, error) {
			e.mu.Lock()
			if e.state != StateFailed {
				e.mu.Unlock()
				return nil, ErrInvalidState
			}
			attempt := e.beginSubmitLocked()
			e.mu.Unlock()
			return e.send(ctx, attempt, payload)
		})
		return err
	default:
		e.mu.Unlock()
		return ErrInvalidState
	}
}

// ToggleDetail opens the detail panel for index, or closes it if it is already open.
func (e *Engine) ToggleDetail(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateCompleted {
		return ErrInvalidState
	}
	if index < 0 || index >= len(e.result.PerQuestion) {
		return ErrOutOfRange
	}
	if e.expanded != nil && *e.expanded == index {
		e.expanded = nil
		return nil
	}
	i := index
	e.expanded = &i
	return nil
}

func (e *Engine) Result() (domain.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return domain.Result{}, false
	}
	return *e.result, true
}

// CompletedResult returns the result only while the attempt is completed.
func (e *Engine) CompletedResult() (domain.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateCompleted || e.result == nil {
		return domain.Result{}, false
	}
	return *e.result, true
}

// Abandon detaches the engine; in-flight responses are ignored from now on.
func (e *Engine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.abandoned = true
}
