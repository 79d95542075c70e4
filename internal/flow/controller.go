package flow

import (
	"context"
	"sync"

	"socrat/internal/apperr"
	"socrat/internal/models/domain"
	"socrat/internal/preview"
	"socrat/internal/quiz"
	"socrat/internal/timing"
	"socrat/pkg/logger"
)

// Remote is everything the controller needs from the quiz service.
type Remote interface {
	quiz.Service
	Upload(ctx context.Context, filename string, data []byte) (domain.Session, error)
	Topics(ctx context.Context, sessionID string) ([]string, error)
	GetStats(ctx context.Context, sessionID string) (domain.Stats, error)
	GetHistory(ctx context.Context) ([]domain.HistoryEntry, error)
}

type State string

const (
	StateUpload         State = "upload"
	StateTopicReview    State = "topic_review"
	StateQuizInProgress State = "quiz_in_progress"
	StateStats          State = "stats"
	StateHistory        State = "history"
)

// Target is where a history selection lands.
type Target string

const (
	TargetTopics Target = "topics"
	TargetStats  Target = "stats"
)

var (
	ErrInvalidTransition = apperr.New(apperr.Conflict, "navigate", "that step is not available from the current screen")
	ErrBusy              = apperr.New(apperr.Conflict, "navigate", "a request is already in progress")
	ErrStale             = apperr.New(apperr.Conflict, "navigate", "the screen changed before the request finished")
	ErrUnknownQuizType   = apperr.New(apperr.ValidationFailed, "start_quiz", "quiz type must be initial or adaptive")
	ErrUnknownSession    = apperr.New(apperr.NotFound, "select_history", "session is not in your history")
	ErrQuizNotCompleted  = apperr.New(apperr.Conflict, "continue", "finish the quiz before viewing statistics")
)

type Options struct {
	NumQuestions     int
	PreviewMaxWidth  int
	PreviewMaxPixels int
	UploadMaxBytes   int64
}

// ViewController sequences Upload -> TopicReview -> QuizInProgress -> Stats, with
// History reachable from anywhere. Every transition bumps gen; a remote call
// only applies its result if gen has not moved since it started.
type ViewController struct {
	remote Remote
	clock  timing.Clock
	log    *logger.Logger
	opts   Options

	mu      sync.Mutex
	state   State
	gen     uint64
	busy    bool
	busyGen uint64
	session *domain.Session
	engine  *quiz.Engine
	stats   *StatsView
	history []domain.HistoryEntry
	lastErr error
}

func New(remote Remote, clock timing.Clock, log *logger.Logger, opts Options) *ViewController {
	if clock == nil {
		clock = timing.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ViewController{
		remote: remote,
		clock:  clock,
		log:    log.With("component", "view_controller"),
		opts:   opts,
		state:  StateUpload,
	}
}

func (c *ViewController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ViewController) transitionLocked(to State) {
	if c.state == StateQuizInProgress && c.engine != nil {
		c.engine.Abandon()
		c.engine = nil
	}
	c.log.Debug("transition", "from", string(c.state), "to", string(to))
	c.state = to
	c.gen++
	c.lastErr = nil
}

func (c *ViewController) beginLocked() (uint64, error) {
	if c.busy && c.busyGen == c.gen {
		return 0, ErrBusy
	}
	c.busy = true
	c.busyGen = c.gen
	return c.gen, nil
}

// finishLocked releases the busy flag and reports whether gen is still current.
func (c *ViewController) finishLocked(gen uint64) bool {
	if gen != c.gen {
		return false
	}
	c.busy = false
	return true
}

// Upload validates the image locally, sends it for topic extraction and moves to topic review.
func (c *ViewController) Upload(ctx context.Context, filename string, data []byte) error {
	c.mu.Lock()
	if c.state != StateUpload {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	gen, err := c.beginLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if _, err := preview.Validate(data, c.opts.UploadMaxBytes, c.opts.PreviewMaxPixels); err != nil {
		c.mu.Lock()
		if c.finishLocked(gen) {
			c.lastErr = err
		}
		c.mu.Unlock()
		return err
	}
	thumb, terr := preview.Thumbnail(data, c.opts.PreviewMaxWidth, c.opts.PreviewMaxPixels)
	if terr != nil {
		c.log.Warn("preview thumbnail failed", "error", terr)
	}

	sess, err := c.remote.Upload(context.WithoutCancel(ctx), filename, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finishLocked(gen) {
		c.log.Info("dropping stale upload response")
		return ErrStale
	}
	if err != nil {
		c.lastErr = err
		return err
	}
	sess.Preview = thumb
	c.session = &sess
	c.transitionLocked(StateTopicReview)
	return nil
}

// StartQuiz enters the quiz from topic review and issues the generation request.
// A failed generation leaves the controller in the quiz with a retryable engine.
func (c *ViewController) StartQuiz(ctx context.Context, quizType domain.QuizType) error {
	if !quizType.Valid() {
		return ErrUnknownQuizType
	}
	c.mu.Lock()
	if c.state != StateTopicReview || c.session == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	eng := quiz.New(c.remote, c.clock, c.log, quiz.Options{
		SessionID:    c.session.ID,
		Type:         quizType,
		NumQuestions: c.opts.NumQuestions,
	})
	c.transitionLocked(StateQuizInProgress)
	c.engine = eng
	c.mu.Unlock()

	return eng.Load(ctx)
}

// Quiz returns the engine of the quiz in progress.
func (c *ViewController) Quiz() (*quiz.Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateQuizInProgress || c.engine == nil {
		return nil, ErrInvalidTransition
	}
	return c.engine, nil
}

func (c *ViewController) ExitQuiz() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateQuizInProgress {
		return ErrInvalidTransition
	}
	c.transitionLocked(StateTopicReview)
	return nil
}

// ContinueToStats leaves a completed quiz for the statistics screen, carrying its score.
func (c *ViewController) ContinueToStats(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateQuizInProgress || c.engine == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	res, ok := c.engine.CompletedResult()
	if !ok {
		c.mu.Unlock()
		return ErrQuizNotCompleted
	}
	score := res.Score
	c.transitionLocked(StateStats)
	c.stats = &StatsView{Loading: true, LastScore: &score}
	gen, _ := c.beginLocked()
	sessionID := c.session.ID
	c.mu.Unlock()

	return c.loadStats(ctx, gen, sessionID)
}

func (c *ViewController) ViewStats(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateTopicReview || c.session == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.transitionLocked(StateStats)
	c.stats = &StatsView{Loading: true}
	gen, _ := c.beginLocked()
	sessionID := c.session.ID
	c.mu.Unlock()

	return c.loadStats(ctx, gen, sessionID)
}

// loadStats fills the stats view. A NotFound answer means no quiz was taken yet,
// which the view shows as an invitation rather than an error.
func (c *ViewController) loadStats(ctx context.Context, gen uint64, sessionID string) error {
	st, err := c.remote.GetStats(context.WithoutCancel(ctx), sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finishLocked(gen) {
		c.log.Info("dropping stale stats response")
		return ErrStale
	}
	view := c.stats
	view.Loading = false
	switch {
	case err == nil:
		view.Stats = &st
		return nil
	case apperr.Is(err, apperr.NotFound):
		view.NoAttempts = true
		return nil
	default:
		view.Error = apperr.Message(err)
		view.ErrorKind = apperr.KindOf(err)
		c.lastErr = err
		return err
	}
}

func (c *ViewController) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStats || c.session == nil {
		return ErrInvalidTransition
	}
	c.transitionLocked(StateTopicReview)
	c.stats = nil
	return nil
}

// OpenHistory lists past sessions. A failed fetch shows an empty list instead of blocking.
func (c *ViewController) OpenHistory(ctx context.Context) error {
	c.mu.Lock()
	c.transitionLocked(StateHistory)
	c.history = nil
	gen, _ := c.beginLocked()
	c.mu.Unlock()

	entries, err := c.remote.GetHistory(context.WithoutCancel(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finishLocked(gen) {
		c.log.Info("dropping stale history response")
		return ErrStale
	}
	if err != nil {
		c.log.Warn("history unavailable, showing empty list", "error", err)
		entries = []domain.HistoryEntry{}
	}
	c.history = entries
	return nil
}

// SelectHistory restores a past session from its history record and opens its
// topics or its statistics.
func (c *ViewController) SelectHistory(ctx context.Context, sessionID string, target Target) error {
	if target == "" {
		target = TargetTopics
	}
	if target != TargetTopics && target != TargetStats {
		return ErrInvalidTransition
	}
	c.mu.Lock()
	gen, err := c.beginLocked()
	entry, found := findEntry(c.history, sessionID)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	detached := context.WithoutCancel(ctx)
	var fetched []domain.HistoryEntry
	if !found {
		fetched, err = c.remote.GetHistory(detached)
		if err == nil {
			entry, found = findEntry(fetched, sessionID)
			if !found {
				err = ErrUnknownSession
			}
		}
	}
	if err == nil && len(entry.Topics) == 0 {
		entry.Topics, err = c.remote.Topics(detached, sessionID)
	}

	c.mu.Lock()
	if !c.finishLocked(gen) {
		c.mu.Unlock()
		c.log.Info("dropping stale history selection")
		return ErrStale
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	if fetched != nil && c.state == StateHistory {
		c.history = fetched
	}

	sess := domain.Session{ID: entry.SessionID, Topics: entry.Topics}
	if entry.ImagePath != nil && *entry.ImagePath != "" {
		sess.Preview = &domain.Preview{RemoteRef: *entry.ImagePath}
	}
	c.session = &sess

	if target == TargetTopics {
		c.transitionLocked(StateTopicReview)
		c.mu.Unlock()
		return nil
	}
	c.transitionLocked(StateStats)
	c.stats = &StatsView{Loading: true, LastScore: entry.LastScore}
	gen, _ = c.beginLocked()
	c.mu.Unlock()
	return c.loadStats(ctx, gen, sess.ID)
}

// NewUpload drops the session and any quiz in progress and returns to the upload screen.
func (c *ViewController) NewUpload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(StateUpload)
	c.session = nil
	c.stats = nil
	c.history = nil
	c.busy = false
}

func (c *ViewController) Preview() *domain.Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.Preview
}

func findEntry(entries []domain.HistoryEntry, sessionID string) (domain.HistoryEntry, bool) {
	for _, e := range entries {
		if e.SessionID == sessionID {
			return e, true
		}
	}
	return domain.HistoryEntry{}, false
}
