package flow

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"socrat/internal/apperr"
	"socrat/internal/models/domain"
	"socrat/internal/quiz"
)

type fakeRemote struct {
	mu          sync.Mutex
	quiz        domain.Quiz
	adaptiveErr error
	result      domain.Result
	stats       domain.Stats
	statsErr    error
	history     []domain.HistoryEntry
	historyErr  error
	topics      []string
	uploadGate  chan struct{}
	genGate     chan struct{}
	uploads     int
	topicCalls  int
}

func (f *fakeRemote) Upload(ctx context.Context, filename string, data []byte) (domain.Session, error) {
	f.mu.Lock()
	f.uploads++
	gate := f.uploadGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return domain.Session{ID: "sess-1", Topics: []string{"Sets", "Relations"}}, nil
}

func (f *fakeRemote) Topics(ctx context.Context, sessionID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topicCalls++
	return f.topics, nil
}

func (f *fakeRemote) GenerateQuiz(ctx context.Context, sessionID string, n int) (domain.Quiz, error) {
	f.mu.Lock()
	gate := f.genGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.quiz, nil
}

func (f *fakeRemote) GenerateAdaptiveQuiz(ctx context.Context, sessionID string, n int) (domain.Quiz, error) {
	if f.adaptiveErr != nil {
		return domain.Quiz{}, f.adaptiveErr
	}
	return f.quiz, nil
}

func (f *fakeRemote) SubmitQuiz(ctx context.Context, p domain.SubmissionPayload) (domain.Result, error) {
	return f.result, nil
}

func (f *fakeRemote) GetStats(ctx context.Context, sessionID string) (domain.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeRemote) GetHistory(ctx context.Context) ([]domain.HistoryEntry, error) {
	return f.history, f.historyErr
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 8))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func twoQuestionQuiz() domain.Quiz {
	return domain.Quiz{ID: "quiz-1", Questions: []domain.Question{
		{Text: "Q1", Options: []string{"a", "b"}, CorrectAnswer: 0},
		{Text: "Q2", Options: []string{"a", "b"}, CorrectAnswer: 1},
	}}
}

func newController(r *fakeRemote) *ViewController {
	return New(r, nil, nil, Options{NumQuestions: 2, PreviewMaxWidth: 8, PreviewMaxPixels: 1_000_000, UploadMaxBytes: 1 << 20})
}

func uploaded(t *testing.T, r *fakeRemote) *ViewController {
	t.Helper()
	c := newController(r)
	if err := c.Upload(context.Background(), "syllabus.png", pngBytes(t)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	return c
}

func TestUpload_RejectsNonImageWithoutRequest(t *testing.T) {
	r := &fakeRemote{}
	c := newController(r)
	err := c.Upload(context.Background(), "notes.txt", []byte("just some text"))
	if !apperr.Is(err, apperr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
	if r.uploads != 0 {
		t.Fatalf("expected no upload request, got %d", r.uploads)
	}
	v := c.View()
	if v.State != StateUpload || v.ErrorKind != apperr.ValidationFailed {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestUpload_RejectsOversizedImageWithoutRequest(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()
	binary.BigEndian.PutUint32(data[16:20], 12000)
	binary.BigEndian.PutUint32(data[20:24], 12000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	r := &fakeRemote{}
	c := newController(r)
	err := c.Upload(context.Background(), "huge.png", data)
	if !apperr.Is(err, apperr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
	if r.uploads != 0 {
		t.Fatalf("oversized image reached the quiz service")
	}
	if c.State() != StateUpload {
		t.Fatalf("expected to stay on upload, got %s", c.State())
	}
}

func TestUpload_MovesToTopicReview(t *testing.T) {
	c := uploaded(t, &fakeRemote{})
	v := c.View()
	if v.State != StateTopicReview {
		t.Fatalf("expected topic review, got %s", v.State)
	}
	if v.Session == nil || v.Session.ID != "sess-1" || len(v.Session.Topics) != 2 || !v.Session.HasPreview {
		t.Fatalf("unexpected session view %+v", v.Session)
	}
	if p := c.Preview(); p == nil || p.ContentType != "image/jpeg" {
		t.Fatalf("expected jpeg preview, got %+v", p)
	}
}

func TestStartQuiz_RequiresTopicReview(t *testing.T) {
	c := newController(&fakeRemote{quiz: twoQuestionQuiz()})
	if err := c.StartQuiz(context.Background(), domain.QuizInitial); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from upload, got %v", err)
	}
	c = uploaded(t, &fakeRemote{quiz: twoQuestionQuiz()})
	if err := c.StartQuiz(context.Background(), "weekly"); !errors.Is(err, ErrUnknownQuizType) {
		t.Fatalf("expected ErrUnknownQuizType, got %v", err)
	}
}

func TestFullFlow_QuizToStatsAndBack(t *testing.T) {
	r := &fakeRemote{
		quiz:   twoQuestionQuiz(),
		result: domain.Result{Score: 50, Correct: 1, Total: 2},
		stats:  domain.Stats{SessionID: "sess-1", TotalQuizzes: 1, AverageScore: 50},
	}
	c := uploaded(t, r)
	if err := c.StartQuiz(context.Background(), domain.QuizInitial); err != nil {
		t.Fatalf("start: %v", err)
	}
	eng, err := c.Quiz()
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}

	if err := c.ContinueToStats(context.Background()); !errors.Is(err, ErrQuizNotCompleted) {
		t.Fatalf("expected ErrQuizNotCompleted, got %v", err)
	}

	_ = eng.SelectAnswer(0, 0)
	_ = eng.Next()
	_ = eng.SelectAnswer(1, 0)
	if _, err := eng.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if v := c.View(); v.Quiz == nil || v.Quiz.State != quiz.StateCompleted || v.Quiz.Result == nil {
		t.Fatalf("expected completed quiz in view, got %+v", v.Quiz)
	}

	if err := c.ContinueToStats(context.Background()); err != nil {
		t.Fatalf("continue: %v", err)
	}
	v := c.View()
	if v.State != StateStats || v.Stats == nil || v.Stats.Stats == nil {
		t.Fatalf("expected loaded stats, got %+v", v)
	}
	if v.Stats.LastScore == nil || *v.Stats.LastScore != 50 {
		t.Fatalf("expected last score 50, got %v", v.Stats.LastScore)
	}
	if eng.State() == quiz.StateActive {
		t.Fatalf("engine should be finished")
	}

	if err := c.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if c.State() != StateTopicReview {
		t.Fatalf("expected topic review, got %s", c.State())
	}
}

func TestViewStats_NoAttemptsIsNotAnError(t *testing.T) {
	r := &fakeRemote{statsErr: apperr.New(apperr.NotFound, "get_stats", "No stats found")}
	c := uploaded(t, r)
	if err := c.ViewStats(context.Background()); err != nil {
		t.Fatalf("expected no error for missing stats, got %v", err)
	}
	v := c.View()
	if v.Stats == nil || !v.Stats.NoAttempts || v.Stats.Error != "" {
		t.Fatalf("expected take-a-quiz view, got %+v", v.Stats)
	}
	if v.Error != "" {
		t.Fatalf("unexpected banner error %q", v.Error)
	}
}

func TestViewStats_GenericFailureIsDistinct(t *testing.T) {
	r := &fakeRemote{statsErr: apperr.New(apperr.RemoteUnavailable, "get_stats", "service down")}
	c := uploaded(t, r)
	err := c.ViewStats(context.Background())
	if !apperr.Is(err, apperr.RemoteUnavailable) {
		t.Fatalf("expected RemoteUnavailable, got %v", err)
	}
	v := c.View()
	if v.Stats.NoAttempts || v.Stats.ErrorKind != apperr.RemoteUnavailable {
		t.Fatalf("generic failure rendered as no-attempts: %+v", v.Stats)
	}
}

func TestAdaptiveWithoutPriorAttempt(t *testing.T) {
	notFound := apperr.New(apperr.NotFound, "generate_adaptive_quiz", "Session not found")
	r := &fakeRemote{
		adaptiveErr: notFound,
		statsErr:    apperr.New(apperr.NotFound, "get_stats", "No stats found"),
	}
	c := uploaded(t, r)

	err := c.StartQuiz(context.Background(), domain.QuizAdaptive)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	v := c.View()
	if v.Quiz == nil || v.Quiz.State != quiz.StateFailed || v.Quiz.ErrorKind != apperr.NotFound {
		t.Fatalf("unexpected quiz view %+v", v.Quiz)
	}

	if err := c.ExitQuiz(); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if err := c.ViewStats(context.Background()); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if v := c.View(); !v.Stats.NoAttempts {
		t.Fatalf("expected take-a-quiz affordance, got %+v", v.Stats)
	}
}

func TestHistory_FailureDegradesToEmptyList(t *testing.T) {
	r := &fakeRemote{historyErr: apperr.New(apperr.RemoteUnavailable, "get_history", "down")}
	c := newController(r)
	if err := c.OpenHistory(context.Background()); err != nil {
		t.Fatalf("history failure should not surface, got %v", err)
	}
	v := c.View()
	if v.State != StateHistory || v.History == nil || len(v.History) != 0 {
		t.Fatalf("expected empty history list, got %+v", v)
	}
}

func TestHistory_SelectRehydratesSession(t *testing.T) {
	img := "uploads/u_1.png"
	score := 72.5
	r := &fakeRemote{
		history: []domain.HistoryEntry{
			{SessionID: "old-1", Topics: []string{"Graphs"}, ImagePath: &img, LastScore: &score},
			{SessionID: "old-2"},
		},
		topics: []string{"Trees"},
		stats:  domain.Stats{SessionID: "old-1", TotalQuizzes: 2},
		quiz:   twoQuestionQuiz(),
	}
	c := newController(r)
	if err := c.OpenHistory(context.Background()); err != nil {
		t.Fatalf("history: %v", err)
	}
	if err := c.SelectHistory(context.Background(), "old-1", TargetTopics); err != nil {
		t.Fatalf("select: %v", err)
	}
	v := c.View()
	if v.State != StateTopicReview || v.Session.ID != "old-1" || v.Session.ImageRef != img || v.Session.HasPreview {
		t.Fatalf("unexpected rehydrated view %+v", v.Session)
	}
	if err := c.StartQuiz(context.Background(), domain.QuizInitial); err != nil {
		t.Fatalf("quiz from history session: %v", err)
	}

	if err := c.OpenHistory(context.Background()); err != nil {
		t.Fatalf("history: %v", err)
	}
	if err := c.SelectHistory(context.Background(), "old-2", TargetTopics); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v := c.View(); len(v.Session.Topics) != 1 || v.Session.Topics[0] != "Trees" || r.topicCalls != 1 {
		t.Fatalf("expected topics fetched for empty record, got %+v (calls=%d)", v.Session, r.topicCalls)
	}

	if err := c.SelectHistory(context.Background(), "old-1", TargetStats); err != nil {
		t.Fatalf("select stats: %v", err)
	}
	v = c.View()
	if v.State != StateStats || v.Stats.Stats == nil || v.Stats.LastScore == nil || *v.Stats.LastScore != 72.5 {
		t.Fatalf("unexpected stats view %+v", v.Stats)
	}

	if err := c.SelectHistory(context.Background(), "missing", TargetTopics); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestNewUpload_DiscardsAndIgnoresLateUpload(t *testing.T) {
	r := &fakeRemote{uploadGate: make(chan struct{})}
	c := newController(r)

	img := pngBytes(t)
	done := make(chan error, 1)
	go func() { done <- c.Upload(context.Background(), "s.png", img) }()
	time.Sleep(20 * time.Millisecond)

	if err := c.Upload(context.Background(), "s.png", img); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected duplicate upload to be refused, got %v", err)
	}

	c.NewUpload()
	close(r.uploadGate)
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("expected stale upload, got %v", err)
	}
	v := c.View()
	if v.State != StateUpload || v.Session != nil {
		t.Fatalf("late upload response was applied: %+v", v)
	}
}

func TestExitQuiz_IgnoresLateGeneration(t *testing.T) {
	r := &fakeRemote{quiz: twoQuestionQuiz()}
	c := uploaded(t, r)
	r.mu.Lock()
	r.genGate = make(chan struct{})
	r.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.StartQuiz(context.Background(), domain.QuizInitial) }()
	time.Sleep(20 * time.Millisecond)

	if err := c.ExitQuiz(); err != nil {
		t.Fatalf("exit: %v", err)
	}
	close(r.genGate)
	if err := <-done; !errors.Is(err, quiz.ErrAbandoned) {
		t.Fatalf("expected abandoned load, got %v", err)
	}
	if v := c.View(); v.State != StateTopicReview || v.Quiz != nil {
		t.Fatalf("late quiz leaked into view: %+v", v)
	}
}
