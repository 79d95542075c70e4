package services

import (
	"context"

	"socrat/internal/apperr"
	"socrat/internal/config"
	"socrat/internal/flow"
	"socrat/internal/models/domain"
	"socrat/internal/quiz"
	"socrat/internal/timing"
	"socrat/pkg/logger"
	mem "socrat/pkg/memcache"
)

// Remote is the quiz service as seen by the gateway.
type Remote interface {
	flow.Remote
	ImageURL(ref string) string
}

var ErrNoPreview = apperr.New(apperr.NotFound, "preview", "no preview for this session")

type WorkspaceServiceInterface interface {
	View(userID string) flow.View
	Reset(userID string) flow.View
	Upload(ctx context.Context, userID, filename string, data []byte) (flow.View, error)

	StartQuiz(ctx context.Context, userID string, quizType domain.QuizType) (flow.View, error)
	RetryQuiz(ctx context.Context, userID string) (flow.View, error)
	SelectAnswer(userID string, questionIndex, optionIndex int) (flow.View, error)
	NextQuestion(userID string) (flow.View, error)
	PreviousQuestion(userID string) (flow.View, error)
	SubmitQuiz(ctx context.Context, userID string) (flow.View, error)
	ToggleResult(userID string, index int) (flow.View, error)
	ExitQuiz(userID string) (flow.View, error)
	ContinueToStats(ctx context.Context, userID string) (flow.View, error)

	ViewStats(ctx context.Context, userID string) (flow.View, error)
	BackFromStats(userID string) (flow.View, error)
	OpenHistory(ctx context.Context, userID string) (flow.View, error)
	SelectHistory(ctx context.Context, userID, sessionID string, target flow.Target) (flow.View, error)

	// Preview returns the local thumbnail, or a URL on the quiz service when the
	// session was restored from history.
	Preview(userID string) (*domain.Preview, string, error)
}

type WorkspaceService struct {
	remote Remote
	store  mem.WorkspaceStore[*flow.ViewController]
	clock  timing.Clock
	log    *logger.Logger
	opts   flow.Options
}

func NewWorkspaceService(remote Remote, store mem.WorkspaceStore[*flow.ViewController], cfg config.Config, log *logger.Logger) WorkspaceServiceInterface {
	return &WorkspaceService{
		remote: remote,
		store:  store,
		clock:  timing.SystemClock{},
		log:    log.With("component", "workspace_service"),
		opts: flow.Options{
			NumQuestions:     cfg.NumQuestions,
			PreviewMaxWidth:  cfg.PreviewMaxWidth,
			PreviewMaxPixels: cfg.PreviewMaxPixels,
			UploadMaxBytes:   cfg.UploadMaxBytes,
		},
	}
}

func (s *WorkspaceService) controller(userID string) *flow.ViewController {
	return s.store.GetOrCreate(userID, func() *flow.ViewController {
		s.log.Info("workspace created", "user_id", userID)
		return flow.New(s.remote, s.clock, s.log, s.opts)
	})
}

func (s *WorkspaceService) engine(userID string) (*flow.ViewController, *quiz.Engine, error) {
	vc := s.controller(userID)
	eng, err := vc.Quiz()
	return vc, eng, err
}

func (s *WorkspaceService) View(userID string) flow.View {
	return s.controller(userID).View()
}

func (s *WorkspaceService) Reset(userID string) flow.View {
	vc := s.controller(userID)
	vc.NewUpload()
	return vc.View()
}

func (s *WorkspaceService) Upload(ctx context.Context, userID, filename string, data []byte) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.Upload(ctx, filename, data)
	return vc.View(), err
}

func (s *WorkspaceService) StartQuiz(ctx context.Context, userID string, quizType domain.QuizType) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.StartQuiz(ctx, quizType)
	return vc.View(), err
}

func (s *WorkspaceService) RetryQuiz(ctx context.Context, userID string) (flow.View, error) {
	vc, eng, err := s.engine(userID)
	if err != nil {
		return vc.View(), err
	}
	err = eng.Retry(ctx)
	return vc.View(), err
}

func (s *WorkspaceService) SelectAnswer(userID string, questionIndex, optionIndex int) (flow.View, error) {
	vc, eng, err := s.engine(userID)
	if err != nil {
		return vc.View(), err
	}
	err = eng.SelectAnswer(questionIndex, optionIndex)
	return vc.View(), err
}

func (s *WorkspaceService) NextQuestion(userID string) (flow.View, error) {
	vc, eng, err := s.engine(userID)
	if err != nil {
		return vc.View(), err
	}
	err = eng.Next()
	return vc.View(), err
}

func (s *WorkspaceService) PreviousQuestion(userID string) (flow.View, error) {
	vc, eng, err := s.engine(userID)
	if err != nil {
		return vc.View(), err
	}
	err = eng.Previous()
	return vc.View(), err
}

func (s *WorkspaceService) SubmitQuiz(ctx context.Context, userID string) (flow.View, error) {
	vc, eng, err := s.engine(userID)
	if err != nil {
		return vc.View(), err
	}
	_, err = eng.Submit(ctx)
	return vc.View(), err
}

func (s *WorkspaceService) ToggleResult(userID string, index int) (flow.View, error) {
	vc, eng, err := s.engine(userID)
	if err != nil {
		return vc.View(), err
	}
	err = eng.ToggleDetail(index)
	return vc.View(), err
}

func (s *WorkspaceService) ExitQuiz(userID string) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.ExitQuiz()
	return vc.View(), err
}

func (s *WorkspaceService) ContinueToStats(ctx context.Context, userID string) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.ContinueToStats(ctx)
	return vc.View(), err
}

func (s *WorkspaceService) ViewStats(ctx context.Context, userID string) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.ViewStats(ctx)
	return vc.View(), err
}

func (s *WorkspaceService) BackFromStats(userID string) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.Back()
	return vc.View(), err
}

func (s *WorkspaceService) OpenHistory(ctx context.Context, userID string) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.OpenHistory(ctx)
	return vc.View(), err
}

func (s *WorkspaceService) SelectHistory(ctx context.Context, userID, sessionID string, target flow.Target) (flow.View, error) {
	vc := s.controller(userID)
	err := vc.SelectHistory(ctx, sessionID, target)
	return vc.View(), err
}

func (s *WorkspaceService) Preview(userID string) (*domain.Preview, string, error) {
	p := s.controller(userID).Preview()
	switch {
	case p == nil:
		return nil, "", ErrNoPreview
	case p.HasData():
		return p, "", nil
	case p.RemoteRef != "":
		return nil, s.remote.ImageURL(p.RemoteRef), nil
	default:
		return nil, "", ErrNoPreview
	}
}
