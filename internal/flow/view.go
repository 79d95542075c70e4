package flow

import (
	"socrat/internal/apperr"
	"socrat/internal/models/domain"
	"socrat/internal/quiz"
)

// StatsView backs the statistics screen. NoAttempts is set when the session has
// no quiz yet, so the screen can offer to take one instead of showing an error.
type StatsView struct {
	Loading    bool          `json:"loading"`
	Stats      *domain.Stats `json:"stats,omitempty"`
	NoAttempts bool          `json:"no_attempts"`
	LastScore  *float64      `json:"last_score,omitempty"`
	Error      string        `json:"error,omitempty"`
	ErrorKind  apperr.Kind   `json:"error_kind,omitempty"`
}

type SessionView struct {
	ID         string   `json:"session_id"`
	Topics     []string `json:"topics"`
	HasPreview bool     `json:"has_preview"`
	ImageRef   string   `json:"image_ref,omitempty"`
}

type View struct {
	State     State                 `json:"state"`
	Busy      bool                  `json:"busy"`
	Session   *SessionView          `json:"session,omitempty"`
	Quiz      *quiz.View            `json:"quiz,omitempty"`
	Stats     *StatsView            `json:"stats,omitempty"`
	History   []domain.HistoryEntry `json:"history,omitempty"`
	Error     string                `json:"error,omitempty"`
	ErrorKind apperr.Kind           `json:"error_kind,omitempty"`
}

func (c *ViewController) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State: c.state,
		Busy:  c.busy && c.busyGen == c.gen,
	}
	if c.session != nil {
		sv := &SessionView{
			ID:     c.session.ID,
			Topics: append([]string(nil), c.session.Topics...),
		}
		if p := c.session.Preview; p != nil {
			sv.HasPreview = p.HasData()
			sv.ImageRef = p.RemoteRef
		}
		v.Session = sv
	}
	if c.state == StateQuizInProgress && c.engine != nil {
		qv := c.engine.View()
		v.Quiz = &qv
	}
	if c.state == StateStats && c.stats != nil {
		sv := *c.stats
		v.Stats = &sv
	}
	if c.state == StateHistory {
		v.History = append([]domain.HistoryEntry{}, c.history...)
	}
	if c.lastErr != nil {
		v.Error = apperr.Message(c.lastErr)
		v.ErrorKind = apperr.KindOf(c.lastErr)
	}
	return v
}
