package quiz

import (
	"socrat/internal/apperr"
	"socrat/internal/models/domain"
)

type QuestionView struct {
	Index      int      `json:"index"`
	Text       string   `json:"question"`
	Options    []string `json:"options"`
	BloomLevel string   `json:"bloom_level,omitempty"`
	Selected   *int     `json:"selected"`
}

// View is a copy of the engine state for rendering. Correct answers are only
// included once the attempt is completed.
type View struct {
	State         State             `json:"state"`
	Type          domain.QuizType   `json:"quiz_type"`
	QuizID        string            `json:"quiz_id,omitempty"`
	Total         int               `json:"total"`
	CurrentIndex  int               `json:"current_index"`
	Current       *QuestionView     `json:"current,omitempty"`
	Answers       domain.AnswerMap  `json:"answers"`
	Answered      int               `json:"answered"`
	CanSubmit     bool              `json:"can_submit"`
	Result        *domain.Result    `json:"result,omitempty"`
	Questions     []domain.Question `json:"questions,omitempty"`
	ExpandedIndex *int              `json:"expanded_index"`
	Error         string            `json:"error,omitempty"`
	ErrorKind     apperr.Kind       `json:"error_kind,omitempty"`
	CanRetry      bool              `json:"can_retry"`
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		State:        e.state,
		Type:         e.opts.Type,
		QuizID:       e.quiz.ID,
		Total:        len(e.quiz.Questions),
		CurrentIndex: e.current,
		Answers:      e.answers.Clone(),
		Answered:     len(e.answers),
		CanSubmit:    e.state == StateActive && e.canSubmitLocked(),
		CanRetry:     e.state == StateFailed && !e.abandoned,
	}
	if e.current < len(e.quiz.Questions) {
		q := e.quiz.Questions[e.current]
		qv := &QuestionView{
			Index:      e.current,
			Text:       q.Text,
			Options:    append([]string(nil), q.Options...),
			BloomLevel: q.BloomLevel,
		}
		if sel, ok := e.answers[e.current]; ok {
			qv.Selected = &sel
		}
		v.Current = qv
	}
	if e.state == StateCompleted && e.result != nil {
		res := *e.result
		v.Result = &res
		v.Questions = append([]domain.Question(nil), e.quiz.Questions...)
		if e.expanded != nil {
			idx := *e.expanded
			v.ExpandedIndex = &idx
		}
	}
	if e.lastErr != nil {
		v.Error = apperr.Message(e.lastErr)
		v.ErrorKind = apperr.KindOf(e.lastErr)
	}
	return v
}
