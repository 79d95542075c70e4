package request_models

type StartQuizRequest struct {
	QuizType string `json:"quiz_type" binding:"required,oneof=initial adaptive"`
}

// AnswerRequest uses pointers so that index 0 passes the required check.
type AnswerRequest struct {
	QuestionIndex *int `json:"question_index" binding:"required,min=0"`
	OptionIndex   *int `json:"option_index" binding:"required,min=0"`
}

type ToggleResultRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

type SelectHistoryRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Target    string `json:"target" binding:"omitempty,oneof=topics stats"`
}
