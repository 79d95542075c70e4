package remote

type uploadResponse struct {
	SessionID string   `json:"session_id"`
	Message   string   `json:"message"`
	Topics    []string `json:"topics"`
}

type topicsResponse struct {
	Topics []string `json:"topics"`
}

type quizRequest struct {
	SessionID    string `json:"session_id"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
