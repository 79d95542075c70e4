package domain

type QuestionResult struct {
	QuestionIndex int     `json:"question_index"`
	UserAnswer    *int    `json:"user_answer"`
	CorrectAnswer int     `json:"correct_answer"`
	IsCorrect     bool    `json:"is_correct"`
	TimeTaken     float64 `json:"time_taken"`
}

type Result struct {
	Score          float64          `json:"score"`
	Correct        int              `json:"correct"`
	Total          int              `json:"total"`
	PerQuestion    []QuestionResult `json:"results"`
	NextDifficulty string           `json:"next_difficulty"`
}

type QuizHistoryPoint struct {
	Score      float64 `json:"score"`
	Date       string  `json:"date"`
	QuizNumber int     `json:"quiz_number"`
}

// Stats is aggregated by the remote service; the gateway only relays it.
type Stats struct {
	SessionID            string             `json:"session_id"`
	TotalQuizzes         int                `json:"total_quizzes"`
	AverageScore         float64            `json:"average_score"`
	TopicPerformance     map[string]float64 `json:"topic_performance"`
	BloomPerformance     map[string]float64 `json:"bloom_performance"`
	BloomTimePerformance map[string]float64 `json:"bloom_time_performance"`
	QuizHistory          []QuizHistoryPoint `json:"quiz_history"`
}
