package domain

import (
	"encoding/json"
	"strconv"
)

type QuizType string

const (
	QuizInitial  QuizType = "initial"
	QuizAdaptive QuizType = "adaptive"
)

func (t QuizType) Valid() bool {
	return t == QuizInitial || t == QuizAdaptive
}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Bloom levels in taxonomy order.
var BloomLevels = []string{"Remember", "Understand", "Apply", "Analyze", "Evaluate", "Create"}

type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	BloomLevel    string   `json:"bloom_level,omitempty"`
}

type Quiz struct {
	ID        string     `json:"quiz_id"`
	SessionID string     `json:"session_id,omitempty"`
	Questions []Question `json:"questions"`
}

// AnswerMap maps a question index to the selected option index.
type AnswerMap map[int]int

func (a AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// MarshalJSON writes string keys ("0", "1", ...), which is what the scoring service reads.
func (a AnswerMap) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(a))
	for k, v := range a {
		m[strconv.Itoa(k)] = v
	}
	return json.Marshal(m)
}

func (a *AnswerMap) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := make(AnswerMap, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return err
		}
		out[idx] = v
	}
	*a = out
	return nil
}

// TimeMap maps a question index to cumulative seconds spent on it.
type TimeMap map[int]float64

func (t TimeMap) Clone() TimeMap {
	out := make(TimeMap, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t TimeMap) Total() float64 {
	var sum float64
	for _, v := range t {
		sum += v
	}
	return sum
}

// SubmissionPayload is built once at submit time and never mutated afterwards.
type SubmissionPayload struct {
	QuizID    string    `json:"quiz_id"`
	SessionID string    `json:"session_id"`
	Answers   AnswerMap `json:"answers"`
	TimeTaken TimeMap   `json:"time_taken"`
}
