package domain

// Session is one upload's worth of extracted topics. It is created once and never mutated.
type Session struct {
	ID      string   `json:"session_id"`
	Topics  []string `json:"topics"`
	Preview *Preview `json:"-"`
}

// Preview is the syllabus image shown next to the topics. A fresh upload carries
// thumbnail bytes; a session restored from history only has the remote reference.
type Preview struct {
	ContentType string
	Data        []byte
	RemoteRef   string
}

func (p *Preview) HasData() bool {
	return p != nil && len(p.Data) > 0
}

type HistoryEntry struct {
	SessionID string   `json:"session_id"`
	Topics    []string `json:"topics"`
	ImagePath *string  `json:"image_path"`
	LastScore *float64 `json:"last_score"`
	CreatedAt string   `json:"created_at"`
}

type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

type Credentials struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}
