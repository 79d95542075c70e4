package response_models

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username,omitempty"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Workspaces int    `json:"workspaces"`
}
