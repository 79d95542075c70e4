package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"socrat/internal/apperr"
	"socrat/internal/models/domain"
	"socrat/pkg/logger"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client speaks to the quiz service that owns extraction, generation, scoring and storage.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log.With("component", "remote_client"),
	}
}

type bearerKey struct{}

// WithBearer attaches the learner's access token to ctx; every call made with
// that context forwards it.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) string {
	if v, ok := ctx.Value(bearerKey{}).(string); ok {
		return v
	}
	return ""
}

func (c *Client) Upload(ctx context.Context, filename string, data []byte) (domain.Session, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", http.DetectContentType(data))
	part, err := mw.CreatePart(h)
	if err != nil {
		return domain.Session{}, apperr.Wrap(apperr.RemoteUnavailable, "upload", err)
	}
	if _, err := part.Write(data); err != nil {
		return domain.Session{}, apperr.Wrap(apperr.RemoteUnavailable, "upload", err)
	}
	if err := mw.Close(); err != nil {
		return domain.Session{}, apperr.Wrap(apperr.RemoteUnavailable, "upload", err)
	}

	var out uploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, "/api/upload", &body, mw.FormDataContentType(), &out); err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: out.SessionID, Topics: out.Topics}, nil
}

func (c *Client) Topics(ctx context.Context, sessionID string) ([]string, error) {
	var out topicsResponse
	if err := c.getJSON(ctx, "topics", "/api/topics/"+url.PathEscape(sessionID), &out); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

func (c *Client) GenerateQuiz(ctx context.Context, sessionID string, numQuestions int) (domain.Quiz, error) {
	return c.generate(ctx, "generate_quiz", "/api/generate-quiz", sessionID, numQuestions)
}

func (c *Client) GenerateAdaptiveQuiz(ctx context.Context, sessionID string, numQuestions int) (domain.Quiz, error) {
	return c.generate(ctx, "generate_adaptive_quiz", "/api/generate-adaptive-quiz", sessionID, numQuestions)
}

func (c *Client) generate(ctx context.Context, op, path, sessionID string, numQuestions int) (domain.Quiz, error) {
	var out domain.Quiz
	if err := c.postJSON(ctx, op, path, quizRequest{SessionID: sessionID, NumQuestions: numQuestions}, &out); err != nil {
		return domain.Quiz{}, err
	}
	return out, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, payload domain.SubmissionPayload) (domain.Result, error) {
	var out domain.Result
	if err := c.postJSON(ctx, "submit_quiz", "/api/submit-quiz", payload, &out); err != nil {
		return domain.Result{}, err
	}
	return out, nil
}

func (c *Client) GetStats(ctx context.Context, sessionID string) (domain.Stats, error) {
	var out domain.Stats
	if err := c.getJSON(ctx, "get_stats", "/api/stats/"+url.PathEscape(sessionID), &out); err != nil {
		return domain.Stats{}, err
	}
	return out, nil
}

func (c *Client) GetHistory(ctx context.Context) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	if err := c.getJSON(ctx, "get_history", "/api/history", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Signup(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	var out domain.AuthToken
	err := c.postJSON(ctx, "signup", "/auth/signup", creds, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	var out domain.AuthToken
	err := c.postJSON(ctx, "login", "/auth/login", loginRequest{Email: creds.Email, Password: creds.Password}, &out)
	return out, err
}

// ImageURL resolves a history image reference against the service base URL.
func (c *Client) ImageURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperr.Wrap(apperr.ValidationFailed, op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(body), "application/json", out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Wrap(apperr.RemoteUnavailable, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := bearerFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("remote call failed", "op", op, "error", err)
		return apperr.Wrap(apperr.RemoteUnavailable, op, err)
	}
	defer res.Body.Close()

	c.log.Debug("remote call", "op", op, "status", res.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())

	if res.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		return &apperr.Error{
			Kind:    kindForStatus(res.StatusCode),
			Op:      op,
			Status:  res.StatusCode,
			Message: detailMessage(raw, res.Status),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.RemoteUnavailable, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.ValidationFailed
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.AuthFailed
	case http.StatusNotFound:
		return apperr.NotFound
	default:
		return apperr.RemoteUnavailable
	}
}

// detailMessage extracts the service's "detail" field, which is a string for
// handled errors and a list of field errors for request validation failures.
func detailMessage(raw []byte, fallback string) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 200 {
			return s
		}
		return fallback
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string        `json:"msg"`
		Loc []interface{} `json:"loc"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}
