package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"socrat/internal/apperr"
	"socrat/internal/models/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"}, nil)
}

func TestSubmitQuiz_WireFormatAndBearer(t *testing.T) {
	var gotAuth string
	var gotBody map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/submit-quiz" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"score":66.7,"correct":2,"total":3,"next_difficulty":"medium",
			"results":[{"question_index":0,"user_answer":1,"correct_answer":1,"is_correct":true,"time_taken":5}]}`)
	})

	ctx := WithBearer(context.Background(), "tok-123")
	res, err := c.SubmitQuiz(ctx, domain.SubmissionPayload{
		QuizID:    "q1",
		SessionID: "s1",
		Answers:   domain.AnswerMap{0: 1, 2: 3},
		TimeTaken: domain.TimeMap{0: 5.5},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("bearer not forwarded: %q", gotAuth)
	}
	var answers map[string]int
	if err := json.Unmarshal(gotBody["answers"], &answers); err != nil {
		t.Fatalf("answers not an object keyed by strings: %s", gotBody["answers"])
	}
	if answers["0"] != 1 || answers["2"] != 3 {
		t.Fatalf("unexpected answers on the wire: %v", answers)
	}
	if string(gotBody["time_taken"]) != `{"0":5.5}` {
		t.Fatalf("unexpected time_taken on the wire: %s", gotBody["time_taken"])
	}
	if res.Score != 66.7 || res.NextDifficulty != "medium" || len(res.PerQuestion) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.PerQuestion[0].UserAnswer == nil || *res.PerQuestion[0].UserAnswer != 1 {
		t.Fatalf("user answer not decoded: %+v", res.PerQuestion[0])
	}
}

func TestErrors_MapStatusToKind(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   apperr.Kind
		msg    string
	}{
		{http.StatusNotFound, `{"detail":"No stats found"}`, apperr.NotFound, "No stats found"},
		{http.StatusUnauthorized, `{"detail":"Incorrect email or password"}`, apperr.AuthFailed, "Incorrect email or password"},
		{http.StatusForbidden, `{"detail":"Not authorized"}`, apperr.AuthFailed, "Not authorized"},
		{http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","session_id"],"msg":"field required"}]}`, apperr.ValidationFailed, "field required"},
		{http.StatusInternalServerError, `{"detail":"boom"}`, apperr.RemoteUnavailable, "boom"},
		{http.StatusBadGateway, `<html>bad gateway</html>`, apperr.RemoteUnavailable, "<html>bad gateway</html>"},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		})
		_, err := c.GetStats(context.Background(), "s1")
		if apperr.KindOf(err) != tc.kind {
			t.Fatalf("status %d: expected kind %s, got %v", tc.status, tc.kind, err)
		}
		if got := apperr.Message(err); got != tc.msg {
			t.Fatalf("status %d: expected message %q, got %q", tc.status, tc.msg, got)
		}
	}
}

func TestTransportFailureIsRemoteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url}, nil)
	_, err := c.GenerateQuiz(context.Background(), "s1", 18)
	if !apperr.Is(err, apperr.RemoteUnavailable) {
		t.Fatalf("expected RemoteUnavailable, got %v", err)
	}
}

func TestUpload_SendsMultipartFile(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart upload, got %q", r.Header.Get("Content-Type"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "syllabus.png" || string(data) != string(png) {
			t.Errorf("unexpected file %q (%d bytes)", hdr.Filename, len(data))
		}
		_, _ = io.WriteString(w, `{"session_id":"s-9","message":"ok","topics":["Sets","Graphs"]}`)
	})

	sess, err := c.Upload(context.Background(), "/tmp/uploads/syllabus.png", png)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if sess.ID != "s-9" || len(sess.Topics) != 2 {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestGenerateQuiz_DecodesQuestions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req quizRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SessionID != "s1" || req.NumQuestions != 18 {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = io.WriteString(w, `{"quiz_id":"qz","session_id":"s1","questions":[
			{"question":"What is a set?","options":["a","b","c","d"],"correct_answer":2,"bloom_level":"Remember"}]}`)
	})
	q, err := c.GenerateQuiz(context.Background(), "s1", 18)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q.ID != "qz" || len(q.Questions) != 1 || q.Questions[0].CorrectAnswer != 2 || q.Questions[0].BloomLevel != "Remember" {
		t.Fatalf("unexpected quiz %+v", q)
	}
}

func TestImageURL(t *testing.T) {
	c := New(Config{BaseURL: "http://api:8000/"}, nil)
	if got := c.ImageURL("uploads/u_1.png"); got != "http://api:8000/uploads/u_1.png" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := c.ImageURL("https://cdn/x.png"); got != "https://cdn/x.png" {
		t.Fatalf("absolute url rewritten: %q", got)
	}
}
