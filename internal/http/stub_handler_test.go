package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupStubRouter(h *StubHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(zap.NewNop(), h)
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func issueToken(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/verify/token", map[string]string{
		"site_key": "site-key",
		"action":   "submit",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("expected token, got %s", rec.Body.String())
	}
	return out.Token
}

type queryResponse struct {
	Answer  string `json:"answer"`
	Sources []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"sources"`
}

func TestStubHandlerQuery_Success(t *testing.T) {
	r := setupStubRouter(NewStubHandler(nil, "site-key", nil))
	token := issueToken(t, r)

	rec := performRequest(r, http.MethodPost, "/bot/query", map[string]string{
		"query":           "How do I format dates?",
		"session_id":      "s1",
		"recaptcha_token": token,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Answer == "" || len(out.Sources) == 0 || out.Sources[0].Title != "MOS:DATEFORMAT" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestStubHandlerQuery_TokenIsSingleUse(t *testing.T) {
	r := setupStubRouter(NewStubHandler(nil, "site-key", nil))
	token := issueToken(t, r)
	body := map[string]string{"query": "Oxford comma?", "session_id": "s1", "recaptcha_token": token}

	if rec := performRequest(r, http.MethodPost, "/bot/query", body); rec.Code != http.StatusOK {
		t.Fatalf("expected first use accepted, got %d", rec.Code)
	}
	rec := performRequest(r, http.MethodPost, "/bot/query", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected reused token rejected, got %d", rec.Code)
	}
	var out struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Detail != "invalid recaptcha token" {
		t.Fatalf("unexpected detail %q", out.Detail)
	}
}

func TestStubHandlerQuery_InvalidRequest(t *testing.T) {
	r := setupStubRouter(NewStubHandler(nil, "site-key", nil))

	rec := performRequest(r, http.MethodPost, "/bot/query", map[string]string{"query": "dates"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestStubHandlerQuery_SessionLimitAndDelete(t *testing.T) {
	r := setupStubRouter(NewStubHandler(nil, "site-key", nil))

	for i := 0; i < 20; i++ {
		rec := performRequest(r, http.MethodPost, "/bot/query", map[string]string{
			"query": "numbers", "session_id": "s1", "recaptcha_token": issueToken(t, r),
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("query %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := performRequest(r, http.MethodPost, "/bot/query", map[string]string{
		"query": "numbers", "session_id": "s1", "recaptcha_token": issueToken(t, r),
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}

	if rec := performRequest(r, http.MethodDelete, "/bot/session/s1", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected delete 200, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodDelete, "/bot/session/s1", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected idempotent delete, got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodPost, "/bot/query", map[string]string{
		"query": "numbers", "session_id": "s1", "recaptcha_token": issueToken(t, r),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected quota freed after delete, got %d", rec.Code)
	}
}

func TestStubHandlerIssueToken_WrongSiteKey(t *testing.T) {
	r := setupStubRouter(NewStubHandler(nil, "site-key", nil))

	rec := performRequest(r, http.MethodPost, "/verify/token", map[string]string{
		"site_key": "other",
		"action":   "submit",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestStubHandlerHealth(t *testing.T) {
	h := NewStubHandler(nil, "site-key", nil)
	h.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	r := setupStubRouter(h)

	rec := performRequest(r, http.MethodGet, "/bot/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var out map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out["status"] != "healthy" || out["time"] != "2025-01-02T03:04:05Z" {
		t.Fatalf("unexpected health %+v", out)
	}
}

func TestTokenLedger(t *testing.T) {
	l := newTokenLedger(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	tok := l.Issue("submit")
	if l.Consume(tok, "login") {
		t.Fatalf("expected action mismatch rejected")
	}
	if l.Consume(tok, "submit") {
		t.Fatalf("expected token burned by failed consume")
	}

	tok = l.Issue("submit")
	now = now.Add(2 * time.Minute)
	if l.Consume(tok, "submit") {
		t.Fatalf("expected expired token rejected")
	}
	if l.Consume("missing", "submit") {
		t.Fatalf("expected unknown token rejected")
	}
}

func TestSearch(t *testing.T) {
	hits := search(DefaultStyleCorpus, "Capitalization of section headings and titles")
	if len(hits) == 0 || hits[0].Title != "MOS:CAPS" {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if hits := search(DefaultStyleCorpus, "hello there"); len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v", hits)
	}
	if hits := search(DefaultStyleCorpus, "date number comma dash units quote"); len(hits) > maxSources {
		t.Fatalf("expected at most %d hits, got %d", maxSources, len(hits))
	}
}
