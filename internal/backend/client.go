package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"styleguide-bot/internal/domain"
)

// Client define las operaciones remotas del backend de la guia de estilo.
// SubmitQuery no es idempotente: se llama una sola vez por envio y nunca se reintenta.
type Client interface {
	SubmitQuery(ctx context.Context, req QueryRequest) (QueryResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error
	CheckHealth(ctx context.Context) (HealthStatus, error)
}

type QueryRequest struct {
	Query          string `json:"query"`
	SessionID      string `json:"session_id"`
	RecaptchaToken string `json:"recaptcha_token"`
}

type Source struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Citations convierte las fuentes del backend a citas del dominio, en el mismo orden.
func (r QueryResponse) Citations() []domain.Citation {
	out := make([]domain.Citation, 0, len(r.Sources))
	for _, s := range r.Sources {
		out = append(out, domain.Citation{Title: s.Title, Body: s.Content})
	}
	return out
}

type HealthStatus struct {
	Status string `json:"status"`
	Time   string `json:"time,omitempty"`
}

// HTTPClient implementa Client contra el contrato JSON /bot/*.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente; timeout acota cada llamada completa.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *HTTPClient) SubmitQuery(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.do(ctx, "submit query", http.MethodPost, "/bot/query", bodyBytes)
	if err != nil {
		return QueryResponse{}, err
	}

	var qr QueryResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		return QueryResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return qr, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("delete session: empty session id")
	}
	_, err := c.do(ctx, "delete session", http.MethodDelete, "/bot/session/"+url.PathEscape(sessionID), nil)
	return err
}

func (c *HTTPClient) CheckHealth(ctx context.Context) (HealthStatus, error) {
	respBody, err := c.do(ctx, "health check", http.MethodGet, "/bot/health", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	var hs HealthStatus
	if err := json.Unmarshal(respBody, &hs); err != nil {
		return HealthStatus{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return hs, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("op", op), zap.Error(err))
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend error status",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, &BackendError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return respBody, nil
}

// errorMessage extrae el detalle de cuerpos tipo {"detail": ...} o {"error": ...}.
func errorMessage(body []byte) string {
	var eb struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &eb); err == nil {
		switch d := eb.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
