package recaptcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPProvider pide tokens a un endpoint emisor usando la site key configurada.
type HTTPProvider struct {
	tokenURL string
	siteKey  string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPProvider construye un provider; timeout acota cuanto puede tardar cada token.
func NewHTTPProvider(tokenURL, siteKey string, timeout time.Duration, logger *zap.Logger) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProvider{
		tokenURL: strings.TrimRight(tokenURL, "/"),
		siteKey:  siteKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (p *HTTPProvider) AcquireToken(ctx context.Context, action string) (string, error) {
	if p == nil || p.client == nil {
		return "", ErrVerificationUnavailable
	}
	action = strings.TrimSpace(action)
	if action == "" {
		action = ActionSubmit
	}

	bodyBytes, err := json.Marshal(tokenRequest{SiteKey: p.siteKey, Action: action})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrVerificationUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrVerificationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("recaptcha token request failed", zap.String("action", action), zap.Error(err))
		return "", fmt.Errorf("%w: do request: %v", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrVerificationUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		p.logger.Warn("recaptcha token error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return "", fmt.Errorf("%w: status=%d", ErrVerificationUnavailable, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrVerificationUnavailable, err)
	}
	if strings.TrimSpace(tr.Token) == "" {
		return "", fmt.Errorf("%w: empty token", ErrVerificationUnavailable)
	}
	return tr.Token, nil
}

type tokenRequest struct {
	SiteKey string `json:"site_key"`
	Action  string `json:"action"`
}

type tokenResponse struct {
	Token string `json:"token"`
}
