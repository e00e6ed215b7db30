package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"styleguide-bot/internal/domain"
)

const fallbackAnswer = "I can only help with questions about the Manual of Style. Try asking about dates, capitalization, quotation marks, numbers, commas, dashes or units."

// StubHandler implementa el contrato del backend para desarrollo local.
type StubHandler struct {
	logger  *zap.Logger
	siteKey string
	tokens  *tokenLedger
	corpus  []StyleEntry
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]int
}

// NewStubHandler crea el handler; siteKey debe coincidir con la del cliente.
func NewStubHandler(logger *zap.Logger, siteKey string, corpus []StyleEntry) *StubHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(corpus) == 0 {
		corpus = DefaultStyleCorpus
	}
	return &StubHandler{
		logger:   logger,
		siteKey:  siteKey,
		tokens:   newTokenLedger(2 * time.Minute),
		corpus:   corpus,
		now:      time.Now,
		sessions: make(map[string]int),
	}
}

// IssueToken maneja POST /verify/token.
func (h *StubHandler) IssueToken(c *gin.Context) {
	var req struct {
		SiteKey string `json:"site_key" binding:"required"`
		Action  string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid token request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.SiteKey != h.siteKey {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid site key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": h.tokens.Issue(req.Action)})
}

// Query maneja POST /bot/query.
func (h *StubHandler) Query(c *gin.Context) {
	var req struct {
		Query          string `json:"query" binding:"required"`
		SessionID      string `json:"session_id" binding:"required"`
		RecaptchaToken string `json:"recaptcha_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid query request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request"})
		return
	}
	if !h.tokens.Consume(req.RecaptchaToken, "submit") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid recaptcha token"})
		return
	}

	h.mu.Lock()
	if h.sessions[req.SessionID] >= domain.QueryLimit {
		h.mu.Unlock()
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "query limit reached for session"})
		return
	}
	h.sessions[req.SessionID]++
	h.mu.Unlock()

	entries := search(h.corpus, req.Query)
	sources := make([]gin.H, 0, len(entries))
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, gin.H{"title": e.Title, "content": e.Content})
		parts = append(parts, "**"+e.Title+"**: "+e.Content)
	}
	answer := fallbackAnswer
	if len(parts) > 0 {
		answer = strings.Join(parts, "\n\n")
	}

	h.logger.Info("query answered",
		zap.String("session_id", req.SessionID),
		zap.Int("sources", len(sources)),
	)
	c.JSON(http.StatusOK, gin.H{"answer": answer, "sources": sources})
}

// DeleteSession maneja DELETE /bot/session/:session_id. Es idempotente.
func (h *StubHandler) DeleteSession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "session id required"})
		return
	}
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "session deleted", "session_id": sessionID})
}

// Health maneja GET /bot/health.
func (h *StubHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": h.now().Format(time.RFC3339)})
}
