package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"styleguide-bot/internal/backend"
	"styleguide-bot/internal/domain"
	"styleguide-bot/internal/recaptcha"
)

const (
	MinQueryLength = 3
	MaxQueryLength = 500

	// FailureReason es el unico texto de error que ve el usuario; el detalle va a los logs.
	FailureReason = "Failed to get response. Please try again."
	QuotaReason   = "You've reached the maximum of 20 queries. Click 'New Chat' to continue."

	tooShortMessage = "Please enter at least 3 characters"
	tooLongMessage  = "Message too long. Please keep it under 500 characters."
	tooShortDisplay = 2 * time.Second
	tooLongDisplay  = 3 * time.Second
)

var (
	ErrServiceNotConfigured = errors.New("conversation service not configured")
	ErrQueryTooShort        = errors.New("query too short")
	ErrQueryTooLong         = errors.New("query too long")
	ErrSubmissionInFlight   = errors.New("submission already in flight")
	ErrQuotaExceeded        = errors.New("query quota exceeded")
)

// ValidationError se resuelve localmente y nunca llega a la red.
// DisplayFor indica cuanto tiempo debe mostrarse Message.
type ValidationError struct {
	Message    string
	DisplayFor time.Duration
	Err        error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// ConversationBackend es el subconjunto de backend.Client que usa la conversacion.
type ConversationBackend interface {
	SubmitQuery(ctx context.Context, req backend.QueryRequest) (backend.QueryResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Event es un evento externo que dispara una transicion.
type Event interface {
	event()
}

// SubmitEvent: el usuario envia un texto.
type SubmitEvent struct {
	Text string
}

// NewChatEvent: el usuario pide una conversacion nueva.
type NewChatEvent struct{}

func (SubmitEvent) event()  {}
func (NewChatEvent) event() {}

// ConversationSnapshot es una copia del estado para renderizar.
type ConversationSnapshot struct {
	SessionID string
	Messages  []domain.Message
	Status    domain.Status
	Queries   domain.QueryCounter
}

// ConversationService es la maquina de estados de la conversacion.
// Admite como maximo un Submit en vuelo; las mutaciones se serializan con mu.
type ConversationService struct {
	logger       *zap.Logger
	sessions     SessionStore
	tokens       recaptcha.TokenProvider
	backend      ConversationBackend
	errorDisplay time.Duration
	now          func() time.Time
	newMessageID func() string

	mu        sync.Mutex
	sessionID string
	messages  []domain.Message
	queries   domain.QueryCounter
	status    domain.Status

	// epoch cambia con cada reset; un Submit iniciado en otra epoca descarta su resultado.
	epoch          uint64
	cancelInFlight context.CancelFunc
}

// NewConversationService crea la conversacion en estado Idle. errorDisplay es la
// duracion de visualizacion del estado Error (cero: no expira).
func NewConversationService(
	logger *zap.Logger,
	sessions SessionStore,
	tokens recaptcha.TokenProvider,
	backendClient ConversationBackend,
	errorDisplay time.Duration,
) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ConversationService{
		logger:       logger,
		sessions:     sessions,
		tokens:       tokens,
		backend:      backendClient,
		errorDisplay: errorDisplay,
		now:          func() time.Time { return time.Now().UTC() },
		newMessageID: newMessageID,
		queries:      domain.NewQueryCounter(),
	}
	s.status = domain.IdleStatus(s.now())
	return s
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *ConversationService) configured() bool {
	return s != nil && s.sessions != nil && s.tokens != nil && s.backend != nil
}

// Start obtiene (o crea) el id de sesion del contexto de navegacion actual.
func (s *ConversationService) Start(ctx context.Context) (string, error) {
	if !s.configured() {
		return "", ErrServiceNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSessionLocked(ctx)
}

// Handle aplica un evento externo.
func (s *ConversationService) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case SubmitEvent:
		return s.Submit(ctx, e.Text)
	case NewChatEvent:
		return s.ResetSession(ctx)
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
}

// Submit valida y envia una consulta. Devuelve error solo si la consulta se rechaza
// (validacion, envio en vuelo, cuota); los fallos de verificacion o backend de una
// consulta aceptada quedan en el Status.
func (s *ConversationService) Submit(ctx context.Context, text string) error {
	if !s.configured() {
		return ErrServiceNotConfigured
	}
	query, err := validateQuery(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.status.Kind == domain.StatusPending {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if s.queries.Exhausted() {
		s.mu.Unlock()
		return ErrQuotaExceeded
	}
	sessionID, err := s.currentSessionLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("session id unavailable", zap.Error(err))
		return err
	}

	now := s.now()
	s.messages = append(s.messages, domain.Message{
		ID:        s.newMessageID(),
		Role:      domain.RoleUser,
		Content:   query,
		CreatedAt: now,
	})
	s.queries.Count++
	s.status = domain.Status{Kind: domain.StatusPending, Since: now}
	epoch := s.epoch
	flightCtx, cancel := context.WithCancel(ctx)
	s.cancelInFlight = cancel
	s.mu.Unlock()
	defer cancel()

	log := s.logger.With(zap.String("session_id", sessionID))

	token, err := s.tokens.AcquireToken(flightCtx, recaptcha.ActionSubmit)
	if err == nil && strings.TrimSpace(token) == "" {
		err = errors.New("empty token")
	}
	if err != nil {
		if !errors.Is(err, recaptcha.ErrVerificationUnavailable) {
			err = fmt.Errorf("%w: %w", recaptcha.ErrVerificationUnavailable, err)
		}
		log.Warn("recaptcha token failed", zap.Error(err))
		s.finish(epoch, nil, err)
		return nil
	}

	resp, err := s.backend.SubmitQuery(flightCtx, backend.QueryRequest{
		Query:          query,
		SessionID:      sessionID,
		RecaptchaToken: token,
	})
	if err != nil {
		log.Error("submit query failed", zap.Error(err))
		s.finish(epoch, nil, err)
		return nil
	}

	s.finish(epoch, &resp, nil)
	return nil
}

func (s *ConversationService) finish(epoch uint64, resp *backend.QueryResponse, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.logger.Info("discarding result of a reset session", zap.Bool("failed", cause != nil))
		return
	}
	s.cancelInFlight = nil

	now := s.now()
	if cause != nil {
		s.status = domain.Status{
			Kind:       domain.StatusError,
			Reason:     FailureReason,
			Cause:      cause,
			Since:      now,
			DisplayFor: s.errorDisplay,
		}
		return
	}

	s.messages = append(s.messages, domain.Message{
		ID:        s.newMessageID(),
		Role:      domain.RoleBot,
		Content:   resp.Answer,
		Citations: resp.Citations(),
		CreatedAt: now,
	})
	s.status = domain.IdleStatus(now)
}

// ResetSession borra la sesion remota (best effort), rota el id y limpia historial,
// cuota y estado. Un Submit en vuelo se cancela y su resultado se descarta.
// El estado local queda reiniciado aunque falle el backend o el store.
func (s *ConversationService) ResetSession(ctx context.Context) error {
	if !s.configured() {
		return ErrServiceNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelInFlight != nil {
		s.logger.Info("cancelling in-flight submission", zap.String("session_id", s.sessionID))
		s.cancelInFlight()
		s.cancelInFlight = nil
	}
	s.epoch++

	previous := s.sessionID
	if previous != "" {
		if err := s.backend.DeleteSession(ctx, previous); err != nil {
			s.logger.Warn("delete session failed", zap.String("session_id", previous), zap.Error(err))
		} else {
			s.logger.Info("session deleted", zap.String("session_id", previous))
		}
	}

	clearErr := s.sessions.ClearSession(ctx)
	if clearErr != nil {
		s.logger.Warn("clear session failed", zap.Error(clearErr))
	}

	s.sessionID = ""
	s.messages = nil
	s.queries = domain.NewQueryCounter()
	s.status = domain.IdleStatus(s.now())

	if _, err := s.currentSessionLocked(ctx); err != nil {
		s.logger.Error("session id unavailable", zap.Error(err))
		return err
	}
	if clearErr != nil {
		return fmt.Errorf("clear session: %w", clearErr)
	}
	return nil
}

// Status devuelve el estado activo. QuotaExceeded tiene prioridad sobre Idle y Error.
func (s *ConversationService) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Snapshot devuelve una copia del estado actual.
func (s *ConversationService) Snapshot() ConversationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]domain.Message, len(s.messages))
	for i, m := range s.messages {
		if m.Citations != nil {
			m.Citations = append([]domain.Citation(nil), m.Citations...)
		}
		messages[i] = m
	}
	return ConversationSnapshot{
		SessionID: s.sessionID,
		Messages:  messages,
		Status:    s.statusLocked(),
		Queries:   s.queries,
	}
}

func (s *ConversationService) statusLocked() domain.Status {
	if s.status.Kind != domain.StatusPending && s.queries.Exhausted() {
		return domain.Status{
			Kind:   domain.StatusQuotaExceeded,
			Reason: QuotaReason,
			Since:  s.status.Since,
		}
	}
	return s.status
}

func (s *ConversationService) currentSessionLocked(ctx context.Context) (string, error) {
	if s.sessionID != "" {
		return s.sessionID, nil
	}
	id, err := s.sessions.GetSessionID(ctx)
	if err != nil {
		return "", fmt.Errorf("get session id: %w", err)
	}
	s.sessionID = id
	return id, nil
}

func validateQuery(text string) (string, error) {
	query := strings.TrimSpace(text)
	n := utf8.RuneCountInString(query)
	if n < MinQueryLength {
		return "", &ValidationError{Message: tooShortMessage, DisplayFor: tooShortDisplay, Err: ErrQueryTooShort}
	}
	if n > MaxQueryLength {
		return "", &ValidationError{Message: tooLongMessage, DisplayFor: tooLongDisplay, Err: ErrQueryTooLong}
	}
	return query, nil
}
