package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultSessionNamespace es la clave fija bajo la que se guarda el id de sesion.
const DefaultSessionNamespace = "styleGuideBot_sessionId"

// SessionStore mantiene un unico id de sesion por contexto de navegacion.
// GetSessionID es idempotente: genera y persiste un id solo si no existe.
type SessionStore interface {
	GetSessionID(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error
}

func newSessionID() string {
	return uuid.NewString()
}

type memorySessionStore struct {
	mu    sync.Mutex
	id    string
	newID func() string
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{newID: newSessionID}
}

func (s *memorySessionStore) GetSessionID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		s.id = s.newID()
	}
	return s.id, nil
}

func (s *memorySessionStore) ClearSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	return nil
}

type redisSessionClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client redisSessionClient
	key    string
	ttl    time.Duration
	newID  func() string
}

// NewRedisSessionStore guarda el id bajo namespace:browsingContext; si browsingContext
// esta vacio se genera uno, de modo que el id nunca se comparte entre procesos.
func NewRedisSessionStore(client *redis.Client, namespace, browsingContext string, ttl time.Duration) SessionStore {
	if client == nil {
		return nil
	}
	return newRedisSessionStore(client, namespace, browsingContext, ttl)
}

func newRedisSessionStore(client redisSessionClient, namespace, browsingContext string, ttl time.Duration) *redisSessionStore {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultSessionNamespace
	}
	browsingContext = strings.TrimSpace(browsingContext)
	if browsingContext == "" {
		browsingContext = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisSessionStore{
		client: client,
		key:    namespace + ":" + browsingContext,
		ttl:    ttl,
		newID:  newSessionID,
	}
}

func (s *redisSessionStore) GetSessionID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	id, err := s.client.Get(ctx, s.key).Result()
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get session id: %w", err)
	}

	candidate := s.newID()
	created, err := s.client.SetNX(ctx, s.key, candidate, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("set session id: %w", err)
	}
	if created {
		return candidate, nil
	}

	// Otro escritor gano la carrera; se usa su id.
	id, err = s.client.Get(ctx, s.key).Result()
	if err != nil {
		return "", fmt.Errorf("get session id: %w", err)
	}
	return id, nil
}

func (s *redisSessionStore) ClearSession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session id: %w", err)
	}
	return nil
}
