package http

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type issuedToken struct {
	action    string
	expiresAt time.Time
}

// tokenLedger guarda tokens de verificacion emitidos; cada token se consume una sola vez.
type tokenLedger struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]issuedToken
	now   func() time.Time
}

func newTokenLedger(ttl time.Duration) *tokenLedger {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &tokenLedger{
		ttl:   ttl,
		items: make(map[string]issuedToken),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (l *tokenLedger) Issue(action string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	token := uuid.NewString()
	l.items[token] = issuedToken{action: action, expiresAt: l.now().Add(l.ttl)}
	return token
}

// Consume valida y elimina el token. Falla si no existe, vencio o pertenece a otra accion.
func (l *tokenLedger) Consume(token, action string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[token]
	if !ok {
		return false
	}
	delete(l.items, token)
	if l.now().After(it.expiresAt) {
		return false
	}
	return it.action == action
}
