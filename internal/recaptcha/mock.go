package recaptcha

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider permite tests sin contactar el servicio de verificacion.
// Si Token esta vacio genera tokens distintos por llamada.
type MockProvider struct {
	Token string
	Err   error

	mu      sync.Mutex
	calls   int
	actions []string
}

func (m *MockProvider) AcquireToken(_ context.Context, action string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.actions = append(m.actions, action)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Token != "" {
		return m.Token, nil
	}
	return fmt.Sprintf("token-%d", m.calls), nil
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.actions...)
}
