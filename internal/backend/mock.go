package backend

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar al backend real.
type MockClient struct {
	Response  QueryResponse
	Err       error
	DeleteErr error
	Health    HealthStatus
	HealthErr error

	mu       sync.Mutex
	queries []QueryRequest
	deleted []string
}

func (m *MockClient) SubmitQuery(_ context.Context, req QueryRequest) (QueryResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, req)
	if m.Err != nil {
		return QueryResponse{}, m.Err
	}
	return m.Response, nil
}

func (m *MockClient) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, sessionID)
	return m.DeleteErr
}

func (m *MockClient) CheckHealth(_ context.Context) (HealthStatus, error) {
	return m.Health, m.HealthErr
}

func (m *MockClient) Queries() []QueryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]QueryRequest(nil), m.queries...)
}

func (m *MockClient) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
