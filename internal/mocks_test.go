package internal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

// mockBackend is an in-memory SessionBackend. Behavior is overridable
// per test via the func fields; the defaults mint uuid session ids and
// echo invocations.
type mockBackend struct {
	CreateFunc func(ctx context.Context) (string, error)
	InvokeFunc func(ctx context.Context, sessionID, text string) (string, error)
	StatusFunc func(ctx context.Context, sessionID string) (SessionStatus, error)
	ResetFunc  func(ctx context.Context, sessionID string) error

	mu      sync.Mutex
	invoked map[string][]string
	resets  []string
	creates atomic.Int64
}

func newMockBackend() *mockBackend {
	return &mockBackend{invoked: make(map[string][]string)}
}

func (m *mockBackend) Create(ctx context.Context) (string, error) {
	m.creates.Add(1)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx)
	}
	return uuid.NewString(), nil
}

func (m *mockBackend) Invoke(ctx context.Context, sessionID, text string) (string, error) {
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, sessionID, text)
	}
	m.mu.Lock()
	m.invoked[sessionID] = append(m.invoked[sessionID], text)
	m.mu.Unlock()
	return fmt.Sprintf("echo: %s", text), nil
}

func (m *mockBackend) Status(ctx context.Context, sessionID string) (SessionStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, sessionID)
	}
	return SessionStatus{State: SessionIdle, LogBytes: 1024}, nil
}

func (m *mockBackend) Reset(ctx context.Context, sessionID string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	m.mu.Lock()
	m.resets = append(m.resets, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *mockBackend) createCount() int {
	return int(m.creates.Load())
}

func (m *mockBackend) invocations(sessionID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.invoked[sessionID]))
	copy(out, m.invoked[sessionID])
	return out
}

func (m *mockBackend) resetIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.resets))
	copy(out, m.resets)
	return out
}

// mockSkillRegistry is a func-field SkillRegistry.
type mockSkillRegistry struct {
	SkillsFunc func(ctx context.Context) ([]Skill, error)
}

func (m *mockSkillRegistry) Skills(ctx context.Context) ([]Skill, error) {
	if m.SkillsFunc != nil {
		return m.SkillsFunc(ctx)
	}
	return nil, nil
}

// mockIntegrationRegistry is a func-field IntegrationRegistry.
type mockIntegrationRegistry struct {
	IntegrationsFunc func(ctx context.Context) ([]Integration, error)
}

func (m *mockIntegrationRegistry) Integrations(ctx context.Context) ([]Integration, error) {
	if m.IntegrationsFunc != nil {
		return m.IntegrationsFunc(ctx)
	}
	return nil, nil
}

// newTestDirectory builds a Directory over a memory store and the given
// backend.
func newTestDirectory(t *testing.T, backend SessionBackend) *Directory {
	t.Helper()
	store, err := NewStore(StoreDriverMemory)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	dir, err := NewDirectory(context.Background(), backend, store)
	if err != nil {
		t.Fatalf("NewDirectory() error = %v", err)
	}
	return dir
}
