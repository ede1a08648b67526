package domain_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/davidbz/streambench/internal/domain"
)

// mockRegistry is a mock implementation of ProviderRegistry for testing.
type mockRegistry struct {
	providers map[domain.ProviderName]domain.ProviderCapability
}

func newMockRegistry(providers ...domain.ProviderCapability) *mockRegistry {
	m := &mockRegistry{providers: make(map[domain.ProviderName]domain.ProviderCapability)}
	for _, p := range providers {
		m.providers[p.Name()] = p
	}
	return m
}

func (m *mockRegistry) Register(_ context.Context, provider domain.ProviderCapability) error {
	m.providers[provider.Name()] = provider
	return nil
}

func (m *mockRegistry) Get(_ context.Context, name domain.ProviderName) (domain.ProviderCapability, error) {
	provider, exists := m.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}
	return provider, nil
}

func (m *mockRegistry) List(_ context.Context) ([]domain.ProviderName, error) {
	names := make([]domain.ProviderName, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	return names, nil
}

func (m *mockRegistry) GetByModel(_ context.Context, model string) (domain.ProviderCapability, error) {
	for _, provider := range m.providers {
		for _, known := range provider.KnownModels() {
			if known == model {
				return provider, nil
			}
		}
	}
	return nil, fmt.Errorf("no provider found for model: %s", model)
}

// mockCapability is a configurable ProviderCapability.
type mockCapability struct {
	name        domain.ProviderName
	apiKey      string
	model       string
	unsupported map[domain.RequestField]bool
}

func (m *mockCapability) Name() domain.ProviderName { return m.name }

func (m *mockCapability) Endpoint() domain.Endpoint {
	return domain.Endpoint{BaseURL: "https://example.test", Path: "chat/completions"}
}

func (m *mockCapability) AuthHeader() (string, error) {
	if m.apiKey == "" {
		return "", &domain.ConfigError{Provider: m.name, Field: "API_KEY"}
	}
	return "Bearer " + m.apiKey, nil
}

func (m *mockCapability) SupportsField(field domain.RequestField) bool { return !m.unsupported[field] }
func (m *mockCapability) DefaultModel() string                        { return m.model }
func (m *mockCapability) KnownModels() []string                       { return []string{m.model} }

// mockTransport records requests and delegates to sendFunc.
type mockTransport struct {
	mu       sync.Mutex
	requests []*domain.TransportRequest
	sendFunc func(ctx context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error)
}

func (m *mockTransport) Send(ctx context.Context, req *domain.TransportRequest) (*domain.TransportResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.sendFunc(ctx, req)
}

func (m *mockTransport) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// sliceSource replays fixed lines.
type sliceSource struct {
	lines  []string
	pos    int
	closed bool
}

func (s *sliceSource) Next() (string, error) {
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return line, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// chanSource yields lines pushed on a channel and unblocks on ctx like a
// real response body bound to the request context.
type chanSource struct {
	ctx   context.Context
	lines chan string
}

func (s *chanSource) Next() (string, error) {
	select {
	case <-s.ctx.Done():
		return "", s.ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (s *chanSource) Close() error { return nil }

// errSource fails on the first read.
type errSource struct{ err error }

func (s *errSource) Next() (string, error) { return "", s.err }
func (s *errSource) Close() error          { return nil }

// recordingPublisher collects published event types.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// recordingRecorder collects usage records.
type recordingRecorder struct {
	mu      sync.Mutex
	records []domain.UsageRecord
}

func (r *recordingRecorder) Record(_ context.Context, record domain.UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *recordingRecorder) all() []domain.UsageRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.UsageRecord(nil), r.records...)
}

func chunkLine(text string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`, text)
}
