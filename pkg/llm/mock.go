package llm

import (
	"context"
	"sync"
)

// MockResponse is one scripted reply of a MockProvider.
type MockResponse struct {
	Content string
	Err     error
}

// MockCall records a single invocation.
type MockCall struct {
	Options  Options
	Messages []Message
}

// MockProvider is a test double. Scripted Responses are consumed in FIFO order;
// once they run out Handler is used, and without a Handler the Default text is
// returned.
type MockProvider struct {
	mu        sync.Mutex
	Responses []MockResponse
	Handler   func(opts Options, history []Message) (string, error)
	Default   string
	Calls     []MockCall
}

var _ LLMProvider = &MockProvider{}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{Responses: responses}
}

func (m *MockProvider) Chat(ctx context.Context, history []Message, opts ...Option) (string, error) {
	options := ResolveOptions(opts...)

	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Options: options, Messages: append([]Message(nil), history...)})
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		m.mu.Unlock()
		return resp.Content, resp.Err
	}
	handler := m.Handler
	m.mu.Unlock()

	if handler != nil {
		return handler(options, history)
	}
	return m.Default, nil
}

func (m *MockProvider) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return m.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CallsForModel counts invocations that targeted model.
func (m *MockProvider) CallsForModel(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Options.Model == model {
			n++
		}
	}
	return n
}
