package advisor

import (
	"context"
	"sync"
)

// MockProvider returns a predefined sequence of responses for testing.
type MockProvider struct {
	responses []string
	errs      []error
	index     int
	calls     int
	mu        sync.Mutex
}

// NewMockProvider creates a mock provider that answers with the given
// contents in order, repeating the last one once exhausted.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// FailWith makes the next calls return the given errors in order,
// before any scripted responses are consumed.
func (p *MockProvider) FailWith(errs ...error) *MockProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, errs...)
	return p
}

// Name returns the provider name.
func (p *MockProvider) Name() string { return "mock" }

// Calls reports how many completions were requested.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Complete returns the next scripted response or error.
func (p *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return CompletionResponse{}, err
	}

	content := ""
	if len(p.responses) > 0 {
		if p.index >= len(p.responses) {
			content = p.responses[len(p.responses)-1]
		} else {
			content = p.responses[p.index]
			p.index++
		}
	}
	return CompletionResponse{
		Model:   req.Model,
		Message: Message{Role: "assistant", Content: content},
	}, nil
}
