package mock

import "context"

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via a function field.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns Answer (or a canned default).
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Answer is returned by the default behavior.
	Answer string

	callCount int
	prompts   []string
}

// NewMockCompleter creates a mock completer that records prompts.
// Note: Returns concrete type to allow test assertions via GetMockCompleter().
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{Answer: "mock answer"}
}

// Complete records the prompt and returns the configured answer.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return m.Answer, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// Prompts returns every prompt received, in call order.
func (m *MockCompleter) Prompts() []string {
	return m.prompts
}

// Reset clears recorded calls and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.CompleteFunc = nil
}
