package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mohamed-services/AgentLang/internal/llm"
)

// MockCall represents a recorded call to the mock provider
type MockCall struct {
	Request llm.CompletionRequest
}

// MockStep is one scripted outcome: either a text answer or an error.
type MockStep struct {
	Text string
	Err  error
}

// MockProvider implements llm.Provider for testing. Steps are consumed in
// order and cycle once exhausted.
type MockProvider struct {
	mu        sync.Mutex
	name      string
	steps     []MockStep
	stepIndex int
	calls     []MockCall
}

// NewMockProvider creates a mock provider that answers with the given texts.
func NewMockProvider(responses ...string) *MockProvider {
	steps := make([]MockStep, 0, len(responses))
	for _, r := range responses {
		steps = append(steps, MockStep{Text: r})
	}
	return NewScriptedMockProvider(steps...)
}

// NewScriptedMockProvider creates a mock provider from a mix of answers and errors.
func NewScriptedMockProvider(steps ...MockStep) *MockProvider {
	return &MockProvider{
		name:  "mock",
		steps: steps,
		calls: make([]MockCall, 0),
	}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return p.name
}

// Complete returns the next scripted step
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req})

	if len(p.steps) == 0 {
		p.mu.Unlock()
		return nil, llm.NewProviderUnavailableError(p.name, fmt.Errorf("no responses configured"))
	}

	step := p.steps[p.stepIndex%len(p.steps)]
	p.stepIndex++
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, llm.TranslateError(p.name, err)
	}
	if step.Err != nil {
		return nil, step.Err
	}

	return &llm.CompletionResponse{
		ID:           uuid.New().String(),
		Model:        req.Model,
		Message:      llm.NewAssistantMessage(step.Text),
		FinishReason: llm.FinishReasonStop,
	}, nil
}

// GetCalls returns all recorded calls (thread-safe)
func (p *MockProvider) GetCalls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	calls := make([]MockCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// CallCount returns the number of Complete invocations.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Reset resets the mock provider state
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = make([]MockCall, 0)
	p.stepIndex = 0
}
