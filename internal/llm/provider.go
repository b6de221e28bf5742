package llm

import (
	"context"
)

// Provider is the contract every judge back-end satisfies: given a conversation,
// return the model's text. Back-ends differ only in how they are constructed and in
// the Convention used to deliver the system directive; see providers.Adapter.
type Provider interface {
	// Name returns the provider name (e.g., "anthropic", "openai")
	Name() string

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

// Name returns "func".
func (f ProviderFunc) Name() string {
	return "func"
}

// Complete calls f.
func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}
