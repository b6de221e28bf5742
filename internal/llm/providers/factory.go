package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mohamed-services/AgentLang/internal/llm"
)

// DefaultMockResponse is what a configured "mock" judge answers.
const DefaultMockResponse = "VOTE: ABSTAIN\nREASONING: Mock judge; no model was consulted."

// constructor builds the langchaingo client for one provider kind.
type constructor func(cfg llm.ProviderConfig) (llms.Model, error)

// registry maps every supported provider kind to its client constructor.
// OpenAI-compatible vendors use the openai kind with a base URL.
var registry = map[llm.ProviderType]constructor{
	llm.ProviderOpenAI:    newOpenAIClient,
	llm.ProviderAnthropic: newAnthropicClient,
	llm.ProviderGoogle:    newGoogleClient,
	llm.ProviderOllama:    newOllamaClient,
}

// Supported reports whether a provider kind can be constructed.
func Supported(t llm.ProviderType) bool {
	if t == llm.ProviderMock {
		return true
	}
	_, ok := registry[t]
	return ok
}

// NewProvider creates a new LLM provider based on the configuration
func NewProvider(cfg llm.ProviderConfig) (llm.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Type == llm.ProviderMock {
		return NewMockProvider(DefaultMockResponse), nil
	}

	build, ok := registry[cfg.Type]
	if !ok {
		return nil, llm.NewProviderNotFoundError(string(cfg.Type))
	}

	client, err := build(cfg)
	if err != nil {
		return nil, llm.NewProviderInitError(string(cfg.Type), err)
	}

	return NewAdapter(client, cfg), nil
}

func newOpenAIClient(cfg llm.ProviderConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, llm.NewProviderUnauthorizedError("openai", nil)
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	return openai.New(opts...)
}

func newAnthropicClient(cfg llm.ProviderConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, llm.NewProviderUnauthorizedError("anthropic", nil)
	}

	opts := []anthropic.Option{
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return anthropic.New(opts...)
}

func newGoogleClient(cfg llm.ProviderConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, llm.NewProviderUnauthorizedError("google", nil)
	}

	return googleai.New(context.Background(),
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
}

func newOllamaClient(cfg llm.ProviderConfig) (llms.Model, error) {
	return ollama.New(
		ollama.WithServerURL(cfg.GetBaseURL()),
		ollama.WithModel(cfg.Model),
	)
}
