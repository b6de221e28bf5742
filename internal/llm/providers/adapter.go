package providers

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mohamed-services/AgentLang/internal/llm"
)

// Adapter is the single llm.Provider implementation for every real back-end.
// It wraps a langchaingo model and differs between vendors only in its
// Convention and model name.
type Adapter struct {
	name       string
	client     llms.Model
	model      string
	convention llm.Convention
	maxTokens  int
}

// NewAdapter wraps client using the settings in cfg.
func NewAdapter(client llms.Model, cfg llm.ProviderConfig) *Adapter {
	return &Adapter{
		name:       string(cfg.Type),
		client:     client,
		model:      cfg.Model,
		convention: cfg.EffectiveConvention(),
		maxTokens:  cfg.MaxTokens,
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.name
}

// Convention returns the calling convention used by this adapter.
func (a *Adapter) Convention() llm.Convention {
	return a.convention
}

// Complete sends a completion request
func (a *Adapter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = a.model
	}

	messages := toSchemaMessages(applyConvention(a.convention, req.Messages))
	callOpts := buildCallOptions(req, model, a.maxTokens)

	resp, err := a.client.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, llm.TranslateError(a.name, err)
	}

	out := fromLangchainResponse(resp, model)
	if strings.TrimSpace(out.Text()) == "" {
		return nil, llm.NewEmptyResponseError(a.name)
	}

	return out, nil
}
