package llm

import (
	"fmt"
	"strings"

	"github.com/mohamed-services/AgentLang/internal/types"
)

// ProviderType represents the kind of back-end a judge talks to.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
	ProviderMock      ProviderType = "mock"
)

// IsValid reports whether t is a known provider kind.
func (t ProviderType) IsValid() bool {
	switch t {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderOllama, ProviderMock:
		return true
	default:
		return false
	}
}

// Convention is the calling convention used to deliver the system directive.
//
// Back-ends converge on the same textual contract; they only differ in whether the
// client accepts a system role.
type Convention string

const (
	// ConventionChat sends the directive as a system message ahead of the user turn.
	ConventionChat Convention = "chat"

	// ConventionInline folds the directive into the single user turn.
	ConventionInline Convention = "inline"
)

// IsValid reports whether c is a known convention.
func (c Convention) IsValid() bool {
	return c == ConventionChat || c == ConventionInline
}

// DefaultConvention returns the convention used for a provider kind when none is configured.
func DefaultConvention(t ProviderType) Convention {
	switch t {
	case ProviderGoogle, ProviderOllama:
		return ConventionInline
	default:
		return ConventionChat
	}
}

// ProviderConfig contains everything needed to construct one judge back-end.
// APIKey is resolved by the caller from the judge's credential lookup key; it is
// never read from configuration files.
type ProviderConfig struct {
	Type       ProviderType `mapstructure:"type" yaml:"type" json:"type"`
	Model      string       `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL    string       `mapstructure:"base_url" yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Convention Convention   `mapstructure:"convention" yaml:"convention,omitempty" json:"convention,omitempty"`
	MaxTokens  int          `mapstructure:"max_tokens" yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	APIKey     string       `mapstructure:"-" yaml:"-" json:"-"`
}

// Validate performs validation on the ProviderConfig.
func (p *ProviderConfig) Validate() error {
	if p.Type == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "provider type cannot be empty")
	}

	if !p.Type.IsValid() {
		return types.NewError(
			types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("invalid provider type '%s', must be one of: anthropic, openai, google, ollama, mock", p.Type),
		)
	}

	if p.Model == "" && p.Type != ProviderMock {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "model cannot be empty")
	}

	if p.Convention != "" && !p.Convention.IsValid() {
		return types.NewError(
			types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("invalid convention '%s', must be one of: chat, inline", p.Convention),
		)
	}

	if p.MaxTokens < 0 {
		return types.NewError(
			types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("max_tokens must be non-negative, got %d", p.MaxTokens),
		)
	}

	return nil
}

// EffectiveConvention returns the configured convention or the kind's default.
func (p *ProviderConfig) EffectiveConvention() Convention {
	if p.Convention != "" {
		return p.Convention
	}
	return DefaultConvention(p.Type)
}

// GetBaseURL returns the base URL for a provider, with defaults for known providers.
func (p *ProviderConfig) GetBaseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}

	switch p.Type {
	case ProviderAnthropic:
		return "https://api.anthropic.com/v1"
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderOllama:
		return "http://localhost:11434"
	default:
		return ""
	}
}

// NormalizeProviderName lowercases and trims a provider or convention name from
// configuration, so "OpenAI " resolves to the openai kind.
func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
