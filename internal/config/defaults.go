package config

import (
	"time"

	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/github"
	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/observability"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/presenter"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

// OpenAI-compatible endpoints for vendors served through the openai provider kind.
const (
	xaiBaseURL      = "https://api.x.ai/v1"
	deepseekBaseURL = "https://api.deepseek.com/v1"
	qwenBaseURL     = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
	togetherBaseURL = "https://api.together.xyz/v1"
	mistralBaseURL  = "https://api.mistral.ai/v1"
	cohereBaseURL   = "https://api.cohere.ai/compatibility/v1"
)

const (
	reasonNoPublicAPI = "No public API available"
	reasonRestricted  = "Restricted access"
)

// DefaultConfig returns a Config with the standard roster and policy.
func DefaultConfig() *Config {
	return &Config{
		Council: CouncilConfig{
			SimpleMajority:    policy.DefaultSimpleMajority,
			SuperMajority:     policy.DefaultSuperMajority,
			ProtectedPrefixes: append([]string(nil), policy.DefaultProtectedPrefixes...),
			AlwaysReject:      append([]string(nil), policy.DefaultAlwaysReject...),
			MaxDiffChars:      docket.DefaultMaxDiffChars,
			MaxConcurrent:     0,
			Timeout:           10 * time.Minute,
		},
		Judges: JudgesConfig{
			MaxAttempts: judge.DefaultMaxAttempts,
			BaseDelay:   judge.DefaultBaseDelay,
			MaxJitter:   judge.DefaultMaxJitter,
			CallTimeout: judge.DefaultCallTimeout,
			MaxTokens:   judge.DefaultMaxTokens,
			Members:     DefaultMembers(),
		},
		Validation: ValidationConfig{
			Enabled:    true,
			Dir:        ".",
			Extensions: append([]string(nil), validate.DefaultExtensions...),
		},
		GitHub: GitHubConfig{
			APIURL:           github.DefaultAPIURL,
			TokenKey:         "GITHUB_TOKEN",
			Timeout:          github.DefaultTimeout,
			MutationInterval: github.DefaultMutationInterval,
		},
		Logging: observability.DefaultLoggingConfig(),
		Tracing: observability.DefaultTracingConfig(),
		Metrics: observability.DefaultMetricsConfig(),
		Markers: presenter.DefaultMarkers(),
	}
}

// DefaultMembers returns the standard roster: phase 1 judges enabled, phase 2 and 3
// judges configured but disabled, and tracked abstentions with no back-end.
func DefaultMembers() []judge.Identity {
	return []judge.Identity{
		// Phase 1
		member("anthropic", "Claude", "Anthropic", 1, true, "ANTHROPIC_API_KEY",
			backend(llm.ProviderAnthropic, "claude-opus-4-6", "")),
		member("openai", "GPT-4o", "OpenAI", 1, true, "OPENAI_API_KEY",
			backend(llm.ProviderOpenAI, "gpt-4o", "")),
		member("google", "Gemini", "Google", 1, true, "GOOGLE_API_KEY",
			backend(llm.ProviderGoogle, "gemini-2.0-flash", "")),
		member("xai", "Grok", "xAI", 1, true, "XAI_API_KEY",
			backend(llm.ProviderOpenAI, "grok-2-latest", xaiBaseURL)),

		// Phase 2
		member("deepseek", "DeepSeek", "DeepSeek", 2, false, "DEEPSEEK_API_KEY",
			backend(llm.ProviderOpenAI, "deepseek-chat", deepseekBaseURL)),
		member("alibaba", "Qwen", "Alibaba", 2, false, "ALIBABA_API_KEY",
			backend(llm.ProviderOpenAI, "qwen-max", qwenBaseURL)),
		member("meta", "Llama", "Meta", 2, false, "TOGETHER_API_KEY",
			backend(llm.ProviderOpenAI, "meta-llama/Llama-3.3-70B-Instruct-Turbo", togetherBaseURL)),
		member("mistral", "Mistral", "Mistral AI", 2, false, "MISTRAL_API_KEY",
			backend(llm.ProviderOpenAI, "mistral-large-latest", mistralBaseURL)),
		member("cohere", "Command", "Cohere", 2, false, "COHERE_API_KEY",
			backend(llm.ProviderOpenAI, "command-r-plus", cohereBaseURL)),

		// Phase 3
		member("microsoft", "Phi", "Microsoft", 3, false, "TOGETHER_API_KEY",
			backend(llm.ProviderOpenAI, "microsoft/Phi-3.5-MoE-instruct", togetherBaseURL)),
		member("nvidia", "Nemotron", "Nvidia", 3, false, "TOGETHER_API_KEY",
			backend(llm.ProviderOpenAI, "nvidia/Llama-3.1-Nemotron-70B-Instruct-HF", togetherBaseURL)),
		// No supported client yet; listed so the roster shows them.
		member("amazon", "Nova", "Amazon", 3, false, "AWS_ROLE_ARN", nil),
		member("ibm", "Granite", "IBM", 3, false, "IBM_API_KEY", nil),

		// Tracked abstentions
		abstention("samsung", "TRM", "Samsung", reasonNoPublicAPI),
		abstention("apple", "AFM", "Apple", reasonNoPublicAPI),
		abstention("bytedance", "Doubao", "ByteDance", reasonRestricted),
		abstention("minimax", "M2", "Minimax", reasonNoPublicAPI),
		abstention("zhipu", "GLM", "Zhipu AI", reasonNoPublicAPI),
		abstention("moonshot", "Kimi", "Moonshot AI", reasonNoPublicAPI),
		abstention("baidu", "ERNIE", "Baidu", reasonRestricted),
	}
}

func backend(t llm.ProviderType, model, baseURL string) *llm.ProviderConfig {
	return &llm.ProviderConfig{Type: t, Model: model, BaseURL: baseURL}
}

func member(id, name, org string, phase int, enabled bool, credentialKey string, b *llm.ProviderConfig) judge.Identity {
	return judge.Identity{
		ID:            id,
		Name:          name,
		Organization:  org,
		Backend:       b,
		CredentialKey: credentialKey,
		Enabled:       enabled,
		Phase:         phase,
	}
}

func abstention(id, name, org, reason string) judge.Identity {
	return judge.Identity{ID: id, Name: name, Organization: org, AbstainReason: reason}
}
