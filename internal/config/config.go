package config

import (
	"time"

	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/observability"
	"github.com/mohamed-services/AgentLang/internal/presenter"
)

// DefaultConfigPath is the configuration file read when --config is not given.
const DefaultConfigPath = "council.yaml"

// Config is the root configuration structure for the council.
type Config struct {
	Council    CouncilConfig               `mapstructure:"council" yaml:"council"`
	Judges     JudgesConfig                `mapstructure:"judges" yaml:"judges"`
	Validation ValidationConfig            `mapstructure:"validation" yaml:"validation"`
	GitHub     GitHubConfig                `mapstructure:"github" yaml:"github"`
	Logging    observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing    observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics    observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Markers    presenter.Markers           `mapstructure:"markers" yaml:"markers"`
	Labels     presenter.Labels            `mapstructure:"labels" yaml:"labels"`
}

// CouncilConfig holds voting policy and run limits.
type CouncilConfig struct {
	SimpleMajority    float64       `mapstructure:"simple_majority" yaml:"simple_majority" validate:"gt=0,lt=1"`
	SuperMajority     float64       `mapstructure:"super_majority" yaml:"super_majority" validate:"gt=0,lt=1,gtefield=SimpleMajority"`
	ProtectedPrefixes []string      `mapstructure:"protected_prefixes" yaml:"protected_prefixes" validate:"dive,required"`
	AlwaysReject      []string      `mapstructure:"always_reject" yaml:"always_reject" validate:"dive,required"`
	MaxDiffChars      int           `mapstructure:"max_diff_chars" yaml:"max_diff_chars" validate:"min=1"`
	MaxConcurrent     int           `mapstructure:"max_concurrent" yaml:"max_concurrent" validate:"min=0"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=0"`
}

// JudgesConfig holds the call contract shared by all judges and the roster itself.
// The roster order is the order judges appear in the summary.
type JudgesConfig struct {
	MaxAttempts int              `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=10"`
	BaseDelay   time.Duration    `mapstructure:"base_delay" yaml:"base_delay" validate:"min=0"`
	MaxJitter   time.Duration    `mapstructure:"max_jitter" yaml:"max_jitter" validate:"min=0"`
	CallTimeout time.Duration    `mapstructure:"call_timeout" yaml:"call_timeout" validate:"gt=0"`
	MaxTokens   int              `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=1"`
	Members     []judge.Identity `mapstructure:"members" yaml:"members" validate:"dive"`
}

// ValidationConfig configures the source validation pass.
type ValidationConfig struct {
	Enabled    bool     `mapstructure:"enabled" yaml:"enabled"`
	Dir        string   `mapstructure:"dir" yaml:"dir" validate:"required"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions" validate:"min=1,dive,startswith=."`
}

// GitHubConfig configures the review-system client. The token is never stored in the
// file; TokenKey names the credential to look up.
type GitHubConfig struct {
	APIURL           string        `mapstructure:"api_url" yaml:"api_url" validate:"required,url"`
	TokenKey         string        `mapstructure:"token_key" yaml:"token_key" validate:"required"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MutationInterval time.Duration `mapstructure:"mutation_interval" yaml:"mutation_interval" validate:"min=0"`
}

// Enabled returns the members that take part in votes.
func (c *Config) Enabled() []judge.Identity {
	var out []judge.Identity
	for _, m := range c.Judges.Members {
		if m.Active() {
			out = append(out, m)
		}
	}
	return out
}

// Member returns the roster entry with id.
func (c *Config) Member(id string) (judge.Identity, bool) {
	for _, m := range c.Judges.Members {
		if m.ID == id {
			return m, true
		}
	}
	return judge.Identity{}, false
}
