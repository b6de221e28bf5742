package judge

import (
	"regexp"
	"strings"

	"github.com/mohamed-services/AgentLang/internal/llm"
)

// Identity describes one council member. It is loaded once at startup and never mutated.
type Identity struct {
	ID            string              `mapstructure:"id" json:"id" yaml:"id" validate:"required"`
	Name          string              `mapstructure:"name" json:"name" yaml:"name" validate:"required"`
	Organization  string              `mapstructure:"organization" json:"organization" yaml:"organization"`
	Backend       *llm.ProviderConfig `mapstructure:"backend" json:"backend,omitempty" yaml:"backend,omitempty"`
	CredentialKey string              `mapstructure:"credential_key" json:"credential_key,omitempty" yaml:"credential_key,omitempty"`
	Enabled       bool                `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	AbstainReason string              `mapstructure:"abstain_reason" json:"abstain_reason,omitempty" yaml:"abstain_reason,omitempty"`
	Phase         int                 `mapstructure:"phase" json:"phase,omitempty" yaml:"phase,omitempty"`
}

// HasBackend reports whether the judge has a back-end it could be invoked through.
func (i Identity) HasBackend() bool {
	return i.Backend != nil && i.Backend.Type != ""
}

// Active reports whether the judge takes part in the vote.
func (i Identity) Active() bool {
	return i.Enabled && i.HasBackend() && i.AbstainReason == ""
}

// NeedsCredential reports whether a credential must be resolved before invocation.
func (i Identity) NeedsCredential() bool {
	return i.CredentialKey != "" && i.HasBackend() && i.Backend.Type != llm.ProviderMock
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug returns a marker-safe form of the judge ID.
func (i Identity) Slug() string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(i.ID), "-"), "-")
}
