package config

import (
	"os"
	"strings"

	"github.com/mohamed-services/AgentLang/internal/types"
)

// CredentialSource resolves a named credential such as OPENAI_API_KEY.
type CredentialSource interface {
	Lookup(name string) (string, bool)
}

// EnvCredentials reads credentials from the process environment. Blank values count
// as missing.
type EnvCredentials struct{}

// Lookup implements CredentialSource.
func (EnvCredentials) Lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// StaticCredentials serves credentials from a fixed map.
type StaticCredentials map[string]string

// Lookup implements CredentialSource.
func (s StaticCredentials) Lookup(name string) (string, bool) {
	value, ok := s[name]
	return value, ok && value != ""
}

// ChainCredentials tries each source in order.
type ChainCredentials []CredentialSource

// Lookup implements CredentialSource.
func (c ChainCredentials) Lookup(name string) (string, bool) {
	for _, src := range c {
		if value, ok := src.Lookup(name); ok {
			return value, true
		}
	}
	return "", false
}

// RequireCredential returns the credential or a CREDENTIAL_NOT_FOUND error.
func RequireCredential(src CredentialSource, name string) (string, error) {
	if value, ok := src.Lookup(name); ok {
		return value, nil
	}
	return "", types.NewError(types.CREDENTIAL_NOT_FOUND, "credential "+name+" is not set")
}
