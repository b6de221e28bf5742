package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "council.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.5, cfg.Council.SimpleMajority)
	assert.InDelta(t, 2.0/3.0, cfg.Council.SuperMajority, 1e-9)
	assert.Equal(t, []string{"governance/", ".github/"}, cfg.Council.ProtectedPrefixes)
	assert.Equal(t, []string{"README.md"}, cfg.Council.AlwaysReject)
	assert.Equal(t, 16000, cfg.Council.MaxDiffChars)
	assert.Equal(t, 10*time.Minute, cfg.Council.Timeout)

	assert.Equal(t, 3, cfg.Judges.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Judges.BaseDelay)
	assert.Equal(t, time.Second, cfg.Judges.MaxJitter)

	assert.True(t, cfg.Validation.Enabled)
	assert.Equal(t, "GITHUB_TOKEN", cfg.GitHub.TokenKey)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Labels.Approved)

	require.NoError(t, NewValidator().Validate(cfg))
}

func TestDefaultMembers(t *testing.T) {
	cfg := DefaultConfig()

	var ids []string
	for _, m := range cfg.Enabled() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"anthropic", "openai", "google", "xai"}, ids)

	xai, ok := cfg.Member("xai")
	require.True(t, ok)
	assert.Equal(t, llm.ProviderOpenAI, xai.Backend.Type)
	assert.Equal(t, "https://api.x.ai/v1", xai.Backend.BaseURL)

	apple, ok := cfg.Member("apple")
	require.True(t, ok)
	assert.False(t, apple.Active())
	assert.Equal(t, "No public API available", apple.AbstainReason)

	amazon, ok := cfg.Member("amazon")
	require.True(t, ok)
	assert.False(t, amazon.HasBackend())

	_, ok = cfg.Member("nobody")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
council:
  simple_majority: 0.6
  super_majority: 0.75
  protected_prefixes: [policy/]
  timeout: 5m
judges:
  base_delay: 500ms
  members:
    - id: local
      name: Local
      enabled: true
      backend:
        type: ollama
        model: llama3.2
    - id: spare
      name: Spare
      abstain_reason: No public API available
labels:
  approved: council-approved
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.Council.SimpleMajority)
	assert.Equal(t, 0.75, cfg.Council.SuperMajority)
	assert.Equal(t, []string{"policy/"}, cfg.Council.ProtectedPrefixes)
	assert.Equal(t, []string{"README.md"}, cfg.Council.AlwaysReject, "unset lists keep defaults")
	assert.Equal(t, 5*time.Minute, cfg.Council.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Judges.BaseDelay)
	assert.Equal(t, 3, cfg.Judges.MaxAttempts)

	require.Len(t, cfg.Judges.Members, 2, "configured roster replaces the default one")
	assert.Equal(t, "local", cfg.Judges.Members[0].ID)
	assert.Equal(t, llm.ProviderOllama, cfg.Judges.Members[0].Backend.Type)
	assert.Nil(t, cfg.Judges.Members[1].Backend)
	assert.Equal(t, "council-approved", cfg.Labels.Approved)
}

func TestLoad_NormalizesBackendKinds(t *testing.T) {
	path := writeConfig(t, `
judges:
  members:
    - id: grok
      name: Grok
      enabled: true
      credential_key: XAI_API_KEY
      backend:
        type: " OpenAI"
        model: grok-2
        base_url: https://api.x.ai/v1
        convention: INLINE
        max_tokens: 2048
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Judges.Members, 1)

	b := cfg.Judges.Members[0].Backend
	require.NotNil(t, b)
	assert.Equal(t, llm.ProviderOpenAI, b.Type)
	assert.Equal(t, llm.ConventionInline, b.Convention)
	assert.Equal(t, "grok-2", b.Model, "other strings keep their case")
	assert.Equal(t, 2048, b.MaxTokens)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	path := writeConfig(t, `
github:
  api_url: ${COUNCIL_TEST_API}
  token_key: ${COUNCIL_TEST_UNSET_VAR}
`)

	loader := &viperConfigLoader{
		validator: NewValidator(),
		getenv: func(name string) string {
			if name == "COUNCIL_TEST_API" {
				return "https://github.example.com/api/v3"
			}
			return ""
		},
	}

	cfg, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://github.example.com/api/v3", cfg.GitHub.APIURL)
	assert.Equal(t, "${COUNCIL_TEST_UNSET_VAR}", cfg.GitHub.TokenKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode types.ErrorCode
		wantMsg  string
	}{
		{
			name:     "malformed yaml",
			content:  "council: [unterminated",
			wantCode: types.CONFIG_PARSE_FAILED,
		},
		{
			name:     "wrong type",
			content:  "council:\n  max_diff_chars: lots\n",
			wantCode: types.CONFIG_PARSE_FAILED,
		},
		{
			name:     "threshold out of range",
			content:  "council:\n  simple_majority: 1.5\n",
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "council.simple_majority must be less than 1",
		},
		{
			name:     "super majority below simple",
			content:  "council:\n  simple_majority: 0.6\n  super_majority: 0.55\n",
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "council.super_majority must be at least simple_majority",
		},
		{
			name: "duplicate judge ids",
			content: `
judges:
  members:
    - {id: a, name: A, enabled: true, backend: {type: mock}}
    - {id: a, name: B, enabled: true, backend: {type: mock}}
`,
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "judges.members[1] (a): duplicate id",
		},
		{
			name: "judge ids sharing a notice marker",
			content: `
judges:
  members:
    - {id: x.ai, name: A, enabled: true, backend: {type: mock}}
    - {id: x-ai, name: B, enabled: true, backend: {type: mock}}
`,
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  `judges.members[1] (x-ai): id collides with "x.ai" (both become "x-ai")`,
		},
		{
			name: "judge id without letters or digits",
			content: `
judges:
  members:
    - {id: "--", name: A, enabled: true, backend: {type: mock}}
`,
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "judges.members[0] (--): id must contain a letter or digit",
		},
		{
			name: "enabled judge without backend",
			content: `
judges:
  members:
    - {id: a, name: A, enabled: true}
`,
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "enabled but has no backend",
		},
		{
			name: "unknown provider type",
			content: `
judges:
  members:
    - {id: a, name: A, enabled: true, backend: {type: carrier-pigeon, model: x}}
`,
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "invalid provider type 'carrier-pigeon'",
		},
		{
			name:     "judge marker without verb",
			content:  "markers:\n  judge_format: \"<!-- vote -->\"\n",
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "markers.judge_format must contain %s",
		},
		{
			name:     "bad log level",
			content:  "logging:\n  level: loud\n",
			wantCode: types.CONFIG_VALIDATION_FAILED,
			wantMsg:  "logging:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigLoader(NewValidator()).Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.CodeOf(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	loader := NewConfigLoader(NewValidator())

	_, err := loader.Load(missing)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_NOT_FOUND, types.CodeOf(err))

	cfg, err := loader.LoadWithDefaults(missing)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate_Nil(t *testing.T) {
	err := NewValidator().Validate(nil)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestFormatFieldPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Config.council.simple_majority", "council.simple_majority"},
		{"Config.Council.MaxDiffChars", "council.max_diff_chars"},
		{"Config.judges.members[0].ID", "judges.members[0].id"},
		{"Standalone", "Standalone"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFieldPath(tt.input))
		})
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("COUNCIL_TEST_PRESENT", "sk-live")
	t.Setenv("COUNCIL_TEST_BLANK", "   ")

	env := EnvCredentials{}
	v, ok := env.Lookup("COUNCIL_TEST_PRESENT")
	assert.True(t, ok)
	assert.Equal(t, "sk-live", v)

	_, ok = env.Lookup("COUNCIL_TEST_BLANK")
	assert.False(t, ok, "blank values count as missing")

	chain := ChainCredentials{StaticCredentials{"ONLY_STATIC": "static", "EMPTY": ""}, env}
	v, ok = chain.Lookup("ONLY_STATIC")
	assert.True(t, ok)
	assert.Equal(t, "static", v)

	v, ok = chain.Lookup("COUNCIL_TEST_PRESENT")
	assert.True(t, ok)
	assert.Equal(t, "sk-live", v)

	_, ok = chain.Lookup("EMPTY")
	assert.False(t, ok)

	_, err := RequireCredential(chain, "COUNCIL_TEST_ABSENT")
	require.Error(t, err)
	assert.Equal(t, types.CREDENTIAL_NOT_FOUND, types.CodeOf(err))
	assert.Contains(t, err.Error(), "COUNCIL_TEST_ABSENT")
}

func TestRunMeta(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("PR_NUMBER", "42")
		t.Setenv("PR_TITLE", "Add charter")
		t.Setenv("PR_BODY", "Adds the charter.")
		t.Setenv("BASE_SHA", "aaa")
		t.Setenv("HEAD_SHA", " bbb ")
		t.Setenv("REPO_FULL_NAME", "owner/repo")

		v := viper.New()
		require.NoError(t, BindRunEnv(v))

		meta, err := RunMeta(v)
		require.NoError(t, err)
		assert.Equal(t, 42, meta.Number)
		assert.Equal(t, "Add charter", meta.Title)
		assert.Equal(t, "Adds the charter.", meta.Description)
		assert.Equal(t, "aaa", meta.BaseSHA)
		assert.Equal(t, "bbb", meta.HeadSHA)
		assert.Equal(t, "owner/repo", meta.Repository)
	})

	t.Run("explicit values win", func(t *testing.T) {
		t.Setenv("PR_NUMBER", "42")

		v := viper.New()
		require.NoError(t, BindRunEnv(v))
		v.Set(KeyNumber, 7)
		v.Set(KeyBase, "a")
		v.Set(KeyHead, "b")

		meta, err := RunMeta(v)
		require.NoError(t, err)
		assert.Equal(t, 7, meta.Number)
	})

	t.Run("missing fields", func(t *testing.T) {
		v := viper.New()
		v.Set(KeyTitle, "untitled")

		_, err := RunMeta(v)
		require.Error(t, err)
		assert.Equal(t, types.RUN_INVALID_REQUEST, types.CodeOf(err))
		assert.Contains(t, err.Error(), "--pr (PR_NUMBER), --base (BASE_SHA), --head (HEAD_SHA)")
	})

	t.Run("range does not need a number", func(t *testing.T) {
		v := viper.New()
		v.Set(KeyBase, "main")
		v.Set(KeyHead, "HEAD")

		meta, err := RunRange(v)
		require.NoError(t, err)
		assert.Zero(t, meta.Number)
		assert.Equal(t, "main", meta.BaseSHA)

		_, err = RunMeta(v)
		assert.Equal(t, types.RUN_INVALID_REQUEST, types.CodeOf(err))
	})
}
