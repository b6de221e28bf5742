package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"regexp"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/types"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
	getenv    func(string) string
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
		getenv:    os.Getenv,
	}
}

// Load reads the YAML file at path over DefaultConfig and validates the result.
// ${VAR} references in string values are replaced from the environment. Lists given in
// the file replace the default lists rather than merging with them.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, types.WrapError(types.CONFIG_NOT_FOUND, "config file not found: "+path, err)
		}
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to read config file", err)
	}

	settings, _ := interpolateEnvVars(v.AllSettings(), l.getenv).(map[string]interface{})

	cfg := DefaultConfig()
	if err := decode(settings, cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to decode config", err)
	}

	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration from path, or returns the validated default
// configuration when the file does not exist.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return l.Load(path)
}

// decode writes settings onto cfg. Durations accept Go duration strings and string
// lists accept comma-separated values.
func decode(settings map[string]interface{}, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			normalizeBackendKind,
		),
		ZeroFields:       true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(settings)
}

// normalizeBackendKind accepts provider types and conventions in any case.
func normalizeBackendKind(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to {
	case reflect.TypeOf(llm.ProviderType("")), reflect.TypeOf(llm.Convention("")):
		return llm.NormalizeProviderName(reflect.ValueOf(data).String()), nil
	}
	return data, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateEnvVars recursively interpolates environment variables in the config map.
// Supports ${VAR_NAME} syntax.
func interpolateEnvVars(data interface{}, getenv func(string) string) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			result[key] = interpolateEnvVars(value, getenv)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value, getenv)
		}
		return result
	case string:
		return interpolateString(v, getenv)
	default:
		return v
	}
}

// interpolateString replaces ${VAR_NAME} with its value. Unset or empty variables are
// left as written so the mistake is visible.
func interpolateString(s string, getenv func(string) string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		if value := getenv(name); value != "" {
			return value
		}
		return match
	})
}
