package observability

import (
	"fmt"
	"strings"
	"time"
)

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" json:"level"`
	Format string `yaml:"format" mapstructure:"format" json:"format"`
	Output string `yaml:"output" mapstructure:"output" json:"output"`
}

// DefaultLoggingConfig logs info and above as text to stderr. Stdout is reserved for
// command output.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}

// Validate validates the LoggingConfig fields.
// Level must be debug, info, warn or error; Format must be json or text; Output must be
// stdout, stderr, or an absolute file path.
func (c *LoggingConfig) Validate() error {
	if !oneOf(c.Level, "debug", "info", "warn", "error") {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.Level)
	}

	if !oneOf(c.Format, "json", "text") {
		return fmt.Errorf("invalid log format: %s (must be one of: json, text)", c.Format)
	}

	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	output := strings.ToLower(c.Output)
	if output != "stdout" && output != "stderr" && !strings.HasPrefix(c.Output, "/") {
		return fmt.Errorf("invalid log output: %s (must be 'stdout', 'stderr', or an absolute file path)", c.Output)
	}

	return nil
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Provider    string  `yaml:"provider" mapstructure:"provider" json:"provider"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name" json:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate" json:"sample_rate"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure" json:"insecure"`
}

// DefaultTracingConfig returns tracing disabled with an otlp provider preconfigured.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     false,
		Provider:    "otlp",
		Endpoint:    "localhost:4317",
		ServiceName: DefaultServiceName,
		SampleRate:  1.0,
	}
}

// Validate validates the TracingConfig fields. A disabled config is always valid.
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if !oneOf(c.Provider, "otlp", "noop") {
		return fmt.Errorf("invalid tracing provider: %s (must be one of: otlp, noop)", c.Provider)
	}

	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}

	if strings.EqualFold(c.Provider, "noop") {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when tracing is enabled")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required when tracing is enabled")
	}

	return nil
}

// MetricsConfig contains metrics export configuration.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Provider string        `yaml:"provider" mapstructure:"provider" json:"provider"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" json:"interval"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure" json:"insecure"`
}

// DefaultMetricsConfig returns metrics disabled with an otlp provider preconfigured.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:  false,
		Provider: "otlp",
		Endpoint: "localhost:4317",
		Interval: 10 * time.Second,
	}
}

// Validate validates the MetricsConfig fields. A disabled config is always valid.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if !oneOf(c.Provider, "otlp", "noop") {
		return fmt.Errorf("invalid metrics provider: %s (must be one of: otlp, noop)", c.Provider)
	}

	if strings.EqualFold(c.Provider, "otlp") && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when metrics are enabled")
	}

	if c.Interval < 0 {
		return fmt.Errorf("invalid export interval: %s", c.Interval)
	}

	return nil
}

func oneOf(value string, valid ...string) bool {
	value = strings.ToLower(value)
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}
