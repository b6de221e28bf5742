package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mohamed-services/AgentLang/internal/types"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements ConfigValidator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new ConfigValidator instance.
// Field paths in messages use the mapstructure keys, so they match the YAML file.
func NewValidator() ConfigValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return &validatorImpl{validate: v}
}

// Validate checks struct tags first, then the cross-field rules tags cannot express.
// All problems are reported together.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	var problems []string

	if err := v.validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}
		for _, e := range validationErrs {
			problems = append(problems, formatValidationError(e))
		}
	}

	problems = append(problems, validateMembers(cfg)...)

	if !strings.Contains(cfg.Markers.JudgeFormat, "%s") {
		problems = append(problems, "markers.judge_format must contain %s for the judge id")
	}

	for name, check := range map[string]func() error{
		"logging": cfg.Logging.Validate,
		"tracing": cfg.Tracing.Validate,
		"metrics": cfg.Metrics.Validate,
	} {
		if err := check(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(problems) > 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - "+strings.Join(problems, "\n  - "))
	}
	return nil
}

func validateMembers(cfg *Config) []string {
	var problems []string
	// Notice markers are keyed by slug, so two ids must not share one.
	slugs := make(map[string]string, len(cfg.Judges.Members))

	for i, m := range cfg.Judges.Members {
		field := fmt.Sprintf("judges.members[%d]", i)
		if m.ID != "" {
			field = fmt.Sprintf("judges.members[%d] (%s)", i, m.ID)
		}

		slug := m.Slug()
		switch first, taken := slugs[slug]; {
		case m.ID == "":
		case slug == "":
			problems = append(problems, field+": id must contain a letter or digit")
		case taken && first == m.ID:
			problems = append(problems, field+": duplicate id")
		case taken:
			problems = append(problems, fmt.Sprintf("%s: id collides with %q (both become %q)", field, first, slug))
		default:
			slugs[slug] = m.ID
		}

		if m.Enabled && m.AbstainReason == "" && !m.HasBackend() {
			problems = append(problems, field+": enabled but has no backend")
		}
		if m.HasBackend() {
			if err := m.Backend.Validate(); err != nil {
				problems = append(problems, fmt.Sprintf("%s.backend: %v", field, err))
			}
		}
		if m.NeedsCredential() && strings.ContainsAny(m.CredentialKey, " =") {
			problems = append(problems, field+": credential_key must be a variable name")
		}
	}

	return problems
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldPath)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "lt":
		return fmt.Sprintf("%s must be less than %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "gtefield":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, camelToSnake(e.Param()), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", fieldPath, e.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q (got: %v)", fieldPath, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", fieldPath, e.Tag(), e.Value())
	}
}

// formatFieldPath converts validator namespace to a more readable field path.
// Example: "Config.council.MaxDiffChars" -> "council.max_diff_chars"
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}

	result := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		result = append(result, camelToSnake(parts[i]))
	}

	return strings.Join(result, ".")
}

// camelToSnake converts CamelCase to snake_case. Runs of capitals stay together, so
// "APIURL" becomes "apiurl" and "MaxDiffChars" becomes "max_diff_chars".
func camelToSnake(s string) string {
	var result strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && isUpper(r) && !isUpper(runes[i-1]) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
