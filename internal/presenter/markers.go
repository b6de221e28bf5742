package presenter

import (
	"fmt"
	"strings"
)

// Markers are the hidden HTML comments that key each notice for replacement.
type Markers struct {
	Vote       string `mapstructure:"vote" yaml:"vote" validate:"required"`
	Summary    string `mapstructure:"summary" yaml:"summary" validate:"required"`
	Validation string `mapstructure:"validation" yaml:"validation" validate:"required"`
	Readme     string `mapstructure:"readme" yaml:"readme" validate:"required"`

	// JudgeFormat is a format string with one %s verb for the judge slug.
	JudgeFormat string `mapstructure:"judge_format" yaml:"judge_format" validate:"required"`
}

// DefaultMarkers returns the stock marker set.
func DefaultMarkers() Markers {
	return Markers{
		Vote:        "<!-- agentlang-vote-comment -->",
		Summary:     "<!-- agentlang-summary-comment -->",
		Validation:  "<!-- agentlang-validation-comment -->",
		Readme:      "<!-- agentlang-readme-comment -->",
		JudgeFormat: "<!-- agentlang-vote-%s-comment -->",
	}
}

// Judge returns the per-judge marker for slug.
func (m Markers) Judge(slug string) string {
	return fmt.Sprintf(m.JudgeFormat, slug)
}

// neutralize stops untrusted text from carrying an HTML comment, so that it can
// never contain a marker and capture another notice's upsert.
func neutralize(s string) string {
	return strings.ReplaceAll(s, "<!--", "&lt;!--")
}
