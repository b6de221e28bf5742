package docket

import (
	"unicode/utf8"
)

// DefaultMaxDiffChars is the diff budget applied when none is configured.
const DefaultMaxDiffChars = 16000

// Meta is the run metadata describing the change under review.
type Meta struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	BaseSHA     string `json:"base_sha"`
	HeadSHA     string `json:"head_sha"`
	Repository  string `json:"repository"`
}

// Case is the payload every judge evaluates. It is built once per run and only
// read afterwards; Title, Description and Diff are untrusted contributor input.
type Case struct {
	Number        int      `json:"number"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ChangedPaths  []string `json:"changed_paths"`
	Diff          string   `json:"diff"`
	DiffChars     int      `json:"diff_chars"`
	DiffTruncated bool     `json:"diff_truncated"`
	Validation    string   `json:"validation"`
}

// Builder assembles cases under a diff size budget.
type Builder struct {
	// MaxDiffChars caps the diff in characters (runes). Zero means DefaultMaxDiffChars.
	MaxDiffChars int
}

// NewBuilder creates a Builder with the given diff budget.
func NewBuilder(maxDiffChars int) *Builder {
	return &Builder{MaxDiffChars: maxDiffChars}
}

func (b *Builder) limit() int {
	if b == nil || b.MaxDiffChars <= 0 {
		return DefaultMaxDiffChars
	}
	return b.MaxDiffChars
}

// Build assembles a Case. It performs no I/O and returns the same Case for the
// same inputs. The changed paths are copied.
func (b *Builder) Build(meta Meta, diff string, paths []string, validation string) Case {
	c := Case{
		Number:       meta.Number,
		Title:        meta.Title,
		Description:  meta.Description,
		ChangedPaths: append([]string(nil), paths...),
		Validation:   validation,
	}

	c.Diff, c.DiffChars, c.DiffTruncated = truncate(diff, b.limit())
	return c
}

// ShownDiffChars returns the number of diff characters actually carried by the case.
func (c Case) ShownDiffChars() int {
	return utf8.RuneCountInString(c.Diff)
}

// truncate cuts s to at most limit runes, returning the kept text, the original
// length in runes, and whether anything was dropped.
func truncate(s string, limit int) (string, int, bool) {
	total := utf8.RuneCountInString(s)
	if total <= limit {
		return s, total, false
	}

	cut := 0
	for i := range s {
		if cut == limit {
			return s[:i], total, true
		}
		cut++
	}
	return s, total, false
}
