// Package validate checks AgentLang source files changed in a pull request.
//
// The only rule is that line 1 declares the language version: it must be
// non-empty and made of printable ASCII.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/mohamed-services/AgentLang/internal/git"
	"github.com/mohamed-services/AgentLang/internal/types"
)

// DefaultExtensions are the source extensions validated when none are configured.
var DefaultExtensions = []string{".al"}

const emptyFirstLine = "First line is empty. .al files must declare their version on line 1 " +
	"(e.g. `AgentLang 0.1.0-alpha`)."

var printableASCII = regexp.MustCompile(`^[ -~]+$`)

// Result is the outcome of validating one file.
type Result struct {
	Path   string `json:"path"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// Content validates the content of a single source file.
func Content(path string, content []byte) Result {
	first := firstLine(string(content))
	if strings.TrimSpace(first) == "" {
		return Result{Path: path, Error: emptyFirstLine}
	}
	if !printableASCII.MatchString(first) {
		return Result{
			Path:  path,
			Error: fmt.Sprintf("First line contains non-printable or non-ASCII characters: %q", first),
		}
	}
	return Result{Path: path, Passed: true}
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// Validator validates the source files added or modified between two revisions.
type Validator struct {
	Ops        git.GitOperations
	Dir        string
	FS         fs.FS
	Extensions []string
	Logger     *slog.Logger
}

// NewValidator creates a Validator for the checkout at dir.
func NewValidator(ops git.GitOperations, dir string, extensions []string) *Validator {
	if ops == nil {
		ops = git.NewDefaultGitOperations()
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Validator{
		Ops:        ops,
		Dir:        dir,
		FS:         os.DirFS(dir),
		Extensions: extensions,
		Logger:     slog.Default(),
	}
}

func (v *Validator) matches(path string) bool {
	for _, ext := range v.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// ValidateChanged validates every matching file added or modified between base and head.
// Files that no longer exist are skipped; unreadable files fail. A git failure is
// returned as an error.
func (v *Validator) ValidateChanged(ctx context.Context, base, head string) ([]Result, error) {
	paths, err := v.Ops.ChangedFiles(ctx, v.Dir, base, head, git.FilterAddedModified)
	if err != nil {
		return nil, types.WrapError(types.VALIDATION_GIT_FAILED, "failed to list changed source files", err)
	}

	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		if !v.matches(path) {
			continue
		}

		content, err := fs.ReadFile(v.FS, path)
		if errors.Is(err, fs.ErrNotExist) {
			v.logger().Debug("skipping missing source file", "path", path)
			continue
		}
		if err != nil {
			results = append(results, Result{Path: path, Error: fmt.Sprintf("Could not read file: %v", err)})
			continue
		}

		results = append(results, Content(path, content))
	}

	return results, nil
}

func (v *Validator) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.Default()
	}
	return v.Logger
}

// Failures returns only the failed results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// FormatStatus renders results as the validation status carried in the case.
func FormatStatus(results []Result) string {
	if len(results) == 0 {
		return "No .al files changed."
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.Passed {
			lines = append(lines, fmt.Sprintf("- `%s`: VALID", r.Path))
		} else {
			lines = append(lines, fmt.Sprintf("- `%s`: INVALID — %s", r.Path, r.Error))
		}
	}
	return strings.Join(lines, "\n")
}
