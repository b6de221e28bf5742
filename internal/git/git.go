package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// DiffFilter selects which change kinds git reports, as in `git diff --diff-filter`.
type DiffFilter string

const (
	// FilterAddedModified reports added and modified files only.
	FilterAddedModified DiffFilter = "AM"

	// FilterAll reports every change kind.
	FilterAll DiffFilter = ""
)

// GitOperations defines the interface for git operations
type GitOperations interface {
	// ChangedFiles lists the paths changed between base and head in the repository at dir.
	ChangedFiles(ctx context.Context, dir, base, head string, filter DiffFilter) ([]string, error)

	// Diff returns the unified diff between base and head.
	Diff(ctx context.Context, dir, base, head string) (string, error)

	// HeadCommit returns the commit hash checked out at dir.
	HeadCommit(ctx context.Context, dir string) (string, error)
}

// RepoInfo identifies a hosted repository
type RepoInfo struct {
	// Host is the git hosting service (e.g., github.com)
	Host string

	// Owner is the repository owner or organization
	Owner string

	// Repo is the repository name
	Repo string
}

// DefaultGitOperations implements GitOperations using os/exec
type DefaultGitOperations struct {
	// Binary is the git executable. Empty means "git" from PATH.
	Binary string
}

// NewDefaultGitOperations creates a new DefaultGitOperations instance
func NewDefaultGitOperations() GitOperations {
	return &DefaultGitOperations{}
}

func (g *DefaultGitOperations) run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w (output: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ChangedFiles lists changed paths via `git diff --name-only`
func (g *DefaultGitOperations) ChangedFiles(ctx context.Context, dir, base, head string, filter DiffFilter) ([]string, error) {
	args := []string{"diff", "--name-only"}
	if filter != FilterAll {
		args = append(args, "--diff-filter="+string(filter))
	}
	args = append(args, base, head)

	out, err := g.run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}

	return splitLines(out), nil
}

// Diff returns the unified diff between base and head
func (g *DefaultGitOperations) Diff(ctx context.Context, dir, base, head string) (string, error) {
	return g.run(ctx, dir, "diff", base, head)
}

// HeadCommit returns the current commit hash of the repository
func (g *DefaultGitOperations) HeadCommit(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}

	hash := strings.TrimSpace(out)
	if hash == "" {
		return "", fmt.Errorf("git rev-parse returned empty hash")
	}
	return hash, nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

var (
	httpsPattern    = regexp.MustCompile(`^https?://([^/]+)/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	sshPattern      = regexp.MustCompile(`^git@([^:]+):([^/]+)/([^/]+?)(?:\.git)?$`)
	fullNamePattern = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)
)

// ParseRepository parses "owner/repo", an HTTPS clone URL, or an SSH clone URL.
// A bare "owner/repo" is assumed to live on github.com.
func ParseRepository(s string) (*RepoInfo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("repository cannot be empty")
	}

	if m := fullNamePattern.FindStringSubmatch(s); m != nil {
		return &RepoInfo{Host: "github.com", Owner: m[1], Repo: strings.TrimSuffix(m[2], ".git")}, nil
	}
	if m := httpsPattern.FindStringSubmatch(s); m != nil {
		return &RepoInfo{Host: m[1], Owner: m[2], Repo: m[3]}, nil
	}
	if m := sshPattern.FindStringSubmatch(s); m != nil {
		return &RepoInfo{Host: m[1], Owner: m[2], Repo: m[3]}, nil
	}

	return nil, fmt.Errorf("unable to parse repository: %s", s)
}

// FullName returns "owner/repo".
func (r *RepoInfo) FullName() string {
	return r.Owner + "/" + r.Repo
}

// String returns a string representation of RepoInfo
func (r *RepoInfo) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Host, r.Owner, r.Repo)
}
