package git

import (
	"context"

	"github.com/mohamed-services/AgentLang/internal/types"
)

// LocalSource serves a change set from a local checkout instead of the review system.
type LocalSource struct {
	Ops GitOperations
	Dir string
}

// NewLocalSource creates a LocalSource over the checkout at dir.
func NewLocalSource(ops GitOperations, dir string) *LocalSource {
	if ops == nil {
		ops = NewDefaultGitOperations()
	}
	return &LocalSource{Ops: ops, Dir: dir}
}

// ChangedPaths lists every path changed between base and head.
func (s *LocalSource) ChangedPaths(ctx context.Context, base, head string) ([]string, error) {
	paths, err := s.Ops.ChangedFiles(ctx, s.Dir, base, head, FilterAll)
	if err != nil {
		return nil, types.WrapError(types.VALIDATION_GIT_FAILED, "failed to list changed files", err)
	}
	return paths, nil
}

// Diff returns the full diff between base and head.
func (s *LocalSource) Diff(ctx context.Context, base, head string) (string, error) {
	diff, err := s.Ops.Diff(ctx, s.Dir, base, head)
	if err != nil {
		return "", types.WrapError(types.VALIDATION_GIT_FAILED, "failed to compute diff", err)
	}
	return diff, nil
}
