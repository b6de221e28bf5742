package git

import (
	"context"
	"fmt"
	"sync"
)

// OperationRecord records details of a git operation
type OperationRecord struct {
	// Operation is the name of the operation (changed_files, diff, head_commit)
	Operation string

	// Dir is the repository directory
	Dir string

	// Base and Head are the compared revisions
	Base string
	Head string

	// Filter is the diff filter (for changed_files)
	Filter DiffFilter
}

// MockGitOperations is a mock implementation of GitOperations for testing
type MockGitOperations struct {
	mu sync.Mutex

	// Operations records all operations performed
	Operations []OperationRecord

	// ChangedFilesResponse is returned by ChangedFiles, keyed by filter
	ChangedFilesResponse map[DiffFilter][]string

	// ChangedFilesError controls the error returned by ChangedFiles
	ChangedFilesError error

	// DiffResponse controls the text returned by Diff
	DiffResponse string

	// DiffError controls the error returned by Diff
	DiffError error

	// HeadCommitResponse controls the hash returned by HeadCommit
	HeadCommitResponse string

	// HeadCommitError controls the error returned by HeadCommit
	HeadCommitError error
}

// NewMockGitOperations creates a new MockGitOperations instance
func NewMockGitOperations() *MockGitOperations {
	return &MockGitOperations{
		Operations:           make([]OperationRecord, 0),
		ChangedFilesResponse: make(map[DiffFilter][]string),
		HeadCommitResponse:   "abc123def456",
	}
}

// ChangedFiles records the operation and returns the configured response/error
func (m *MockGitOperations) ChangedFiles(ctx context.Context, dir, base, head string, filter DiffFilter) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Operations = append(m.Operations, OperationRecord{
		Operation: "changed_files",
		Dir:       dir,
		Base:      base,
		Head:      head,
		Filter:    filter,
	})

	if m.ChangedFilesError != nil {
		return nil, m.ChangedFilesError
	}
	return append([]string(nil), m.ChangedFilesResponse[filter]...), nil
}

// Diff records the operation and returns the configured response/error
func (m *MockGitOperations) Diff(ctx context.Context, dir, base, head string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Operations = append(m.Operations, OperationRecord{
		Operation: "diff",
		Dir:       dir,
		Base:      base,
		Head:      head,
	})

	return m.DiffResponse, m.DiffError
}

// HeadCommit records the operation and returns the configured response/error
func (m *MockGitOperations) HeadCommit(ctx context.Context, dir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Operations = append(m.Operations, OperationRecord{
		Operation: "head_commit",
		Dir:       dir,
	})

	return m.HeadCommitResponse, m.HeadCommitError
}

// SetChangedFiles configures the paths returned for a filter
func (m *MockGitOperations) SetChangedFiles(filter DiffFilter, paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChangedFilesResponse[filter] = paths
}

// GetOperations returns a copy of all recorded operations
func (m *MockGitOperations) GetOperations() []OperationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make([]OperationRecord, len(m.Operations))
	copy(ops, m.Operations)
	return ops
}

// GetOperationsByType returns all operations of a specific type
func (m *MockGitOperations) GetOperationsByType(opType string) []OperationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []OperationRecord
	for _, op := range m.Operations {
		if op.Operation == opType {
			filtered = append(filtered, op)
		}
	}
	return filtered
}

// Reset clears all recorded operations and errors
func (m *MockGitOperations) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Operations = make([]OperationRecord, 0)
	m.ChangedFilesResponse = make(map[DiffFilter][]string)
	m.ChangedFilesError = nil
	m.DiffResponse = ""
	m.DiffError = nil
	m.HeadCommitResponse = "abc123def456"
	m.HeadCommitError = nil
}

// String returns a string representation of the mock's state
func (m *MockGitOperations) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fmt.Sprintf("MockGitOperations{operations=%d, changedErr=%v, diffErr=%v}",
		len(m.Operations), m.ChangedFilesError != nil, m.DiffError != nil)
}
