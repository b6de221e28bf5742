package types

import (
	"fmt"

	"github.com/google/uuid"
)

// RunID identifies a single council run. It is attached to every log line and span
// produced while the run is in flight.
type RunID string

// NewRunID generates a new UUID v4 and returns it as a RunID.
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// ParseRunID parses and validates a string as a UUID, returning a RunID.
func ParseRunID(s string) (RunID, error) {
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}

	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID format: %w", err)
	}

	return RunID(parsed.String()), nil
}

// String returns the string representation of the RunID.
func (id RunID) String() string {
	return string(id)
}

// Short returns the first eight characters, used in human-facing output.
func (id RunID) Short() string {
	if len(id) < 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero checks if the RunID is empty.
func (id RunID) IsZero() bool {
	return id == ""
}
