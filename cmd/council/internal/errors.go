package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohamed-services/AgentLang/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution, or an approved change
	ExitSuccess = 0
	// ExitError indicates a general error, or a change that was not approved
	ExitError = 1
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError prints err to the command's error output and returns the exit code.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	// A CLIError carries an explicit decision and wins over its cause.
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil && verboseChanged(cmd) {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var councilErr *types.CouncilError
	if errors.As(err, &councilErr) {
		cmd.PrintErrln("Error:", councilErr.Error())
		return mapCouncilErrorToExitCode(councilErr)
	}

	cmd.PrintErrln("Error:", err)
	return ExitError
}

// mapCouncilErrorToExitCode maps CouncilError codes to CLI exit codes
func mapCouncilErrorToExitCode(err *types.CouncilError) int {
	switch {
	case strings.HasPrefix(string(err.Code), "CONFIG_"):
		return ExitConfigError
	case err.Code == types.RUN_INVALID_REQUEST, err.Code == types.CREDENTIAL_NOT_FOUND:
		return ExitConfigError
	default:
		return ExitError
	}
}

func verboseChanged(cmd *cobra.Command) bool {
	flag := cmd.Flag("verbose")
	return flag != nil && flag.Changed
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag.
// Used by panic recovery, before flags are parsed.
func IsVerbose() bool {
	if os.Getenv("COUNCIL_VERBOSE") != "" {
		return true
	}

	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
