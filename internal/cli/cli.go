package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes of the process.
const (
	// CodeFailure is returned when a command ran and failed.
	CodeFailure = 1
	// CodeUsage is returned for unknown commands, flags and arguments.
	CodeUsage = 2
)

// Run executes the command line args against a fresh command tree. Help and
// usage go to outW. Every error returned is an *ExitError.
func Run(ctx context.Context, outW io.Writer, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: CodeUsage, Message: err.Error()}
	})

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Cobra reports unknown commands and missing required flags as plain errors.
	return &ExitError{Code: CodeUsage, Message: err.Error()}
}

// failed wraps the error of a command that ran.
func failed(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: CodeFailure, Message: err.Error()}
}
