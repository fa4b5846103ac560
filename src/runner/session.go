package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrSessionClosed is returned by a session whose process is gone.
var ErrSessionClosed = errors.New("session closed")

// Update is one piece of progress from a running block: either output text
// or the line currently executing.
type Update struct {
	Output     string
	ActiveLine int
}

// Session is a persistent interpreter for a single language. State such as
// variables and the working directory survives between runs.
type Session interface {
	// Run executes code, streaming progress to emit. Failures in the code
	// itself are reported as *ExecutionError.
	Run(ctx context.Context, code string, emit func(Update)) error
	// Interrupt asks the current run to stop. Best effort.
	Interrupt() error
	// Terminate releases the session. Safe to call more than once.
	Terminate() error
}

// ExecutionError reports code that ran but failed.
type ExecutionError struct {
	Language Language
	ExitCode int
	// Output holds the error text when it was not already streamed.
	Output string
	// Streamed is true when the failure text already went through emit.
	Streamed bool
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: exit status %d: %v", e.Language, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s: exit status %d", e.Language, e.ExitCode)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Factory builds a fresh session.
type Factory func(lang Language) (Session, error)

// NewSession starts a session for lang.
func NewSession(lang Language, logger *slog.Logger) (Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "runner", "language", string(lang))

	switch lang {
	case Shell:
		return startProcess(shellProgram(), logger)
	case Python:
		return startProcess(pythonProgram(), logger)
	case JavaScript:
		return startProcess(nodeProgram(), logger)
	case Go:
		return newGoSession(logger), nil
	case Starlark:
		return newStarlarkSession(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, string(lang))
	}
}
