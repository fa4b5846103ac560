package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/elee1766/interpreter/src/core"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var starlarkOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// starlarkSession runs Starlark in-process. Globals from each run are
// visible to the next.
type starlarkSession struct {
	logger *slog.Logger

	runMu   sync.Mutex
	mu      sync.Mutex
	globals starlark.StringDict
	thread  *starlark.Thread
	closed  bool
	intr    bool
}

func newStarlarkSession(logger *slog.Logger) *starlarkSession {
	return &starlarkSession{logger: logger, globals: starlark.StringDict{}}
}

func (s *starlarkSession) Run(ctx context.Context, code string, emit func(Update)) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	thread := &starlark.Thread{
		Name: "interpreter",
		Print: func(_ *starlark.Thread, msg string) {
			emit(Update{Output: msg + "\n"})
		},
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.thread = thread
	s.intr = false
	predeclared := make(starlark.StringDict, len(s.globals))
	for k, v := range s.globals {
		predeclared[k] = v
	}
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
	defer stop()

	globals, err := starlark.ExecFileOptions(starlarkOptions, thread, "interpreter.star", code, predeclared)

	s.mu.Lock()
	if s.globals != nil {
		for k, v := range globals {
			s.globals[k] = v
		}
	}
	interrupted := s.intr
	s.thread = nil
	s.mu.Unlock()

	switch {
	case interrupted:
		emit(Update{Output: core.KeyboardInterrupt})
		return ctx.Err()
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		return &ExecutionError{Language: Starlark, ExitCode: 1, Output: starlarkErrorText(err)}
	}
	return nil
}

func starlarkErrorText(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Backtrace()
	}
	return err.Error()
}

func (s *starlarkSession) Interrupt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thread == nil {
		return nil
	}
	s.intr = true
	s.thread.Cancel("interrupted")
	return nil
}

func (s *starlarkSession) Terminate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.thread != nil {
		s.thread.Cancel("session terminated")
	}
	s.globals = nil
	return nil
}
