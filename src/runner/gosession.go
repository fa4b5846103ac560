package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/elee1766/interpreter/src/core"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// emitWriter forwards interpreter output to the emit function of the
// current run.
type emitWriter struct {
	mu   sync.Mutex
	emit func(Update)
}

func (w *emitWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.emit != nil && len(p) > 0 {
		w.emit(Update{Output: string(p)})
	}
	return len(p), nil
}

func (w *emitWriter) set(emit func(Update)) {
	w.mu.Lock()
	w.emit = emit
	w.mu.Unlock()
}

// goSession evaluates Go source in-process with yaegi. Declarations persist
// between runs.
type goSession struct {
	logger *slog.Logger
	out    *emitWriter

	runMu  sync.Mutex
	mu     sync.Mutex
	interp *interp.Interpreter
	cancel context.CancelFunc
	closed bool
	intr   bool
}

func newGoSession(logger *slog.Logger) *goSession {
	out := &emitWriter{}
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(stdlib.Symbols); err != nil {
		logger.Warn("failed to load go stdlib symbols", "error", err)
	}
	return &goSession{logger: logger, out: out, interp: i}
}

func (s *goSession) Run(ctx context.Context, code string, emit func(Update)) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.cancel = cancel
	s.intr = false
	s.mu.Unlock()

	s.out.set(emit)
	defer s.out.set(nil)

	_, err := s.interp.EvalWithContext(runCtx, code)

	s.mu.Lock()
	interrupted := s.intr
	s.cancel = nil
	s.mu.Unlock()

	switch {
	case interrupted:
		emit(Update{Output: core.KeyboardInterrupt})
		return ctx.Err()
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		return &ExecutionError{Language: Go, ExitCode: 1, Output: err.Error()}
	}
	return nil
}

func (s *goSession) Interrupt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return nil
	}
	s.intr = true
	s.cancel()
	return nil
}

func (s *goSession) Terminate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

