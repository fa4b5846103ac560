package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/elee1766/interpreter/src/core"
	"github.com/google/uuid"
)

// interruptGrace is how long a cancelled run may keep going after SIGINT
// before the session is killed.
const interruptGrace = 3 * time.Second

// processSession runs code in a long-lived interpreter process. Output and
// errors share one pipe so they arrive in the order they were written.
type processSession struct {
	prog   program
	logger *slog.Logger
	marker string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    *os.File
	events chan frameEvent

	done     chan struct{}
	exited   chan struct{}
	termOnce sync.Once
	termErr  error

	runMu       sync.Mutex
	running     atomic.Bool
	interrupted atomic.Bool
}

func startProcess(prog program, logger *slog.Logger) (*processSession, error) {
	path, err := lookPath(prog.binaries)
	if err != nil {
		return nil, fmt.Errorf("start %s session: %w", prog.lang, err)
	}

	marker := "##interpreter:" + uuid.NewString() + "##"

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}

	cmd := exec.Command(path, prog.args...)
	cmd.Env = append(os.Environ(), prog.env...)
	cmd.Env = append(cmd.Env, "INTERPRETER_MARKER="+marker)
	cmd.Stdout = w
	cmd.Stderr = w
	detach(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}
	w.Close()

	s := &processSession{
		prog:   prog,
		logger: logger,
		marker: marker,
		cmd:    cmd,
		stdin:  stdin,
		out:    r,
		events: make(chan frameEvent, 64),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go s.read()
	go s.wait()

	s.logger.Debug("started session", "pid", cmd.Process.Pid, "binary", path)

	if prog.init != "" {
		if _, err := io.WriteString(stdin, prog.init); err != nil {
			s.Terminate()
			return nil, fmt.Errorf("failed to initialize %s session: %w", prog.lang, err)
		}
	}
	return s, nil
}

func lookPath(names []string) (string, error) {
	var firstErr error
	for _, name := range names {
		path, err := exec.LookPath(name)
		if err == nil {
			return path, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

func (s *processSession) read() {
	defer close(s.events)
	parser := newFrameParser(s.marker)
	buf := make([]byte, 32*1024)
	for {
		n, err := s.out.Read(buf)
		if n > 0 && !s.send(parser.feed(buf[:n])) {
			return
		}
		if err != nil {
			s.send(parser.flush())
			return
		}
	}
}

func (s *processSession) send(events []frameEvent) bool {
	for _, ev := range events {
		select {
		case s.events <- ev:
		case <-s.done:
			return false
		}
	}
	return true
}

func (s *processSession) wait() {
	err := s.cmd.Wait()
	s.logger.Debug("session process exited", "error", err)
	close(s.exited)
}

func (s *processSession) closed() bool {
	select {
	case <-s.done:
		return true
	case <-s.exited:
		return true
	default:
		return false
	}
}

func (s *processSession) Run(ctx context.Context, code string, emit func(Update)) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.closed() {
		return ErrSessionClosed
	}

	req, cleanup, err := s.prog.encode(code)
	if err != nil {
		return err
	}
	defer cleanup()

	s.interrupted.Store(false)
	s.running.Store(true)
	defer s.running.Store(false)

	if _, err := s.stdin.Write(req); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionClosed, err)
	}

	stop := context.AfterFunc(ctx, func() {
		if err := s.Interrupt(); err != nil {
			s.logger.Debug("interrupt after cancel failed", "error", err)
		}
	})
	defer stop()

	cancelled := ctx.Done()
	var grace <-chan time.Time

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return s.lost(ctx, emit)
			}
			switch ev.kind {
			case frameOutput:
				emit(Update{Output: ev.text})
			case frameLine:
				emit(Update{ActiveLine: ev.value})
			case frameEnd:
				return s.finish(ctx, ev.value, emit)
			}
		case <-s.exited:
			s.drain(emit)
			return s.lost(ctx, emit)
		case <-cancelled:
			cancelled = nil
			timer := time.NewTimer(interruptGrace)
			defer timer.Stop()
			grace = timer.C
		case <-grace:
			s.logger.Warn("session ignored interrupt, terminating")
			s.Terminate()
			return ctx.Err()
		}
	}
}

// drain forwards output that was already buffered when the process exited.
func (s *processSession) drain(emit func(Update)) {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			if ev.kind == frameOutput {
				emit(Update{Output: ev.text})
			}
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

func (s *processSession) finish(ctx context.Context, status int, emit func(Update)) error {
	if s.interrupted.Swap(false) && status != 0 {
		emit(Update{Output: core.KeyboardInterrupt})
		return ctx.Err()
	}
	if status != 0 {
		return &ExecutionError{Language: s.prog.lang, ExitCode: status, Streamed: true}
	}
	return nil
}

// lost handles the interpreter process going away mid-run.
func (s *processSession) lost(ctx context.Context, emit func(Update)) error {
	if s.interrupted.Swap(false) {
		emit(Update{Output: core.KeyboardInterrupt})
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	code := -1
	select {
	case <-s.exited:
		code = s.cmd.ProcessState.ExitCode()
	case <-time.After(time.Second):
	}
	return &ExecutionError{Language: s.prog.lang, ExitCode: code, Streamed: true, Err: ErrSessionClosed}
}

func (s *processSession) Interrupt() error {
	if !s.running.Load() || s.closed() {
		return nil
	}
	s.interrupted.Store(true)

	pid := int32(s.cmd.Process.Pid)
	if s.prog.signalTree {
		hit, err := signalDescendants(pid, syscall.SIGINT)
		if hit {
			return err
		}
	}
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to interrupt %s session: %w", s.prog.lang, err)
	}
	return nil
}

func (s *processSession) Terminate() error {
	s.termOnce.Do(func() {
		close(s.done)
		s.stdin.Close()

		killDescendants(int32(s.cmd.Process.Pid))
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.termErr = fmt.Errorf("failed to kill %s session: %w", s.prog.lang, err)
		}

		select {
		case <-s.exited:
		case <-time.After(5 * time.Second):
			if s.termErr == nil {
				s.termErr = fmt.Errorf("%s session did not exit", s.prog.lang)
			}
		}
		s.out.Close()
		s.logger.Debug("terminated session")
	})
	return s.termErr
}
