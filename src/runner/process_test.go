package runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elee1766/interpreter/src/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	out   strings.Builder
	lines []int
}

func (r *recorder) emit(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ActiveLine > 0 {
		r.lines = append(r.lines, u.ActiveLine)
		return
	}
	r.out.WriteString(u.Output)
}

func (r *recorder) output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.String()
}

func (r *recorder) sawLine() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines) > 0
}

func startSession(t *testing.T, lang Language, binary string) Session {
	t.Helper()
	if _, err := exec.LookPath(binary); err != nil {
		t.Skipf("%s not available", binary)
	}
	s, err := NewSession(lang, nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Terminate()) })
	return s
}

func TestShellSession(t *testing.T) {
	s := startSession(t, Shell, "bash")
	ctx := context.Background()

	rec := &recorder{}
	require.NoError(t, s.Run(ctx, "echo hi\necho there >&2", rec.emit))
	assert.Equal(t, "hi\nthere\n", rec.output())
	assert.Equal(t, []int{1, 2}, rec.lines)

	rec = &recorder{}
	require.NoError(t, s.Run(ctx, "GREETING=persisted", rec.emit))
	require.NoError(t, s.Run(ctx, "echo $GREETING", rec.emit))
	assert.Equal(t, "persisted\n", rec.output())
}

func TestShellSessionExitStatus(t *testing.T) {
	s := startSession(t, Shell, "bash")

	rec := &recorder{}
	err := s.Run(context.Background(), "echo before\nfalse", rec.emit)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.ExitCode)
	assert.True(t, execErr.Streamed)
	assert.Equal(t, "before\n", rec.output())
}

func TestShellSessionExit(t *testing.T) {
	s := startSession(t, Shell, "bash")

	err := s.Run(context.Background(), "exit 3", (&recorder{}).emit)
	assert.ErrorIs(t, err, ErrSessionClosed)

	err = s.Run(context.Background(), "echo again", (&recorder{}).emit)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestPythonSession(t *testing.T) {
	s := startSession(t, Python, "python3")
	ctx := context.Background()

	rec := &recorder{}
	require.NoError(t, s.Run(ctx, "y = 2 + 2\nprint(y)", rec.emit))
	assert.Equal(t, "4\n", rec.output())
	assert.Contains(t, rec.lines, 1)

	rec = &recorder{}
	require.NoError(t, s.Run(ctx, "x = 41", rec.emit))
	require.NoError(t, s.Run(ctx, "x + 1", rec.emit))
	assert.Equal(t, "42\n", rec.output())
}

func TestPythonSessionTraceback(t *testing.T) {
	s := startSession(t, Python, "python3")

	rec := &recorder{}
	err := s.Run(context.Background(), "print('start')\n1/0", rec.emit)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.True(t, execErr.Streamed)
	assert.True(t, strings.HasPrefix(rec.output(), "start\n"))
	assert.Contains(t, rec.output(), "ZeroDivisionError")
	assert.NotContains(t, rec.output(), "##interpreter")
}

func TestPythonSessionInterrupt(t *testing.T) {
	s := startSession(t, Python, "python3")

	rec := &recorder{}
	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), "import time\nwhile True:\n    time.sleep(0.01)", rec.emit)
	}()

	require.Eventually(t, rec.sawLine, 10*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Interrupt())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after interrupt")
	}
	assert.Contains(t, rec.output(), core.KeyboardInterrupt)

	rec = &recorder{}
	require.NoError(t, s.Run(context.Background(), "print('alive')", rec.emit))
	assert.Equal(t, "alive\n", rec.output())
}

func TestPythonSessionIgnoresInterruptBetweenRuns(t *testing.T) {
	s := startSession(t, Python, "python3")
	ctx := context.Background()

	code := "import os, signal, threading\nthreading.Timer(0.1, os.kill, (os.getpid(), signal.SIGINT)).start()"
	require.NoError(t, s.Run(ctx, code, (&recorder{}).emit))
	time.Sleep(300 * time.Millisecond)

	rec := &recorder{}
	require.NoError(t, s.Run(ctx, "print('alive')", rec.emit))
	assert.Equal(t, "alive\n", rec.output())
}

func TestPythonSessionContextCancel(t *testing.T) {
	s := startSession(t, Python, "python3")

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, "import time\nwhile True:\n    time.sleep(0.01)", rec.emit)
	}()

	require.Eventually(t, rec.sawLine, 10*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestNodeSession(t *testing.T) {
	s := startSession(t, JavaScript, "node")
	ctx := context.Background()

	rec := &recorder{}
	require.NoError(t, s.Run(ctx, "console.log(1 + 1)", rec.emit))
	assert.Equal(t, "2\n", rec.output())

	rec = &recorder{}
	err := s.Run(ctx, "throw new Error('boom')", rec.emit)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, rec.output(), "boom")
}

func TestTerminateIsIdempotent(t *testing.T) {
	s := startSession(t, Shell, "bash")
	require.NoError(t, s.Terminate())
	require.NoError(t, s.Terminate())

	err := s.Run(context.Background(), "echo late", (&recorder{}).emit)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
