// Package executor drives the response loop: it streams the model's reply,
// runs the code blocks it asks for and feeds the output back until the model
// stops asking.
package executor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/elee1766/interpreter/src/core"
	"github.com/elee1766/interpreter/src/runner"
)

// Service runs turns against a model and a code runner.
type Service struct {
	model    ModelClient
	runner   Runner
	approver Approver
	autoRun  bool
	maxTurns int
	logger   *slog.Logger
}

// ServiceConfig holds configuration for creating a new Service
type ServiceConfig struct {
	Model  ModelClient
	Runner Runner
	// Approver gates execution when AutoRun is off. Without one, every
	// block is declined.
	Approver Approver
	AutoRun  bool
	// MaxTurns bounds the model calls in one turn. Zero means no limit.
	MaxTurns int
	Logger   *slog.Logger
}

// NewService creates a response loop driver.
func NewService(config ServiceConfig) (*Service, error) {
	if config.Model == nil {
		return nil, ErrModelClientRequired
	}
	if config.Runner == nil {
		return nil, ErrRunnerRequired
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Service{
		model:    config.Model,
		runner:   config.Runner,
		approver: config.Approver,
		autoRun:  config.AutoRun,
		maxTurns: config.MaxTurns,
		logger:   config.Logger.With("component", "executor"),
	}, nil
}

// Respond streams the rest of the turn for state, which must end with the
// user's message. Every yielded chunk has already been applied to state, so
// after an error state holds the history up to the failure.
func (s *Service) Respond(ctx context.Context, state *core.State) iter.Seq2[core.Chunk, error] {
	return func(yield func(core.Chunk, error) bool) {
		t := &turn{Service: s, state: state, yield: yield}
		t.run(ctx)
	}
}

type turn struct {
	*Service
	state *core.State
	yield func(core.Chunk, error) bool
}

// step folds c into the state and yields it. It returns false when the
// turn must stop.
func (t *turn) step(c core.Chunk) bool {
	next, err := core.Fold(*t.state, c)
	if err != nil {
		t.yield(nil, err)
		return false
	}
	*t.state = next
	return t.yield(c, nil)
}

func (t *turn) fail(err error) {
	t.yield(nil, err)
}

func (t *turn) run(ctx context.Context) {
	for round := 1; ; round++ {
		if t.maxTurns > 0 && round > t.maxTurns {
			t.fail(fmt.Errorf("%w: %d", ErrMaxTurnsExceeded, t.maxTurns))
			return
		}

		t.logger.Debug("requesting model response", "round", round, "messages", len(t.state.Messages))
		for c, err := range t.model.Complete(ctx, t.state.Messages) {
			if err != nil {
				t.fail(err)
				return
			}
			if !t.step(c) {
				return
			}
		}

		code, ok := t.state.PendingCode()
		if !ok {
			if t.state.Phase != core.PhaseAwaitingModel {
				t.logger.Debug("response ended", "phase", t.state.Phase)
			}
			*t.state = t.state.Finish()
			return
		}

		approved, err := t.approve(ctx, code)
		if err != nil {
			t.fail(err)
			return
		}
		if !approved {
			t.logger.Info("code execution declined", "language", code.Language)
			if t.step(core.OutputFragment{Text: DeclinedOutput}) && t.step(core.ActiveLineUpdate{Close: true}) {
				*t.state = t.state.Finish()
			}
			return
		}

		if !t.execute(ctx, code) {
			return
		}
		if !t.step(core.ActiveLineUpdate{Close: true}) {
			return
		}
	}
}

func (t *turn) approve(ctx context.Context, code core.Message) (bool, error) {
	if t.autoRun {
		return true, nil
	}
	if t.approver == nil {
		t.logger.Warn("no approver configured, declining code execution")
		return false, nil
	}
	return t.approver.Approve(ctx, code.Language, code.Code)
}

// execute runs the pending block and yields its updates as they arrive.
func (t *turn) execute(ctx context.Context, code core.Message) bool {
	logger := t.logger.With("language", code.Language)
	logger.Debug("executing code block", "bytes", len(code.Code))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan runner.Update, 64)
	done := make(chan error, 1)
	go func() {
		err := t.runner.Execute(runCtx, code.Language, code.Code, func(u runner.Update) {
			select {
			case updates <- u:
			case <-runCtx.Done():
			}
		})
		close(updates)
		done <- err
	}()

	// stop abandons the run and waits for the runner to return.
	stop := func() bool {
		cancel()
		for range updates {
		}
		<-done
		return false
	}

	for u := range updates {
		var c core.Chunk = core.ActiveLineUpdate{Line: u.ActiveLine}
		if u.ActiveLine <= 0 {
			if u.Output == "" {
				continue
			}
			c = core.OutputFragment{Text: u.Output}
		}
		if !t.step(c) {
			return stop()
		}
	}

	err := <-done
	if err == nil {
		return true
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		t.fail(err)
		return false
	}

	logger.Debug("execution failed", "error", err)
	if text := failureOutput(err); text != "" {
		return t.step(core.OutputFragment{Text: text})
	}
	return true
}

// failureOutput is the output text recorded for a failed run beyond what the
// session already streamed.
func failureOutput(err error) string {
	var execErr *runner.ExecutionError
	if !errors.As(err, &execErr) {
		return err.Error()
	}
	if !execErr.Streamed {
		return execErr.Output
	}
	if errors.Is(execErr, runner.ErrSessionClosed) {
		return fmt.Sprintf("\n%s session exited with status %d", execErr.Language, execErr.ExitCode)
	}
	return ""
}
