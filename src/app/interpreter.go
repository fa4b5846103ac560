package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/config"
	"github.com/elee1766/interpreter/src/core"
	"github.com/elee1766/interpreter/src/executor"
	"github.com/elee1766/interpreter/src/llm"
	"github.com/elee1766/interpreter/src/runner"
	"github.com/elee1766/interpreter/src/storage"
)

var (
	// ErrTurnInProgress is returned when a turn is started, or the
	// conversation changed, while another turn is running.
	ErrTurnInProgress = errors.New("a turn is already in progress")

	// ErrMessageRequired is returned for an empty user message.
	ErrMessageRequired = errors.New("message is required")

	// ErrNoStore is returned by Load when conversation history is disabled.
	ErrNoStore = errors.New("conversation history is disabled")
)

// ModelFactory builds the model client for a configuration.
type ModelFactory func(ctx context.Context, cfg *config.Config) (aisdk.ModelClient, error)

// Runner runs code and owns the sessions it runs it in.
type Runner interface {
	executor.Runner
	Interrupt() bool
	TerminateAll() error
}

var _ Runner = (*runner.Manager)(nil)

// Options configures an Interpreter.
type Options struct {
	Config *config.Config
	// Store persists conversations. Nil disables persistence.
	Store  storage.Store
	Runner Runner
	// Models defaults to OpenAIModels.
	Models   ModelFactory
	Approver executor.Approver
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Interpreter is one conversation with a model that can run code.
type Interpreter struct {
	config   config.Config
	store    storage.Store
	runner   Runner
	models   ModelFactory
	approver executor.Approver
	logger   *slog.Logger
	now      func() time.Time

	busy atomic.Bool

	mu       sync.Mutex
	messages []core.Message
	name     string
	service  *executor.Service
}

// NewInterpreter creates an interpreter. The model client is built on the
// first turn.
func NewInterpreter(opts Options) (*Interpreter, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Runner == nil {
		return nil, executor.ErrRunnerRequired
	}
	if opts.Models == nil {
		opts.Models = OpenAIModels
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	i := &Interpreter{
		config:   *opts.Config,
		store:    opts.Store,
		runner:   opts.Runner,
		models:   opts.Models,
		approver: opts.Approver,
		logger:   opts.Logger.With("component", "interpreter"),
		now:      opts.Now,
		name:     opts.Config.ConversationName,
	}
	if i.name == "" {
		i.name = config.NewConversationName(i.now())
	}
	return i, nil
}

// Config returns the configuration the interpreter was built with.
func (i *Interpreter) Config() config.Config {
	return i.config
}

// Messages returns a copy of the conversation so far.
func (i *Interpreter) Messages() []core.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.messages)
}

// ConversationName returns the name the conversation is saved under.
func (i *Interpreter) ConversationName() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.name
}

// Chat runs a turn to completion and returns the whole conversation.
func (i *Interpreter) Chat(ctx context.Context, message string) ([]core.Message, error) {
	for _, err := range i.Stream(ctx, message) {
		if err != nil {
			return i.Messages(), err
		}
	}
	return i.Messages(), nil
}

// Stream runs a turn and yields its chunks as they arrive. The history is
// updated and saved when the turn ends, including when it fails or the
// consumer stops early.
func (i *Interpreter) Stream(ctx context.Context, message string) iter.Seq2[core.Chunk, error] {
	return func(yield func(core.Chunk, error) bool) {
		if strings.TrimSpace(message) == "" {
			yield(nil, ErrMessageRequired)
			return
		}
		if !i.busy.CompareAndSwap(false, true) {
			yield(nil, ErrTurnInProgress)
			return
		}
		defer i.busy.Store(false)

		svc, err := i.respondService(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		i.mu.Lock()
		state := core.NewState(i.messages, i.config.MaxOutput).Append(core.UserMessage(message))
		name := i.name
		i.mu.Unlock()

		var turnErr error
		stopped := false
		for c, err := range svc.Respond(ctx, &state) {
			if err != nil {
				turnErr = err
				break
			}
			if !yield(c, nil) {
				stopped = true
				break
			}
		}

		i.mu.Lock()
		i.messages = state.Messages
		i.mu.Unlock()

		saveErr := i.save(context.WithoutCancel(ctx), name, state.Messages)
		switch {
		case stopped:
		case turnErr != nil:
			yield(nil, turnErr)
		case saveErr != nil:
			yield(nil, saveErr)
		}
	}
}

// respondService builds the response loop on first use.
func (i *Interpreter) respondService(ctx context.Context) (*executor.Service, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.service != nil {
		return i.service, nil
	}

	if err := i.config.RequireModelEndpoint(); err != nil {
		return nil, err
	}
	model, err := i.models(ctx, &i.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	client := llm.NewClient(llm.Config{
		Model:           model,
		Temperature:     i.config.Temperature,
		MaxTokens:       i.config.MaxTokens,
		ContextWindow:   i.config.ContextWindow,
		SystemMessage:   i.config.SystemMessage,
		FunctionCalling: i.config.UsesFunctionCalling(),
		NoStream:        !i.config.Stream,
		Languages:       languageNames(),
		Logger:          i.logger,
	})
	svc, err := executor.NewService(executor.ServiceConfig{
		Model:    client,
		Runner:   i.runner,
		Approver: i.approver,
		AutoRun:  i.config.AutoRun,
		Logger:   i.logger,
	})
	if err != nil {
		return nil, err
	}

	i.logger.Debug("model client ready", "model", model.GetModelInfo().ID)
	i.service = svc
	return svc, nil
}

func languageNames() []string {
	langs := runner.Languages()
	names := make([]string, len(langs))
	for n, l := range langs {
		names[n] = l.String()
	}
	return names
}

func (i *Interpreter) save(ctx context.Context, name string, messages []core.Message) error {
	if i.store == nil || !i.config.ConversationHistory {
		return nil
	}
	if err := i.store.Save(ctx, name, messages); err != nil {
		i.logger.Error("failed to save conversation", "conversation", name, "error", err)
		return err
	}
	i.logger.Debug("saved conversation", "conversation", name, "messages", len(messages))
	return nil
}

// Reset clears the conversation, terminates every session and starts a new
// conversation name.
func (i *Interpreter) Reset() error {
	if !i.busy.CompareAndSwap(false, true) {
		return ErrTurnInProgress
	}
	defer i.busy.Store(false)

	err := i.runner.TerminateAll()

	i.mu.Lock()
	i.messages = nil
	i.name = config.NewConversationName(i.now())
	i.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to terminate sessions: %w", err)
	}
	return nil
}

// Load replaces the conversation with a saved one. Later turns are saved
// under the same name.
func (i *Interpreter) Load(ctx context.Context, name string) error {
	if i.store == nil {
		return ErrNoStore
	}
	if !i.busy.CompareAndSwap(false, true) {
		return ErrTurnInProgress
	}
	defer i.busy.Store(false)

	messages, err := i.store.Load(ctx, name)
	if err != nil {
		return err
	}

	i.mu.Lock()
	i.messages = messages
	i.name = name
	i.mu.Unlock()
	return nil
}

// Interrupt interrupts the code that is running, if any. The turn goes on.
func (i *Interpreter) Interrupt() bool {
	return i.runner.Interrupt()
}

// Close terminates every session.
func (i *Interpreter) Close() error {
	return i.runner.TerminateAll()
}
