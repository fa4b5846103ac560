// Package app assembles an interpreter session from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/config"
	"github.com/elee1766/interpreter/src/executor"
	"github.com/elee1766/interpreter/src/orclient"
	"github.com/elee1766/interpreter/src/runner"
	"github.com/elee1766/interpreter/src/storage"
	"github.com/spf13/afero"
)

// App represents the main application with all services
type App struct {
	Config      *config.Config
	Store       storage.Store
	Interpreter *Interpreter
	Logger      *slog.Logger

	db *storage.DB
}

// AppConfig holds configuration for creating a new App instance
type AppConfig struct {
	Config   *config.Config
	Approver executor.Approver
	// Models defaults to OpenAIModels.
	Models ModelFactory
	Logger *slog.Logger
	// Fs backs the json store. Defaults to the OS filesystem.
	Fs afero.Fs
}

// New opens the conversation store and builds an Interpreter. No model
// request is made until the first turn.
func New(ctx context.Context, cfg AppConfig) (*App, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	a := &App{Config: cfg.Config, Logger: logger}
	if err := a.openStore(fsys); err != nil {
		return nil, err
	}

	interp, err := NewInterpreter(Options{
		Config:   cfg.Config,
		Store:    a.Store,
		Runner:   runner.NewManager(runner.ManagerConfig{Logger: logger}),
		Models:   cfg.Models,
		Approver: cfg.Approver,
		Logger:   logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Interpreter = interp
	return a, nil
}

func (a *App) openStore(fsys afero.Fs) error {
	dir := a.Config.ConversationHistoryPath
	switch a.Config.ConversationStore {
	case config.StoreSQLite:
		db, err := storage.Open(config.DatabasePath(dir))
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		a.db = db
		a.Store = storage.NewSQLStore(db)
	case config.StoreJSON, "":
		a.Store = storage.NewFileStore(fsys, dir)
	default:
		return fmt.Errorf("unknown conversation store %q", a.Config.ConversationStore)
	}
	a.Logger.Debug("opened conversation store", "backend", a.Config.ConversationStore, "path", dir)
	return nil
}

// Close terminates the interpreter's sessions and closes the store.
func (a *App) Close() error {
	var errs []error
	if a.Interpreter != nil {
		errs = append(errs, a.Interpreter.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// OpenAIModels binds an OpenAI-compatible client to the configured model.
func OpenAIModels(ctx context.Context, cfg *config.Config) (aisdk.ModelClient, error) {
	return NewProvider(cfg, slog.Default()).Model(ctx, cfg.Model)
}

// NewProvider creates the chat completions client for cfg.
func NewProvider(cfg *config.Config, logger *slog.Logger) *orclient.Client {
	return orclient.NewClient(orclient.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIBase,
		Logger:  logger,
	})
}
