package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Factory builds sessions. Defaults to NewSession.
	Factory Factory
	Logger  *slog.Logger
}

// Manager owns one session per language and creates them on first use.
type Manager struct {
	factory Factory
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[Language]Session
	current  Session
}

// NewManager creates an empty session arena.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		factory:  cfg.Factory,
		logger:   logger.With("component", "runner"),
		sessions: make(map[Language]Session),
	}
	if m.factory == nil {
		m.factory = func(lang Language) (Session, error) {
			return NewSession(lang, logger)
		}
	}
	return m
}

// Get returns the session for lang, starting it if needed.
func (m *Manager) Get(lang Language) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[lang]; ok {
		return s, nil
	}
	s, err := m.factory(lang)
	if err != nil {
		return nil, err
	}
	m.sessions[lang] = s
	m.logger.Info("created session", "language", string(lang))
	return s, nil
}

// Execute runs code in the session for language. A session found dead
// before the run starts is replaced once.
func (m *Manager) Execute(ctx context.Context, language, code string, emit func(Update)) error {
	lang, err := ParseLanguage(language)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		s, err := m.Get(lang)
		if err != nil {
			return err
		}

		m.setCurrent(s)
		err = s.Run(ctx, code, emit)
		m.setCurrent(nil)

		if !errors.Is(err, ErrSessionClosed) {
			return err
		}
		m.evict(lang, s)

		var execErr *ExecutionError
		if errors.As(err, &execErr) || attempt > 0 {
			return err
		}
		m.logger.Info("session closed, restarting", "language", string(lang))
	}
}

func (m *Manager) setCurrent(s Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

func (m *Manager) evict(lang Language, s Session) {
	m.mu.Lock()
	if m.sessions[lang] == s {
		delete(m.sessions, lang)
	}
	m.mu.Unlock()
	if err := s.Terminate(); err != nil {
		m.logger.Debug("terminate evicted session", "language", string(lang), "error", err)
	}
}

// Interrupt interrupts the running block, if any. It reports whether a block
// was running.
func (m *Manager) Interrupt() bool {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()
	if s == nil {
		return false
	}
	if err := s.Interrupt(); err != nil {
		m.logger.Warn("failed to interrupt session", "error", err)
	}
	return true
}

// TerminateAll stops every session.
func (m *Manager) TerminateAll() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[Language]Session)
	m.current = nil
	m.mu.Unlock()

	var errs []error
	for lang, s := range sessions {
		if err := s.Terminate(); err != nil {
			errs = append(errs, fmt.Errorf("terminate %s: %w", lang, err))
		}
	}
	if len(sessions) > 0 {
		m.logger.Info("terminated sessions", "count", len(sessions))
	}
	return errors.Join(errs...)
}

// Active lists languages with a live session, sorted.
func (m *Manager) Active() []Language {
	m.mu.Lock()
	defer m.mu.Unlock()
	langs := make([]Language, 0, len(m.sessions))
	for lang := range m.sessions {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}
