// Package storage persists conversation histories by name.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elee1766/interpreter/src/core"
)

var (
	ErrNotFound    = errors.New("conversation not found")
	ErrInvalidName = errors.New("invalid conversation name")
)

// Store saves and loads conversations.
type Store interface {
	// Save replaces the stored messages of the named conversation.
	Save(ctx context.Context, name string, messages []core.Message) error
	Load(ctx context.Context, name string) ([]core.Message, error)
	// List returns every conversation, most recently updated first.
	List(ctx context.Context) ([]Record, error)
}

// Record summarizes a stored conversation.
type Record struct {
	Name      string    `db:"name" json:"name"`
	Messages  int       `db:"messages" json:"messages"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Error is a failed storage operation.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidateName rejects names that cannot be used as a file name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	}
	return nil
}
