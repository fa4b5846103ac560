package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/elee1766/interpreter/src/core"
	"github.com/spf13/afero"
)

const fileExt = ".json"

var _ Store = (*FileStore)(nil)

// FileStore keeps each conversation in <dir>/<name>.json.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first save.
func NewFileStore(fsys afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fsys, dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStore) Save(ctx context.Context, name string, messages []core.Message) error {
	if err := ValidateName(name); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}
	if messages == nil {
		messages = []core.Message{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(messages); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}

	tmp := s.path(name) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}
	if err := s.fs.Rename(tmp, s.path(name)); err != nil {
		s.fs.Remove(tmp)
		return &Error{Op: "save", Name: name, Err: err}
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) ([]core.Message, error) {
	if err := ValidateName(name); err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}

	data, err := afero.ReadFile(s.fs, s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Op: "load", Name: name, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}

	var messages []core.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}
	return messages, nil
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), fileExt)
		messages, err := s.Load(ctx, name)
		if err != nil {
			// Unreadable files are listed without a message count.
			messages = nil
		}
		records = append(records, Record{
			Name:      name,
			Messages:  len(messages),
			UpdatedAt: entry.ModTime(),
		})
	}

	slices.SortStableFunc(records, compareRecords)
	return records, nil
}

func compareRecords(a, b Record) int {
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
