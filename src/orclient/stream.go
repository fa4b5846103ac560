package orclient

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/elee1766/interpreter/src/aisdk"
)

var _ aisdk.StreamInterface = (*eventStream)(nil)

// eventStream decodes a text/event-stream body of chat completion chunks.
type eventStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	logger *slog.Logger

	mu     sync.Mutex
	done   bool
	closed atomic.Bool
}

func newEventStream(body io.ReadCloser, logger *slog.Logger) *eventStream {
	return &eventStream{
		body:   body,
		reader: bufio.NewReaderSize(body, 64*1024),
		logger: logger,
	}
}

// Read returns the next chunk, or io.EOF after the [DONE] sentinel or the
// end of the body.
func (s *eventStream) Read() (*aisdk.StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}

	data, err := s.nextEvent()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.done = true
		} else if s.closed.Load() {
			return nil, ErrStreamClosed
		}
		return nil, err
	}
	if bytes.Equal(data, []byte("[DONE]")) {
		s.done = true
		return nil, io.EOF
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		s.done = true
		return nil, envelope.Error
	}

	var chunk aisdk.StreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		s.logger.Debug("undecodable stream event", "data", string(data))
		return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
	}
	return &chunk, nil
}

// nextEvent reads lines up to a blank line and returns the joined data
// fields. Comment lines and other fields are skipped.
func (s *eventStream) nextEvent() ([]byte, error) {
	var data [][]byte
	for {
		line, err := s.reader.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		switch {
		case len(line) == 0:
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
		case line[0] == ':':
			// keep-alive comment
		default:
			field, value, _ := bytes.Cut(line, []byte(":"))
			if string(field) == "data" {
				data = append(data, bytes.Clone(bytes.TrimPrefix(value, []byte(" "))))
			}
		}

		if err != nil {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			return nil, err
		}
	}
}

// Close releases the response body. It may be called while Read blocks.
func (s *eventStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.body.Close()
}
