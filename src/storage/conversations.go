package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/elee1766/interpreter/src/core"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

var _ Store = (*SQLStore)(nil)

// SQLStore keeps conversations in a SQLite database.
type SQLStore struct {
	db *DB
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{db: db}
}

// messageRow is one message as stored. A NULL output marks a message that
// is not an execution output.
type messageRow struct {
	ID               string         `db:"id"`
	ConversationName string         `db:"conversation_name"`
	Position         int            `db:"position"`
	Role             string         `db:"role"`
	Message          string         `db:"message"`
	Language         string         `db:"language"`
	Code             string         `db:"code"`
	Output           sql.NullString `db:"output"`
}

func toRow(name string, pos int, m core.Message) messageRow {
	return messageRow{
		ID:               uuid.NewString(),
		ConversationName: name,
		Position:         pos,
		Role:             string(m.Role),
		Message:          m.Message,
		Language:         m.Language,
		Code:             m.Code,
		Output:           sql.NullString{String: m.Output, Valid: m.HasOutput},
	}
}

func (r messageRow) message() core.Message {
	return core.Message{
		Role:      core.Role(r.Role),
		Message:   r.Message,
		Language:  r.Language,
		Code:      r.Code,
		Output:    r.Output.String,
		HasOutput: r.Output.Valid,
	}
}

func (s *SQLStore) Save(ctx context.Context, name string, messages []core.Message) error {
	if err := ValidateName(name); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}

	tx, err := s.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}
	defer tx.Rollback()

	if err := upsertConversation(ctx, tx, name, time.Now().UTC()); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_name = ?`, name); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}
	for i, m := range messages {
		if err := insertMessage(ctx, tx, toRow(name, i, m)); err != nil {
			return &Error{Op: "save", Name: name, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, name string) ([]core.Message, error) {
	if err := ValidateName(name); err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}

	var found string
	err := sqlscan.Get(ctx, s.db.DB(), &found, `SELECT name FROM conversations WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{Op: "load", Name: name, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}

	rows, err := getMessages(ctx, s.db.DB(), name)
	if err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}
	messages := make([]core.Message, len(rows))
	for i, r := range rows {
		messages[i] = r.message()
	}
	return messages, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	query := `SELECT c.name AS name, COUNT(m.id) AS messages, c.updated_at AS updated_at
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_name = c.name
		GROUP BY c.name, c.updated_at
		ORDER BY c.updated_at DESC, c.name`

	var records []Record
	if err := sqlscan.Select(ctx, s.db.DB(), &records, query); err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return records, nil
}

func upsertConversation(ctx context.Context, db Execer, name string, now time.Time) error {
	query := `INSERT INTO conversations (name, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, name, now, now)
	return err
}

func insertMessage(ctx context.Context, db Execer, r messageRow) error {
	query := `INSERT INTO messages (id, conversation_name, position, role, message, language, code, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, r.ID, r.ConversationName, r.Position, r.Role, r.Message, r.Language, r.Code, r.Output)
	return err
}

func getMessages(ctx context.Context, db sqlscan.Querier, name string) ([]messageRow, error) {
	query := `SELECT id, conversation_name, position, role, message, language, code, output
		FROM messages WHERE conversation_name = ? ORDER BY position`
	var rows []messageRow
	if err := sqlscan.Select(ctx, db, &rows, query, name); err != nil {
		return nil, err
	}
	return rows, nil
}
