package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const chatStateSchema = `
CREATE TABLE IF NOT EXISTS chat_state (
	chat_id TEXT PRIMARY KEY,
	state   TEXT NOT NULL
)`

// sqliteStore persists chat state in a single-table SQLite database, one
// JSON snapshot per chat.
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(chatStateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

// SaveChat implements Store.
func (s *sqliteStore) SaveChat(ctx context.Context, chat ChatID, state ChatState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode chat state: %w", err)
	}

	query := `INSERT INTO chat_state (chat_id, state) VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET state = excluded.state`
	if _, err := s.db.ExecContext(ctx, query, string(chat), string(data)); err != nil {
		return fmt.Errorf("failed to save chat state: %w", err)
	}
	return nil
}

// LoadAll implements Store.
func (s *sqliteStore) LoadAll(ctx context.Context) (map[ChatID]ChatState, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT chat_id, state FROM chat_state")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := make(map[ChatID]ChatState)
	for rows.Next() {
		var chatID, raw string
		if err := rows.Scan(&chatID, &raw); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		var state ChatState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			// Skip unreadable rows rather than refusing to start.
			LogWarn("skipping corrupt chat state for %s: %v", chatID, err)
			continue
		}
		out[ChatID(chatID)] = state
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// DeleteChat implements Store.
func (s *sqliteStore) DeleteChat(ctx context.Context, chat ChatID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_state WHERE chat_id = ?", string(chat)); err != nil {
		return fmt.Errorf("failed to delete chat state: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
