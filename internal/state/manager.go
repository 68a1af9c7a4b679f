package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// Manager provides typed access to persisted agent state.
type Manager struct {
	db     *Database
	logger *logger.Logger
}

// Message is a cached notification feed entry.
type Message struct {
	ID    string
	Title string
	Body  string
}

// NewManager opens the state database at dbPath.
func NewManager(dbPath string, log *logger.Logger) (*Manager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return &Manager{db: db, logger: log}, nil
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}

// DB returns the underlying database handle.
func (m *Manager) DB() *sql.DB {
	return m.db.DB()
}

// SetValue stores a key/value pair, replacing any previous value.
func (m *Manager) SetValue(ctx context.Context, key, value string) error {
	_, err := m.db.DB().ExecContext(ctx, `
		INSERT INTO agent_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}
	return nil
}

// GetValue returns the stored value for key, or "" when absent.
func (m *Manager) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := m.db.DB().QueryRowContext(ctx,
		`SELECT value FROM agent_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, nil
}

// DeleteValue removes a stored key. Missing keys are not an error.
func (m *Manager) DeleteValue(ctx context.Context, key string) error {
	_, err := m.db.DB().ExecContext(ctx, `DELETE FROM agent_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete state %q: %w", key, err)
	}
	return nil
}

// ReplaceMessages replaces the cached notification feed with msgs.
func (m *Manager) ReplaceMessages(ctx context.Context, msgs []Message) error {
	tx, err := m.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin message cache update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear message cache: %w", err)
	}
	for _, msg := range msgs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, title, body, fetched_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		`, msg.ID, msg.Title, msg.Body); err != nil {
			return fmt.Errorf("failed to cache message %q: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

// CachedMessages returns the cached notification feed in fetch order.
func (m *Manager) CachedMessages(ctx context.Context) ([]Message, error) {
	rows, err := m.db.DB().QueryContext(ctx,
		`SELECT id, title, body FROM messages ORDER BY fetched_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read message cache: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Title, &msg.Body); err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// MarkDismissed records a message id as acknowledged.
func (m *Manager) MarkDismissed(ctx context.Context, id string) error {
	_, err := m.db.DB().ExecContext(ctx, `
		INSERT INTO dismissed_messages (id) VALUES (?)
		ON CONFLICT(id) DO NOTHING
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark message %q dismissed: %w", id, err)
	}
	return nil
}

// DismissedIDs returns the set of acknowledged message ids.
func (m *Manager) DismissedIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.DB().QueryContext(ctx, `SELECT id FROM dismissed_messages`)
	if err != nil {
		return nil, fmt.Errorf("failed to read dismissed messages: %w", err)
	}
	defer rows.Close()

	dismissed := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan dismissed id: %w", err)
		}
		dismissed[id] = true
	}
	return dismissed, rows.Err()
}
