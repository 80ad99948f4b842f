package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Flag reads a durable key-value flag. Absent keys and read failures
// both report ("", false).
func (s *SQLiteStore) Flag(ctx context.Context, key string) (string, bool) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM flags WHERE key = ?", key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		s.readFailed("get flag", err)
		return "", false
	}
	return value, true
}

// SetFlag writes a durable key-value flag.
func (s *SQLiteStore) SetFlag(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flags (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set flag: %w", err)
	}
	return nil
}

// DeleteFlag removes a flag. Absent keys are not an error.
func (s *SQLiteStore) DeleteFlag(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM flags WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete flag: %w", err)
	}
	return nil
}
