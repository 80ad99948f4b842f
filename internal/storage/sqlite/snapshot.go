package sqlite

import (
	"context"
	"fmt"

	"github.com/fairtab/fairtab/internal/models"
)

// ReplaceAll clears all three entity collections and inserts the
// snapshot's contents in a single transaction. A failure anywhere rolls
// the whole replace back, so a bad import can never leave the store
// half-cleared. Flags are untouched.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"expense_splits", "expenses", "group_expenses", "group_members", "groups", "people",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, p := range snap.Friends {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO people (email, name, avatar) VALUES (?, ?, ?)",
			p.Email, p.Name, p.Avatar,
		)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
	}
	for i := range snap.Groups {
		if err := saveGroupTx(ctx, tx, &snap.Groups[i]); err != nil {
			return err
		}
	}
	for i := range snap.Expenses {
		if err := saveExpenseTx(ctx, tx, &snap.Expenses[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
