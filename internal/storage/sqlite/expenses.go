package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fairtab/fairtab/internal/models"
)

// Expenses returns every stored expense in insertion order, splits
// included. Read failures degrade to an empty slice.
func (s *SQLiteStore) Expenses(ctx context.Context) []models.Expense {
	return s.queryExpenses(ctx,
		"SELECT id, description, amount, paid_by, group_id, date FROM expenses ORDER BY rowid",
	)
}

// ExpensesByGroup returns the expenses recorded against a group.
func (s *SQLiteStore) ExpensesByGroup(ctx context.Context, groupID string) []models.Expense {
	return s.queryExpenses(ctx,
		"SELECT id, description, amount, paid_by, group_id, date FROM expenses WHERE group_id = ? ORDER BY rowid",
		groupID,
	)
}

// queryExpenses runs a SELECT over the expenses table and hydrates the
// split lists. The result is never nil.
func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) []models.Expense {
	rows, err := s.db.QueryContext(ctx, query, args...)
	expenses := []models.Expense{}
	if err != nil {
		s.readFailed("list expenses", err)
		return expenses
	}
	defer rows.Close()

	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.PaidBy, &e.GroupID, &e.Date); err != nil {
			s.readFailed("scan expense", err)
			return []models.Expense{}
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		s.readFailed("iterate expenses", err)
		return []models.Expense{}
	}

	for i := range expenses {
		if err := s.loadSplits(ctx, &expenses[i]); err != nil {
			s.readFailed("load expense splits", err)
			return []models.Expense{}
		}
	}
	return expenses
}

// ExpenseByID retrieves an expense by ID. Returns nil if absent or on
// read failure.
func (s *SQLiteStore) ExpenseByID(ctx context.Context, id string) *models.Expense {
	e := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, description, amount, paid_by, group_id, date FROM expenses WHERE id = ?",
		id,
	).Scan(&e.ID, &e.Description, &e.Amount, &e.PaidBy, &e.GroupID, &e.Date)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.readFailed("get expense", err)
		return nil
	}
	if err := s.loadSplits(ctx, e); err != nil {
		s.readFailed("load expense splits", err)
		return nil
	}
	return e
}

func (s *SQLiteStore) loadSplits(ctx context.Context, e *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT email FROM expense_splits WHERE expense_id = ? ORDER BY rowid",
		e.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return err
		}
		e.SplitAmong = append(e.SplitAmong, email)
	}
	return rows.Err()
}

// SaveExpense upserts an expense keyed by ID, replacing its split list.
func (s *SQLiteStore) SaveExpense(ctx context.Context, e *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveExpenseTx(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// saveExpenseTx writes an expense and its split list inside an existing
// transaction. Shared with snapshot import.
func saveExpenseTx(ctx context.Context, tx *sql.Tx, e *models.Expense) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (id, description, amount, paid_by, group_id, date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			amount = excluded.amount,
			paid_by = excluded.paid_by,
			group_id = excluded.group_id,
			date = excluded.date`,
		e.ID, e.Description, e.Amount, e.PaidBy, e.GroupID, e.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", e.ID); err != nil {
		return fmt.Errorf("failed to clear expense splits: %w", err)
	}
	for _, email := range e.SplitAmong {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO expense_splits (expense_id, email) VALUES (?, ?)",
			e.ID, email,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}
	return nil
}

// DeleteExpense removes an expense. Absent IDs are not an error.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}
