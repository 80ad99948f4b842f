package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fairtab/fairtab/internal/models"
)

// Groups returns every stored group in insertion order, members and
// expense lists included. Read failures degrade to an empty slice. The
// result is never nil.
func (s *SQLiteStore) Groups(ctx context.Context) []models.Group {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description FROM groups ORDER BY rowid",
	)
	groups := []models.Group{}
	if err != nil {
		s.readFailed("list groups", err)
		return groups
	}
	defer rows.Close()

	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			s.readFailed("scan group", err)
			return []models.Group{}
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		s.readFailed("iterate groups", err)
		return []models.Group{}
	}

	for i := range groups {
		if err := s.loadGroupRefs(ctx, &groups[i]); err != nil {
			s.readFailed("load group refs", err)
			return []models.Group{}
		}
	}
	return groups
}

// GroupByID retrieves a group by ID. Returns nil if absent or on read
// failure.
func (s *SQLiteStore) GroupByID(ctx context.Context, id string) *models.Group {
	g := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM groups WHERE id = ?",
		id,
	).Scan(&g.ID, &g.Name, &g.Description)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.readFailed("get group", err)
		return nil
	}
	if err := s.loadGroupRefs(ctx, g); err != nil {
		s.readFailed("load group refs", err)
		return nil
	}
	return g
}

// loadGroupRefs fills in the member emails and denormalized expense IDs
// for a group, preserving insertion order.
func (s *SQLiteStore) loadGroupRefs(ctx context.Context, g *models.Group) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT email FROM group_members WHERE group_id = ? ORDER BY rowid",
		g.ID,
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
		g.Members = append(g.Members, email)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	expRows, err := s.db.QueryContext(ctx,
		"SELECT expense_id FROM group_expenses WHERE group_id = ? ORDER BY rowid",
		g.ID,
	)
	if err != nil {
		return err
	}
	defer expRows.Close()

	for expRows.Next() {
		var id string
		if err := expRows.Scan(&id); err != nil {
			return err
		}
		g.Expenses = append(g.Expenses, id)
	}
	return expRows.Err()
}

// SaveGroup upserts a group keyed by ID, replacing its member and
// expense reference lists.
func (s *SQLiteStore) SaveGroup(ctx context.Context, g *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveGroupTx(ctx, tx, g); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// saveGroupTx writes a group and its reference lists inside an existing
// transaction. Shared with snapshot import.
func saveGroupTx(ctx context.Context, tx *sql.Tx, g *models.Group) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		g.ID, g.Name, g.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", g.ID); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	for _, email := range g.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_members (group_id, email) VALUES (?, ?)",
			g.ID, email,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_expenses WHERE group_id = ?", g.ID); err != nil {
		return fmt.Errorf("failed to clear group expenses: %w", err)
	}
	for _, id := range g.Expenses {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_expenses (group_id, expense_id) VALUES (?, ?)",
			g.ID, id,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group expense ref: %w", err)
		}
	}
	return nil
}

// DeleteGroup removes a group and cascades to its expenses in one
// transaction. Absent IDs are not an error.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM expense_splits WHERE expense_id IN
		(SELECT id FROM expenses WHERE group_id = ?)`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense splits: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE group_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete group expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
