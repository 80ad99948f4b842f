package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fairtab/fairtab/internal/metrics"
	"github.com/fairtab/fairtab/internal/models"
)

// People returns every stored person in insertion order. Read failures
// degrade to an empty slice. The result is never nil.
func (s *SQLiteStore) People(ctx context.Context) []models.Person {
	rows, err := s.db.QueryContext(ctx,
		"SELECT email, name, avatar FROM people ORDER BY rowid",
	)
	people := []models.Person{}
	if err != nil {
		s.readFailed("list people", err)
		return people
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.Email, &p.Name, &p.Avatar); err != nil {
			s.readFailed("scan person", err)
			return []models.Person{}
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		s.readFailed("iterate people", err)
		return []models.Person{}
	}
	return people
}

// PersonByEmail retrieves a person by email. Returns nil if absent or
// on read failure.
func (s *SQLiteStore) PersonByEmail(ctx context.Context, email string) *models.Person {
	p := &models.Person{}
	err := s.db.QueryRowContext(ctx,
		"SELECT email, name, avatar FROM people WHERE email = ?",
		email,
	).Scan(&p.Email, &p.Name, &p.Avatar)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.readFailed("get person", err)
		return nil
	}
	return p
}

// SavePerson upserts a person keyed by email. Re-saving an unmodified
// person returns the stored record without touching the database, so
// idempotent re-adds create no churn.
func (s *SQLiteStore) SavePerson(ctx context.Context, p *models.Person) (*models.Person, error) {
	existing := s.PersonByEmail(ctx, p.Email)
	if existing != nil && existing.Name == p.Name && existing.Avatar == p.Avatar {
		return existing, nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO people (email, name, avatar) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name, avatar = excluded.avatar`,
		p.Email, p.Name, p.Avatar,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save person: %w", err)
	}
	return p, nil
}

// DeletePerson removes a person. Absent emails are not an error.
func (s *SQLiteStore) DeletePerson(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM people WHERE email = ?", email); err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return nil
}

// readFailed logs a degraded read and bumps the soft-fail counter.
func (s *SQLiteStore) readFailed(op string, err error) {
	slog.Error("storage read failed, returning empty result", "op", op, "error", err)
	metrics.StoreReadFailures.Inc()
}
