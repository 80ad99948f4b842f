// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/fairtab/fairtab/internal/models"
)

// Flag keys persisted alongside the entity collections. These are plain
// string key-value pairs, not entities.
const (
	FlagOfflineAuthOK = "offlineAuthOk"
	FlagUserEmail     = "userEmail"
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends without changing
// the ledger layer.
//
// Error policy: reads fail soft. Collection reads return an empty,
// never-nil slice and point lookups return nil on any storage error, so
// callers degrade to "no data" instead of crashing; the error is logged
// inside the store. Writes fail loud and return the error to the
// caller.
type Store interface {
	// People returns every stored person, in insertion order.
	People(ctx context.Context) []models.Person

	// PersonByEmail retrieves a person by email.
	// Returns nil if absent or on storage error.
	PersonByEmail(ctx context.Context, email string) *models.Person

	// SavePerson upserts a person keyed by email. Saving a person whose
	// name and avatar match the stored record is a no-op that returns
	// the existing record unchanged.
	SavePerson(ctx context.Context, p *models.Person) (*models.Person, error)

	// DeletePerson removes a person. Deleting an absent email is not an
	// error.
	DeletePerson(ctx context.Context, email string) error

	// Groups returns every stored group, in insertion order.
	Groups(ctx context.Context) []models.Group

	// GroupByID retrieves a group by ID.
	// Returns nil if absent or on storage error.
	GroupByID(ctx context.Context, id string) *models.Group

	// SaveGroup upserts a group keyed by ID.
	SaveGroup(ctx context.Context, g *models.Group) error

	// DeleteGroup removes a group and every expense that belongs to it,
	// atomically. Deleting an absent ID is not an error.
	DeleteGroup(ctx context.Context, id string) error

	// Expenses returns every stored expense, in insertion order.
	Expenses(ctx context.Context) []models.Expense

	// ExpenseByID retrieves an expense by ID.
	// Returns nil if absent or on storage error.
	ExpenseByID(ctx context.Context, id string) *models.Expense

	// ExpensesByGroup returns the expenses recorded against a group.
	ExpensesByGroup(ctx context.Context, groupID string) []models.Expense

	// SaveExpense upserts an expense keyed by ID.
	SaveExpense(ctx context.Context, e *models.Expense) error

	// DeleteExpense removes an expense. Deleting an absent ID is not an
	// error.
	DeleteExpense(ctx context.Context, id string) error

	// Flag reads a durable key-value flag. The second return reports
	// presence; absent and storage-error both read as ("", false).
	Flag(ctx context.Context, key string) (string, bool)

	// SetFlag writes a durable key-value flag.
	SetFlag(ctx context.Context, key, value string) error

	// DeleteFlag removes a flag. Absent keys are not an error.
	DeleteFlag(ctx context.Context, key string) error

	// ReplaceAll clears all three entity collections and inserts the
	// snapshot's contents in a single transaction. Flags are untouched.
	ReplaceAll(ctx context.Context, snap *models.Snapshot) error

	// Close releases any resources held by the store.
	Close() error
}
