package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fairtab/fairtab/internal/metrics"
	"github.com/fairtab/fairtab/internal/models"
)

// Export serializes all three collections into a snapshot.
func (l *Ledger) Export(ctx context.Context) *models.Snapshot {
	return &models.Snapshot{
		Friends:  l.store.People(ctx),
		Groups:   l.store.Groups(ctx),
		Expenses: l.store.Expenses(ctx),
	}
}

// Import replaces the store contents with a snapshot read from r. This
// is a destructive replace, not a merge: all three collections are
// cleared, then the snapshot's records are inserted. A key absent from
// the snapshot leaves that collection empty.
//
// The payload is parsed in full before any write, and the replace runs
// in a single store transaction, so a malformed snapshot or a write
// failure leaves prior contents intact.
func (l *Ledger) Import(ctx context.Context, r io.Reader) error {
	var snap models.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("malformed snapshot: %w", err)
	}

	if err := l.store.ReplaceAll(ctx, &snap); err != nil {
		return err
	}
	metrics.Mutations.WithLabelValues("snapshot", "import").Inc()

	l.refreshFriends(ctx)
	l.refreshGroups(ctx)
	l.refreshExpenses(ctx)
	return nil
}
