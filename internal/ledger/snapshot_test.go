package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/fairtab/fairtab/internal/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, "a@x.com")

	if _, err := l.AddFriend(ctx, models.Person{Email: "b@x.com", Name: "Bea"}); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}
	g, err := l.AddGroup(ctx, models.Group{Name: "Trip", Members: []string{"b@x.com"}})
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	if _, err := l.AddExpense(ctx, models.Expense{
		Description: "Dinner", Amount: 42.50, GroupID: g.ID,
		SplitAmong: []string{"a@x.com", "b@x.com"},
	}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	exported := l.Export(ctx)
	payload, err := json.Marshal(exported)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// Import into a fresh ledger and compare.
	other := newTestLedger(t, "a@x.com")
	if err := other.Import(ctx, bytes.NewReader(payload)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	reimported := other.Export(ctx)
	assertSameFriends(t, exported.Friends, reimported.Friends)
	if len(reimported.Groups) != 1 || reimported.Groups[0].ID != g.ID {
		t.Errorf("groups mismatch: %+v", reimported.Groups)
	}
	if len(reimported.Expenses) != 1 || reimported.Expenses[0].Amount != 42.50 {
		t.Errorf("expenses mismatch: %+v", reimported.Expenses)
	}
}

func assertSameFriends(t *testing.T, want, got []models.Person) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("friends count: got %d, want %d", len(got), len(want))
	}
	sort.Slice(want, func(i, j int) bool { return want[i].Email < want[j].Email })
	sort.Slice(got, func(i, j int) bool { return got[i].Email < got[j].Email })
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("friend %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestImportIsDestructiveReplace(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, "a@x.com")

	if _, err := l.AddFriend(ctx, models.Person{Email: "old@x.com", Name: "Old"}); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}
	if _, err := l.AddGroup(ctx, models.Group{Name: "Old Group"}); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}

	// Snapshot with only friends: groups and expenses end up empty.
	err := l.Import(ctx, strings.NewReader(`{"friends":[{"email":"new@x.com","name":"New"}]}`))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	state := l.State(ctx)
	if len(state.Friends) != 1 || state.Friends[0].Email != "new@x.com" {
		t.Errorf("friends = %+v, want only new@x.com", state.Friends)
	}
	if len(state.Groups) != 0 {
		t.Errorf("groups = %+v, want empty after replace", state.Groups)
	}
	if len(state.Expenses) != 0 {
		t.Errorf("expenses = %+v, want empty after replace", state.Expenses)
	}
}

func TestImportMalformedLeavesStoreIntact(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, "a@x.com")

	if _, err := l.AddFriend(ctx, models.Person{Email: "b@x.com", Name: "Bea"}); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}

	err := l.Import(ctx, strings.NewReader(`{"friends": [{"email": truncated`))
	if err == nil {
		t.Fatal("expected parse error")
	}

	// Parsing happens before any write, so nothing was cleared.
	if n := len(l.State(ctx).Friends); n != 2 {
		t.Errorf("friends count = %d, want 2 (untouched)", n)
	}
}
