package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairtab/fairtab/internal/connectivity"
	"github.com/fairtab/fairtab/internal/identity"
	"github.com/fairtab/fairtab/internal/models"
	"github.com/fairtab/fairtab/internal/storage/sqlite"
)

// stubSession is a remote session, loaded unless pending is set.
type stubSession struct {
	email   string
	pending bool
}

func (s *stubSession) Loaded() bool                      { return !s.pending }
func (s *stubSession) SignedIn() bool                    { return s.email != "" }
func (s *stubSession) PrimaryEmail() string              { return s.email }
func (s *stubSession) SignOut(ctx context.Context) error { s.email = ""; return nil }

func newTestLedger(t *testing.T, actorEmail string) *Ledger {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	monitor := connectivity.NewMonitor(true)
	resolver := identity.NewResolver(&stubSession{email: actorEmail}, store, monitor)

	l := New(store, resolver, monitor)
	l.Init(context.Background())
	return l
}

func TestInit(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()
	state := l.State(ctx)

	if state.IsLoading {
		t.Error("expected loading complete after Init")
	}
	if state.CurrentUser == nil || state.CurrentUser.Email != "a@x.com" {
		t.Errorf("unexpected current user: %+v", state.CurrentUser)
	}

	// The actor's person record is created on first reference.
	if len(state.Friends) != 1 || state.Friends[0].Email != "a@x.com" {
		t.Errorf("expected actor in friends, got %+v", state.Friends)
	}
}

func TestStateReflectsLateIdentityResolution(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	// Same startup order as the server binary: the monitor starts
	// offline and Init runs before the first reachability check.
	monitor := connectivity.NewMonitor(false)
	resolver := identity.NewResolver(&stubSession{email: "a@x.com"}, store, monitor)
	l := New(store, resolver, monitor)

	ctx := context.Background()
	l.Init(ctx)

	if l.State(ctx).CurrentUser != nil {
		t.Fatal("expected no current user while offline with an empty cache")
	}

	// Connectivity arrives and identity resolves after Init.
	monitor.Set(true)
	resolver.Resolve(ctx)
	if _, err := l.CurrentActor(ctx); err != nil {
		t.Fatalf("CurrentActor failed: %v", err)
	}

	state := l.State(ctx)
	if state.CurrentUser == nil || state.CurrentUser.Email != "a@x.com" {
		t.Errorf("current user = %+v, want a@x.com after late resolution", state.CurrentUser)
	}
	if state.IsLoading {
		t.Error("expected loading complete after late resolution")
	}
	if !state.IsOnline {
		t.Error("expected online state")
	}
}

func TestStateLoadingClearsAfterResolution(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	session := &stubSession{email: "a@x.com", pending: true}
	monitor := connectivity.NewMonitor(true)
	resolver := identity.NewResolver(session, store, monitor)
	l := New(store, resolver, monitor)

	ctx := context.Background()
	l.Init(ctx)
	if !l.State(ctx).IsLoading {
		t.Fatal("expected loading while the session check is pending")
	}

	session.pending = false
	resolver.Resolve(ctx)
	if l.State(ctx).IsLoading {
		t.Error("expected loading cleared once identity resolved")
	}
}

func TestAddFriendIdempotent(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	first, err := l.AddFriend(ctx, models.Person{Email: "b@x.com", Name: "Bea"})
	if err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}

	second, err := l.AddFriend(ctx, models.Person{Email: "b@x.com", Name: "Renamed"})
	if err != nil {
		t.Fatalf("second AddFriend failed: %v", err)
	}
	if second.Name != first.Name {
		t.Errorf("second call modified the record: %+v", second)
	}

	// One actor + one friend, no duplicates.
	if n := len(l.State(ctx).Friends); n != 2 {
		t.Errorf("expected 2 friends, got %d", n)
	}
}

func TestAddFriendRequiresEmail(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	if _, err := l.AddFriend(context.Background(), models.Person{Name: "No Email"}); err != ErrEmptyEmail {
		t.Errorf("err = %v, want ErrEmptyEmail", err)
	}
}

func TestAddGroupAutoMembership(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	g, err := l.AddGroup(ctx, models.Group{
		Name:    "Trip",
		Members: []string{"b@x.com"},
	})
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	if g.ID == "" {
		t.Error("expected generated ID")
	}

	want := map[string]bool{"a@x.com": false, "b@x.com": false}
	for _, m := range g.Members {
		if _, ok := want[m]; !ok {
			t.Errorf("unexpected member %q", m)
		}
		want[m] = true
	}
	for m, seen := range want {
		if !seen {
			t.Errorf("missing member %q", m)
		}
	}
}

func TestAddGroupActorAlreadyMember(t *testing.T) {
	l := newTestLedger(t, "a@x.com")

	g, err := l.AddGroup(context.Background(), models.Group{
		Name:    "Trip",
		Members: []string{"a@x.com", "b@x.com", "a@x.com"},
	})
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	if len(g.Members) != 2 {
		t.Errorf("expected deduplicated members, got %v", g.Members)
	}
}

func TestAddExpenseDefaults(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	e, err := l.AddExpense(ctx, models.Expense{
		Description: "Dinner",
		Amount:      30,
		GroupID:     "g1",
	})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	if e.ID == "" {
		t.Error("expected generated ID")
	}
	if e.PaidBy != "a@x.com" {
		t.Errorf("PaidBy = %q, want actor default", e.PaidBy)
	}
	// Empty split falls back to the actor alone.
	if len(e.SplitAmong) != 1 || e.SplitAmong[0] != "a@x.com" {
		t.Errorf("SplitAmong = %v, want [a@x.com]", e.SplitAmong)
	}

	stamp, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		t.Fatalf("Date %q is not RFC 3339: %v", e.Date, err)
	}
	if stamp.Before(before) || stamp.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("Date %v not stamped at call time", stamp)
	}
}

func TestAddExpenseNormalizesSplit(t *testing.T) {
	l := newTestLedger(t, "a@x.com")

	e, err := l.AddExpense(context.Background(), models.Expense{
		Description: "Taxi",
		Amount:      20,
		GroupID:     "g1",
		SplitAmong:  []string{"b@x.com", "", "b@x.com", "c@x.com"},
	})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if len(e.SplitAmong) != 2 {
		t.Errorf("SplitAmong = %v, want unique non-empty emails", e.SplitAmong)
	}
}

func TestAddExpenseRejectsNonPositiveAmount(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	for _, amount := range []float64{0, -5} {
		if _, err := l.AddExpense(ctx, models.Expense{Description: "Bad", Amount: amount}); err != ErrInvalidAmount {
			t.Errorf("amount %v: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestUpdateExpensePreservesDate(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	e, err := l.AddExpense(ctx, models.Expense{Description: "Dinner", Amount: 30, GroupID: "g1"})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	original := e.Date

	e.Amount = 35
	e.Date = "2001-01-01T00:00:00Z"
	updated, err := l.UpdateExpense(ctx, *e)
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if updated.Date != original {
		t.Errorf("Date = %q, want original %q", updated.Date, original)
	}
	if updated.Amount != 35 {
		t.Errorf("Amount = %v, want 35", updated.Amount)
	}
}

func TestMutationsUnavailableWithoutIdentity(t *testing.T) {
	l := newTestLedger(t, "")

	if _, err := l.AddGroup(context.Background(), models.Group{Name: "Trip"}); err != ErrNotAuthenticated {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
	if _, err := l.AddExpense(context.Background(), models.Expense{Description: "X", Amount: 1}); err != ErrNotAuthenticated {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestReadYourWrite(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	if _, err := l.AddFriend(ctx, models.Person{Email: "b@x.com", Name: "Bea"}); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}

	// The state observed after an awaited mutation reflects it.
	found := false
	for _, f := range l.State(ctx).Friends {
		if f.Email == "b@x.com" {
			found = true
		}
	}
	if !found {
		t.Error("mutation not visible in state after completion")
	}
}

func TestRemoveGroupCascades(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	g, err := l.AddGroup(ctx, models.Group{Name: "Trip", Members: []string{"b@x.com"}})
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	if _, err := l.AddExpense(ctx, models.Expense{
		Description: "Dinner", Amount: 30, GroupID: g.ID,
		SplitAmong: []string{"a@x.com", "b@x.com"},
	}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	if err := l.RemoveGroup(ctx, g.ID); err != nil {
		t.Fatalf("RemoveGroup failed: %v", err)
	}

	state := l.State(ctx)
	if len(state.Groups) != 0 {
		t.Errorf("expected no groups, got %+v", state.Groups)
	}
	if len(state.Expenses) != 0 {
		t.Errorf("expected cascaded expenses gone, got %+v", state.Expenses)
	}
}

func TestExpenseAttachedToGroup(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	g, err := l.AddGroup(ctx, models.Group{Name: "Trip"})
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	e, err := l.AddExpense(ctx, models.Expense{Description: "Dinner", Amount: 30, GroupID: g.ID})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	var got *models.Group
	state := l.State(ctx)
	for i := range state.Groups {
		if state.Groups[i].ID == g.ID {
			got = &state.Groups[i]
		}
	}
	if got == nil {
		t.Fatal("group missing from state")
	}
	if len(got.Expenses) != 1 || got.Expenses[0] != e.ID {
		t.Errorf("denormalized expense list = %v, want [%s]", got.Expenses, e.ID)
	}
}

func TestBalancesSignConvention(t *testing.T) {
	l := newTestLedger(t, "a@x.com")
	ctx := context.Background()

	if _, err := l.AddFriend(ctx, models.Person{Email: "b@x.com", Name: "Bea"}); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}
	if _, err := l.AddExpense(ctx, models.Expense{
		Description: "Dinner", Amount: 30, GroupID: "g1",
		SplitAmong: []string{"b@x.com"},
	}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	sheet := l.Balances(ctx)
	if !sheet.OwedBy("b@x.com", "a@x.com").Equal(decimal.NewFromInt(30)) {
		t.Errorf("b owes a: got %s, want 30", sheet.OwedBy("b@x.com", "a@x.com"))
	}
	if !sheet.OwedBy("a@x.com", "b@x.com").Equal(decimal.NewFromInt(-30)) {
		t.Errorf("a owes b: got %s, want -30", sheet.OwedBy("a@x.com", "b@x.com"))
	}
}
