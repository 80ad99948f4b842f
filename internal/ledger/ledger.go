// Package ledger is the facade presentation code calls. It orchestrates
// the persistent store, the identity resolver and the connectivity
// monitor, and exposes the mutation and balance operations.
//
// Consistency model: every mutation re-reads the affected collection
// from the store after writing and refreshes the cached snapshot. There
// is no in-memory incremental patching; read-your-write holds for any
// caller that observes state after a completed mutation.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairtab/fairtab/internal/balance"
	"github.com/fairtab/fairtab/internal/connectivity"
	"github.com/fairtab/fairtab/internal/identity"
	"github.com/fairtab/fairtab/internal/metrics"
	"github.com/fairtab/fairtab/internal/models"
	"github.com/fairtab/fairtab/internal/storage"
)

var (
	ErrNotAuthenticated = errors.New("no authenticated actor")
	ErrInvalidAmount    = errors.New("expense amount must be positive")
	ErrEmptyEmail       = errors.New("email required")
)

// State is the snapshot exposed to presentation.
type State struct {
	Friends  []models.Person  `json:"friends"`
	Groups   []models.Group   `json:"groups"`
	Expenses []models.Expense `json:"expenses"`
	// CurrentUser is the resolved actor's person record, derived from
	// the identity resolver at read time. Nil while loading or
	// unauthenticated.
	CurrentUser *models.Person `json:"currentUser,omitempty"`
	// IsLoading is true until both the initial collection load and
	// identity resolution have completed. Derived at read time, so a
	// late-arriving identity resolution clears it.
	IsLoading bool `json:"isLoading"`
	// IsOnline mirrors the connectivity monitor at read time.
	IsOnline bool `json:"isOnline"`
}

// Ledger is the facade over the store, resolver and monitor.
type Ledger struct {
	store    storage.Store
	resolver *identity.Resolver
	monitor  *connectivity.Monitor

	mu     sync.RWMutex
	state  State
	loaded bool
}

// New creates a ledger. Call Init before use.
func New(store storage.Store, resolver *identity.Resolver, monitor *connectivity.Monitor) *Ledger {
	return &Ledger{
		store:    store,
		resolver: resolver,
		monitor:  monitor,
	}
}

// Init performs the initial collection load and identity resolution.
func (l *Ledger) Init(ctx context.Context) {
	ident := l.resolver.Resolve(ctx)
	if ident.Authenticated() {
		// Materialize the actor's person record up front so it is
		// present in the first collection read.
		if _, err := l.CurrentActor(ctx); err != nil {
			slog.Error("failed to materialize current actor", "error", err)
		}
	}

	l.mu.Lock()
	l.state = State{
		Friends:  l.store.People(ctx),
		Groups:   l.store.Groups(ctx),
		Expenses: l.store.Expenses(ctx),
	}
	l.loaded = true
	l.mu.Unlock()
}

// State returns a copy of the current snapshot. The collections are the
// cached result of the last refresh, but CurrentUser, IsLoading and
// IsOnline are derived at read time from the resolver and the monitor,
// so identity and connectivity transitions after Init are always
// reflected.
func (l *Ledger) State(ctx context.Context) State {
	l.mu.RLock()
	state := l.state
	loaded := l.loaded
	l.mu.RUnlock()

	ident := l.resolver.Current()
	state.IsLoading = !loaded || ident.State == identity.StateUnresolved
	state.IsOnline = l.monitor.Online()

	if ident.Authenticated() {
		if p := l.store.PersonByEmail(ctx, ident.Email); p != nil {
			state.CurrentUser = p
		} else {
			// Not materialized yet; CurrentActor persists it on the
			// first mutation.
			state.CurrentUser = &models.Person{
				Email: ident.Email,
				Name:  displayName(ident.Email),
			}
		}
	}
	return state
}

// CurrentActor returns the person record for the resolved identity,
// creating it on first reference. The actor is always sourced from the
// identity resolver, never inferred from collection contents.
func (l *Ledger) CurrentActor(ctx context.Context) (*models.Person, error) {
	ident := l.resolver.Current()
	if ident.State == identity.StateUnresolved {
		ident = l.resolver.Resolve(ctx)
	}
	if !ident.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if p := l.store.PersonByEmail(ctx, ident.Email); p != nil {
		return p, nil
	}
	p, err := l.store.SavePerson(ctx, &models.Person{
		Email: ident.Email,
		Name:  displayName(ident.Email),
	})
	if err != nil {
		return nil, err
	}
	l.refreshFriends(ctx)
	return p, nil
}

// AddFriend adds a person. Idempotent: if the email already exists the
// stored record is returned unchanged.
func (l *Ledger) AddFriend(ctx context.Context, p models.Person) (*models.Person, error) {
	if p.Email == "" {
		return nil, ErrEmptyEmail
	}
	if existing := l.store.PersonByEmail(ctx, p.Email); existing != nil {
		return existing, nil
	}
	saved, err := l.store.SavePerson(ctx, &p)
	if err != nil {
		return nil, err
	}
	metrics.Mutations.WithLabelValues("friend", "add").Inc()
	l.refreshFriends(ctx)
	return saved, nil
}

// UpdateFriend upserts a person keyed by email.
func (l *Ledger) UpdateFriend(ctx context.Context, p models.Person) (*models.Person, error) {
	if p.Email == "" {
		return nil, ErrEmptyEmail
	}
	saved, err := l.store.SavePerson(ctx, &p)
	if err != nil {
		return nil, err
	}
	metrics.Mutations.WithLabelValues("friend", "update").Inc()
	l.refreshFriends(ctx)
	return saved, nil
}

// RemoveFriend deletes a person. Their email may remain referenced by
// groups and expenses; consumers render those as "Unknown".
func (l *Ledger) RemoveFriend(ctx context.Context, email string) error {
	if err := l.store.DeletePerson(ctx, email); err != nil {
		return err
	}
	metrics.Mutations.WithLabelValues("friend", "remove").Inc()
	l.refreshFriends(ctx)
	return nil
}

// AddGroup creates a group. The current actor is always a member, even
// when the caller omits them.
func (l *Ledger) AddGroup(ctx context.Context, g models.Group) (*models.Group, error) {
	actor, err := l.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	g.ID = uuid.New().String()
	g.Members = dedupe(g.Members)
	if !contains(g.Members, actor.Email) {
		g.Members = append(g.Members, actor.Email)
	}

	if err := l.store.SaveGroup(ctx, &g); err != nil {
		return nil, err
	}
	metrics.Mutations.WithLabelValues("group", "add").Inc()
	l.refreshGroups(ctx)
	return &g, nil
}

// UpdateGroup upserts a group keyed by ID.
func (l *Ledger) UpdateGroup(ctx context.Context, g models.Group) (*models.Group, error) {
	g.Members = dedupe(g.Members)
	if err := l.store.SaveGroup(ctx, &g); err != nil {
		return nil, err
	}
	metrics.Mutations.WithLabelValues("group", "update").Inc()
	l.refreshGroups(ctx)
	return &g, nil
}

// RemoveGroup deletes a group and its expenses.
func (l *Ledger) RemoveGroup(ctx context.Context, id string) error {
	if err := l.store.DeleteGroup(ctx, id); err != nil {
		return err
	}
	metrics.Mutations.WithLabelValues("group", "remove").Inc()
	l.refreshGroups(ctx)
	l.refreshExpenses(ctx)
	return nil
}

// AddExpense records an expense. PaidBy defaults to the current actor;
// SplitAmong is deduplicated and falls back to the actor alone when it
// would otherwise be empty; Date is stamped at call time and is
// immutable afterward.
func (l *Ledger) AddExpense(ctx context.Context, e models.Expense) (*models.Expense, error) {
	actor, err := l.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if e.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	e.ID = uuid.New().String()
	e.Date = time.Now().UTC().Format(time.RFC3339)
	if e.PaidBy == "" {
		e.PaidBy = actor.Email
	}
	e.SplitAmong = dedupe(e.SplitAmong)
	if len(e.SplitAmong) == 0 {
		e.SplitAmong = []string{actor.Email}
	}

	if err := l.store.SaveExpense(ctx, &e); err != nil {
		return nil, err
	}
	l.attachToGroup(ctx, &e)
	metrics.Mutations.WithLabelValues("expense", "add").Inc()
	l.refreshExpenses(ctx)
	return &e, nil
}

// UpdateExpense upserts an expense keyed by ID. The original creation
// date is preserved; it is immutable after AddExpense.
func (l *Ledger) UpdateExpense(ctx context.Context, e models.Expense) (*models.Expense, error) {
	if e.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if existing := l.store.ExpenseByID(ctx, e.ID); existing != nil {
		e.Date = existing.Date
	}
	e.SplitAmong = dedupe(e.SplitAmong)
	if err := l.store.SaveExpense(ctx, &e); err != nil {
		return nil, err
	}
	metrics.Mutations.WithLabelValues("expense", "update").Inc()
	l.refreshExpenses(ctx)
	return &e, nil
}

// RemoveExpense deletes an expense.
func (l *Ledger) RemoveExpense(ctx context.Context, id string) error {
	if err := l.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	metrics.Mutations.WithLabelValues("expense", "remove").Inc()
	l.refreshExpenses(ctx)
	return nil
}

// Balances recomputes the pairwise sheet from store contents.
func (l *Ledger) Balances(ctx context.Context) balance.Sheet {
	return balance.Compute(l.store.People(ctx), l.store.Expenses(ctx))
}

// GroupExpenses returns the expenses recorded against one group.
func (l *Ledger) GroupExpenses(ctx context.Context, groupID string) []models.Expense {
	return l.store.ExpensesByGroup(ctx, groupID)
}

// attachToGroup appends the expense ID to the owning group's
// denormalized expense list. The list is display-only, so a failure
// here is logged and does not fail the mutation.
func (l *Ledger) attachToGroup(ctx context.Context, e *models.Expense) {
	g := l.store.GroupByID(ctx, e.GroupID)
	if g == nil || contains(g.Expenses, e.ID) {
		return
	}
	g.Expenses = append(g.Expenses, e.ID)
	if err := l.store.SaveGroup(ctx, g); err != nil {
		slog.Error("failed to update group expense list", "group_id", g.ID, "error", err)
		return
	}
	l.refreshGroups(ctx)
}

func (l *Ledger) refreshFriends(ctx context.Context) {
	people := l.store.People(ctx)
	l.mu.Lock()
	l.state.Friends = people
	l.mu.Unlock()
}

func (l *Ledger) refreshGroups(ctx context.Context) {
	groups := l.store.Groups(ctx)
	l.mu.Lock()
	l.state.Groups = groups
	l.mu.Unlock()
}

func (l *Ledger) refreshExpenses(ctx context.Context) {
	expenses := l.store.Expenses(ctx)
	l.mu.Lock()
	l.state.Expenses = expenses
	l.mu.Unlock()
}

func displayName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	var out []string
	for _, e := range emails {
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
