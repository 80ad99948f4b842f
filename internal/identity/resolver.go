package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fairtab/fairtab/internal/connectivity"
	"github.com/fairtab/fairtab/internal/metrics"
	"github.com/fairtab/fairtab/internal/storage"
)

// State is the resolver's position in its lifecycle.
type State int

const (
	// StateUnresolved means the remote session check has not reported
	// yet while online. A loading state, not a negative answer.
	StateUnresolved State = iota
	// StateAuthenticatedOnline means the remote session is live and
	// authoritative.
	StateAuthenticatedOnline
	// StateAuthenticatedOffline means access was granted from the
	// fallback credential cache while offline.
	StateAuthenticatedOffline
	// StateUnauthenticated means no identity is available.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAuthenticatedOnline:
		return "authenticated_online"
	case StateAuthenticatedOffline:
		return "authenticated_offline"
	default:
		return "unauthenticated"
	}
}

// Identity is the resolved current actor.
type Identity struct {
	State State
	// Email is the actor's stable identifier. Empty unless
	// authenticated.
	Email string
}

// Authenticated reports whether the identity grants access.
func (i Identity) Authenticated() bool {
	return i.State == StateAuthenticatedOnline || i.State == StateAuthenticatedOffline
}

// FlagStore is the durable key-value surface the resolver needs; the
// storage.Store interface satisfies it.
type FlagStore interface {
	Flag(ctx context.Context, key string) (string, bool)
	SetFlag(ctx context.Context, key, value string) error
	DeleteFlag(ctx context.Context, key string) error
}

// Resolver reconciles the remote session (when online) with the
// fallback credential cache (when offline) into one Identity.
//
// Offline identity is trust-on-first-use: a device must have completed
// at least one online authentication before offline access is granted.
// There is no offline-first registration path.
type Resolver struct {
	session Session
	flags   FlagStore
	monitor *connectivity.Monitor

	mu      sync.Mutex
	current Identity
}

// NewResolver creates a resolver. It starts Unresolved; call Resolve to
// compute the first identity.
func NewResolver(session Session, flags FlagStore, monitor *connectivity.Monitor) *Resolver {
	return &Resolver{
		session: session,
		flags:   flags,
		monitor: monitor,
		current: Identity{State: StateUnresolved},
	}
}

// Resolve recomputes the identity from the current connectivity state.
//
// Online with a signed-in session: the remote email wins and the
// fallback cache is refreshed. Offline: the cache alone decides and the
// remote session is never consulted. Online with no session: no
// identity, but the cache persists until an explicit sign-out.
func (r *Resolver) Resolve(ctx context.Context) Identity {
	ident := r.resolve(ctx)

	r.mu.Lock()
	r.current = ident
	r.mu.Unlock()

	slog.Debug("identity resolved", "state", ident.State.String(), "email", ident.Email)
	metrics.IdentityResolutions.WithLabelValues(ident.State.String()).Inc()
	return ident
}

func (r *Resolver) resolve(ctx context.Context) Identity {
	online := r.monitor.Online()

	if !online {
		authOK, _ := r.flags.Flag(ctx, storage.FlagOfflineAuthOK)
		email, _ := r.flags.Flag(ctx, storage.FlagUserEmail)
		// The two flags are only ever written together; an auth flag
		// without a cached email is a corrupted cache, not an identity.
		if authOK == "true" && email != "" {
			return Identity{State: StateAuthenticatedOffline, Email: email}
		}
		return Identity{State: StateUnauthenticated}
	}

	if !r.session.Loaded() {
		return Identity{State: StateUnresolved}
	}

	if r.session.SignedIn() {
		email := r.session.PrimaryEmail()
		if email != "" {
			if err := r.flags.SetFlag(ctx, storage.FlagOfflineAuthOK, "true"); err != nil {
				slog.Error("failed to persist offline auth flag", "error", err)
			}
			if err := r.flags.SetFlag(ctx, storage.FlagUserEmail, email); err != nil {
				slog.Error("failed to persist cached email", "error", err)
			}
			return Identity{State: StateAuthenticatedOnline, Email: email}
		}
	}

	return Identity{State: StateUnauthenticated}
}

// Current returns the last resolved identity without recomputing.
func (r *Resolver) Current() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// SignOut ends the remote session and clears the fallback credential
// cache, revoking offline access.
func (r *Resolver) SignOut(ctx context.Context) error {
	if err := r.session.SignOut(ctx); err != nil {
		return err
	}
	if err := r.flags.DeleteFlag(ctx, storage.FlagOfflineAuthOK); err != nil {
		return err
	}
	if err := r.flags.DeleteFlag(ctx, storage.FlagUserEmail); err != nil {
		return err
	}
	r.mu.Lock()
	r.current = Identity{State: StateUnauthenticated}
	r.mu.Unlock()
	return nil
}

// Watch re-resolves on every connectivity transition until ctx is
// cancelled. Blocks; run it in a goroutine.
func (r *Resolver) Watch(ctx context.Context) {
	ch := r.monitor.Subscribe()
	defer r.monitor.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			r.Resolve(ctx)
		}
	}
}
