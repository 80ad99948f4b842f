// Package connectivity tracks the online/offline signal the rest of
// the core consumes to decide data-source authority.
package connectivity

import (
	"log/slog"
	"sync"

	"github.com/fairtab/fairtab/internal/metrics"
)

// Monitor holds a single boolean connectivity state and fans out
// transition events to subscribers. It is event-driven: Set only
// notifies when the value actually flips, so feeding it the same state
// repeatedly is free. No debouncing is applied; rapid flapping reaches
// subscribers as-is.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[chan bool]struct{}
}

// NewMonitor creates a monitor with the given initial state. The
// initial state is not announced to subscribers.
func NewMonitor(online bool) *Monitor {
	return &Monitor{
		online: online,
		subs:   make(map[chan bool]struct{}),
	}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records a new state. Subscribers are notified only on
// transitions. Notification is non-blocking: a subscriber that has not
// drained its channel keeps only the most recent event.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if online == m.online {
		return
	}
	m.online = online

	state := "offline"
	if online {
		state = "online"
	}
	slog.Info("connectivity changed", "state", state)
	metrics.ConnectivityTransitions.WithLabelValues(state).Inc()

	for ch := range m.subs {
		select {
		case ch <- online:
		default:
			// Subscriber lagging; drop the stale event and push the
			// current one so it always sees the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- online:
			default:
			}
		}
	}
}

// Subscribe returns a channel that receives the new state on every
// transition. Callers must Unsubscribe when done.
func (m *Monitor) Subscribe() chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan bool, 1)
	m.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription channel.
func (m *Monitor) Unsubscribe(ch chan bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, ch)
}
