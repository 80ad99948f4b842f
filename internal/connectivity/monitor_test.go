package connectivity

import (
	"testing"
	"time"
)

func TestMonitorTransitions(t *testing.T) {
	m := NewMonitor(true)
	if !m.Online() {
		t.Fatal("expected initial online")
	}

	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	t.Run("same state produces no event", func(t *testing.T) {
		m.Set(true)
		select {
		case v := <-ch:
			t.Errorf("unexpected event: %v", v)
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("transition notifies subscribers", func(t *testing.T) {
		m.Set(false)
		select {
		case v := <-ch:
			if v {
				t.Error("expected offline event")
			}
		case <-time.After(time.Second):
			t.Fatal("no event received")
		}
		if m.Online() {
			t.Error("expected offline state")
		}
	})

	t.Run("lagging subscriber sees latest state", func(t *testing.T) {
		// Two transitions without draining; the stale event is dropped.
		m.Set(true)
		m.Set(false)
		select {
		case v := <-ch:
			if v {
				t.Error("expected the latest (offline) event")
			}
		case <-time.After(time.Second):
			t.Fatal("no event received")
		}
	})
}

func TestMonitorUnsubscribe(t *testing.T) {
	m := NewMonitor(false)
	ch := m.Subscribe()
	m.Unsubscribe(ch)

	m.Set(true)
	select {
	case v := <-ch:
		t.Errorf("unexpected event after unsubscribe: %v", v)
	case <-time.After(20 * time.Millisecond):
	}
}
