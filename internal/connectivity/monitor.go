package connectivity

import (
	"sync"
)

// Monitor is the two-state connectivity signal. State changes fan out to
// subscribers synchronously, in registration order.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []func(online bool)
}

// NewMonitor starts in the given state without notifying anyone.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline transitions the state. Subscribers are only notified on an
// actual edge, not on repeated sets of the same state.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub(online)
	}
}

// Subscribe registers a callback for state edges. Callbacks run on the
// goroutine that called SetOnline and must not block.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}
