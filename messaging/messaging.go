package messaging

import "sync"

// Listener receives progress and lifecycle notifications from a running
// account load. Implementations must not block; slow consumers should
// buffer on their side.
type Listener interface {
	OnMessage(message string)
	OnAbort()
	OnRefresh()
	OnClear()
}

// NopListener implements Listener with no-ops. Embed it to implement
// only the callbacks a listener cares about.
type NopListener struct{}

func (NopListener) OnMessage(string) {}
func (NopListener) OnAbort()         {}
func (NopListener) OnRefresh()       {}
func (NopListener) OnClear()         {}

// Messaging fans out notifications to all registered listeners.
type Messaging struct {
	mu        sync.RWMutex
	listeners []Listener
}

// New creates an empty Messaging hub.
func New() *Messaging {
	return &Messaging{}
}

// AddListener registers a listener. Listeners cannot be removed; the hub
// lives as long as the process.
func (m *Messaging) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Broadcast delivers a progress message to every listener.
func (m *Messaging) Broadcast(message string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.listeners {
		l.OnMessage(message)
	}
}

// Abort notifies every listener that the current load was aborted.
func (m *Messaging) Abort() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.listeners {
		l.OnAbort()
	}
}

// Refresh notifies every listener that fresh results are available.
func (m *Messaging) Refresh() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.listeners {
		l.OnRefresh()
	}
}

// Clear notifies every listener that previous results were discarded.
func (m *Messaging) Clear() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.listeners {
		l.OnClear()
	}
}
