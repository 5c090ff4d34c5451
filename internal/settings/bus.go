package settings

import "sync"

// Bus delivers settings changes to subscribers in subscription order.
type Bus struct {
	mu   sync.Mutex
	next int
	subs []subscriber
}

type subscriber struct {
	id int
	fn func(Change)
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Change)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber with c. Subscribers run on the caller's
// goroutine, outside the bus lock.
func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	subs := append([]subscriber(nil), b.subs...)
	b.mu.Unlock()
	for _, s := range subs {
		s.fn(c)
	}
}

// Manager owns the live settings and announces every mutation.
type Manager struct {
	mu      sync.Mutex
	current Settings
	bus     Bus
}

// NewManager starts from initial.
func NewManager(initial Settings) *Manager {
	return &Manager{current: initial.Clone()}
}

// Current returns a snapshot.
func (m *Manager) Current() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Set applies one key and publishes the change. Setting a key to its
// current value publishes nothing.
func (m *Manager) Set(key, value string) (Change, error) {
	m.mu.Lock()
	change, err := m.current.Set(key, value)
	m.mu.Unlock()
	if err != nil {
		return Change{}, err
	}
	if change.Old != change.New {
		m.bus.Publish(change)
	}
	return change, nil
}

// Reset restores defaults and publishes a "*" change.
func (m *Manager) Reset() Change {
	m.mu.Lock()
	m.current = Default()
	change := Change{Key: "*", Snapshot: m.current.Clone()}
	m.mu.Unlock()
	m.bus.Publish(change)
	return change
}

// Subscribe registers fn on the manager's bus.
func (m *Manager) Subscribe(fn func(Change)) (unsubscribe func()) {
	return m.bus.Subscribe(fn)
}
