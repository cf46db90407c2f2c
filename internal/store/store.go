package store

import (
	"sync"
	"time"
)

// Event describes one applied transition. Fields carry small string
// attributes for external subscribers; they never contain full slices.
type Event struct {
	Name   string            `json:"name"`
	Domain string            `json:"domain,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	At     time.Time         `json:"at"`
}

// Listener receives every applied transition, after the state change
// is visible. Called synchronously; keep it cheap or hand off.
type Listener func(Event)

// Store is the single shared read-model. All mutation goes through the
// named transition methods, each of which applies a pure reducer to
// one domain slice under the write lock. Reads are snapshots.
type Store struct {
	mu       sync.RWMutex
	state    State
	listener Listener
}

func New(listener Listener) *Store {
	return &Store{
		state:    newState(),
		listener: listener,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) apply(name, domain string, fields map[string]string, mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	s.mu.Unlock()

	if s.listener != nil {
		s.listener(Event{
			Name:   name,
			Domain: domain,
			Fields: fields,
			At:     time.Now().UTC(),
		})
	}
}
