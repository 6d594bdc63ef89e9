package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store holds the live sessions.
type Store struct {
	mu       sync.RWMutex
	cfg      Config
	sessions map[string]*Session
}

// NewStore creates a store whose sessions share cfg.
func NewStore(cfg Config) *Store {
	if cfg.Bus == nil {
		cfg.Bus = NewEventBus()
	}
	return &Store{cfg: cfg, sessions: make(map[string]*Session)}
}

// Bus returns the event bus sessions publish to.
func (st *Store) Bus() *EventBus {
	return st.cfg.Bus
}

// Create starts a new session.
func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.cfg)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns a live session.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes and forgets a session, then publishes a session deleted
// event so its watchers can stop.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	st.cfg.Bus.Publish(Event{Session: id, Resource: "session", Action: "deleted"})
	return nil
}

// IDs lists live session ids.
func (st *Store) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every session.
func (st *Store) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
