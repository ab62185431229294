package membership

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotFound is returned for operations addressed to an instance name
	// that was never initialized (or has been stopped).
	ErrNotFound = errors.New("instance not found")
)

// Snapshot is the immutable triple published after each completed mutation:
// the current filter generation, the behavior-owned custom state, and the
// behavior that owns the instance. Readers must not mutate any field.
type Snapshot struct {
	Filter   Filter
	State    any
	Behavior Behavior
}

// Store is the shared snapshot table: one entry per named instance, written
// exclusively by that instance's coordinator and read by arbitrarily many
// concurrent readers. Each entry holds its snapshot behind an atomic pointer
// so a publish replaces all fields at once; a reader may observe a slightly
// stale snapshot but never a torn one.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	snap atomic.Pointer[Snapshot]
}

// NewStore returns an empty snapshot store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Publish atomically replaces the snapshot for name, creating the entry on
// first publish. Only the owning coordinator may call this.
func (s *Store) Publish(name string, snap *Snapshot) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		e, ok = s.entries[name]
		if !ok {
			e = &entry{}
			s.entries[name] = e
		}
		s.mu.Unlock()
	}
	e.snap.Store(snap)
}

// Read returns the latest published snapshot for name, or ErrNotFound if the
// instance was never initialized.
func (s *Store) Read(name string) (*Snapshot, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	snap := e.snap.Load()
	if snap == nil {
		return nil, ErrNotFound
	}
	return snap, nil
}

// FastMember answers membership for key without coordinating with the owning
// coordinator: filter first, then the behavior's exact check on a positive.
// The answer reflects some completed publish at or before the time of the
// call; it may trail an in-flight write.
func (s *Store) FastMember(name, key string) (bool, error) {
	snap, err := s.Read(name)
	if err != nil {
		return false, err
	}
	if !snap.Filter.MightContain([]byte(key)) {
		return false, nil
	}
	return snap.Behavior.CheckExists(key, snap.State), nil
}

// Remove deletes the entry for name. Subsequent reads return ErrNotFound.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

// Names returns the names of all published instances.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}
