package membership

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestStore_ReadUnknownName(t *testing.T) {
	s := NewStore()
	if _, err := s.Read("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FastMember("ghost", "key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from FastMember, got %v", err)
	}
}

func TestStore_PublishAndRead(t *testing.T) {
	s := NewStore()
	f := newFakeFilter()
	f.Add([]byte("k"))
	b := &setBehavior{}
	snap := &Snapshot{Filter: f, State: setOf([]string{"k"}), Behavior: b}

	s.Publish("inst", snap)

	got, err := s.Read("inst")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != snap {
		t.Error("Read should return the exact published snapshot")
	}
}

func TestStore_FastMember(t *testing.T) {
	s := NewStore()
	f := newFakeFilter()
	f.Add([]byte("present"))
	f.Add([]byte("deleted"))
	b := &setBehavior{}
	// "deleted" is in the filter but excluded by the exact check
	s.Publish("inst", &Snapshot{Filter: f, State: setOf([]string{"present"}), Behavior: b})

	member, err := s.FastMember("inst", "present")
	if err != nil || !member {
		t.Errorf("FastMember(present) = (%v, %v), want (true, nil)", member, err)
	}
	member, err = s.FastMember("inst", "deleted")
	if err != nil || member {
		t.Errorf("FastMember(deleted) = (%v, %v), want (false, nil)", member, err)
	}
	member, err = s.FastMember("inst", "absent")
	if err != nil || member {
		t.Errorf("FastMember(absent) = (%v, %v), want (false, nil)", member, err)
	}
}

func TestStore_RemoveAndNames(t *testing.T) {
	s := NewStore()
	s.Publish("a", &Snapshot{Filter: newFakeFilter(), Behavior: &setBehavior{}})
	s.Publish("b", &Snapshot{Filter: newFakeFilter(), Behavior: &setBehavior{}})

	if got := len(s.Names()); got != 2 {
		t.Fatalf("expected 2 names, got %d", got)
	}

	s.Remove("a")
	if _, err := s.Read("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Remove, got %v", err)
	}
	if _, err := s.Read("b"); err != nil {
		t.Errorf("unrelated entry should survive Remove, got %v", err)
	}
}

// TestStore_SnapshotNeverTorn publishes filter/state pairs that are
// consistent by construction and checks concurrent readers never observe a
// filter from one generation paired with state from another.
func TestStore_SnapshotNeverTorn(t *testing.T) {
	s := NewStore()
	b := &setBehavior{}

	publish := func(gen int) {
		keys := []string{fmt.Sprintf("gen-%d", gen)}
		f := newFakeFilter()
		for _, k := range keys {
			f.Add([]byte(k))
		}
		s.Publish("inst", &Snapshot{Filter: f, State: setOf(keys), Behavior: b})
	}
	publish(0)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := 1; gen <= 1000; gen++ {
			publish(gen)
		}
		close(done)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap, err := s.Read("inst")
				if err != nil {
					t.Errorf("Read: %v", err)
					return
				}
				set := snap.State.(map[string]struct{})
				for k := range set {
					if !snap.Filter.MightContain([]byte(k)) {
						t.Errorf("torn snapshot: state key %q missing from paired filter", k)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}
