package membership

import (
	"sync"
)

// fakeFilter is an exact, map-backed Filter: no false positives, no false
// negatives. Deterministic stand-in for the Bloom adapter.
type fakeFilter struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func newFakeFilter() *fakeFilter {
	return &fakeFilter{keys: make(map[string]struct{})}
}

func (f *fakeFilter) Add(key []byte) {
	f.mu.Lock()
	f.keys[string(key)] = struct{}{}
	f.mu.Unlock()
}

func (f *fakeFilter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.keys[string(key)]
	return ok
}

// fakeFactory counts generations it builds.
type fakeFactory struct {
	mu    sync.Mutex
	built int
}

func (f *fakeFactory) New(uint64, float64) Filter {
	f.mu.Lock()
	f.built++
	f.mu.Unlock()
	return newFakeFilter()
}

func (f *fakeFactory) generations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built
}

// setBehavior is a deny-list style behavior over a copy-on-write string set.
// When reinitialized with an empty list it falls back to defaultReinit.
type setBehavior struct {
	Base
	defaultReinit []string
}

func setOf(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (b *setBehavior) InitializeData(args any) ([]string, any, error) {
	keys, _ := args.([]string)
	return keys, setOf(keys), nil
}

func (b *setBehavior) Reinitialize(data []string, _ any) ([]string, any, error) {
	if len(data) == 0 {
		data = b.defaultReinit
	}
	return data, setOf(data), nil
}

func (b *setBehavior) CheckExists(key string, state any) bool {
	set, _ := state.(map[string]struct{})
	_, ok := set[key]
	return ok
}

func (b *setBehavior) OnAdd(key string, state any) (any, error) {
	set, _ := state.(map[string]struct{})
	next := make(map[string]struct{}, len(set)+1)
	for k := range set {
		next[k] = struct{}{}
	}
	next[key] = struct{}{}
	return next, nil
}

func (b *setBehavior) OnAddList(keys []string, state any) (any, error) {
	set, _ := state.(map[string]struct{})
	next := make(map[string]struct{}, len(set)+len(keys))
	for k := range set {
		next[k] = struct{}{}
	}
	for _, k := range keys {
		next[k] = struct{}{}
	}
	return next, nil
}

func (b *setBehavior) OnDelete(key string, state any) (any, error) {
	set, _ := state.(map[string]struct{})
	next := make(map[string]struct{}, len(set))
	for k := range set {
		if k != key {
			next[k] = struct{}{}
		}
	}
	return next, nil
}

var _ Behavior = (*setBehavior)(nil)
