// Package blacklist provides a deny-list behavior whose exact check is a
// copy-on-write in-memory set. Every mutation returns a fresh map so
// published snapshots stay immutable per generation; readers of an older
// snapshot keep seeing the set as it was when that snapshot was published.
package blacklist

import (
	"fmt"
	"maps"

	"github.com/haukened/probecache/internal/probe/repos/lists"
	"github.com/haukened/probecache/internal/probe/services/membership"
)

// Behavior implements membership.Behavior for an in-memory deny list.
type Behavior struct {
	membership.Base
}

// New returns the in-memory blacklist behavior.
func New() *Behavior { return &Behavior{} }

// InitializeData seeds the list from args ([]string of keys; nil for empty).
func (*Behavior) InitializeData(args any) ([]string, any, error) {
	keys, err := lists.Keys(args)
	if err != nil {
		return nil, nil, err
	}
	return keys, setOf(keys), nil
}

// Reinitialize replaces the set wholesale with data.
func (*Behavior) Reinitialize(data []string, _ any) ([]string, any, error) {
	return data, setOf(data), nil
}

// CheckExists reports exact membership, overriding filter false positives and
// excluding deleted keys.
func (*Behavior) CheckExists(key string, state any) bool {
	set, ok := state.(map[string]struct{})
	if !ok {
		return false
	}
	_, ok = set[key]
	return ok
}

// OnAdd returns a copy of the set with key added.
func (*Behavior) OnAdd(key string, state any) (any, error) {
	set, err := asSet(state)
	if err != nil {
		return nil, err
	}
	next := maps.Clone(set)
	if next == nil {
		next = make(map[string]struct{}, 1)
	}
	next[key] = struct{}{}
	return next, nil
}

// OnAddList returns a copy of the set with all keys added.
func (*Behavior) OnAddList(keys []string, state any) (any, error) {
	set, err := asSet(state)
	if err != nil {
		return nil, err
	}
	next := maps.Clone(set)
	if next == nil {
		next = make(map[string]struct{}, len(keys))
	}
	for _, k := range keys {
		next[k] = struct{}{}
	}
	return next, nil
}

// OnDelete returns a copy of the set with key removed. The filter still
// answers "maybe" for the key until the next reinit; this exact set is what
// makes Member return false.
func (*Behavior) OnDelete(key string, state any) (any, error) {
	set, err := asSet(state)
	if err != nil {
		return nil, err
	}
	next := maps.Clone(set)
	delete(next, key)
	return next, nil
}

func setOf(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func asSet(state any) (map[string]struct{}, error) {
	set, ok := state.(map[string]struct{})
	if !ok {
		return nil, fmt.Errorf("blacklist state: expected map[string]struct{}, got %T", state)
	}
	return set, nil
}

var _ membership.Behavior = (*Behavior)(nil)
