package bolt

import (
	"github.com/haukened/probecache/internal/probe/common/clock"
	"github.com/haukened/probecache/internal/probe/repos/lists"
	"github.com/haukened/probecache/internal/probe/services/membership"
)

// Meta is the custom state published with each snapshot: a version counter
// (bumped on init and reinit) and the last store write time. The exact index
// itself lives in the Store, which is safe for concurrent reads.
type Meta struct {
	Version     uint64
	UpdatedUnix int64
}

// Behavior implements membership.Behavior for a bbolt-backed deny list.
type Behavior struct {
	membership.Base
	store *Store
	clk   clock.Clock
}

// NewBehavior wires a Store and a clock into a Behavior. The behavior does
// not own the store; callers close it after stopping the instance.
func NewBehavior(store *Store, clk clock.Clock) *Behavior {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Behavior{store: store, clk: clk}
}

// InitializeData rebuilds the exact index from the seed keys in args.
func (b *Behavior) InitializeData(args any) ([]string, any, error) {
	keys, err := lists.Keys(args)
	if err != nil {
		return nil, nil, err
	}
	now := b.clk.Now().Unix()
	if err := b.store.RebuildAll(keys, 1, now); err != nil {
		return nil, nil, err
	}
	return keys, Meta{Version: 1, UpdatedUnix: now}, nil
}

// Reinitialize rebuilds the exact index from data under the next version.
func (b *Behavior) Reinitialize(data []string, state any) ([]string, any, error) {
	version := uint64(1)
	if meta, ok := state.(Meta); ok {
		version = meta.Version + 1
	}
	now := b.clk.Now().Unix()
	if err := b.store.RebuildAll(data, version, now); err != nil {
		return nil, nil, err
	}
	return data, Meta{Version: version, UpdatedUnix: now}, nil
}

// CheckExists consults the persistent exact index. On store errors the key is
// treated as absent, the safe answer for a deny list.
func (b *Behavior) CheckExists(key string, _ any) bool {
	present, err := b.store.ExistsExact(key)
	if err != nil {
		return false
	}
	return present
}

// OnAdd writes key to the exact index.
func (b *Behavior) OnAdd(key string, state any) (any, error) {
	now := b.clk.Now().Unix()
	if err := b.store.PutExact(key, now); err != nil {
		return nil, err
	}
	return touch(state, now), nil
}

// OnAddList writes all keys to the exact index.
func (b *Behavior) OnAddList(keys []string, state any) (any, error) {
	now := b.clk.Now().Unix()
	for _, k := range keys {
		if err := b.store.PutExact(k, now); err != nil {
			return nil, err
		}
	}
	return touch(state, now), nil
}

// OnDelete removes key from the exact index, excluding it from membership
// even while the filter still answers "maybe".
func (b *Behavior) OnDelete(key string, state any) (any, error) {
	now := b.clk.Now().Unix()
	if err := b.store.DeleteExact(key, now); err != nil {
		return nil, err
	}
	return touch(state, now), nil
}

// Stats exposes the underlying store statistics.
func (b *Behavior) Stats() StoreStats {
	return b.store.Stats()
}

func touch(state any, now int64) Meta {
	meta, _ := state.(Meta)
	meta.UpdatedUnix = now
	return meta
}

var _ membership.Behavior = (*Behavior)(nil)
