package membership

// Filter is the minimal capability the coordinator needs from a probabilistic
// filter: insert and "probably contains". Implementations must never answer
// false for a key that was inserted into the same generation (no false
// negatives); false positives are permitted per the configured error rate.
type Filter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// FilterFactory builds an empty Filter generation sized for the given
// capacity and target false-positive rate. A fresh generation is built at
// init and on every reinit.
type FilterFactory interface {
	New(capacity uint64, errorRate float64) Filter
}

// Behavior is the polymorphic extension point a concrete instance implements.
// InitializeData is required; everything else has a default provided by Base
// (pass-through reinit, always-true existence check, no-op mutation hooks).
//
// The state value returned from each hook replaces the instance's custom
// state wholesale. Because published snapshots are shared with concurrent
// readers, hooks must treat the incoming state as immutable and return a new
// value rather than mutating in place (or back state with a store that is
// itself safe for concurrent reads, such as bbolt).
type Behavior interface {
	// InitializeData derives the initial key set and custom state from the
	// opaque args passed to Start.
	InitializeData(args any) (keys []string, state any, err error)

	// Reinitialize derives a replacement key set and state from data. The
	// previous filter generation is discarded; membership afterwards reflects
	// exactly the returned keys, not a union with the old set.
	Reinitialize(data []string, state any) (keys []string, newState any, err error)

	// CheckExists double-checks a probabilistic-positive answer against exact
	// state. Returning false overrides the filter and excludes the key.
	CheckExists(key string, state any) bool

	// OnAdd, OnAddList and OnDelete update custom state for the respective
	// mutation. The coordinator inserts added keys into the filter itself;
	// deleted keys stay probabilistically present until the next reinit, so
	// delete correctness relies on CheckExists excluding them.
	OnAdd(key string, state any) (newState any, err error)
	OnAddList(keys []string, state any) (newState any, err error)
	OnDelete(key string, state any) (newState any, err error)
}

// DecisionCache memoizes fast-path membership answers for one instance.
// It is purged after every completed mutation.
type DecisionCache interface {
	Get(key string) (member bool, ok bool)
	Put(key string, member bool)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}
