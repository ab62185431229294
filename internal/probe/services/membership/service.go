package membership

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/haukened/probecache/internal/probe/common/clock"
	"github.com/haukened/probecache/internal/probe/common/log"
	"github.com/haukened/probecache/internal/probe/domain"
)

var (
	// ErrExists is returned when Start is called with a name that is already
	// registered.
	ErrExists = errors.New("instance already exists")
)

// Options configures a Service.
type Options struct {
	// Factory builds filter generations. Required.
	Factory FilterFactory
	// Store receives published snapshots. Optional; a private store is
	// created when nil.
	Store *Store
	// NewDecisionCache builds the per-handle decision cache for the given
	// capacity. Optional; when nil, handles run without a decision cache.
	NewDecisionCache func(size int) (DecisionCache, error)
	// DecisionCacheSize is the capacity passed to NewDecisionCache.
	DecisionCacheSize int
	// Clock stamps published state. Optional; defaults to the wall clock.
	Clock clock.Clock
	// Logger is the structured logger. Optional; defaults to a noop logger.
	Logger log.Logger
}

// Service owns the name→handle registry. It is the outermost API boundary:
// callers hold the *Handle returned from Start and pass it around explicitly;
// lookup by name exists only for boundary layers such as the HTTP gateway.
type Service struct {
	mu        sync.RWMutex
	instances map[string]*Handle

	store     *Store
	factory   FilterFactory
	newCache  func(size int) (DecisionCache, error)
	cacheSize int
	clk       clock.Clock
	log       log.Logger
}

// NewService constructs a Service from opts.
func NewService(opts Options) (*Service, error) {
	if opts.Factory == nil {
		return nil, errors.New("membership: filter factory is required")
	}
	store := opts.Store
	if store == nil {
		store = NewStore()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Service{
		instances: make(map[string]*Handle),
		store:     store,
		factory:   opts.Factory,
		newCache:  opts.NewDecisionCache,
		cacheSize: opts.DecisionCacheSize,
		clk:       clk,
		log:       logger,
	}, nil
}

// Store returns the shared snapshot store backing this service.
func (s *Service) Store() *Store { return s.store }

// Start registers and initializes one named instance. It fails when the name
// is empty or taken, when the filter options are invalid, or when the
// behavior's InitializeData returns an error.
func (s *Service) Start(name string, behavior Behavior, opts domain.FilterOptions, initArgs any) (*Handle, error) {
	if name == "" {
		return nil, errors.New("instance name must not be empty")
	}
	if behavior == nil {
		return nil, fmt.Errorf("instance %q: behavior is required", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.instances[name]; taken {
		return nil, fmt.Errorf("instance %q: %w", name, ErrExists)
	}

	decisions, err := s.buildDecisionCache()
	if err != nil {
		return nil, fmt.Errorf("instance %q: decision cache: %w", name, err)
	}

	coord, err := NewCoordinator(name, behavior, opts, initArgs, s.factory, s.store, s.clk, s.log)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		name:      name,
		coord:     coord,
		store:     s.store,
		decisions: decisions,
		cacheCap:  s.cacheSize,
	}
	s.instances[name] = h
	s.log.Info(map[string]any{"instance": name}, "instance started")
	return h, nil
}

func (s *Service) buildDecisionCache() (DecisionCache, error) {
	if s.newCache == nil || s.cacheSize <= 0 {
		return nopDecisions{}, nil
	}
	return s.newCache(s.cacheSize)
}

// Lookup returns the handle registered under name.
func (s *Service) Lookup(name string) (*Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.instances[name]
	return h, ok
}

// Names returns all registered instance names, sorted.
func (s *Service) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.instances))
	for name := range s.instances {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Stop terminates one instance: its coordinator stops accepting work, its
// snapshot is removed, and its decision cache is purged, so fast reads return
// ErrNotFound afterwards even through a handle held across the Stop.
func (s *Service) Stop(name string) error {
	s.mu.Lock()
	h, ok := s.instances[name]
	if ok {
		delete(s.instances, name)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("instance %q: %w", name, ErrNotFound)
	}
	h.coord.Stop()
	s.store.Remove(name)
	h.decisions.Purge()
	s.log.Info(map[string]any{"instance": name}, "instance stopped")
	return nil
}

// Shutdown stops every registered instance.
func (s *Service) Shutdown() {
	for _, name := range s.Names() {
		_ = s.Stop(name)
	}
}

// Handle is the per-instance facade callers use after Start. Mutations and
// synchronous reads go through the coordinator; Member takes the fast path
// against the shared snapshot store, optionally memoized in a decision cache
// that is purged after every mutation.
type Handle struct {
	name      string
	coord     *Coordinator
	store     *Store
	decisions DecisionCache
	cacheCap  int
}

// Name returns the instance name.
func (h *Handle) Name() string { return h.name }

// Add inserts one key.
func (h *Handle) Add(ctx context.Context, key string) error {
	err := h.coord.Add(ctx, key)
	h.decisions.Purge()
	return err
}

// AddList inserts a batch of keys as one serialized operation.
func (h *Handle) AddList(ctx context.Context, keys []string) error {
	err := h.coord.AddList(ctx, keys)
	h.decisions.Purge()
	return err
}

// Delete excludes key via the behavior's custom state. See Coordinator.Delete
// for the filter semantics.
func (h *Handle) Delete(ctx context.Context, key string) error {
	err := h.coord.Delete(ctx, key)
	h.decisions.Purge()
	return err
}

// Reinit replaces the current key set with the one derived from data.
func (h *Handle) Reinit(ctx context.Context, data []string) error {
	err := h.coord.Reinit(ctx, data)
	h.decisions.Purge()
	return err
}

// Member answers membership on the fast path: decision cache, then the
// shared snapshot store. It never blocks on the coordinator; the answer may
// trail an in-flight write but is never torn.
func (h *Handle) Member(key string) (bool, error) {
	if member, ok := h.decisions.Get(key); ok {
		return member, nil
	}
	member, err := h.store.FastMember(h.name, key)
	if err != nil {
		return false, err
	}
	h.decisions.Put(key, member)
	return member, nil
}

// MemberSync answers membership through the coordinator's queue, strictly
// ordered with respect to all writes.
func (h *Handle) MemberSync(ctx context.Context, key string) (bool, error) {
	return h.coord.MemberSync(ctx, key)
}

// Stats returns a point-in-time view of the instance.
func (h *Handle) Stats() domain.InstanceStats {
	generation, ops, updated := h.coord.Stats()
	hits, misses, evictions := h.decisions.Stats()
	opts := h.coord.Options()
	return domain.InstanceStats{
		Name:        h.name,
		Capacity:    opts.Capacity,
		ErrorRate:   opts.ErrorRate,
		Generation:  generation,
		Ops:         ops,
		UpdatedUnix: updated,
		Decisions: domain.CacheStats{
			Capacity:  h.cacheCap,
			Size:      h.decisions.Len(),
			Hits:      hits,
			Misses:    misses,
			Evictions: evictions,
		},
	}
}

// nopDecisions is the DecisionCache used when caching is disabled: it always
// misses and tracks nothing.
type nopDecisions struct{}

func (nopDecisions) Get(string) (bool, bool)         { return false, false }
func (nopDecisions) Put(string, bool)                {}
func (nopDecisions) Len() int                        { return 0 }
func (nopDecisions) Purge()                          {}
func (nopDecisions) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ DecisionCache = nopDecisions{}
