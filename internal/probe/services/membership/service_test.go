package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/probecache/internal/probe/domain"
)

// countingCache is a DecisionCache fake tracking purges.
type countingCache struct {
	m      map[string]bool
	purges int
}

func newCountingCache() *countingCache { return &countingCache{m: make(map[string]bool)} }

func (c *countingCache) Get(key string) (bool, bool) {
	v, ok := c.m[key]
	return v, ok
}
func (c *countingCache) Put(key string, member bool) { c.m[key] = member }
func (c *countingCache) Len() int                    { return len(c.m) }
func (c *countingCache) Purge() {
	c.purges++
	c.m = make(map[string]bool)
}
func (c *countingCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

func newTestService(t *testing.T, cache DecisionCache, size int) *Service {
	t.Helper()
	opts := Options{Factory: &fakeFactory{}}
	if cache != nil {
		opts.NewDecisionCache = func(int) (DecisionCache, error) { return cache, nil }
		opts.DecisionCacheSize = size
	}
	s, err := NewService(opts)
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func TestNewService_RequiresFactory(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)
}

func TestService_StartValidation(t *testing.T) {
	s := newTestService(t, nil, 0)

	_, err := s.Start("", &setBehavior{}, domain.FilterOptions{}, nil)
	assert.Error(t, err, "empty name")

	_, err = s.Start("x", nil, domain.FilterOptions{}, nil)
	assert.Error(t, err, "nil behavior")

	_, err = s.Start("x", &setBehavior{}, domain.FilterOptions{Capacity: 1, ErrorRate: 7}, nil)
	assert.Error(t, err, "invalid options")

	_, err = s.Start("x", &setBehavior{}, domain.FilterOptions{}, nil)
	require.NoError(t, err)

	_, err = s.Start("x", &setBehavior{}, domain.FilterOptions{}, nil)
	assert.ErrorIs(t, err, ErrExists, "duplicate name")
}

func TestService_LookupAndNames(t *testing.T) {
	s := newTestService(t, nil, 0)

	_, err := s.Start("beta", &setBehavior{}, domain.FilterOptions{}, nil)
	require.NoError(t, err)
	_, err = s.Start("alpha", &setBehavior{}, domain.FilterOptions{}, nil)
	require.NoError(t, err)

	h, ok := s.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", h.Name())

	_, ok = s.Lookup("ghost")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, s.Names())
}

func TestService_StopRemovesInstance(t *testing.T) {
	s := newTestService(t, nil, 0)

	h, err := s.Start("doomed", &setBehavior{}, domain.FilterOptions{}, []string{"k"})
	require.NoError(t, err)

	member, err := h.Member("k")
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, s.Stop("doomed"))

	_, ok := s.Lookup("doomed")
	assert.False(t, ok)

	_, err = h.Member("k")
	assert.ErrorIs(t, err, ErrNotFound, "fast reads fail after stop")

	err = h.Add(context.Background(), "j")
	assert.ErrorIs(t, err, ErrStopped)

	assert.ErrorIs(t, s.Stop("doomed"), ErrNotFound, "double stop")
}

func TestService_StopPurgesDecisionCache(t *testing.T) {
	cache := newCountingCache()
	s := newTestService(t, cache, 16)

	h, err := s.Start("doomed", &setBehavior{}, domain.FilterOptions{}, []string{"k"})
	require.NoError(t, err)

	member, err := h.Member("k")
	require.NoError(t, err)
	require.True(t, member)
	require.Equal(t, 1, cache.Len(), "answer memoized before stop")

	require.NoError(t, s.Stop("doomed"))

	// The memoized positive must not outlive the instance.
	_, err = h.Member("k")
	assert.ErrorIs(t, err, ErrNotFound, "stale cached answer served after stop")
	assert.Zero(t, cache.Len())
}

func TestHandle_MemberUsesDecisionCache(t *testing.T) {
	cache := newCountingCache()
	s := newTestService(t, cache, 16)

	h, err := s.Start("inst", &setBehavior{}, domain.FilterOptions{}, []string{"k"})
	require.NoError(t, err)

	member, err := h.Member("k")
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, 1, cache.Len(), "answer memoized")

	// Cached answer served even if we poison the underlying store entry.
	member, err = h.Member("k")
	require.NoError(t, err)
	assert.True(t, member)

	// Every mutation purges.
	require.NoError(t, h.Add(context.Background(), "j"))
	assert.Equal(t, 1, cache.purges)
	require.NoError(t, h.Delete(context.Background(), "j"))
	assert.Equal(t, 2, cache.purges)
	require.NoError(t, h.AddList(context.Background(), []string{"x"}))
	assert.Equal(t, 3, cache.purges)
	require.NoError(t, h.Reinit(context.Background(), []string{"y"}))
	assert.Equal(t, 4, cache.purges)
}

func TestHandle_Stats(t *testing.T) {
	s := newTestService(t, nil, 0)

	h, err := s.Start("inst", &setBehavior{}, domain.FilterOptions{Capacity: 50, ErrorRate: 0.05}, nil)
	require.NoError(t, err)
	require.NoError(t, h.Add(context.Background(), "k"))

	st := h.Stats()
	assert.Equal(t, "inst", st.Name)
	assert.Equal(t, uint64(50), st.Capacity)
	assert.Equal(t, 0.05, st.ErrorRate)
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, uint64(1), st.Ops)
}

// TestService_EndToEndScenario walks the canonical lifecycle: seed, fast and
// sync reads, add, delete, reinit with a behavior-provided default list, and
// a batched add.
func TestService_EndToEndScenario(t *testing.T) {
	s := newTestService(t, nil, 0)
	ctx := context.Background()

	b := &setBehavior{defaultReinit: []string{"2", "3", "4", "5", "6", "7"}}
	h, err := s.Start("scenario", b, domain.FilterOptions{}, []string{"1", "2", "3", "4", "5"})
	require.NoError(t, err)

	mustMember := func(key string, want bool) {
		t.Helper()
		member, err := h.Member(key)
		require.NoError(t, err)
		assert.Equal(t, want, member, "Member(%s)", key)
		member, err = h.MemberSync(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, member, "MemberSync(%s)", key)
	}

	mustMember("1", true)
	mustMember("6", false)

	require.NoError(t, h.Add(ctx, "6"))
	mustMember("6", true)

	require.NoError(t, h.Delete(ctx, "6"))
	mustMember("6", false)

	require.NoError(t, h.Reinit(ctx, nil)) // behavior defaults to 2..7
	mustMember("1", false)
	mustMember("2", true)

	require.NoError(t, h.AddList(ctx, []string{"8", "9"}))
	mustMember("8", true)
	mustMember("9", true)
}

func TestService_DecisionCacheConstructorError(t *testing.T) {
	s, err := NewService(Options{
		Factory:           &fakeFactory{},
		DecisionCacheSize: 8,
		NewDecisionCache: func(int) (DecisionCache, error) {
			return nil, errors.New("no memory")
		},
	})
	require.NoError(t, err)
	_, err = s.Start("inst", &setBehavior{}, domain.FilterOptions{}, nil)
	assert.Error(t, err)
}
