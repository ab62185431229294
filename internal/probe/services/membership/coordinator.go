package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/haukened/probecache/internal/probe/common/clock"
	"github.com/haukened/probecache/internal/probe/common/log"
	"github.com/haukened/probecache/internal/probe/domain"
)

// ErrStopped is returned for operations submitted to a coordinator that has
// been stopped.
var ErrStopped = errors.New("coordinator stopped")

type opKind uint8

const (
	opReinit opKind = iota
	opAdd
	opAddList
	opDelete
	opMember
)

type request struct {
	kind  opKind
	key   string
	keys  []string
	reply chan response
}

type response struct {
	member bool
	err    error
}

// Coordinator is the single owner of one instance's mutable state. Every
// mutating operation and every synchronous membership check is funneled
// through one goroutine and processed in arrival order; after each completed
// mutation a new snapshot is published to the shared store.
//
// A caller whose context expires while waiting gets the context error, but
// the queued operation still runs to completion: the coordinator never
// abandons work it has accepted.
type Coordinator struct {
	name     string
	opts     domain.FilterOptions
	behavior Behavior
	factory  FilterFactory
	store    *Store
	clk      clock.Clock
	log      log.Logger

	// owned exclusively by the run goroutine after construction
	filter Filter
	state  any

	generation atomic.Uint64
	ops        atomic.Uint64
	updated    atomic.Int64

	requests chan *request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewCoordinator initializes one instance: it derives the initial key set and
// custom state from the behavior, builds an empty filter from opts, inserts
// every key, publishes the first snapshot, and starts the serializing loop.
// Invalid options or a failing InitializeData abort construction; the
// instance never becomes available.
func NewCoordinator(
	name string,
	behavior Behavior,
	opts domain.FilterOptions,
	initArgs any,
	factory FilterFactory,
	store *Store,
	clk clock.Clock,
	logger log.Logger,
) (*Coordinator, error) {
	opts = opts.Normalized()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("instance %q: %w", name, err)
	}

	keys, state, err := behavior.InitializeData(initArgs)
	if err != nil {
		return nil, fmt.Errorf("instance %q: initialize data: %w", name, err)
	}

	c := &Coordinator{
		name:     name,
		opts:     opts,
		behavior: behavior,
		factory:  factory,
		store:    store,
		clk:      clk,
		log:      logger,
		requests: make(chan *request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	c.filter = factory.New(opts.Capacity, opts.ErrorRate)
	for _, k := range keys {
		c.filter.Add([]byte(k))
	}
	c.state = state
	c.generation.Store(1)
	c.publish()

	c.log.Debug(map[string]any{
		"instance":   name,
		"capacity":   opts.Capacity,
		"error_rate": opts.ErrorRate,
		"seed_keys":  len(keys),
	}, "coordinator initialized")

	go c.run()
	return c, nil
}

// Name returns the instance name this coordinator owns.
func (c *Coordinator) Name() string { return c.name }

// Options returns the filter options fixed at creation.
func (c *Coordinator) Options() domain.FilterOptions { return c.opts }

// Reinit discards the current filter generation and rebuilds from the keys
// the behavior derives from data. The old generation stays published until
// the replacement is fully built (build-then-swap); readers never observe an
// empty-but-unpopulated filter.
func (c *Coordinator) Reinit(ctx context.Context, data []string) error {
	_, err := c.submit(ctx, &request{kind: opReinit, keys: data})
	return err
}

// Add inserts key into the current filter generation after the behavior has
// accepted it.
func (c *Coordinator) Add(ctx context.Context, key string) error {
	_, err := c.submit(ctx, &request{kind: opAdd, key: key})
	return err
}

// AddList inserts keys in order after the behavior has accepted the batch.
func (c *Coordinator) AddList(ctx context.Context, keys []string) error {
	_, err := c.submit(ctx, &request{kind: opAddList, keys: keys})
	return err
}

// Delete updates the behavior's custom state for key. The key is not removed
// from the filter: probabilistic membership is permanent for the lifetime of
// a generation, so the filter may keep answering "maybe" until the next
// reinit. Correctness relies on CheckExists excluding the key afterwards.
func (c *Coordinator) Delete(ctx context.Context, key string) error {
	_, err := c.submit(ctx, &request{kind: opDelete, key: key})
	return err
}

// MemberSync answers membership through the serialized queue, so the result
// reflects exactly the writes that completed before this call in queue order.
func (c *Coordinator) MemberSync(ctx context.Context, key string) (bool, error) {
	resp, err := c.submit(ctx, &request{kind: opMember, key: key})
	if err != nil {
		return false, err
	}
	return resp.member, nil
}

// Stats returns the coordinator's counters.
func (c *Coordinator) Stats() (generation, ops uint64, updatedUnix int64) {
	return c.generation.Load(), c.ops.Load(), c.updated.Load()
}

// Stop terminates the serializing loop. Pending and subsequent calls fail
// with ErrStopped. Stop does not remove the published snapshot; the owning
// registry does that so fast readers and the coordinator wind down together.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
	<-c.done
}

func (c *Coordinator) submit(ctx context.Context, req *request) (response, error) {
	req.reply = make(chan response, 1)
	select {
	case c.requests <- req:
	case <-c.quit:
		return response{}, ErrStopped
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
	select {
	case resp := <-req.reply:
		return resp, resp.err
	case <-c.quit:
		return response{}, ErrStopped
	case <-ctx.Done():
		// The operation is already queued and will still be applied.
		return response{}, ctx.Err()
	}
}

func (c *Coordinator) run() {
	defer close(c.done)
	for {
		select {
		case req := <-c.requests:
			req.reply <- c.handle(req)
		case <-c.quit:
			return
		}
	}
}

// handle applies one operation. A failed callback leaves the last published
// snapshot intact; the new snapshot is only published after the full new
// state has been computed.
func (c *Coordinator) handle(req *request) response {
	switch req.kind {
	case opMember:
		if !c.filter.MightContain([]byte(req.key)) {
			return response{member: false}
		}
		return response{member: c.behavior.CheckExists(req.key, c.state)}

	case opAdd:
		newState, err := c.behavior.OnAdd(req.key, c.state)
		if err != nil {
			return response{err: fmt.Errorf("add %q: %w", req.key, err)}
		}
		c.filter.Add([]byte(req.key))
		c.state = newState

	case opAddList:
		newState, err := c.behavior.OnAddList(req.keys, c.state)
		if err != nil {
			return response{err: fmt.Errorf("add list: %w", err)}
		}
		for _, k := range req.keys {
			c.filter.Add([]byte(k))
		}
		c.state = newState

	case opDelete:
		newState, err := c.behavior.OnDelete(req.key, c.state)
		if err != nil {
			return response{err: fmt.Errorf("delete %q: %w", req.key, err)}
		}
		// The filter is untouched; see Delete.
		c.state = newState

	case opReinit:
		keys, newState, err := c.behavior.Reinitialize(req.keys, c.state)
		if err != nil {
			return response{err: fmt.Errorf("reinitialize: %w", err)}
		}
		fresh := c.factory.New(c.opts.Capacity, c.opts.ErrorRate)
		for _, k := range keys {
			fresh.Add([]byte(k))
		}
		c.filter = fresh
		c.state = newState
		c.generation.Add(1)
	}

	c.publish()
	c.ops.Add(1)
	return response{}
}

func (c *Coordinator) publish() {
	c.store.Publish(c.name, &Snapshot{
		Filter:   c.filter,
		State:    c.state,
		Behavior: c.behavior,
	})
	c.updated.Store(c.clk.Now().Unix())
}
