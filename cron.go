package datacron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type cron[V any] struct {
	fetch         FetchFunc[V]
	interval      time.Duration
	clock         clockwork.Clock
	log           Logger
	hooks         Hooks
	mirror        Mirror[V]
	mirrorTimeout time.Duration

	// lifecycle serializes Connect, Disconnect and Close.
	lifecycle sync.Mutex

	// mu guards the fields read by Request.
	mu     sync.Mutex
	conn   *Connection
	slot   *slot[V]
	closed bool
}

func newCron[V any](fetch FetchFunc[V], opts Options[V]) (*cron[V], error) {
	if fetch == nil {
		return nil, fmt.Errorf("datacron: fetch func is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("datacron: interval must be positive, got %s", opts.Interval)
	}

	c := &cron[V]{
		fetch:    fetch,
		interval: opts.Interval,
		mirror:   opts.Mirror,
	}

	// defaults
	c.clock = coalesce[clockwork.Clock](opts.Clock, clockwork.NewRealClock())
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.mirrorTimeout = coalesce[time.Duration](opts.MirrorTimeout, defaultMirrorTimeout)

	return c, nil
}

// Connect starts the ticker and fires the first fetch before returning.
// While connected it returns the live connection instead of starting another.
// A connection that ended in a fetch failure is torn down and replaced.
func (c *cron[V]) Connect() *Connection {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	cur, closed := c.conn, c.closed
	c.mu.Unlock()

	if closed {
		return endedConnection(ErrClosed)
	}
	if cur != nil {
		if cur.active() {
			return cur
		}
		cur.teardown()
	}

	ctx, cancel := context.WithCancel(context.Background())
	conn := &Connection{
		ctx:       ctx,
		cancel:    cancel,
		stoppedCh: make(chan struct{}),
		lifecycle: &c.lifecycle,
	}
	s := newSlot[V]()
	conn.release = func() { c.release(conn, s) }

	c.mu.Lock()
	c.conn, c.slot = conn, s
	c.mu.Unlock()

	c.log.Debug("connected", Fields{"interval": c.interval})

	tk := startTicker(c.clock, c.interval, func(t Tick) { c.dispatch(conn, s, t) })
	conn.attach(tk)
	return conn
}

func (c *cron[V]) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.active()
}

func (c *cron[V]) Close(ctx context.Context) error {
	c.lifecycle.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.lifecycle.Unlock()
		return nil
	}
	c.closed = true
	cur := c.conn
	c.mu.Unlock()
	if cur != nil {
		cur.teardown()
	}
	c.lifecycle.Unlock()

	if cur != nil {
		if err := cur.Wait(ctx); err != nil {
			return err
		}
	}
	if c.mirror != nil {
		return c.mirror.Close(ctx)
	}
	return nil
}

func (c *cron[V]) Request(ctx context.Context) (V, error) {
	snap, err := c.RequestSnapshot(ctx)
	return snap.Value, err
}

// RequestSnapshot returns the buffered snapshot, or waits for the first fetch
// of the current connection to land. It resolves at most once and does not
// follow later refreshes.
func (c *cron[V]) RequestSnapshot(ctx context.Context) (Snapshot[V], error) {
	c.mu.Lock()
	s, closed := c.slot, c.closed
	c.mu.Unlock()

	switch {
	case closed:
		return Snapshot[V]{}, ErrClosed
	case s == nil:
		return Snapshot[V]{}, ErrNotConnected
	}
	return s.await(ctx)
}

// Peek returns the buffered snapshot without waiting.
func (c *cron[V]) Peek() (Snapshot[V], bool) {
	c.mu.Lock()
	s := c.slot
	c.mu.Unlock()
	if s == nil {
		return Snapshot[V]{}, false
	}
	return s.peek()
}

// dispatch runs for every tick, on the ticker goroutine (or on the Connect
// caller for tick 0).
func (c *cron[V]) dispatch(conn *Connection, s *slot[V], t Tick) {
	if !conn.track() {
		return
	}
	c.hooks.TickFired(t)
	c.log.Debug("tick", Fields{"tick": t})
	go c.refresh(conn, s, t)
}

func (c *cron[V]) refresh(conn *Connection, s *slot[V], t Tick) {
	defer conn.wg.Done()

	start := c.clock.Now()
	v, err := c.fetch(withTick(conn.ctx, t))
	if err != nil {
		fe := &FetchError{Tick: t, Err: err}
		if !s.end(fe) {
			c.hooks.FetchDiscarded(t, err)
			c.log.Debug("fetch failed after connection ended; dropped", Fields{"tick": t, "err": err})
			return
		}
		conn.fail(fe)
		c.hooks.FetchFailed(t, err)
		c.log.Warn("fetch failed; connection terminated", Fields{"tick": t, "err": err})
		return
	}

	snap, prev, hadPrev, ok := s.push(t, v, c.clock.Now())
	if !ok {
		c.hooks.FetchDiscarded(t, nil)
		c.log.Debug("fetch landed after connection ended; dropped", Fields{"tick": t})
		return
	}
	c.hooks.FetchCompleted(t, snap.Version, c.clock.Since(start))
	if hadPrev && prev.Tick > t {
		c.hooks.OutOfOrderCompletion(t, prev.Tick)
		c.log.Info("older fetch overwrote newer value", Fields{"tick": t, "replaced": prev.Tick})
	}
	c.publish(conn, snap)
}

func (c *cron[V]) publish(conn *Connection, snap Snapshot[V]) {
	if c.mirror == nil {
		return
	}
	conn.pubMu.Lock()
	defer conn.pubMu.Unlock()
	if !conn.active() {
		return
	}
	ctx, cancel := context.WithTimeout(conn.ctx, c.mirrorTimeout)
	defer cancel()
	if err := c.mirror.Publish(ctx, snap); err != nil {
		c.hooks.MirrorError("publish", err)
		c.log.Error("mirror publish failed", Fields{"tick": snap.Tick, "version": snap.Version, "err": err})
	}
}

// release detaches conn from the cron and invalidates the mirror. It runs
// once per connection, under the lifecycle lock, after the ticker is halted.
func (c *cron[V]) release(conn *Connection, s *slot[V]) {
	s.end(ErrDisconnected)

	c.mu.Lock()
	if c.conn == conn {
		c.conn, c.slot = nil, nil
	}
	c.mu.Unlock()

	conn.cancel()
	c.log.Debug("disconnected", Fields{"err": conn.Err()})

	if c.mirror == nil {
		return
	}
	conn.pubMu.Lock()
	defer conn.pubMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), c.mirrorTimeout)
	defer cancel()
	if err := c.mirror.Invalidate(ctx); err != nil {
		c.hooks.MirrorError("invalidate", err)
		c.log.Error("mirror invalidate failed", Fields{"err": err})
	}
}
