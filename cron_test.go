package datacron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// recordingHooks forwards events to buffered channels.
type recordingHooks struct {
	ticks      chan Tick
	completed  chan Tick
	outOfOrder chan [2]Tick
	failed     chan Tick
	discarded  chan Tick
	mirrorErrs chan string
}

var _ Hooks = (*recordingHooks)(nil)

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{
		ticks:      make(chan Tick, 64),
		completed:  make(chan Tick, 64),
		outOfOrder: make(chan [2]Tick, 64),
		failed:     make(chan Tick, 64),
		discarded:  make(chan Tick, 64),
		mirrorErrs: make(chan string, 64),
	}
}

func (h *recordingHooks) TickFired(t Tick) { h.ticks <- t }
func (h *recordingHooks) FetchCompleted(t Tick, _ uint64, _ time.Duration) {
	h.completed <- t
}
func (h *recordingHooks) OutOfOrderCompletion(applied, replaced Tick) {
	h.outOfOrder <- [2]Tick{applied, replaced}
}
func (h *recordingHooks) FetchFailed(t Tick, _ error)    { h.failed <- t }
func (h *recordingHooks) FetchDiscarded(t Tick, _ error) { h.discarded <- t }
func (h *recordingHooks) MirrorError(op string, _ error) { h.mirrorErrs <- op }

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event")
		var zero T
		return zero
	}
}

// countingFetch returns the invocation index after latency(index) of fake time.
// It honours ctx cancellation.
func countingFetch(clk clockwork.Clock, latency func(i int) time.Duration) (FetchFunc[int], *atomic.Int64) {
	var calls atomic.Int64
	return func(ctx context.Context) (int, error) {
		i := int(calls.Add(1) - 1)
		select {
		case <-clk.After(latency(i)):
			return i, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}, &calls
}

func fixed(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

func newTestCron(t *testing.T, fetch FetchFunc[int], optsOpt func(*Options[int])) Cron[int] {
	t.Helper()
	opts := Options[int]{Interval: 13 * time.Second}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	c, err := New[int](fetch, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func mustImpl[V any](t *testing.T, c Cron[V]) *cron[V] {
	t.Helper()
	impl, ok := c.(*cron[V])
	if !ok {
		t.Fatalf("unexpected concrete type for Cron")
	}
	return impl
}

func pendingReaders[V any](c *cron[V]) int {
	c.mu.Lock()
	s := c.slot
	c.mu.Unlock()
	if s == nil {
		return 0
	}
	return s.pending()
}

type timedResult struct {
	snap Snapshot[int]
	err  error
	at   time.Time
}

func requestAsync(ctx context.Context, c Cron[int], clk clockwork.Clock) <-chan timedResult {
	out := make(chan timedResult, 1)
	go func() {
		snap, err := c.RequestSnapshot(ctx)
		out <- timedResult{snap: snap, err: err, at: clk.Now()}
	}()
	return out
}

// ==============================
// Construction
// ==============================

func TestNewValidates(t *testing.T) {
	fetch := func(context.Context) (int, error) { return 0, nil }
	if _, err := New[int](nil, Options[int]{Interval: time.Second}); err == nil {
		t.Fatalf("nil fetch should be rejected")
	}
	if _, err := New[int](fetch, Options[int]{}); err == nil {
		t.Fatalf("zero interval should be rejected")
	}
	if _, err := New[int](fetch, Options[int]{Interval: -time.Second}); err == nil {
		t.Fatalf("negative interval should be rejected")
	}
}

func TestEveryBuildsCron(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c, err := Every[int](time.Minute, func(o *Options[int]) { o.Clock = fc })(
		func(context.Context) (int, error) { return 5, nil },
	)
	if err != nil {
		t.Fatalf("Every: %v", err)
	}
	defer c.Close(context.Background())

	c.Connect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if v, err := c.Request(ctx); err != nil || v != 5 {
		t.Fatalf("Request: v=%d err=%v", v, err)
	}
	if impl := mustImpl(t, c); impl.interval != time.Minute || impl.clock != fc {
		t.Fatalf("options not applied: interval=%s", impl.interval)
	}
}

// ==============================
// Timing scenarios (fake clock)
// ==============================

// TestRefreshScenario: interval 13, fetch latency 4. Requests at t=2, 10, 16
// and 21 resolve with 0@4, 0@10, 0@16 and 1@21.
func TestRefreshScenario(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	start := fc.Now()
	hooks := newRecordingHooks()
	fetch, calls := countingFetch(fc, fixed(4*time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) {
		o.Clock = fc
		o.Hooks = hooks
	})
	impl := mustImpl(t, c)

	conn := c.Connect()
	defer conn.Disconnect()
	if tk := recv(t, hooks.ticks); tk != 0 {
		t.Fatalf("first tick = %d", tk)
	}
	// ticker + fetch 0 in flight
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}

	// t=2: nothing loaded yet, request waits for fetch 0.
	fc.Advance(2 * time.Second)
	a := requestAsync(ctx, c, fc)
	waitFor(t, func() bool { return pendingReaders(impl) == 1 })

	fc.Advance(2 * time.Second) // t=4
	ra := <-a
	if ra.err != nil || ra.snap.Value != 0 || !ra.at.Equal(start.Add(4*time.Second)) {
		t.Fatalf("request A: %+v (at +%s)", ra, ra.at.Sub(start))
	}
	recv(t, hooks.completed)

	// t=10: value 0 buffered, immediate.
	fc.Advance(6 * time.Second)
	if v, err := c.Request(ctx); err != nil || v != 0 {
		t.Fatalf("request B: v=%d err=%v", v, err)
	}

	// t=13: tick 1 fires, fetch 1 lands at t=17.
	fc.Advance(3 * time.Second)
	if tk := recv(t, hooks.ticks); tk != 1 {
		t.Fatalf("second tick = %d", tk)
	}
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}

	// t=16: fetch 1 still loading, immediate with 0.
	fc.Advance(3 * time.Second)
	if snap, err := c.RequestSnapshot(ctx); err != nil || snap.Value != 0 || snap.Tick != 0 {
		t.Fatalf("request C: %+v err=%v", snap, err)
	}

	fc.Advance(time.Second) // t=17
	if tk := recv(t, hooks.completed); tk != 1 {
		t.Fatalf("completed tick = %d", tk)
	}

	// t=21: fetch 1 has landed, immediate with 1.
	fc.Advance(4 * time.Second)
	snap, err := c.RequestSnapshot(ctx)
	if err != nil || snap.Value != 1 || snap.Tick != 1 || snap.Version != 2 {
		t.Fatalf("request D: %+v err=%v", snap, err)
	}
	if !snap.CompletedAt.Equal(start.Add(17 * time.Second)) {
		t.Fatalf("CompletedAt = +%s, want +17s", snap.CompletedAt.Sub(start))
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("fetch calls = %d, want 2", n)
	}
}

// TestConcurrentRequestsSharePush: every request issued before the first
// completion is resolved by that same completion.
func TestConcurrentRequestsSharePush(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	fetch, _ := countingFetch(fc, fixed(4*time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) { o.Clock = fc })
	impl := mustImpl(t, c)

	c.Connect()
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}

	const readers = 4
	chans := make([]<-chan timedResult, readers)
	for i := range chans {
		chans[i] = requestAsync(ctx, c, fc)
	}
	waitFor(t, func() bool { return pendingReaders(impl) == readers })

	fc.Advance(4 * time.Second)
	for i, ch := range chans {
		r := <-ch
		if r.err != nil || r.snap.Value != 0 || r.snap.Version != 1 {
			t.Fatalf("reader %d: %+v", i, r)
		}
	}
}

// TestOutOfOrderCompletion: a slow fetch from tick 0 landing after a fast
// fetch from tick 1 overwrites the newer value.
func TestOutOfOrderCompletion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	hooks := newRecordingHooks()
	latencies := []time.Duration{20 * time.Second, 2 * time.Second}
	fetch, _ := countingFetch(fc, func(i int) time.Duration { return latencies[i] })
	c := newTestCron(t, fetch, func(o *Options[int]) {
		o.Clock = fc
		o.Hooks = hooks
	})

	c.Connect()
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}

	fc.Advance(13 * time.Second) // tick 1
	if err := fc.BlockUntilContext(ctx, 3); err != nil {
		t.Fatal(err)
	}

	fc.Advance(2 * time.Second) // t=15: fetch 1 lands
	if tk := recv(t, hooks.completed); tk != 1 {
		t.Fatalf("expected tick 1 first, got %d", tk)
	}
	if v, err := c.Request(ctx); err != nil || v != 1 {
		t.Fatalf("at t=15: v=%d err=%v", v, err)
	}

	fc.Advance(5 * time.Second) // t=20: fetch 0 lands
	if tk := recv(t, hooks.completed); tk != 0 {
		t.Fatalf("expected tick 0 second, got %d", tk)
	}
	if ev := recv(t, hooks.outOfOrder); ev != [2]Tick{0, 1} {
		t.Fatalf("out of order event = %v", ev)
	}
	snap, err := c.RequestSnapshot(ctx)
	if err != nil || snap.Value != 0 || snap.Tick != 0 || snap.Version != 2 {
		t.Fatalf("at t=20: %+v err=%v", snap, err)
	}
}

func TestFetchReceivesTick(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	seen := make(chan Tick, 8)
	fetch := func(ctx context.Context) (int, error) {
		tk, ok := TickFromContext(ctx)
		if !ok {
			return 0, errors.New("no tick in context")
		}
		seen <- tk
		return int(tk), nil
	}
	c := newTestCron(t, fetch, func(o *Options[int]) { o.Clock = fc })

	c.Connect()
	if tk := recv(t, seen); tk != 0 {
		t.Fatalf("tick = %d", tk)
	}
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	fc.Advance(13 * time.Second)
	if tk := recv(t, seen); tk != 1 {
		t.Fatalf("tick = %d", tk)
	}
}

// ==============================
// Lifecycle
// ==============================

func TestRequestBeforeConnect(t *testing.T) {
	fetch := func(context.Context) (int, error) { return 1, nil }
	c := newTestCron(t, fetch, nil)
	if _, err := c.Request(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if c.Connected() {
		t.Fatalf("idle cron reports connected")
	}
	if _, ok := c.Peek(); ok {
		t.Fatalf("idle cron has a value")
	}
}

func TestConnectIsIdempotentWhileConnected(t *testing.T) {
	fc := clockwork.NewFakeClock()
	fetch, calls := countingFetch(fc, fixed(time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) { o.Clock = fc })

	a := c.Connect()
	b := c.Connect()
	if a != b {
		t.Fatalf("second Connect should return the live connection")
	}
	waitFor(t, func() bool { return calls.Load() == 1 })
	if !c.Connected() {
		t.Fatalf("expected connected")
	}
}

// TestDisconnectStopsTicks: no fetch starts after Disconnect.
func TestDisconnectStopsTicks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	fetch, calls := countingFetch(fc, fixed(4*time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) { o.Clock = fc })

	conn := c.Connect()
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}
	fc.Advance(4 * time.Second)
	if v, err := c.Request(ctx); err != nil || v != 0 {
		t.Fatalf("Request: v=%d err=%v", v, err)
	}

	conn.Disconnect()
	conn.Disconnect()
	if err := conn.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if c.Connected() {
		t.Fatalf("still connected after Disconnect")
	}

	fc.Advance(10 * 13 * time.Second)
	if n := calls.Load(); n != 1 {
		t.Fatalf("fetch calls after disconnect = %d, want 1", n)
	}
	if _, err := c.Request(ctx); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Request after disconnect: %v", err)
	}
	if conn.Err() != nil {
		t.Fatalf("clean disconnect should not record an error: %v", conn.Err())
	}
}

// TestDisconnectReleasesWaiters: readers queued at Disconnect are rejected and
// the in-flight fetch result is dropped.
func TestDisconnectReleasesWaiters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	hooks := newRecordingHooks()
	fetch, _ := countingFetch(fc, fixed(4*time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) {
		o.Clock = fc
		o.Hooks = hooks
	})
	impl := mustImpl(t, c)

	conn := c.Connect()
	r := requestAsync(ctx, c, fc)
	waitFor(t, func() bool { return pendingReaders(impl) == 1 })

	conn.Disconnect()
	if res := <-r; !errors.Is(res.err, ErrDisconnected) {
		t.Fatalf("waiting reader: %v", res.err)
	}
	if tk := recv(t, hooks.discarded); tk != 0 {
		t.Fatalf("discarded tick = %d", tk)
	}
	if err := conn.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestReconnectStartsFresh(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	fetch, calls := countingFetch(fc, fixed(time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) { o.Clock = fc })

	first := c.Connect()
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}
	fc.Advance(time.Second)
	if v, err := c.Request(ctx); err != nil || v != 0 {
		t.Fatalf("first connection: v=%d err=%v", v, err)
	}
	first.Disconnect()

	second := c.Connect()
	if second == first {
		t.Fatalf("expected a new connection")
	}
	if _, ok := c.Peek(); ok {
		t.Fatalf("new connection must start empty")
	}
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}
	fc.Advance(time.Second)
	snap, err := c.RequestSnapshot(ctx)
	if err != nil || snap.Value != 1 || snap.Tick != 0 || snap.Version != 1 {
		t.Fatalf("second connection: %+v err=%v", snap, err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("calls = %d", n)
	}
}

func TestCloseRejectsUse(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	fetch, _ := countingFetch(fc, fixed(time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) { o.Clock = fc })

	c.Connect()
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := c.Request(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Request after Close: %v", err)
	}
	conn := c.Connect()
	if !errors.Is(conn.Err(), ErrClosed) {
		t.Fatalf("Connect after Close: %v", conn.Err())
	}
	conn.Disconnect() // no-op
	select {
	case <-conn.Done():
	default:
		t.Fatalf("connection from closed cron should be done")
	}
}

// ==============================
// Failure
// ==============================

func TestFetchFailureRejectsWaiters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	hooks := newRecordingHooks()
	boom := errors.New("upstream down")
	release := make(chan struct{})
	var calls atomic.Int64
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 0, boom
	}
	c := newTestCron(t, fetch, func(o *Options[int]) {
		o.Clock = fc
		o.Hooks = hooks
	})
	impl := mustImpl(t, c)

	conn := c.Connect()
	r := requestAsync(ctx, c, fc)
	waitFor(t, func() bool { return pendingReaders(impl) == 1 })
	close(release)

	res := <-r
	var fe *FetchError
	if !errors.As(res.err, &fe) || fe.Tick != 0 || !errors.Is(res.err, boom) {
		t.Fatalf("waiting reader: %v", res.err)
	}
	recv(t, hooks.failed)

	<-conn.Done()
	if !errors.As(conn.Err(), &fe) {
		t.Fatalf("conn.Err = %v", conn.Err())
	}
	if c.Connected() {
		t.Fatalf("failed connection reports connected")
	}
	if _, err := c.Request(ctx); !errors.Is(err, boom) {
		t.Fatalf("Request after failure: %v", err)
	}

	fc.Advance(5 * 13 * time.Second)
	if n := calls.Load(); n != 1 {
		t.Fatalf("ticks continued after failure: calls=%d", n)
	}
	if err := conn.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

// blockingFailHooks parks inside FetchFailed until release is closed.
type blockingFailHooks struct {
	NopHooks
	entered chan struct{}
	release chan struct{}
}

func (h *blockingFailHooks) FetchFailed(Tick, error) {
	close(h.entered)
	<-h.release
}

func TestFailureStopsTicksBeforeHooksRun(t *testing.T) {
	fc := clockwork.NewFakeClock()
	hooks := &blockingFailHooks{entered: make(chan struct{}), release: make(chan struct{})}
	defer close(hooks.release)

	var calls atomic.Int64
	c := newTestCron(t, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("boom")
	}, func(o *Options[int]) {
		o.Clock = fc
		o.Hooks = hooks
	})

	conn := c.Connect()
	recv(t, hooks.entered)

	if c.Connected() {
		t.Fatalf("connection still active while FetchFailed runs")
	}
	select {
	case <-conn.Done():
	default:
		t.Fatalf("Done not closed before FetchFailed")
	}

	fc.Advance(13 * time.Second)
	fc.Advance(13 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("fetch started after terminal failure: calls=%d", n)
	}
}

func TestFailureAfterValueReplaysValue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	var calls atomic.Int64
	fetch := func(context.Context) (int, error) {
		if calls.Add(1) == 2 {
			return 0, errors.New("boom")
		}
		return 7, nil
	}
	c := newTestCron(t, fetch, func(o *Options[int]) { o.Clock = fc })

	conn := c.Connect()
	if v, err := c.Request(ctx); err != nil || v != 7 {
		t.Fatalf("Request: v=%d err=%v", v, err)
	}
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	fc.Advance(13 * time.Second)
	<-conn.Done()

	if v, err := c.Request(ctx); err != nil || v != 7 {
		t.Fatalf("buffered value should still be served: v=%d err=%v", v, err)
	}

	// a new connection replaces the failed one
	conn2 := c.Connect()
	if conn2 == conn || !c.Connected() {
		t.Fatalf("expected a fresh connection after failure")
	}
}

// ==============================
// Mirror
// ==============================

type fakeMirror struct {
	mu          sync.Mutex
	published   []Snapshot[int]
	invalidated int
	closed      bool
	publishErr  error
}

func (m *fakeMirror) Publish(_ context.Context, s Snapshot[int]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, s)
	return nil
}

func (m *fakeMirror) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
	return nil
}

func (m *fakeMirror) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *fakeMirror) snapshot() ([]Snapshot[int], int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot[int](nil), m.published...), m.invalidated, m.closed
}

func TestMirrorFollowsConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	m := &fakeMirror{}
	fetch, _ := countingFetch(fc, fixed(time.Second))
	c := newTestCron(t, fetch, func(o *Options[int]) {
		o.Clock = fc
		o.Mirror = m
	})

	conn := c.Connect()
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatal(err)
	}
	fc.Advance(time.Second)
	if _, err := c.Request(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { p, _, _ := m.snapshot(); return len(p) == 1 })

	conn.Disconnect()
	pub, inv, _ := m.snapshot()
	if inv != 1 || pub[0].Value != 0 || pub[0].Version != 1 {
		t.Fatalf("published=%+v invalidated=%d", pub, inv)
	}

	if err := c.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, closed := m.snapshot(); !closed {
		t.Fatalf("Close should close the mirror")
	}
}

func TestMirrorErrorReported(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hooks := newRecordingHooks()
	m := &fakeMirror{publishErr: errors.New("store down")}
	c := newTestCron(t, func(context.Context) (int, error) { return 1, nil }, func(o *Options[int]) {
		o.Clock = clockwork.NewFakeClock()
		o.Hooks = hooks
		o.Mirror = m
	})

	c.Connect()
	if v, err := c.Request(ctx); err != nil || v != 1 {
		t.Fatalf("mirror failure must not affect readers: v=%d err=%v", v, err)
	}
	if op := recv(t, hooks.mirrorErrs); op != "publish" {
		t.Fatalf("op = %q", op)
	}
}
