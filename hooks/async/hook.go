// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{TickEvery: 60})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cron, _ := datacron.New(fetch, datacron.Options[Rates]{
//	    Interval: time.Second,
//	    Hooks:    hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/datacron"
)

// Hooks moves hook calls off the ticker and fetch goroutines onto a worker
// pool. Events are dropped when the queue is full.
type Hooks struct {
	inner   datacron.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
	mu      sync.RWMutex // guards sends against close(q)
}

var _ datacron.Hooks = (*Hooks)(nil)

func New(inner datacron.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to run.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed.Store(true)
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) TickFired(t datacron.Tick) { h.try(func() { h.inner.TickFired(t) }) }
func (h *Hooks) FetchCompleted(t datacron.Tick, v uint64, d time.Duration) {
	h.try(func() { h.inner.FetchCompleted(t, v, d) })
}
func (h *Hooks) OutOfOrderCompletion(applied, replaced datacron.Tick) {
	h.try(func() { h.inner.OutOfOrderCompletion(applied, replaced) })
}
func (h *Hooks) FetchFailed(t datacron.Tick, err error) { h.try(func() { h.inner.FetchFailed(t, err) }) }
func (h *Hooks) FetchDiscarded(t datacron.Tick, err error) {
	h.try(func() { h.inner.FetchDiscarded(t, err) })
}
func (h *Hooks) MirrorError(op string, err error) { h.try(func() { h.inner.MirrorError(op, err) }) }
