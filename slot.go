package datacron

import (
	"context"
	"sync"
	"time"
)

type result[V any] struct {
	snap Snapshot[V]
	err  error
}

// slot is a replay buffer of capacity one. It holds the most recently pushed
// snapshot and the readers waiting for the first one. Once done (failed or
// closed) it accepts no further pushes.
type slot[V any] struct {
	mu      sync.Mutex
	snap    Snapshot[V]
	has     bool
	version uint64
	err     error // terminal; set by fail or close
	waiters map[uint64]chan result[V]
	nextID  uint64
}

func newSlot[V any]() *slot[V] {
	return &slot[V]{waiters: make(map[uint64]chan result[V])}
}

// push stores v as produced by tick, replacing any buffered value, and
// resolves every waiting reader with it. prev is the snapshot it replaced.
// ok is false if the slot is already done.
func (s *slot[V]) push(tick Tick, v V, at time.Time) (snap, prev Snapshot[V], hadPrev, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return snap, prev, false, false
	}
	prev, hadPrev = s.snap, s.has
	s.version++
	s.snap = Snapshot[V]{Value: v, Tick: tick, Version: s.version, CompletedAt: at}
	s.has = true
	s.resolveLocked(result[V]{snap: s.snap})
	return s.snap, prev, hadPrev, true
}

// end terminates the slot with err (a *FetchError or ErrDisconnected).
// Waiting readers are rejected; a buffered value stays readable.
func (s *slot[V]) end(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false
	}
	s.err = err
	s.resolveLocked(result[V]{err: err})
	return true
}

func (s *slot[V]) resolveLocked(r result[V]) {
	for id, ch := range s.waiters {
		ch <- r // capacity 1, written once
		delete(s.waiters, id)
	}
}

// await returns the buffered snapshot, or blocks until the next push, the
// end of the slot, or ctx cancellation.
func (s *slot[V]) await(ctx context.Context) (Snapshot[V], error) {
	s.mu.Lock()
	if s.has {
		snap := s.snap
		s.mu.Unlock()
		return snap, nil
	}
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return Snapshot[V]{}, err
	}
	id := s.nextID
	s.nextID++
	ch := make(chan result[V], 1)
	s.waiters[id] = ch
	s.mu.Unlock()

	select {
	case r := <-ch:
		return r.snap, r.err
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.waiters, id)
		s.mu.Unlock()
		// a push may have raced the cancellation
		select {
		case r := <-ch:
			return r.snap, r.err
		default:
		}
		return Snapshot[V]{}, ctx.Err()
	}
}

func (s *slot[V]) peek() (Snapshot[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.has
}

func (s *slot[V]) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

func (s *slot[V]) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}
