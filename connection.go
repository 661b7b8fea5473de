package datacron

import (
	"context"
	"sync"
)

// Connection is the running side of a Cron, returned by Connect. It owns the
// ticker and the fetches started by its ticks.
type Connection struct {
	ctx    context.Context // passed to fetches; cancelled on Disconnect or failure
	cancel context.CancelFunc

	mu        sync.Mutex
	stopped   bool
	err       error
	tk        *ticker
	stoppedCh chan struct{}

	// wg counts in-flight fetches
	wg sync.WaitGroup

	// pubMu orders mirror publishes against the final invalidate
	pubMu sync.Mutex

	lifecycle *sync.Mutex
	release   func()
	once      sync.Once
}

func endedConnection(err error) *Connection {
	x := &Connection{stopped: true, err: err, stoppedCh: make(chan struct{})}
	close(x.stoppedCh)
	return x
}

// Disconnect stops the ticker, cancels the context of in-flight fetches and
// drops the buffered value. Readers still waiting get ErrDisconnected and
// later requests get ErrNotConnected. Results of fetches that land afterwards
// are discarded. Safe to call more than once.
func (x *Connection) Disconnect() {
	if x.lifecycle == nil {
		return
	}
	x.lifecycle.Lock()
	defer x.lifecycle.Unlock()
	x.teardown()
}

// Done is closed once the connection stops ticking, either through
// Disconnect or because a fetch failed.
func (x *Connection) Done() <-chan struct{} { return x.stoppedCh }

// Err returns the *FetchError that terminated the connection, if any.
func (x *Connection) Err() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.err
}

// Wait blocks until the connection has stopped and every goroutine it started
// (ticker loop and fetches) has returned, or ctx is done.
func (x *Connection) Wait(ctx context.Context) error {
	select {
	case <-x.stoppedCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		x.wg.Wait()
		x.mu.Lock()
		tk := x.tk
		x.mu.Unlock()
		if tk != nil {
			tk.wg.Wait()
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// teardown must be called with the lifecycle lock held.
func (x *Connection) teardown() {
	x.once.Do(func() {
		x.stop(nil)
		if x.release != nil {
			x.release()
		}
		x.mu.Lock()
		tk := x.tk
		x.mu.Unlock()
		if tk != nil {
			tk.stop()
		}
	})
}

func (x *Connection) attach(tk *ticker) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tk = tk
	if x.stopped {
		tk.halt()
	}
}

// track registers a fetch about to start; false once stopped.
func (x *Connection) track() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.stopped {
		return false
	}
	x.wg.Add(1)
	return true
}

func (x *Connection) fail(err error) {
	x.stop(err)
	x.cancel()
}

func (x *Connection) stop(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.stopped {
		return
	}
	x.stopped = true
	x.err = err
	close(x.stoppedCh)
	if x.tk != nil {
		x.tk.halt()
	}
}

func (x *Connection) active() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return !x.stopped
}
