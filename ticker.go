package datacron

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ticker calls fn with 0, 1, 2 ... : tick 0 synchronously from startTicker,
// later ticks from its own goroutine every interval.
type ticker struct {
	t      clockwork.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func startTicker(clock clockwork.Clock, interval time.Duration, fn func(Tick)) *ticker {
	tk := &ticker{
		t:      clock.NewTicker(interval),
		stopCh: make(chan struct{}),
	}
	fn(0)
	tk.wg.Add(1)
	go func() {
		defer tk.wg.Done()
		var n Tick
		for {
			select {
			case <-tk.t.Chan():
				select {
				case <-tk.stopCh:
					return
				default:
				}
				n++
				fn(n)
			case <-tk.stopCh:
				return
			}
		}
	}()
	return tk
}

// stop halts further ticks and waits for the loop to exit. It must not be
// called from fn.
func (tk *ticker) stop() {
	tk.once.Do(func() {
		close(tk.stopCh)
		tk.t.Stop()
	})
	tk.wg.Wait()
}

// halt is stop without the wait, safe to call from fn.
func (tk *ticker) halt() {
	tk.once.Do(func() {
		close(tk.stopCh)
		tk.t.Stop()
	})
}
