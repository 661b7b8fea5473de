package datacron

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cron calls them from the ticker loop and fetch goroutines.
type Hooks interface {
	// A tick fired and its fetch is being started.
	TickFired(tick Tick)

	// A fetch landed and its value replaced the buffered one.
	FetchCompleted(tick Tick, version uint64, elapsed time.Duration)

	// A fetch landed after a fetch from a later tick: the older value now
	// overwrites the newer one.
	OutOfOrderCompletion(applied, replaced Tick)

	// A fetch failed; the connection is now terminated.
	FetchFailed(tick Tick, err error)

	// A fetch landed after Disconnect (or after a failure) and was dropped.
	FetchDiscarded(tick Tick, err error)

	// Publishing to or invalidating the mirror failed.
	// op ∈ {"publish", "invalidate"}
	MirrorError(op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) TickFired(Tick)                             {}
func (NopHooks) FetchCompleted(Tick, uint64, time.Duration) {}
func (NopHooks) OutOfOrderCompletion(Tick, Tick)            {}
func (NopHooks) FetchFailed(Tick, error)                    {}
func (NopHooks) FetchDiscarded(Tick, error)                 {}
func (NopHooks) MirrorError(string, error)                  {}
