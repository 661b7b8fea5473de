package datacron

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tick identifies one firing of the refresh timer within a connection.
// Ticks restart at 0 on every Connect.
type Tick uint64

// FetchFunc produces one value per call. It is called once per tick, possibly
// while earlier calls are still running. ctx is cancelled on Disconnect and
// carries the triggering Tick (see TickFromContext).
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Snapshot is the value held by the cron together with where it came from.
type Snapshot[V any] struct {
	Value       V
	Tick        Tick      // tick whose fetch produced Value
	Version     uint64    // 1-based count of applied fetches in this connection
	CompletedAt time.Time // clock time the fetch landed
}

// Mirror receives every applied snapshot. Implementations live in package mirror.
type Mirror[V any] interface {
	Publish(ctx context.Context, s Snapshot[V]) error
	Invalidate(ctx context.Context) error
	Close(ctx context.Context) error
}

// Cron is the handle returned by New: a factory for one-shot reads plus
// explicit lifecycle control.
type Cron[V any] interface {
	// Lifecycle
	Connect() *Connection
	Connected() bool
	Close(ctx context.Context) error

	// Reads
	Request(ctx context.Context) (V, error)
	RequestSnapshot(ctx context.Context) (Snapshot[V], error)
	Peek() (Snapshot[V], bool)
}

// Options tune a Cron. Only Interval is required.
type Options[V any] struct {
	// Required
	Interval time.Duration // time between ticks; first tick fires on Connect

	Clock         clockwork.Clock // nil => real clock
	Logger        Logger          // nil => NopLogger
	Hooks         Hooks           // nil => NopHooks
	Mirror        Mirror[V]       // nil => no mirror
	MirrorTimeout time.Duration   // per Publish/Invalidate call; 0 => 5s
}

func New[V any](fetch FetchFunc[V], opts Options[V]) (Cron[V], error) {
	return newCron[V](fetch, opts)
}

// Every returns a combinator building a Cron that refreshes at the given
// interval: Every[T](time.Minute)(fetch).
func Every[V any](interval time.Duration, opts ...func(*Options[V])) func(FetchFunc[V]) (Cron[V], error) {
	return func(fetch FetchFunc[V]) (Cron[V], error) {
		o := Options[V]{Interval: interval}
		for _, opt := range opts {
			opt(&o)
		}
		return New[V](fetch, o)
	}
}

type tickKey struct{}

// TickFromContext returns the tick that triggered the fetch owning ctx.
func TickFromContext(ctx context.Context) (Tick, bool) {
	t, ok := ctx.Value(tickKey{}).(Tick)
	return t, ok
}

func withTick(ctx context.Context, t Tick) context.Context {
	return context.WithValue(ctx, tickKey{}, t)
}
