package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/datacron"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	TickEvery      uint64
	CompletedEvery uint64
	// Completions slower than this are logged at Warn; 0 disables.
	SlowFetch time.Duration
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	tickCtr      atomic.Uint64
	completedCtr atomic.Uint64
}

var _ datacron.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) TickFired(tick datacron.Tick) {
	if h.l == nil || !sample(h.opts.TickEvery, &h.tickCtr) {
		return
	}
	h.l.Debug("datacron.tick_fired",
		"tick", uint64(tick))
}

func (h *Hooks) FetchCompleted(tick datacron.Tick, version uint64, elapsed time.Duration) {
	if h.l == nil {
		return
	}
	if h.opts.SlowFetch > 0 && elapsed >= h.opts.SlowFetch {
		h.l.Warn("datacron.fetch_slow",
			"tick", uint64(tick),
			"version", version,
			"elapsed", elapsed)
		return
	}
	if !sample(h.opts.CompletedEvery, &h.completedCtr) {
		return
	}
	h.l.Debug("datacron.fetch_completed",
		"tick", uint64(tick),
		"version", version,
		"elapsed", elapsed)
}

func (h *Hooks) OutOfOrderCompletion(applied, replaced datacron.Tick) {
	if h.l == nil {
		return
	}
	h.l.Info("datacron.out_of_order_completion",
		"applied", uint64(applied),
		"replaced", uint64(replaced))
}

func (h *Hooks) FetchFailed(tick datacron.Tick, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("datacron.fetch_failed",
		"tick", uint64(tick),
		"err", err)
}

func (h *Hooks) FetchDiscarded(tick datacron.Tick, err error) {
	if h.l == nil {
		return
	}
	h.l.Debug("datacron.fetch_discarded",
		"tick", uint64(tick),
		"err", err)
}

func (h *Hooks) MirrorError(op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("datacron.mirror_error",
		"op", op,
		"err", err)
}
