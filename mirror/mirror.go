// Package mirror publishes the snapshots a Cron applies to a provider byte
// store, so readers without the Cron handle (other goroutines holding only a
// Reader, other processes sharing a Redis) can see the latest value.
//
// The mirror is write-through only: a Cron never reads it back, and a new
// connection always starts empty.
//
// Key:
//
//	latest:<ns>  - framed snapshot (see internal/wire)
//
// Every entry carries the generation of its key at write time. Invalidate
// (run by the Cron on disconnect) bumps the generation and deletes the entry;
// readers ignore any entry whose generation is not current.
package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/datacron"
	c "github.com/unkn0wn-root/datacron/codec"
	gen "github.com/unkn0wn-root/datacron/genstore"
	"github.com/unkn0wn-root/datacron/internal/wire"
	pr "github.com/unkn0wn-root/datacron/provider"
)

const (
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type SetCostFunc func(key string, raw []byte) int64

// Options configure a Mirror or Reader. Namespace, Provider and Codec are
// required.
type Options[V any] struct {
	Namespace string // e.g. "rates", "feature-flags"
	Provider  pr.Provider
	Codec     c.Codec[V]

	GenStore       gen.GenStore    // nil => LocalGenStore (in-process)
	TTL            time.Duration   // entry TTL; 0 => no expiry
	ComputeSetCost SetCostFunc     // nil => cost 0, the provider decides
	Logger         datacron.Logger // if nil, NopLogger is used
}

// Mirror implements datacron.Mirror over a Provider.
type Mirror[V any] struct {
	key      string
	provider pr.Provider
	codec    c.Codec[V]
	gen      gen.GenStore
	ownsGen  bool
	ttl      time.Duration
	cost     SetCostFunc
	log      datacron.Logger

	mu          sync.Mutex
	lastVersion uint64 // highest Version written since the last Invalidate
}

var _ datacron.Mirror[struct{}] = (*Mirror[struct{}])(nil)

func New[V any](opts Options[V]) (*Mirror[V], error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	m := &Mirror[V]{
		key:      storageKey(opts.Namespace),
		provider: opts.Provider,
		codec:    opts.Codec,
		gen:      opts.GenStore,
		ttl:      opts.TTL,
		cost:     opts.ComputeSetCost,
		log:      opts.Logger,
	}
	if m.log == nil {
		m.log = datacron.NopLogger{}
	}
	if m.cost == nil {
		m.cost = func(string, []byte) int64 { return 0 }
	}
	if m.gen == nil {
		m.gen = gen.NewLocalGenStore(defaultSweep, defaultGenRetention)
		m.ownsGen = true
	}
	return m, nil
}

func validate[V any](opts Options[V]) error {
	if opts.Provider == nil {
		return fmt.Errorf("mirror: provider is required")
	}
	if opts.Codec == nil {
		return fmt.Errorf("mirror: codec is required")
	}
	if opts.Namespace == "" {
		return fmt.Errorf("mirror: namespace is required")
	}
	return nil
}

func storageKey(ns string) string { return "latest:" + ns }

// Key returns the provider key the mirror writes.
func (m *Mirror[V]) Key() string { return m.key }

// Publish writes s unless a snapshot with the same or a higher Version was
// already written since the last Invalidate.
func (m *Mirror[V]) Publish(ctx context.Context, s datacron.Snapshot[V]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Version <= m.lastVersion {
		m.log.Debug("mirror publish skipped (older version)", datacron.Fields{"version": s.Version, "last": m.lastVersion})
		return nil
	}
	g, err := m.gen.Snapshot(ctx, m.key)
	if err != nil {
		return fmt.Errorf("mirror: gen snapshot: %w", err)
	}
	payload, err := m.codec.Encode(s.Value)
	if err != nil {
		return fmt.Errorf("mirror: encode: %w", err)
	}
	raw := wire.EncodeSnapshot(wire.Header{
		Gen:         g,
		Tick:        uint64(s.Tick),
		Version:     s.Version,
		CompletedAt: s.CompletedAt.UnixNano(),
	}, payload)

	ok, err := m.provider.Set(ctx, m.key, raw, m.cost(m.key, raw), m.ttl)
	if err != nil {
		return err
	}
	if !ok {
		m.log.Warn("mirror publish rejected by provider (pressure)", datacron.Fields{"key": m.key, "version": s.Version})
		return nil
	}
	m.lastVersion = s.Version
	return nil
}

// Invalidate orphans the current entry: bumps the generation, then deletes
// the entry. Both steps are attempted even if the first fails.
func (m *Mirror[V]) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastVersion = 0
	newGen, bumpErr := m.gen.Bump(ctx, m.key)
	delErr := m.provider.Del(ctx, m.key)
	if bumpErr != nil || delErr != nil {
		return &datacron.InvalidateError{Key: m.key, BumpErr: bumpErr, DelErr: delErr}
	}
	m.log.Debug("mirror invalidated (bumped gen + cleared entry)", datacron.Fields{"key": m.key, "newGen": newGen})
	return nil
}

// Reader returns a Reader sharing this mirror's provider, codec and
// generations.
func (m *Mirror[V]) Reader() *Reader[V] {
	return &Reader[V]{key: m.key, provider: m.provider, codec: m.codec, gen: m.gen}
}

func (m *Mirror[V]) Close(ctx context.Context) error {
	// Close gen store first (best effort)
	if m.ownsGen {
		_ = m.gen.Close(ctx)
	}
	return m.provider.Close(ctx)
}
