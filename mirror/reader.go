package mirror

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/datacron"
	c "github.com/unkn0wn-root/datacron/codec"
	gen "github.com/unkn0wn-root/datacron/genstore"
	"github.com/unkn0wn-root/datacron/internal/wire"
	pr "github.com/unkn0wn-root/datacron/provider"
)

// Reader reads the snapshot a Mirror published. Entries that are corrupt or
// undecodable are deleted and reported as a miss. Entries from an older
// generation are reported as a miss and left for the next publish to
// overwrite; Invalidate has already deleted them once.
type Reader[V any] struct {
	key      string
	provider pr.Provider
	codec    c.Codec[V]
	gen      gen.GenStore
}

// NewReader builds a Reader for a mirror running elsewhere. opts.GenStore is
// required and must be shared with the publishing Mirror.
func NewReader[V any](opts Options[V]) (*Reader[V], error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	if opts.GenStore == nil {
		return nil, fmt.Errorf("mirror: reader requires the publisher's gen store")
	}
	return &Reader[V]{
		key:      storageKey(opts.Namespace),
		provider: opts.Provider,
		codec:    opts.Codec,
		gen:      opts.GenStore,
	}, nil
}

// Get returns the mirrored snapshot, ok=false if there is none.
func (r *Reader[V]) Get(ctx context.Context) (datacron.Snapshot[V], bool, error) {
	var zero datacron.Snapshot[V]
	raw, ok, err := r.provider.Get(ctx, r.key)
	if err != nil || !ok {
		return zero, false, err
	}
	h, payload, err := wire.DecodeSnapshot(raw)
	if err != nil {
		r.heal(ctx, raw)
		return zero, false, nil
	}
	g, err := r.gen.Snapshot(ctx, r.key)
	if err != nil {
		return zero, false, err
	}
	if h.Gen != g {
		// not deleted: the key may already hold the next connection's entry
		return zero, false, nil
	}
	v, err := r.codec.Decode(payload)
	if err != nil {
		r.heal(ctx, raw)
		return zero, false, nil
	}
	return datacron.Snapshot[V]{
		Value:       v,
		Tick:        datacron.Tick(h.Tick),
		Version:     h.Version,
		CompletedAt: time.Unix(0, h.CompletedAt),
	}, true, nil
}

// heal deletes the entry if it still holds bad. A publish that replaced it in
// the meantime is kept.
func (r *Reader[V]) heal(ctx context.Context, bad []byte) {
	cur, ok, err := r.provider.Get(ctx, r.key)
	if err != nil || !ok || !bytes.Equal(cur, bad) {
		return
	}
	_ = r.provider.Del(ctx, r.key)
}
