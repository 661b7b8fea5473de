package codec

import "fmt"

// LimitCodec wraps another codec to enforce a maximum payload size in both
// directions. If a limit is <= 0, that direction is unchecked.
//
// Typical use: keep a runaway upstream response from being published to a
// shared store, and protect readers from oversized mirrored entries.
type LimitCodec[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec[V]
	// MaxEncode caps the encoded size Encode may return.
	MaxEncode int
	// MaxDecode caps the payload size Decode accepts; larger payloads are
	// rejected without invoking Inner.
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, fmt.Errorf("encoded payload too large: %d > %d", len(b), c.MaxEncode)
	}
	return b, nil
}

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
