// Package codec turns snapshot values into the bytes a mirror stores.
//
// A mirrored entry may be read by a process running a different build, so
// codecs that tolerate unknown fields (JSON, CBOR, Msgpack, Protobuf) are the
// usual choice. Wrap any codec in LimitCodec to bound payload sizes.
package codec

// Codec encodes V for storage and decodes it back. Implementations must be
// safe for concurrent use.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
