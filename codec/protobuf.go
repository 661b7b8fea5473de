package codec

import "google.golang.org/protobuf/proto"

// Protobuf is a Codec for generated protobuf messages. Construct with
// NewProtobuf so Decode can allocate the concrete message.
type Protobuf[T proto.Message] struct {
	new  func() T // constructor for a concrete message (e.g., func() *mypb.Quote { return &mypb.Quote{} })
	opts proto.MarshalOptions
}

// NewProtobuf returns a codec using deterministic marshaling, so republishing
// an unchanged value writes identical bytes.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor, opts: proto.MarshalOptions{Deterministic: true}}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return c.opts.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
