package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version      byte = 1
	kindSnapshot byte = 1

	headerLen = 4 + 1 + 1 + 8 + 8 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("datacron: corrupt mirror entry")
	magic4     = [...]byte{'D', 'C', 'R', 'N'}
)

// Header is the metadata framed in front of a mirrored payload.
type Header struct {
	Gen         uint64 // generation of the mirror key when written
	Tick        uint64
	Version     uint64
	CompletedAt int64 // unix nanoseconds
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Snapshot:
//
//	magic(4) | ver(1) | kind(1=snapshot) | gen(u64 be) | tick(u64 be) |
//	version(u64 be) | completedAt(i64 be) | vlen(u32 be) | payload(vlen)
func EncodeSnapshot(h Header, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindSnapshot)

	var u8 [8]byte
	var u4 [4]byte

	for _, v := range [...]uint64{h.Gen, h.Tick, h.Version, uint64(h.CompletedAt)} {
		binary.BigEndian.PutUint64(u8[:], v)
		buf.Write(u8[:])
	}

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeSnapshot validates the frame and returns its header and payload.
// The payload aliases b.
func DecodeSnapshot(b []byte) (Header, []byte, error) {
	var h Header
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindSnapshot {
		return h, nil, ErrCorrupt
	}

	off := 6
	next := func() uint64 {
		v := binary.BigEndian.Uint64(b[off : off+8])
		off += 8
		return v
	}
	h.Gen = next()
	h.Tick = next()
	h.Version = next()
	h.CompletedAt = int64(next())

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact: no truncation, no trailing bytes
		return Header{}, nil, ErrCorrupt
	}

	return h, b[off : off+vlen], nil
}
