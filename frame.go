package memshared

import (
	"encoding/binary"
	"fmt"

	"github.com/valyala/bytebufferpool"

	"github.com/memshared/memshared/codec"
)

// Frame layout at the start of every segment (little-endian):
//
//	uint16 magic    // "MS"
//	uint8  protocol // codec.Protocol that produced the payload
//	uint8  kind     // logical collection type
//	uint32 length   // payload length in bytes, header excluded
//	[]byte payload  // length bytes, then padding to capacity
//
// length+header must never exceed the segment capacity; the overflow is
// reported before any byte is written.
const frameHeaderSize = 8

const frameMagic = uint16(0x4D53) // "MS"

type kind uint8

const (
	kindDict kind = iota + 1
	kindList
	kindSet
)

func (k kind) String() string {
	switch k {
	case kindDict:
		return "dict"
	case kindList:
		return "list"
	case kindSet:
		return "set"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// encodeFrame writes a complete frame for payload into dst, which spans the
// whole segment. The frame is assembled in a pooled scratch buffer and lands
// in dst in a single copy; on CapacityError dst is untouched.
func encodeFrame(dst []byte, k kind, proto codec.Protocol, payload []byte) error {
	need := frameHeaderSize + len(payload)
	if need > len(dst) {
		return &CapacityError{Attempted: need, Capacity: len(dst)}
	}

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	var hdr [frameHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:2], frameMagic)
	hdr[2] = byte(proto)
	hdr[3] = byte(k)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	_, _ = bb.Write(hdr[:])
	_, _ = bb.Write(payload)

	copy(dst, bb.B)
	return nil
}

// decodeFrame validates the header against the caller's kind and protocol
// and returns the payload bytes. The returned slice aliases data and is only
// valid while the segment view is mapped.
func decodeFrame(data []byte, k kind, proto codec.Protocol) ([]byte, error) {
	if len(data) < frameHeaderSize {
		return nil, &DecodeError{Reason: fmt.Sprintf("segment of %d bytes cannot hold a frame header", len(data))}
	}
	hdr := data[:frameHeaderSize]

	zero := true
	for _, b := range hdr {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		return nil, &DecodeError{Reason: "empty header", Err: ErrUninitialized}
	}

	if magic := binary.LittleEndian.Uint16(hdr[0:2]); magic != frameMagic {
		return nil, &DecodeError{Reason: fmt.Sprintf("bad magic 0x%04x", magic)}
	}
	if stored := codec.Protocol(hdr[2]); stored != proto {
		return nil, &DecodeError{Reason: fmt.Sprintf("stored with protocol %d, accessed with protocol %d", stored, proto)}
	}
	if stored := kind(hdr[3]); stored != k {
		return nil, &DecodeError{Reason: fmt.Sprintf("stored as %s, accessed as %s", stored, k)}
	}

	length := binary.LittleEndian.Uint32(hdr[4:8])
	if int(length) > len(data)-frameHeaderSize {
		return nil, &DecodeError{Reason: fmt.Sprintf("frame length %d exceeds segment capacity %d", length, len(data))}
	}
	return data[frameHeaderSize : frameHeaderSize+int(length)], nil
}
