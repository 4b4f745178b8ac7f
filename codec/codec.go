// Package codec turns logical collection values into bytes and back under a
// versioned protocol. The engine treats payloads as opaque: a codec may carry
// arbitrary, even behavior-bearing, byte blobs and nothing here inspects them.
//
// Every process sharing a segment must use the same protocol; the protocol
// number is stamped into each stored frame so a mismatch is detected at
// decode time instead of silently misreading bytes.
package codec

import "fmt"

// Protocol identifies a serialization format. The numeric value is stored in
// the frame header of every committed collection state.
type Protocol uint8

const (
	// Msgpack is the default protocol: compact, preserves distinct
	// integer/float/binary types across a round trip.
	Msgpack Protocol = 1

	// JSON serializes via sonic. Human-inspectable; numbers decode as
	// float64 and binary values as base64 strings.
	JSON Protocol = 2
)

// Codec serializes logical collection values.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Protocol() Protocol
}

// ForProtocol returns the codec implementing the given protocol.
func ForProtocol(p Protocol) (Codec, error) {
	switch p {
	case Msgpack:
		return msgpackCodec{}, nil
	case JSON:
		return jsonCodec{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown protocol %d", p)
	}
}
