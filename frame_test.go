package memshared

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memshared/memshared/codec"
)

func TestFrameRoundTrip(t *testing.T) {
	data := make([]byte, 128)
	payload := []byte("payload bytes")

	require.NoError(t, encodeFrame(data, kindDict, codec.Msgpack, payload))

	got, err := decodeFrame(data, kindDict, codec.Msgpack)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestFrameCapacity(t *testing.T) {
	data := make([]byte, 16)

	// 8 bytes of payload exactly fill a 16-byte segment.
	require.NoError(t, encodeFrame(data, kindList, codec.Msgpack, make([]byte, 8)))

	err := encodeFrame(data, kindList, codec.Msgpack, make([]byte, 9))
	var ce *CapacityError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, 17, ce.Attempted)
	require.Equal(t, 16, ce.Capacity)

	// The rejected write must not have disturbed the stored frame.
	got, err := decodeFrame(data, kindList, codec.Msgpack)
	require.NoError(t, err)
	require.Len(t, got, 8)
}

func TestFrameUninitialized(t *testing.T) {
	data := make([]byte, 64)
	_, err := decodeFrame(data, kindDict, codec.Msgpack)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.ErrorIs(t, err, ErrUninitialized)
}

func TestFrameKindMismatch(t *testing.T) {
	data := make([]byte, 64)
	require.NoError(t, encodeFrame(data, kindDict, codec.Msgpack, []byte("x")))

	_, err := decodeFrame(data, kindSet, codec.Msgpack)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.NotErrorIs(t, err, ErrUninitialized)
	require.Contains(t, de.Reason, "stored as dict")
}

func TestFrameProtocolMismatch(t *testing.T) {
	data := make([]byte, 64)
	require.NoError(t, encodeFrame(data, kindDict, codec.Msgpack, []byte("x")))

	_, err := decodeFrame(data, kindDict, codec.JSON)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestFrameCorruption(t *testing.T) {
	data := make([]byte, 64)
	require.NoError(t, encodeFrame(data, kindDict, codec.Msgpack, []byte("x")))

	t.Run("bad magic", func(t *testing.T) {
		clone := append([]byte{}, data...)
		clone[0] = 0xAA
		_, err := decodeFrame(clone, kindDict, codec.Msgpack)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		require.NotErrorIs(t, err, ErrUninitialized)
	})

	t.Run("length beyond capacity", func(t *testing.T) {
		clone := append([]byte{}, data...)
		clone[4] = 0xFF // length now claims 255 bytes in a 64-byte segment
		_, err := decodeFrame(clone, kindDict, codec.Msgpack)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
	})

	t.Run("segment smaller than header", func(t *testing.T) {
		_, err := decodeFrame(make([]byte, 4), kindDict, codec.Msgpack)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
	})
}
