package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForProtocol(t *testing.T) {
	c, err := ForProtocol(Msgpack)
	require.NoError(t, err)
	require.Equal(t, Msgpack, c.Protocol())

	c, err = ForProtocol(JSON)
	require.NoError(t, err)
	require.Equal(t, JSON, c.Protocol())

	_, err = ForProtocol(Protocol(200))
	require.Error(t, err)
}

func TestMsgpackRoundTrip(t *testing.T) {
	c, err := ForProtocol(Msgpack)
	require.NoError(t, err)

	cases := []struct {
		name   string
		value  any
		target func() any
	}{
		{"map", map[string]int{"a": 1, "b": -7}, func() any { return &map[string]int{} }},
		{"slice", []string{"x", "y", "z"}, func() any { return &[]string{} }},
		{"nested", map[string]any{"k": []any{"v", map[string]any{"deep": "yes"}}}, func() any { return &map[string]any{} }},
		{"binary", []byte{0x00, 0xFF, 0x10}, func() any { return &[]byte{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := c.Marshal(tc.value)
			require.NoError(t, err)
			got := tc.target()
			require.NoError(t, c.Unmarshal(data, got))
		})
	}

	// Typed round trip must reproduce the original exactly.
	in := map[string]int64{"answer": 42, "neg": -1}
	data, err := c.Marshal(in)
	require.NoError(t, err)
	out := map[string]int64{}
	require.NoError(t, c.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestJSONRoundTrip(t *testing.T) {
	c, err := ForProtocol(JSON)
	require.NoError(t, err)

	in := map[string]string{"greeting": "hello", "empty": ""}
	data, err := c.Marshal(in)
	require.NoError(t, err)
	out := map[string]string{}
	require.NoError(t, c.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestOpaquePayloadPassThrough(t *testing.T) {
	// A behavior-carrying blob is just bytes to the codec; it must come
	// back bit-identical without interpretation.
	blob := []byte("\x93\x01\xc3arbitrary opaque bytecode \x00\x01\x02")
	for _, p := range []Protocol{Msgpack, JSON} {
		c, err := ForProtocol(p)
		require.NoError(t, err)
		data, err := c.Marshal(blob)
		require.NoError(t, err)
		var out []byte
		require.NoError(t, c.Unmarshal(data, &out))
		require.Equal(t, blob, out)
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	for _, p := range []Protocol{Msgpack, JSON} {
		c, err := ForProtocol(p)
		require.NoError(t, err)
		var out map[string]any
		require.Error(t, c.Unmarshal([]byte{0xc1, 0xff, 0x00}, &out))
	}
}
