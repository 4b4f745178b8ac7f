package memshared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memshared/memshared/codec"
)

func newTestList(t *testing.T, initial []any) *List {
	t.Helper()
	l, err := NewList(initial, Options{
		Name: "list-" + t.Name(),
		Size: 8 * 1024,
		Dir:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Cleanup() })
	return l
}

func TestListIndexing(t *testing.T) {
	l := newTestList(t, []any{"a", "b", "c"})

	v, err := l.Get(0)
	require.NoError(t, err)
	require.Equal(t, "a", v)

	v, err = l.Get(-1)
	require.NoError(t, err)
	require.Equal(t, "c", v)

	_, err = l.Get(3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = l.Get(-4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	require.NoError(t, l.Set(1, "B"))
	v, err = l.Get(1)
	require.NoError(t, err)
	require.Equal(t, "B", v)

	require.ErrorIs(t, l.Set(10, "x"), ErrIndexOutOfRange)
}

func TestListAppendPop(t *testing.T) {
	l := newTestList(t, nil)

	require.NoError(t, l.Append("x"))
	require.NoError(t, l.Append("y"))
	require.NoError(t, l.Extend([]any{"z", "w"}))

	n, err := l.Len()
	require.NoError(t, err)
	require.Equal(t, 4, n)

	v, err := l.Pop(-1)
	require.NoError(t, err)
	require.Equal(t, "w", v)

	v, err = l.Pop(0)
	require.NoError(t, err)
	require.Equal(t, "x", v)

	snap, err := l.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []any{"y", "z"}, snap)

	_, err = l.Pop(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestListInsertRemove(t *testing.T) {
	l := newTestList(t, []any{"a", "c"})

	require.NoError(t, l.Insert(1, "b"))
	require.NoError(t, l.Insert(3, "d")) // insert at the tail is allowed

	snap, err := l.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b", "c", "d"}, snap)

	require.NoError(t, l.Remove("b"))
	require.ErrorIs(t, l.Remove("missing"), ErrValueNotFound)

	found, err := l.Contains("c")
	require.NoError(t, err)
	require.True(t, found)
	found, err = l.Contains("b")
	require.NoError(t, err)
	require.False(t, found)
}

func TestListSlice(t *testing.T) {
	l := newTestList(t, []any{"0", "1", "2", "3", "4"})

	out, err := l.Slice(1, 3)
	require.NoError(t, err)
	require.Equal(t, []any{"1", "2"}, out)

	out, err = l.Slice(-2, 5)
	require.NoError(t, err)
	require.Equal(t, []any{"3", "4"}, out)

	out, err = l.Slice(3, 1)
	require.NoError(t, err)
	require.Empty(t, out)

	out, err = l.Slice(0, 99)
	require.NoError(t, err)
	require.Len(t, out, 5)
}

func TestListCapacityEnforcement(t *testing.T) {
	l, err := NewList(nil, Options{
		Name: "list-tiny-" + t.Name(),
		Size: 64,
		Dir:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Cleanup() })

	// Append until the encoded frame would exceed 64 bytes. The failing
	// call must report both sizes and leave prior contents intact.
	element := strings.Repeat("x", 10)
	appended := 0
	var ce *CapacityError
	for i := 0; i < 100; i++ {
		err := l.Append(element)
		if err == nil {
			appended++
			continue
		}
		require.ErrorAs(t, err, &ce)
		break
	}
	require.NotNil(t, ce, "append loop never hit the capacity bound")
	require.Equal(t, 64, ce.Capacity)
	require.Greater(t, ce.Attempted, 64)

	snap, err := l.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap, appended)
	for _, v := range snap {
		require.Equal(t, element, v)
	}
}

func TestListJSONProtocol(t *testing.T) {
	l, err := NewList([]any{"a"}, Options{
		Name:     "list-json-" + t.Name(),
		Size:     4 * 1024,
		Dir:      t.TempDir(),
		Protocol: codec.JSON,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Cleanup() })

	require.NoError(t, l.Append("b"))
	snap, err := l.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, snap)
}
