package memshared

import (
	"fmt"
	"reflect"
)

// List is an order-preserving mutable sequence shared across processes.
// Indexing follows the usual sequence rules, with negative indices counting
// from the end. Out-of-bounds access returns ErrIndexOutOfRange instead of
// panicking.
type List struct {
	s *store
}

// NewList opens the named shared list, creating it with initial as the
// first committed state when the name does not exist yet. When attaching,
// initial is ignored.
func NewList(initial []any, opts Options) (*List, error) {
	if initial == nil {
		initial = []any{}
	}
	s, err := newStore(kindList, opts, initial)
	if err != nil {
		return nil, err
	}
	return &List{s: s}, nil
}

// Name returns the segment name shared across processes.
func (l *List) Name() string { return l.s.name }

// Capacity returns the fixed segment capacity in bytes.
func (l *List) Capacity() int { return l.s.capacity() }

func (l *List) load(payload []byte) ([]any, error) {
	var items []any
	if err := l.s.decode(payload, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// resolveIndex maps i (possibly negative) onto [0, n). insert permits i==n.
func resolveIndex(i, n int, insert bool) (int, error) {
	idx := i
	if idx < 0 {
		idx += n
	}
	limit := n
	if insert {
		limit = n + 1
	}
	if idx < 0 || idx >= limit {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, n)
	}
	return idx, nil
}

// Get returns the element at index i.
func (l *List) Get(i int) (val any, err error) {
	err = l.s.view("get", func(payload []byte) error {
		items, err := l.load(payload)
		if err != nil {
			return err
		}
		idx, err := resolveIndex(i, len(items), false)
		if err != nil {
			return err
		}
		val = items[idx]
		return nil
	})
	return val, err
}

// Set replaces the element at index i.
func (l *List) Set(i int, value any) error {
	return l.s.update("set", func(payload []byte) ([]byte, error) {
		items, err := l.load(payload)
		if err != nil {
			return nil, err
		}
		idx, err := resolveIndex(i, len(items), false)
		if err != nil {
			return nil, err
		}
		items[idx] = value
		return l.s.cdc.Marshal(items)
	})
}

// Append adds value at the end.
func (l *List) Append(value any) error {
	return l.s.update("append", func(payload []byte) ([]byte, error) {
		items, err := l.load(payload)
		if err != nil {
			return nil, err
		}
		return l.s.cdc.Marshal(append(items, value))
	})
}

// Extend appends every element of values in order, under one lock
// acquisition. An empty values commits nothing.
func (l *List) Extend(values []any) error {
	if len(values) == 0 {
		return nil
	}
	return l.s.update("extend", func(payload []byte) ([]byte, error) {
		items, err := l.load(payload)
		if err != nil {
			return nil, err
		}
		return l.s.cdc.Marshal(append(items, values...))
	})
}

// Insert places value before index i; i may equal the current length.
func (l *List) Insert(i int, value any) error {
	return l.s.update("insert", func(payload []byte) ([]byte, error) {
		items, err := l.load(payload)
		if err != nil {
			return nil, err
		}
		idx, err := resolveIndex(i, len(items), true)
		if err != nil {
			return nil, err
		}
		items = append(items, nil)
		copy(items[idx+1:], items[idx:])
		items[idx] = value
		return l.s.cdc.Marshal(items)
	})
}

// Pop removes and returns the element at index i; use -1 for the last.
func (l *List) Pop(i int) (val any, err error) {
	err = l.s.update("pop", func(payload []byte) ([]byte, error) {
		items, err := l.load(payload)
		if err != nil {
			return nil, err
		}
		idx, err := resolveIndex(i, len(items), false)
		if err != nil {
			return nil, err
		}
		val = items[idx]
		items = append(items[:idx], items[idx+1:]...)
		return l.s.cdc.Marshal(items)
	})
	return val, err
}

// Remove deletes the first element equal to value, or reports
// ErrValueNotFound.
func (l *List) Remove(value any) error {
	return l.s.update("remove", func(payload []byte) ([]byte, error) {
		items, err := l.load(payload)
		if err != nil {
			return nil, err
		}
		for idx, item := range items {
			if reflect.DeepEqual(item, value) {
				items = append(items[:idx], items[idx+1:]...)
				return l.s.cdc.Marshal(items)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrValueNotFound, value)
	})
}

// Clear removes every element.
func (l *List) Clear() error {
	return l.s.update("clear", func(payload []byte) ([]byte, error) {
		if _, err := l.load(payload); err != nil {
			return nil, err
		}
		return l.s.cdc.Marshal([]any{})
	})
}

// Contains reports whether any element equals value. Equality is deep, so
// decoded composite values compare by content.
func (l *List) Contains(value any) (found bool, err error) {
	err = l.s.view("contains", func(payload []byte) error {
		items, err := l.load(payload)
		if err != nil {
			return err
		}
		for _, item := range items {
			if reflect.DeepEqual(item, value) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// Len returns the number of elements.
func (l *List) Len() (n int, err error) {
	err = l.s.view("len", func(payload []byte) error {
		items, err := l.load(payload)
		if err != nil {
			return err
		}
		n = len(items)
		return nil
	})
	return n, err
}

// Slice returns a snapshot of [start, end), with negative indices counting
// from the end. The bounds are clamped the way sequence slicing clamps.
func (l *List) Slice(start, end int) ([]any, error) {
	var out []any
	err := l.s.view("slice", func(payload []byte) error {
		items, err := l.load(payload)
		if err != nil {
			return err
		}
		n := len(items)
		s, e := start, end
		if s < 0 {
			s += n
		}
		if e < 0 {
			e += n
		}
		s = min(max(s, 0), n)
		e = min(max(e, 0), n)
		if s > e {
			s = e
		}
		out = append([]any{}, items[s:e]...)
		return nil
	})
	return out, err
}

// Snapshot returns a detached copy of the whole list.
func (l *List) Snapshot() ([]any, error) {
	var out []any
	err := l.s.view("snapshot", func(payload []byte) error {
		items, err := l.load(payload)
		if err != nil {
			return err
		}
		out = append([]any{}, items...)
		return nil
	})
	return out, err
}

// Cleanup destroys the named segment and lock for every process. A second
// cleanup of the same name reports ErrNotFound and never panics.
func (l *List) Cleanup() error { return l.s.cleanup() }
