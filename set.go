package memshared

import (
	"fmt"

	wset "github.com/Workiva/go-datastructures/set"
)

// Set is an unordered collection of unique values shared across processes.
// Elements must stay comparable after a codec round trip: strings, numbers,
// and booleans are safe, composite values are not.
type Set struct {
	s *store
}

// NewSet opens the named shared set, creating it with the unique elements
// of initial when the name does not exist yet. When attaching, initial is
// ignored.
func NewSet(initial []any, opts Options) (*Set, error) {
	members := wset.New(initial...)
	s, err := newStore(kindSet, opts, members.Flatten())
	if err != nil {
		return nil, err
	}
	return &Set{s: s}, nil
}

// Name returns the segment name shared across processes.
func (st *Set) Name() string { return st.s.name }

// Capacity returns the fixed segment capacity in bytes.
func (st *Set) Capacity() int { return st.s.capacity() }

// Sets are framed as a flat element list; membership semantics live in the
// in-memory set rebuilt on every call.
func (st *Set) load(payload []byte) (*wset.Set, error) {
	var items []any
	if err := st.s.decode(payload, &items); err != nil {
		return nil, err
	}
	return wset.New(items...), nil
}

// Add inserts value and reports whether it was newly added.
func (st *Set) Add(value any) (added bool, err error) {
	err = st.s.update("add", func(payload []byte) ([]byte, error) {
		members, err := st.load(payload)
		if err != nil {
			return nil, err
		}
		if members.Exists(value) {
			return nil, nil
		}
		members.Add(value)
		added = true
		return st.s.cdc.Marshal(members.Flatten())
	})
	return added, err
}

// Remove deletes value, reporting ErrValueNotFound when absent.
func (st *Set) Remove(value any) error {
	return st.s.update("remove", func(payload []byte) ([]byte, error) {
		members, err := st.load(payload)
		if err != nil {
			return nil, err
		}
		if !members.Exists(value) {
			return nil, fmt.Errorf("%w: %v", ErrValueNotFound, value)
		}
		members.Remove(value)
		return st.s.cdc.Marshal(members.Flatten())
	})
}

// Discard deletes value if present; removing an absent value is not an
// error and commits nothing.
func (st *Set) Discard(value any) error {
	return st.s.update("discard", func(payload []byte) ([]byte, error) {
		members, err := st.load(payload)
		if err != nil {
			return nil, err
		}
		if !members.Exists(value) {
			return nil, nil
		}
		members.Remove(value)
		return st.s.cdc.Marshal(members.Flatten())
	})
}

// Clear removes every element.
func (st *Set) Clear() error {
	return st.s.update("clear", func(payload []byte) ([]byte, error) {
		if _, err := st.load(payload); err != nil {
			return nil, err
		}
		return st.s.cdc.Marshal([]any{})
	})
}

// Contains reports whether value is a member.
func (st *Set) Contains(value any) (found bool, err error) {
	err = st.s.view("contains", func(payload []byte) error {
		members, err := st.load(payload)
		if err != nil {
			return err
		}
		found = members.Exists(value)
		return nil
	})
	return found, err
}

// Len returns the number of elements.
func (st *Set) Len() (n int, err error) {
	err = st.s.view("len", func(payload []byte) error {
		members, err := st.load(payload)
		if err != nil {
			return err
		}
		n = int(members.Len())
		return nil
	})
	return n, err
}

// Snapshot returns the elements as a detached slice in unspecified order.
func (st *Set) Snapshot() ([]any, error) {
	var out []any
	err := st.s.view("snapshot", func(payload []byte) error {
		members, err := st.load(payload)
		if err != nil {
			return err
		}
		out = members.Flatten()
		return nil
	})
	return out, err
}

// Union returns the members of the set combined with others, computed on a
// locally decoded snapshot without touching shared state.
func (st *Set) Union(others ...any) ([]any, error) {
	snap, err := st.Snapshot()
	if err != nil {
		return nil, err
	}
	members := wset.New(snap...)
	members.Add(others...)
	return members.Flatten(), nil
}

// Intersection returns the members present both in the set and in others,
// computed on a locally decoded snapshot.
func (st *Set) Intersection(others ...any) ([]any, error) {
	snap, err := st.Snapshot()
	if err != nil {
		return nil, err
	}
	members := wset.New(snap...)
	var out []any
	seen := wset.New()
	for _, v := range others {
		if members.Exists(v) && !seen.Exists(v) {
			seen.Add(v)
			out = append(out, v)
		}
	}
	return out, nil
}

// Difference returns the members of the set that do not appear in others,
// computed on a locally decoded snapshot.
func (st *Set) Difference(others ...any) ([]any, error) {
	snap, err := st.Snapshot()
	if err != nil {
		return nil, err
	}
	members := wset.New(snap...)
	members.Remove(others...)
	return members.Flatten(), nil
}

// Cleanup destroys the named segment and lock for every process. A second
// cleanup of the same name reports ErrNotFound and never panics.
func (st *Set) Cleanup() error { return st.s.cleanup() }
