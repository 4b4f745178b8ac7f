package memshared

import "fmt"

// Dict is a string-keyed mutable mapping shared across processes through a
// named memory segment. Every call decodes the committed frame fresh under
// the segment's exclusive lock, so concurrent writers in other processes are
// always observed.
//
// Values round-trip through the configured codec: under msgpack, numbers
// come back as the codec's integer/float types, not the Go types that went
// in. Compare accordingly.
type Dict struct {
	s *store
}

// NewDict opens the named shared dict. If the name does not exist yet, the
// segment is created and initial becomes the first committed state; if it
// does, initial is ignored: attaching never resets shared state. A nil
// initial creates an empty dict.
func NewDict(initial map[string]any, opts Options) (*Dict, error) {
	if initial == nil {
		initial = map[string]any{}
	}
	s, err := newStore(kindDict, opts, initial)
	if err != nil {
		return nil, err
	}
	return &Dict{s: s}, nil
}

// Name returns the segment name shared across processes.
func (d *Dict) Name() string { return d.s.name }

// Capacity returns the fixed segment capacity in bytes.
func (d *Dict) Capacity() int { return d.s.capacity() }

func (d *Dict) load(payload []byte) (map[string]any, error) {
	var m map[string]any
	if err := d.s.decode(payload, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// Get returns the value stored under key and whether it was present.
func (d *Dict) Get(key string) (val any, ok bool, err error) {
	err = d.s.view("get", func(payload []byte) error {
		m, err := d.load(payload)
		if err != nil {
			return err
		}
		val, ok = m[key]
		return nil
	})
	return val, ok, err
}

// Set stores value under key, replacing any previous value.
func (d *Dict) Set(key string, value any) error {
	return d.s.update("set", func(payload []byte) ([]byte, error) {
		m, err := d.load(payload)
		if err != nil {
			return nil, err
		}
		m[key] = value
		return d.s.cdc.Marshal(m)
	})
}

// SetDefault stores value under key only when the key is absent, and returns
// the value that ended up stored.
func (d *Dict) SetDefault(key string, value any) (stored any, err error) {
	err = d.s.update("setdefault", func(payload []byte) ([]byte, error) {
		m, err := d.load(payload)
		if err != nil {
			return nil, err
		}
		if existing, ok := m[key]; ok {
			stored = existing
			return nil, nil
		}
		m[key] = value
		stored = value
		return d.s.cdc.Marshal(m)
	})
	return stored, err
}

// Pop removes key and returns its value. ok reports whether the key was
// present; popping an absent key commits nothing.
func (d *Dict) Pop(key string) (val any, ok bool, err error) {
	err = d.s.update("pop", func(payload []byte) ([]byte, error) {
		m, err := d.load(payload)
		if err != nil {
			return nil, err
		}
		val, ok = m[key]
		if !ok {
			return nil, nil
		}
		delete(m, key)
		return d.s.cdc.Marshal(m)
	})
	return val, ok, err
}

// PopItem removes and returns an arbitrary entry. Popping an empty dict
// reports ErrKeyNotFound.
func (d *Dict) PopItem() (key string, val any, err error) {
	err = d.s.update("popitem", func(payload []byte) ([]byte, error) {
		m, err := d.load(payload)
		if err != nil {
			return nil, err
		}
		if len(m) == 0 {
			return nil, fmt.Errorf("%w: dict is empty", ErrKeyNotFound)
		}
		for k, v := range m {
			key, val = k, v
			break
		}
		delete(m, key)
		return d.s.cdc.Marshal(m)
	})
	return key, val, err
}

// Update merges every entry of other into the dict, overwriting existing
// keys. An empty other commits nothing.
func (d *Dict) Update(other map[string]any) error {
	if len(other) == 0 {
		return nil
	}
	return d.s.update("update", func(payload []byte) ([]byte, error) {
		m, err := d.load(payload)
		if err != nil {
			return nil, err
		}
		for k, v := range other {
			m[k] = v
		}
		return d.s.cdc.Marshal(m)
	})
}

// Clear removes every entry.
func (d *Dict) Clear() error {
	return d.s.update("clear", func(payload []byte) ([]byte, error) {
		if _, err := d.load(payload); err != nil {
			return nil, err
		}
		return d.s.cdc.Marshal(map[string]any{})
	})
}

// Contains reports whether key is present.
func (d *Dict) Contains(key string) (bool, error) {
	_, ok, err := d.Get(key)
	return ok, err
}

// Len returns the number of entries.
func (d *Dict) Len() (n int, err error) {
	err = d.s.view("len", func(payload []byte) error {
		m, err := d.load(payload)
		if err != nil {
			return err
		}
		n = len(m)
		return nil
	})
	return n, err
}

// Keys returns a snapshot of the keys. Order is unspecified.
func (d *Dict) Keys() ([]string, error) {
	var keys []string
	err := d.s.view("keys", func(payload []byte) error {
		m, err := d.load(payload)
		if err != nil {
			return err
		}
		keys = make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		return nil
	})
	return keys, err
}

// Values returns a snapshot of the values. Order is unspecified.
func (d *Dict) Values() ([]any, error) {
	var vals []any
	err := d.s.view("values", func(payload []byte) error {
		m, err := d.load(payload)
		if err != nil {
			return err
		}
		vals = make([]any, 0, len(m))
		for _, v := range m {
			vals = append(vals, v)
		}
		return nil
	})
	return vals, err
}

// Items returns a snapshot copy of the whole dict, detached from shared
// memory.
func (d *Dict) Items() (map[string]any, error) {
	var snap map[string]any
	err := d.s.view("items", func(payload []byte) error {
		m, err := d.load(payload)
		if err != nil {
			return err
		}
		snap = m
		return nil
	})
	return snap, err
}

// Cleanup destroys the named segment and lock for every process. A second
// cleanup of the same name reports ErrNotFound and never panics.
func (d *Dict) Cleanup() error { return d.s.cleanup() }
