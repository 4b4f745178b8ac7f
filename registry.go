package memshared

import (
	"errors"
	"fmt"
	"path/filepath"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/memshared/memshared/internal/flock"
	"github.com/memshared/memshared/internal/shm"
)

// registry tracks the segment+lock pair behind every segment opened by this
// process, so repeated constructions of one name share a single pair instead
// of re-attaching, and cleanup can tear the pair down exactly once. Keyed by
// the resolved segment path: the same name under two dirs is two segments.
var registry = cmap.New[*registryEntry]()

type registryEntry struct {
	seg *shm.Segment
	lk  *flock.Lock
}

func registryKey(dir, name string) string {
	return filepath.Join(dir, name)
}

// openPair returns the process-wide entry for the segment at dir/name,
// attaching or creating it as needed. The bool reports whether this call
// created the segment on the host.
func openPair(dir, name string, size int) (*registryEntry, bool, error) {
	key := registryKey(dir, name)
	if e, ok := registry.Get(key); ok {
		return e, false, nil
	}
	seg, created, err := shm.CreateOrAttach(dir, name, size)
	if err != nil {
		if errors.Is(err, shm.ErrNoSpace) {
			return nil, false, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		return nil, false, err
	}
	e := &registryEntry{seg: seg, lk: flock.New(dir, name)}
	if !registry.SetIfAbsent(key, e) {
		// Another goroutine registered first; adopt its pair.
		e, _ = registry.Get(key)
		return e, created, nil
	}
	return e, created, nil
}

// closePair destroys the segment at dir/name, removes its lock file, and
// drops the process-wide entry. A name that is already gone reports
// ErrNotFound; the call never panics, so repeated cleanups from any process
// are safe.
func closePair(dir, name string) error {
	key := registryKey(dir, name)
	e, had := registry.Get(key)
	registry.Remove(key)

	err := shm.Destroy(dir, name)
	if had {
		_ = e.lk.Remove()
	} else {
		_ = flock.New(dir, name).Remove()
	}
	if errors.Is(err, shm.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return err
}
