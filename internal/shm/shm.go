// Package shm manages named fixed-capacity shared memory segments backed by
// files on the host's shared-memory filesystem. A segment is created once,
// attached to by any number of peers, and reclaimed when the last mapping is
// gone after an explicit Destroy.
//
// Platform-specific directory selection is in path_linux.go / path_darwin.go.
package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"
)

var (
	// ErrNotFound is returned when attaching to or destroying a segment
	// name that does not exist.
	ErrNotFound = errors.New("shm: segment not found")

	// ErrNoSpace is returned when the shared-memory filesystem cannot hold
	// a new segment of the requested capacity.
	ErrNoSpace = errors.New("shm: not enough space left on shared memory filesystem")
)

// Segment is a handle to a named shared memory region. The handle itself
// holds no mapping; use Map for a scoped view.
type Segment struct {
	name     string
	path     string
	capacity int
}

// Name returns the global name of the segment.
func (s *Segment) Name() string { return s.name }

// Capacity returns the fixed byte capacity chosen at first creation.
func (s *Segment) Capacity() int { return s.capacity }

// Path returns the backing file path on the shared-memory filesystem.
func (s *Segment) Path() string { return s.path }

func segmentPath(dir, name string) string {
	return filepath.Join(dir, name)
}

// Attach opens an existing segment. The stored file size is the segment's
// capacity. Returns ErrNotFound when no segment of that name exists.
func Attach(dir, name string) (*Segment, error) {
	path := segmentPath(dir, name)
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}
	return &Segment{name: name, path: path, capacity: int(fi.Size())}, nil
}

// tmpSeq disambiguates scratch files when one process races itself through
// Create on a single name.
var tmpSeq uint64

// Create allocates a zero-initialized segment of exactly capacity bytes.
// The segment is sized under a scratch name and published with link(2), so
// a racing attacher either misses the name or sees the full capacity, never
// a zero-length file. Fails with unix.EEXIST when the name is already taken.
func Create(dir, name string, capacity int) (*Segment, error) {
	if err := checkHeadroom(dir, capacity); err != nil {
		return nil, err
	}
	path := segmentPath(dir, name)
	tmp := fmt.Sprintf("%s.tmp.%d.%d", path, os.Getpid(), atomic.AddUint64(&tmpSeq, 1))
	fd, err := unix.Open(tmp, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", tmp, err)
	}
	if err := unix.Ftruncate(fd, int64(capacity)); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(tmp)
		return nil, fmt.Errorf("shm: truncate %s: %w", tmp, err)
	}
	if err := unix.Close(fd); err != nil {
		_ = unix.Unlink(tmp)
		return nil, fmt.Errorf("shm: close %s: %w", tmp, err)
	}
	if err := unix.Link(tmp, path); err != nil {
		_ = unix.Unlink(tmp)
		return nil, fmt.Errorf("shm: create %s: %w", path, err)
	}
	_ = unix.Unlink(tmp)
	return &Segment{name: name, path: path, capacity: capacity}, nil
}

// CreateOrAttach attaches to an existing segment or creates it when absent.
// The requested capacity is honored only by the creator; attachers inherit
// whatever size the creator chose. The returned bool reports whether this
// call created the segment. Two racing creators resolve to one creator and
// one attacher.
func CreateOrAttach(dir, name string, capacity int) (*Segment, bool, error) {
	for {
		seg, err := Attach(dir, name)
		if err == nil {
			return seg, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		seg, err = Create(dir, name, capacity)
		if err == nil {
			return seg, true, nil
		}
		if errors.Is(err, unix.EEXIST) {
			// Lost the creation race; attach on the next pass.
			continue
		}
		return nil, false, err
	}
}

// Map opens a scoped mutable view over the segment and passes it to fn.
// The mapping is released on every exit path, including when fn fails.
func (s *Segment) Map(fn func(data []byte) error) (err error) {
	fd, err := unix.Open(s.path, unix.O_RDWR, 0o600)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("%w: %q", ErrNotFound, s.name)
		}
		return fmt.Errorf("shm: open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := unix.Close(fd); cerr != nil && err == nil {
			err = fmt.Errorf("shm: close %s: %w", s.path, cerr)
		}
	}()

	data, err := unix.Mmap(fd, 0, s.capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("shm: mmap %s: %w", s.path, err)
	}
	defer func() {
		if merr := unix.Munmap(data); merr != nil && err == nil {
			err = fmt.Errorf("shm: munmap %s: %w", s.path, merr)
		}
	}()

	return fn(data)
}

// Destroy unlinks the segment name. Peers holding open mappings keep working
// until they unmap; the kernel reclaims the memory with the last reference.
// Returns ErrNotFound when no segment of that name exists.
func Destroy(dir, name string) error {
	path := segmentPath(dir, name)
	if err := unix.Unlink(path); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return fmt.Errorf("shm: unlink %s: %w", path, err)
	}
	return nil
}

// checkHeadroom refuses creation when the shared-memory filesystem does not
// have room for the segment. Usage stats are advisory; errors reading them
// do not block creation.
func checkHeadroom(dir string, capacity int) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		return nil
	}
	if usage.Free < uint64(capacity) {
		return fmt.Errorf("%w: need %d bytes, %d free in %s", ErrNoSpace, capacity, usage.Free, dir)
	}
	return nil
}
