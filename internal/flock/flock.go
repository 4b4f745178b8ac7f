// Package flock provides a named cross-process mutual exclusion primitive
// built on flock(2) over a lock file that lives next to its shared memory
// segment.
//
// Exclusive only: readers and writers take the same lock. Acquisition polls
// LOCK_NB under bounded exponential backoff so a caller-supplied timeout or
// context cancellation can always interrupt the wait.
//
// Holder-crash policy: the kernel releases an flock when the holding process
// exits, so a crashed holder never deadlocks its peers. No lease or expiry
// layer sits on top.
package flock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/unix"
)

// ErrTimeout is returned when the lock could not be acquired within the
// caller's bound.
var ErrTimeout = errors.New("flock: acquisition timed out")

const (
	initialInterval = 500 * time.Microsecond
	maxInterval     = 20 * time.Millisecond
)

// Lock names a cross-process mutex. The zero value is not usable; construct
// with New.
type Lock struct {
	name string
	path string
}

// New returns the lock guarding the named segment. The lock file is created
// lazily on first acquisition.
func New(dir, name string) *Lock {
	return &Lock{name: name, path: dir + "/" + name + ".lock"}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Guard is a held lock. Release it on every exit path.
type Guard struct {
	f *os.File
}

// Acquire blocks until the lock is held, the context is canceled, or the
// timeout elapses. A zero timeout means wait indefinitely (still subject to
// ctx). Timeout expiry surfaces ErrTimeout, never an unbounded hang.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) (*Guard, error) {
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("flock: open %s: %w", l.path, err)
	}

	try := func() error {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
			return err // retryable, another holder exists
		}
		return backoff.Permanent(fmt.Errorf("flock: %s: %w", l.path, err))
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = timeout // 0 keeps retrying forever

	if err := backoff.Retry(try, backoff.WithContext(bo, ctx)); err != nil {
		_ = f.Close()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("flock: %s: %w", l.path, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s after %v", ErrTimeout, l.path, timeout)
	}
	return &Guard{f: f}, nil
}

// Release drops the lock. Closing the fd releases the flock even if the
// explicit unlock fails.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	flerr := unix.Flock(int(g.f.Fd()), unix.LOCK_UN)
	cerr := g.f.Close()
	g.f = nil
	if flerr != nil {
		return fmt.Errorf("flock: unlock: %w", flerr)
	}
	if cerr != nil {
		return fmt.Errorf("flock: close: %w", cerr)
	}
	return nil
}

// Remove unlinks the lock file. Current holders keep their fds; only the
// name goes away. Missing files are ignored.
func (l *Lock) Remove() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("flock: remove %s: %w", l.path, err)
	}
	return nil
}
