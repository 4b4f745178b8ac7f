package memshared

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports an invalid name or size at construction.
	ErrConfig = errors.New("memshared: invalid configuration")

	// ErrNotFound reports an attach, destroy, or cleanup against a name
	// that does not exist.
	ErrNotFound = errors.New("memshared: not found")

	// ErrLockTimeout reports that the segment lock could not be acquired
	// within the caller's bound. Retryable.
	ErrLockTimeout = errors.New("memshared: lock acquisition timed out")

	// ErrUninitialized reports a segment whose frame header is still
	// all-zero: allocated but never written. Surfaced wrapped in a
	// DecodeError so corruption and a fresh segment stay distinguishable.
	ErrUninitialized = errors.New("memshared: segment holds no frame")

	// ErrKeyNotFound reports a missing dict key where the operation
	// requires one to exist.
	ErrKeyNotFound = errors.New("memshared: key not found")

	// ErrValueNotFound reports a remove of a list or set element that is
	// not present.
	ErrValueNotFound = errors.New("memshared: value not found")

	// ErrIndexOutOfRange reports a list index outside the current bounds.
	ErrIndexOutOfRange = errors.New("memshared: index out of range")
)

// CapacityError reports an encoded frame that would not fit the segment.
// The stored frame is left untouched; no partial write reaches shared memory.
type CapacityError struct {
	Attempted int // frame size that was rejected, header included
	Capacity  int // fixed segment capacity
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("memshared: frame of %d bytes exceeds segment capacity of %d", e.Attempted, e.Capacity)
}

// DecodeError reports stored bytes that are unreadable under the active
// protocol: corruption, version skew, a type mismatch between peers, or an
// uninitialized segment (unwraps to ErrUninitialized in that case).
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("memshared: decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("memshared: decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }
