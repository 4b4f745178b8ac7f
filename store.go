package memshared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/memshared/memshared/codec"
	"github.com/memshared/memshared/internal/flock"
	"github.com/memshared/memshared/internal/shm"
)

// store is the engine behind every facade: one segment, its lock, and the
// codec. Every operation runs the same cycle: acquire, map, decode the
// current frame, act, optionally re-encode and write back, release. The
// frame is the only authority between calls; nothing decoded is ever cached.
type store struct {
	name string
	kind kind
	dir  string
	seg  *shm.Segment
	lk   *flock.Lock
	cdc  codec.Codec

	timeout time.Duration
	log     *zap.Logger
	tracer  trace.Tracer
	opCount metric.Int64Counter
}

// newStore attaches to or creates the named segment. When this process is
// the creator, initial is encoded as the first frame; when attaching,
// initial is ignored so a late construction can never reset shared state.
func newStore(k kind, opts Options, initial any) (*store, error) {
	o, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	cdc, err := codec.ForProtocol(o.Protocol)
	if err != nil {
		return nil, err
	}
	e, created, err := openPair(o.Dir, o.Name, o.Size)
	if err != nil {
		return nil, err
	}

	s := &store{
		name:    o.Name,
		kind:    k,
		dir:     o.Dir,
		seg:     e.seg,
		lk:      e.lk,
		cdc:     cdc,
		timeout: o.AcquireTimeout,
		log:     o.Logger.With(zap.String("segment", o.Name), zap.Stringer("kind", k)),
		tracer:  o.Tracer,
	}
	if o.Meter != nil {
		s.opCount, _ = o.Meter.Int64Counter("memshared.operations")
	}

	if created {
		payload, err := cdc.Marshal(initial)
		if err == nil {
			err = s.writeInitial(payload)
		}
		if err != nil {
			// The creator's first frame never landed; tear the fresh
			// segment down so a retry can create cleanly instead of
			// attaching to an uninitialized one.
			_ = closePair(o.Dir, o.Name)
			return nil, err
		}
		s.log.Debug("segment created", zap.Int("capacity", e.seg.Capacity()))
	} else {
		s.log.Debug("segment attached", zap.Int("capacity", e.seg.Capacity()))
	}
	return s, nil
}

func (s *store) capacity() int { return s.seg.Capacity() }

func (s *store) acquire(op string) (*flock.Guard, error) {
	start := time.Now()
	guard, err := s.lk.Acquire(context.Background(), s.timeout)
	lockWait.WithLabelValues(s.kind.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, flock.ErrTimeout) {
			s.log.Warn("lock timeout", zap.String("op", op), zap.Duration("timeout", s.timeout))
			return nil, errors.Join(ErrLockTimeout, err)
		}
		return nil, err
	}
	return guard, nil
}

// view runs fn with the current frame payload under the exclusive lock.
// The payload aliases the mapped segment and must not escape fn.
func (s *store) view(op string, fn func(payload []byte) error) error {
	return s.run(op, func(data []byte) error {
		payload, err := decodeFrame(data, s.kind, s.cdc.Protocol())
		if err != nil {
			return err
		}
		return fn(payload)
	})
}

// update runs fn with the current frame payload and commits the payload fn
// returns. A nil returned payload commits nothing. On CapacityError the
// stored frame is untouched.
func (s *store) update(op string, fn func(payload []byte) ([]byte, error)) error {
	return s.run(op, func(data []byte) error {
		payload, err := decodeFrame(data, s.kind, s.cdc.Protocol())
		if err != nil {
			return err
		}
		next, err := fn(payload)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if err := encodeFrame(data, s.kind, s.cdc.Protocol(), next); err != nil {
			var ce *CapacityError
			if errors.As(err, &ce) {
				capacityFailures.WithLabelValues(s.kind.String()).Inc()
				s.log.Warn("frame exceeds capacity",
					zap.String("op", op),
					zap.Int("attempted", ce.Attempted),
					zap.Int("capacity", ce.Capacity))
			}
			return err
		}
		return nil
	})
}

// writeInitial commits the creator's first frame. The segment is still
// all-zero at this point, so there is no previous frame to decode.
func (s *store) writeInitial(payload []byte) error {
	return s.run("init", func(data []byte) error {
		return encodeFrame(data, s.kind, s.cdc.Protocol(), payload)
	})
}

func (s *store) run(op string, fn func(data []byte) error) (err error) {
	ctx := context.Background()
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "memshared."+s.kind.String()+"."+op)
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()
	}
	opsTotal.WithLabelValues(s.kind.String(), op).Inc()
	if s.opCount != nil {
		s.opCount.Add(ctx, 1)
	}

	guard, err := s.acquire(op)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := guard.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	return s.seg.Map(fn)
}

// decode unmarshals payload into target through the configured codec,
// reporting malformed bytes as DecodeError.
func (s *store) decode(payload []byte, target any) error {
	if err := s.cdc.Unmarshal(payload, target); err != nil {
		return &DecodeError{Reason: fmt.Sprintf("payload unreadable under protocol %d", s.cdc.Protocol()), Err: err}
	}
	return nil
}

// cleanup unlinks the segment and lock for everyone. The second cleanup of
// one name, from this or any other process, reports ErrNotFound.
func (s *store) cleanup() error {
	err := closePair(s.dir, s.name)
	if err == nil {
		s.log.Debug("segment destroyed")
	}
	return err
}
