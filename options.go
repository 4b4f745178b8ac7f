package memshared

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/memshared/memshared/codec"
	"github.com/memshared/memshared/internal/shm"
)

// Options configures a shared collection. Name and Size are required; Size
// is honored only by the first creator of the name; attaching peers inherit
// the creator's capacity and their Size is ignored.
//
// Every process sharing one name must use the same Protocol. That contract
// is the caller's; the engine only detects a mismatch at decode time.
type Options struct {
	// Name is the host-global identifier of the segment and its lock.
	Name string

	// Size is the fixed segment capacity in bytes, frame header included.
	Size int

	// Protocol selects the value codec. Defaults to codec.Msgpack.
	Protocol codec.Protocol

	// AcquireTimeout bounds every lock acquisition. Zero waits
	// indefinitely. Expiry surfaces ErrLockTimeout.
	AcquireTimeout time.Duration

	// Dir overrides the shared-memory directory. Defaults to the
	// platform's tmpfs mount. Mostly for tests.
	Dir string

	// Logger receives operational logs. Defaults to a nop logger.
	Logger *zap.Logger

	// Tracer, when set, wraps every operation in a span.
	Tracer trace.Tracer

	// Meter, when set, counts operations through OpenTelemetry in
	// addition to the package's Prometheus metrics.
	Meter metric.Meter
}

func (o Options) normalize() (Options, error) {
	if o.Name == "" {
		return o, fmt.Errorf("%w: name is required", ErrConfig)
	}
	if strings.ContainsAny(o.Name, "/\x00") {
		return o, fmt.Errorf("%w: name %q must not contain path separators", ErrConfig, o.Name)
	}
	if o.Size <= frameHeaderSize {
		return o, fmt.Errorf("%w: size %d must exceed the %d-byte frame header", ErrConfig, o.Size, frameHeaderSize)
	}
	if o.Protocol == 0 {
		o.Protocol = codec.Msgpack
	}
	if o.Dir == "" {
		o.Dir = shm.DefaultDir
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o, nil
}
