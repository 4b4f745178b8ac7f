// Package memshared exposes dict, list, and set collections whose state
// lives in a named block of shared memory, so independent processes on one
// host can mutate a single logical collection as if it were local.
//
// Each collection is one segment on the shared-memory filesystem holding a
// length-prefixed encoded frame, plus one lock file. Every operation,
// reads included, acquires the exclusive cross-process lock, decodes the
// committed frame, acts, and for mutations re-encodes and writes back after
// a capacity check. The frame is the only authority between calls.
//
//	d, err := memshared.NewDict(map[string]any{"greeting": "hello"}, memshared.Options{
//		Name: "demo-dict",
//		Size: 64 * 1024,
//	})
//	if err != nil {
//		// ...
//	}
//	defer d.Cleanup()
//
//	err = d.Set("answer", 42)
//	v, ok, err := d.Get("greeting")
//
// A second construction of the same name, from this process or another,
// attaches to the existing state and ignores its initial value; state is
// never reset by attaching. Cleanup unlinks the segment and lock for
// everyone.
//
// Preconditions that are the caller's contract, not checked by the engine:
// every process sharing a name must configure the same codec protocol, and
// must open the name as the type it was created with. Mismatches surface as
// DecodeError on first access.
package memshared
