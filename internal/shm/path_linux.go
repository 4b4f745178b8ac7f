//go:build linux

package shm

// DefaultDir is the shared-memory filesystem mount used for segments and
// their lock files.
const DefaultDir = "/dev/shm"
