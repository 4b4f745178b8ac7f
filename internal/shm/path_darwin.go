//go:build darwin

package shm

import "os"

// DefaultDir falls back to the temp filesystem: Darwin has no /dev/shm, and
// POSIX shm names cannot be mmapped through the file API used here.
var DefaultDir = os.TempDir()
