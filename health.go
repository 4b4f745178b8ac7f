package memshared

import (
	"os"

	"github.com/heptiolabs/healthcheck"
)

// NewHealthHandler returns an HTTP health handler with one liveness check
// per collection currently open in this process. A check fails once the
// backing segment has been destroyed, locally or by a peer.
//
// Collections opened after this call are not tracked; build the handler
// after constructing them, or rebuild it on change.
func NewHealthHandler() healthcheck.Handler {
	h := healthcheck.NewHandler()
	for item := range registry.IterBuffered() {
		seg := item.Val.seg
		h.AddLivenessCheck("segment:"+item.Key, func() error {
			_, err := os.Stat(seg.Path())
			return err
		})
	}
	return h
}
