// Package scan provides the lifecycle contract every scanner implements:
// a per-instance single-flight guard, cooperative cancellation, and
// coalesced progress event emission.
package scan

import (
	"sync/atomic"

	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// Lifecycle is embedded by scanners to enforce single-flight execution and
// cooperative cancellation. The zero value is ready to use.
//
// Only one scan may be in flight per instance. Abort sets a flag that
// scanners check between work units; in-flight network operations are not
// torn down, so abort latency is bounded by one operation timeout.
type Lifecycle struct {
	running atomic.Bool
	aborted atomic.Bool
}

// Begin claims the instance for a new scan. It returns ErrScanInProgress
// if another scan is already running.
func (l *Lifecycle) Begin() error {
	if !l.running.CompareAndSwap(false, true) {
		return errs.ErrScanInProgress
	}
	l.aborted.Store(false)
	return nil
}

// End releases the instance. Scanners defer this from Begin so error paths
// leave the instance reusable.
func (l *Lifecycle) End() {
	l.running.Store(false)
}

// Abort requests cooperative cancellation of the running scan. It has no
// effect when no scan is in flight.
func (l *Lifecycle) Abort() {
	if l.running.Load() {
		l.aborted.Store(true)
	}
}

// Aborted reports whether cancellation was requested. Checked between
// work units: one host, one port batch, one crawl page, one check.
func (l *Lifecycle) Aborted() bool {
	return l.aborted.Load()
}

// Running reports whether a scan is currently in flight.
func (l *Lifecycle) Running() bool {
	return l.running.Load()
}
