// Package state holds the small pieces of shared, cross-goroutine state
// that coordinate the connection manager and decoder:
// the connection flag and the asymmetric error counter. Both are
// dependency-injected handles constructed once and passed to whichever
// goroutines need them, rather than package-level globals (see
// SPEC_FULL.md §9 / DESIGN.md on the connection-flag design note).
package state

import "sync/atomic"

// ConnFlag is a process-visible boolean: true once the handshake
// response has been received, false from the moment a session tears
// down. It is advisory only — it gates the decoder's synthetic
// "disconnected" event — so a plain atomic load/store is all the
// synchronization it needs.
type ConnFlag struct {
	v atomic.Bool
}

// Set marks the connection as established.
func (f *ConnFlag) Set() { f.v.Store(true) }

// Clear marks the connection as torn down.
func (f *ConnFlag) Clear() { f.v.Store(false) }

// IsSet reports the current connection state.
func (f *ConnFlag) IsSet() bool { return f.v.Load() }
