// Package engine implements the cycle reservation and lock-state
// synchronization core.  The Store is the single authoritative view of
// which cycles sit at which stands and who holds them; the Orchestrator
// grants reservations and dispatches unlock commands; the Watcher applies
// lock-state reports arriving from the hardware change feed, debouncing
// "locked" reports behind a grace window.  These sentinel errors allow
// higher layers such as handlers to distinguish between different
// failure scenarios: conflicts are reported to the caller as HTTP 409,
// stale confirmations are dropped silently because they are the designed
// outcome of the epoch check, and invalid transitions indicate a protocol
// error (an event arrived for a cycle not in the expected source state).
package engine

import "errors"

// ErrStandNotFound is returned when the requested stand does not exist.
var ErrStandNotFound = errors.New("stand not found")

// ErrCycleNotFound is returned when the requested cycle does not exist.
var ErrCycleNotFound = errors.New("cycle not found")

// ErrAlreadyReserved is returned by TryReserve when the cycle is not
// AVAILABLE, i.e. another user got there first or a ride is in progress.
var ErrAlreadyReserved = errors.New("cycle already reserved")

// ErrUserAlreadyHolding is returned when the requesting user already
// holds a different cycle.  A user may hold at most one cycle at a time.
var ErrUserAlreadyHolding = errors.New("user already holds a cycle")

// ErrInvalidStateTransition is returned when an operation is applied to a
// cycle whose current state does not permit it.  State is left unchanged.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrStaleConfirmation is returned by ConfirmLocked when the supplied
// epoch no longer matches the cycle's current epoch, meaning a newer
// event superseded the confirmation while its grace timer was pending.
// Callers drop it without surfacing anything.
var ErrStaleConfirmation = errors.New("stale confirmation")
