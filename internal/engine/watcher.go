package engine

import (
	"errors"
	"log"
	"time"
)

// Statuses reported by the lock hardware over the change feed.
const (
	StatusUnlocked = "UNLOCKED"
	StatusLocked   = "LOCKED"
)

// UsageRecorder receives completed rides for history bookkeeping.  It
// must never block: the physical lock's correctness does not depend on
// bookkeeping durability.
type UsageRecorder interface {
	Record(ride CompletedRide)
}

// Watcher applies change-feed notifications to the store.  "unlocked"
// reports take effect immediately so the user can ride right away.
// "locked" reports arm a grace timer; only if no contradicting event
// arrives within the window does the cycle finalize as locked.  The
// timer is keyed by the epoch BeginLocking returned and is never
// cancelled: a superseded timer fires, fails the epoch check inside
// ConfirmLocked and is dropped.  That also makes the scheme safe under
// out-of-order delivery.
type Watcher struct {
	store    *Store
	recorder UsageRecorder
	grace    time.Duration
}

// NewWatcher builds a watcher with the given grace window.  recorder may
// be nil when history recording is not wanted (tests).
func NewWatcher(store *Store, recorder UsageRecorder, grace time.Duration) *Watcher {
	if store == nil {
		panic("nil store passed to NewWatcher")
	}
	return &Watcher{store: store, recorder: recorder, grace: grace}
}

// HandleStatus processes one change-feed notification for a cycle.
// Reports that do not fit the cycle's current state are logged and
// ignored; the feed is an untrusted, possibly reordered input and the
// store stays authoritative.
func (w *Watcher) HandleStatus(cycleID, status string) {
	switch status {
	case StatusUnlocked:
		if err := w.store.MarkInUse(cycleID); err != nil {
			log.Printf("lock-watcher: unlocked report for cycle %s ignored: %v", cycleID, err)
		}
	case StatusLocked:
		epoch, err := w.store.BeginLocking(cycleID)
		if err != nil {
			log.Printf("lock-watcher: locked report for cycle %s ignored: %v", cycleID, err)
			return
		}
		time.AfterFunc(w.grace, func() { w.confirm(cycleID, epoch) })
	default:
		log.Printf("lock-watcher: unknown status %q for cycle %s", status, cycleID)
	}
}

// confirm runs when a grace timer fires.  A stale confirmation means a
// newer event superseded this timer; that is the designed outcome, not
// an error.
func (w *Watcher) confirm(cycleID string, epoch uint64) {
	ride, err := w.store.ConfirmLocked(cycleID, epoch)
	if err != nil {
		if errors.Is(err, ErrStaleConfirmation) {
			return
		}
		log.Printf("lock-watcher: confirm for cycle %s failed: %v", cycleID, err)
		return
	}
	log.Printf("lock-watcher: cycle %s locked, ride by user %d complete", cycleID, ride.UserID)
	if w.recorder != nil {
		w.recorder.Record(ride)
	}
}
