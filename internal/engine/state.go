package engine

// State is the lock state of a single cycle.  AVAILABLE doubles as the
// LOCKED rest state: a cycle re-enters AVAILABLE once a lock report has
// survived the grace window.
//
// The full ride lifecycle is:
//
//	AVAILABLE -> RESERVED -> UNLOCKING -> IN_USE -> LOCKING -> AVAILABLE
//
// RESERVED means the store accepted the reservation; UNLOCKING means the
// unlock command went out and the physical confirmation is pending;
// IN_USE starts on the first "unlocked" report from the device; LOCKING
// starts on a "locked" report and is only finalized after the grace
// window elapses with no contradicting report.
type State string

const (
	StateAvailable State = "AVAILABLE"
	StateReserved  State = "RESERVED"
	StateUnlocking State = "UNLOCKING"
	StateInUse     State = "IN_USE"
	StateLocking   State = "LOCKING"
)

// held reports whether a cycle in this state has a holder.  The store
// maintains the invariant that holder is set exactly when held is true.
func (s State) held() bool { return s != StateAvailable }
