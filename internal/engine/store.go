package engine

import (
	"sync"
	"time"

	"github.com/iliyamo/cycle-stand-reservation/internal/model"
)

// cycleEntry is the store's mutable record for one cycle.  Every mutation
// of a cycle happens with its own mutex held, so transitions on the same
// cycle never interleave while unrelated cycles proceed in parallel.
type cycleEntry struct {
	mu sync.Mutex

	id      string
	standID string
	name    string

	state      State
	epoch      uint64 // bumped on every state change; validates async confirmations
	holder     uint64 // user ID, zero when state is AVAILABLE
	reservedAt time.Time
}

type standEntry struct {
	id       string
	name     string
	cycleIDs []string
}

// Store holds the authoritative mapping of stands to cycles to lock
// state, and of users to their active reservation.  The outer maps are
// populated once by Seed and read-mostly afterwards; the holders index is
// the enforcement point for the one-cycle-per-user invariant and is
// guarded by the store-level lock.  Per-cycle mutation goes through the
// entry mutexes.  Lock ordering is always entry.mu before Store.mu; the
// store lock is never held while acquiring an entry lock.
type Store struct {
	mu      sync.RWMutex
	stands  map[string]*standEntry
	cycles  map[string]*cycleEntry
	holders map[uint64]string // user ID -> held cycle ID
}

// NewStore returns an empty store.  Call Seed before serving traffic.
func NewStore() *Store {
	return &Store{
		stands:  make(map[string]*standEntry),
		cycles:  make(map[string]*cycleEntry),
		holders: make(map[uint64]string),
	}
}

// Seed loads the provisioned stands and cycles into the store.  All
// cycles start AVAILABLE.  Membership is fixed after seeding; there is no
// runtime add or remove.  A cycle referencing an unknown stand returns
// ErrStandNotFound.
func (s *Store) Seed(stands []model.Stand, cycles []model.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range stands {
		s.stands[st.ID] = &standEntry{id: st.ID, name: st.Name}
	}
	for _, cy := range cycles {
		st, ok := s.stands[cy.StandID]
		if !ok {
			return ErrStandNotFound
		}
		s.cycles[cy.ID] = &cycleEntry{
			id:      cy.ID,
			standID: cy.StandID,
			name:    cy.Name,
			state:   StateAvailable,
		}
		st.cycleIDs = append(st.cycleIDs, cy.ID)
	}
	return nil
}

func (s *Store) entry(cycleID string) (*cycleEntry, error) {
	s.mu.RLock()
	e, ok := s.cycles[cycleID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrCycleNotFound
	}
	return e, nil
}

// TryReserve transitions an AVAILABLE cycle to RESERVED for the given
// user.  It fails with ErrAlreadyReserved when the cycle is not
// AVAILABLE and with ErrUserAlreadyHolding when the user already holds a
// different cycle.  The holder-index check and assignment happen in one
// critical section, so two concurrent reservations by the same user on
// different cycles cannot both succeed.
func (s *Store) TryReserve(cycleID string, userID uint64) error {
	e, err := s.entry(cycleID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateAvailable {
		return ErrAlreadyReserved
	}
	s.mu.Lock()
	if held, ok := s.holders[userID]; ok && held != cycleID {
		s.mu.Unlock()
		return ErrUserAlreadyHolding
	}
	s.holders[userID] = cycleID
	s.mu.Unlock()
	e.state = StateReserved
	e.holder = userID
	e.reservedAt = time.Now().UTC()
	e.epoch++
	return nil
}

// MarkUnlocking records that the unlock command has been issued for a
// RESERVED cycle.  Physical confirmation is still pending.
func (s *Store) MarkUnlocking(cycleID string) error {
	e, err := s.entry(cycleID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReserved {
		return ErrInvalidStateTransition
	}
	e.state = StateUnlocking
	e.epoch++
	return nil
}

// MarkInUse applies an "unlocked" report from the device.  It is valid
// both for the initial unlock (UNLOCKING -> IN_USE) and for a bounce
// during the grace window (LOCKING -> IN_USE), where the epoch bump
// invalidates the pending lock confirmation.
func (s *Store) MarkInUse(cycleID string) error {
	e, err := s.entry(cycleID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateUnlocking && e.state != StateLocking {
		return ErrInvalidStateTransition
	}
	e.state = StateInUse
	e.epoch++
	return nil
}

// BeginLocking applies a "locked" report and returns the epoch a later
// confirmation must present.  A repeated report for a cycle already in
// LOCKING returns the current epoch without bumping it, so duplicate
// reports re-arm the grace timer but can confirm at most once.
func (s *Store) BeginLocking(cycleID string) (uint64, error) {
	e, err := s.entry(cycleID)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateLocking:
		return e.epoch, nil
	case StateInUse:
		e.state = StateLocking
		e.epoch++
		return e.epoch, nil
	default:
		return 0, ErrInvalidStateTransition
	}
}

// CompletedRide is the record of a finished reservation, produced when a
// cycle returns to AVAILABLE with a holder attached.
type CompletedRide struct {
	UserID    uint64
	CycleID   string
	StandID   string
	StartedAt time.Time
	EndedAt   time.Time
}

// ConfirmLocked finalizes a LOCKING cycle whose grace window elapsed.
// The supplied epoch must match the cycle's current epoch; any state
// change since BeginLocking (a bounce back to IN_USE, a forced release)
// bumped the epoch and makes the confirmation stale.  Stale
// confirmations never mutate state.  On success the holder is cleared,
// the cycle returns to AVAILABLE and the completed ride is returned for
// history recording.
func (s *Store) ConfirmLocked(cycleID string, epoch uint64) (CompletedRide, error) {
	e, err := s.entry(cycleID)
	if err != nil {
		return CompletedRide{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateLocking || e.epoch != epoch {
		return CompletedRide{}, ErrStaleConfirmation
	}
	return s.releaseLocked(e), nil
}

// Released describes a forced release performed by ReleaseStale or
// ReleaseExpired.  From is the state the cycle was in; the ride is only
// meaningful when the cycle had actually been unlocked (IN_USE/LOCKING).
type Released struct {
	Ride CompletedRide
	From State
}

// ReleaseStale forcibly returns a cycle to AVAILABLE from any other
// state.  This is the failure-recovery edge for hardware that never
// reports back; it is not reachable from user actions.  Releasing an
// AVAILABLE cycle fails with ErrInvalidStateTransition.
func (s *Store) ReleaseStale(cycleID string) (Released, error) {
	e, err := s.entry(cycleID)
	if err != nil {
		return Released{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateAvailable {
		return Released{}, ErrInvalidStateTransition
	}
	from := e.state
	return Released{Ride: s.releaseLocked(e), From: from}, nil
}

// ReleaseExpired applies the bounded staleness policy in one pass over
// all cycles.  Cycles stuck in RESERVED/UNLOCKING longer than
// reserveAfter are released (the unlock never completed, no ride
// happened); cycles in IN_USE/LOCKING longer than rideAfter are
// force-completed.  A zero duration disables the respective bound.  The
// age check happens under the entry lock, so a ride that completes
// between sweeps is never clawed back.
func (s *Store) ReleaseExpired(now time.Time, reserveAfter, rideAfter time.Duration) []Released {
	s.mu.RLock()
	entries := make([]*cycleEntry, 0, len(s.cycles))
	for _, e := range s.cycles {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var released []Released
	for _, e := range entries {
		e.mu.Lock()
		age := now.Sub(e.reservedAt)
		expired := false
		switch e.state {
		case StateReserved, StateUnlocking:
			expired = reserveAfter > 0 && age >= reserveAfter
		case StateInUse, StateLocking:
			expired = rideAfter > 0 && age >= rideAfter
		}
		if expired {
			from := e.state
			released = append(released, Released{Ride: s.releaseLocked(e), From: from})
		}
		e.mu.Unlock()
	}
	return released
}

// releaseLocked clears the holder and returns the cycle to AVAILABLE.
// Caller must hold e.mu and e.state must not be AVAILABLE.
func (s *Store) releaseLocked(e *cycleEntry) CompletedRide {
	ride := CompletedRide{
		UserID:    e.holder,
		CycleID:   e.id,
		StandID:   e.standID,
		StartedAt: e.reservedAt,
		EndedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	delete(s.holders, e.holder)
	s.mu.Unlock()
	e.holder = 0
	e.state = StateAvailable
	e.epoch++
	return ride
}
