package model

import "time"

// Cycle is a single shared bicycle, the unit of reservation and
// locking.  Rows in the `cycles` table are seed inventory only: the
// live lock state and holder are owned by the in-memory engine store and
// are never persisted here.
//
// Fields:
//  ID        – cycle identifier (e.g. "C101").
//  StandID   – stand where the cycle is docked.
//  Name      – display name shown to riders.
//  CreatedAt – creation timestamp.
type Cycle struct {
	ID        string    // cycles.id
	StandID   string    // cycles.stand_id
	Name      string    // cycles.name
	CreatedAt time.Time // cycles.created_at
}
