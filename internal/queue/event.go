// Package queue defines message payloads exchanged over the message broker.
package queue

// LockStateEvent is one change-feed notification from the lock hardware
// gateway.  Status is the reported lock status ("UNLOCKED" or "LOCKED");
// anything else is logged and dropped by the consumer.  Timestamp is the
// gateway's report time and is informational only: ordering decisions
// are made by the engine's epoch check, not by this field.
type LockStateEvent struct {
	CycleID   string `json:"cycle_id"`
	StandID   string `json:"stand_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// UnlockCommand is published to the physical-lock control channel when a
// reservation is granted.  Action is always "unlock" today; the field
// exists so the gateway protocol can grow without a new payload type.
type UnlockCommand struct {
	CycleID string `json:"cycle_id"`
	Action  string `json:"action"`
}
