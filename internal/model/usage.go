package model

import "time"

// UsageRecord is an immutable historical entry for one completed ride.
// Records are append-only; they are written once when a cycle returns to
// the locked rest state and never mutated afterwards.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – rider.
//  CycleID   – cycle that was ridden.
//  StartedAt – when the reservation was granted.
//  EndedAt   – when the lock confirmation became final.
//  CreatedAt – insertion timestamp.
type UsageRecord struct {
	ID        string    // usage_records.id
	UserID    uint64    // usage_records.user_id
	CycleID   string    // usage_records.cycle_id
	StartedAt time.Time // usage_records.started_at
	EndedAt   time.Time // usage_records.ended_at
	CreatedAt time.Time // usage_records.created_at
}
