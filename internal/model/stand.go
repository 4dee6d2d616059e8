package model

import "time"

// Stand describes a physical location holding a fixed set of cycles.
// Stands are created at provisioning time and their membership does not
// change during normal operation; the engine loads them once at startup.
//
// Fields:
//  ID        – stand identifier (e.g. "stand-01").
//  Name      – human label shown to riders.
//  CreatedAt – creation timestamp.
type Stand struct {
	ID        string    // stands.id
	Name      string    // stands.name
	CreatedAt time.Time // stands.created_at
}
