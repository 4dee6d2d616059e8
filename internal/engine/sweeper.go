package engine

import (
	"context"
	"log"
	"time"
)

// SweeperConfig bounds how long a cycle may sit in a non-rest state.
// ReserveStaleAfter covers RESERVED/UNLOCKING: if the hardware never
// reports an unlock within that window, the reservation is released and
// the cycle returns to the pool (no ride happened, no history entry).
// RideTimeout covers IN_USE/LOCKING; zero disables it, since ride length
// is deployment dependent.
type SweeperConfig struct {
	ReserveStaleAfter time.Duration
	RideTimeout       time.Duration
	Interval          time.Duration
}

// Sweeper periodically applies the staleness policy to the store.  It is
// the escape hatch for reservations the change feed never resolves.
type Sweeper struct {
	store    *Store
	recorder UsageRecorder
	cfg      SweeperConfig
}

func NewSweeper(store *Store, recorder UsageRecorder, cfg SweeperConfig) *Sweeper {
	if store == nil {
		panic("nil store passed to NewSweeper")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Sweeper{store: store, recorder: recorder, cfg: cfg}
}

// Run sweeps until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now.UTC())
		}
	}
}

func (s *Sweeper) sweep(now time.Time) {
	for _, rel := range s.store.ReleaseExpired(now, s.cfg.ReserveStaleAfter, s.cfg.RideTimeout) {
		log.Printf("sweeper: released cycle %s from %s (user %d, held since %s)",
			rel.Ride.CycleID, rel.From, rel.Ride.UserID, rel.Ride.StartedAt.Format(time.RFC3339))
		// A timed-out ride still happened; a reservation that never
		// unlocked did not.
		if s.recorder != nil && (rel.From == StateInUse || rel.From == StateLocking) {
			s.recorder.Record(rel.Ride)
		}
	}
}
