package repository

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
	"github.com/iliyamo/cycle-stand-reservation/internal/model"
)

// usageWriterBuffer bounds how many completed rides can wait for the
// database; beyond that, records are dropped with a log line rather than
// ever blocking a lock-state transition.
const usageWriterBuffer = 64

// UsageWriter decouples history bookkeeping from the engine.  Record is
// a non-blocking enqueue; a background goroutine drains the queue into
// MySQL with bounded exponential-backoff retries.  It implements
// engine.UsageRecorder.
type UsageWriter struct {
	repo *UsageRepo
	ch   chan model.UsageRecord
}

func NewUsageWriter(repo *UsageRepo) *UsageWriter {
	return &UsageWriter{repo: repo, ch: make(chan model.UsageRecord, usageWriterBuffer)}
}

// Record enqueues a completed ride.  When the buffer is full the record
// is dropped and logged; the lock-state transition that produced it has
// already happened and must not be held up.
func (w *UsageWriter) Record(ride engine.CompletedRide) {
	rec := model.UsageRecord{
		UserID:    ride.UserID,
		CycleID:   ride.CycleID,
		StartedAt: ride.StartedAt,
		EndedAt:   ride.EndedAt,
	}
	select {
	case w.ch <- rec:
	default:
		log.Printf("usage-writer: buffer full, dropping record for user %d cycle %s", rec.UserID, rec.CycleID)
	}
}

// Run drains the queue until the context is cancelled.
func (w *UsageWriter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-w.ch:
			w.persist(ctx, rec)
		}
	}
}

// persist retries a failed insert a few times with growing delays, then
// gives up.  History loss is acceptable; blocking the drain loop forever
// is not.
func (w *UsageWriter) persist(ctx context.Context, rec model.UsageRecord) {
	const maxAttempts = 5
	backoff := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := w.repo.Insert(insertCtx, rec)
		cancel()
		if err == nil {
			return
		}
		log.Printf("usage-writer: insert failed (attempt %d/%d): %v", attempt, maxAttempts, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
	log.Printf("usage-writer: giving up on record for user %d cycle %s", rec.UserID, rec.CycleID)
}
