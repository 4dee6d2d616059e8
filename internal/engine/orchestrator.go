package engine

import (
	"context"
	"log"
	"time"
)

// UnlockDispatcher delivers an unlock command to the physical lock
// control channel.  Delivery failure is the hardware layer's concern;
// the engine logs it and moves on, because the reservation semantically
// represents "granted", not "physically completed".
type UnlockDispatcher interface {
	DispatchUnlock(ctx context.Context, cycleID string) error
}

// Orchestrator validates unlock requests against the store, grants
// reservations and fires the unlock command without waiting for the
// hardware to confirm.  Confirmation arrives later through the watcher.
type Orchestrator struct {
	store           *Store
	dispatcher      UnlockDispatcher
	dispatchTimeout time.Duration
}

// NewOrchestrator builds an orchestrator.  Both dependencies must be
// non-nil.
func NewOrchestrator(store *Store, dispatcher UnlockDispatcher) *Orchestrator {
	if store == nil || dispatcher == nil {
		panic("nil dependency passed to NewOrchestrator")
	}
	return &Orchestrator{store: store, dispatcher: dispatcher, dispatchTimeout: 10 * time.Second}
}

// Reserve grants the cycle to the user and dispatches the unlock
// command.  It returns as soon as the store accepted the reservation;
// the dispatch runs in the background.  Conflicts come back as
// ErrUserAlreadyHolding or ErrAlreadyReserved so the handler can report
// the precise reason.
func (o *Orchestrator) Reserve(ctx context.Context, userID uint64, cycleID string) error {
	if _, holding := o.store.UserStatus(userID); holding {
		return ErrUserAlreadyHolding
	}
	if err := o.store.TryReserve(cycleID, userID); err != nil {
		return err
	}
	if err := o.store.MarkUnlocking(cycleID); err != nil {
		// Only reachable if something else moved the cycle between the
		// two calls, which TryReserve's holder assignment rules out.
		return err
	}
	go o.dispatch(cycleID)
	return nil
}

func (o *Orchestrator) dispatch(cycleID string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.dispatchTimeout)
	defer cancel()
	if err := o.dispatcher.DispatchUnlock(ctx, cycleID); err != nil {
		log.Printf("orchestrator: unlock dispatch for cycle %s failed: %v", cycleID, err)
	}
}
