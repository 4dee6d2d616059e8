package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
)

// recorderStub collects completed rides for assertions.
type recorderStub struct {
	mu    sync.Mutex
	rides []engine.CompletedRide
}

func (r *recorderStub) Record(ride engine.CompletedRide) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rides = append(r.rides, ride)
}

func (r *recorderStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rides)
}

const testGrace = 50 * time.Millisecond

func TestWatcher_FullLifecycle(t *testing.T) {
	s := seedStore(t)
	rec := &recorderStub{}
	w := engine.NewWatcher(s, rec, testGrace)
	require.NoError(t, s.TryReserve("C101", 7))
	require.NoError(t, s.MarkUnlocking("C101"))

	w.HandleStatus("C101", engine.StatusUnlocked)
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateInUse, st)

	w.HandleStatus("C101", engine.StatusLocked)
	st, _ = s.CycleState("C101")
	assert.Equal(t, engine.StateLocking, st, "locked report must not finalize before the grace window")

	assert.Eventually(t, func() bool {
		st, _ := s.CycleState("C101")
		return st == engine.StateAvailable
	}, time.Second, 5*time.Millisecond)

	_, holding := s.UserStatus(7)
	assert.False(t, holding)
	require.Equal(t, 1, rec.count())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, uint64(7), rec.rides[0].UserID)
	assert.Equal(t, "C101", rec.rides[0].CycleID)
	assert.Equal(t, "stand-01", rec.rides[0].StandID)
}

func TestWatcher_BounceCancelsConfirmation(t *testing.T) {
	s := seedStore(t)
	rec := &recorderStub{}
	w := engine.NewWatcher(s, rec, testGrace)
	rideTo(t, s, "C101", 7)

	// The rider docks the cycle but pulls it out again inside the grace
	// window.
	w.HandleStatus("C101", engine.StatusLocked)
	w.HandleStatus("C101", engine.StatusUnlocked)

	time.Sleep(3 * testGrace)

	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateInUse, st, "the superseded timer must not end the ride")
	_, holding := s.UserStatus(7)
	assert.True(t, holding)
	assert.Equal(t, 0, rec.count())
}

func TestWatcher_DuplicateLockedReports(t *testing.T) {
	s := seedStore(t)
	rec := &recorderStub{}
	w := engine.NewWatcher(s, rec, testGrace)
	rideTo(t, s, "C101", 7)

	w.HandleStatus("C101", engine.StatusLocked)
	w.HandleStatus("C101", engine.StatusLocked)

	assert.Eventually(t, func() bool {
		st, _ := s.CycleState("C101")
		return st == engine.StateAvailable
	}, time.Second, 5*time.Millisecond)
	time.Sleep(2 * testGrace) // let the second timer fire too

	assert.Equal(t, 1, rec.count(), "duplicate reports must record the ride once")
}

func TestWatcher_IgnoresReportsThatDoNotFit(t *testing.T) {
	s := seedStore(t)
	w := engine.NewWatcher(s, nil, testGrace)

	// AVAILABLE cycles have no ride to affect.
	w.HandleStatus("C101", engine.StatusLocked)
	w.HandleStatus("C101", engine.StatusUnlocked)
	w.HandleStatus("C101", "WEDGED")
	w.HandleStatus("C999", engine.StatusLocked)

	time.Sleep(2 * testGrace)
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateAvailable, st)
}
