package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
	"github.com/iliyamo/cycle-stand-reservation/internal/model"
)

func seedStore(t *testing.T) *engine.Store {
	t.Helper()
	s := engine.NewStore()
	stands := []model.Stand{
		{ID: "stand-01", Name: "Library"},
		{ID: "stand-02", Name: "Hostel"},
	}
	cycles := []model.Cycle{
		{ID: "C101", StandID: "stand-01", Name: "101"},
		{ID: "C102", StandID: "stand-01", Name: "102"},
		{ID: "C201", StandID: "stand-02", Name: "201"},
	}
	require.NoError(t, s.Seed(stands, cycles))
	return s
}

// rideTo walks a cycle to IN_USE for the given user.
func rideTo(t *testing.T, s *engine.Store, cycleID string, userID uint64) {
	t.Helper()
	require.NoError(t, s.TryReserve(cycleID, userID))
	require.NoError(t, s.MarkUnlocking(cycleID))
	require.NoError(t, s.MarkInUse(cycleID))
}

func TestTryReserve_SetsHolderAndState(t *testing.T) {
	s := seedStore(t)

	err := s.TryReserve("C101", 7)

	require.NoError(t, err)
	st, err := s.CycleState("C101")
	require.NoError(t, err)
	assert.Equal(t, engine.StateReserved, st)
	held, ok := s.UserStatus(7)
	require.True(t, ok)
	assert.Equal(t, "C101", held.CycleID)
	assert.Equal(t, "stand-01", held.StandID)
}

func TestTryReserve_AlreadyReserved(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.TryReserve("C101", 7))

	err := s.TryReserve("C101", 8)

	assert.ErrorIs(t, err, engine.ErrAlreadyReserved)
	_, ok := s.UserStatus(8)
	assert.False(t, ok)
}

func TestTryReserve_UserAlreadyHolding(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.TryReserve("C101", 7))

	err := s.TryReserve("C102", 7)

	assert.ErrorIs(t, err, engine.ErrUserAlreadyHolding)
	st, _ := s.CycleState("C102")
	assert.Equal(t, engine.StateAvailable, st, "failed reservation must not touch the other cycle")
}

func TestTryReserve_UnknownCycle(t *testing.T) {
	s := seedStore(t)

	err := s.TryReserve("C999", 7)

	assert.ErrorIs(t, err, engine.ErrCycleNotFound)
}

func TestTryReserve_ConcurrentSameCycle(t *testing.T) {
	s := seedStore(t)
	const workers = 16

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.TryReserve("C101", uint64(i+1))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, engine.ErrAlreadyReserved)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent reservation may win")
}

func TestTryReserve_ConcurrentSameUser(t *testing.T) {
	s := seedStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"C101", "C102"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = s.TryReserve(id, 7)
		}(i, id)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, engine.ErrUserAlreadyHolding)
		}
	}
	assert.Equal(t, 1, wins, "a user may hold at most one cycle")
}

func TestLifecycleTransitions(t *testing.T) {
	s := seedStore(t)

	require.NoError(t, s.TryReserve("C101", 7))
	require.NoError(t, s.MarkUnlocking("C101"))
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateUnlocking, st)

	require.NoError(t, s.MarkInUse("C101"))
	st, _ = s.CycleState("C101")
	assert.Equal(t, engine.StateInUse, st)

	epoch, err := s.BeginLocking("C101")
	require.NoError(t, err)
	st, _ = s.CycleState("C101")
	assert.Equal(t, engine.StateLocking, st)

	ride, err := s.ConfirmLocked("C101", epoch)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), ride.UserID)
	assert.Equal(t, "C101", ride.CycleID)
	st, _ = s.CycleState("C101")
	assert.Equal(t, engine.StateAvailable, st)
	_, ok := s.UserStatus(7)
	assert.False(t, ok, "holder must be cleared on confirmation")
}

func TestInvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	s := seedStore(t)

	assert.ErrorIs(t, s.MarkUnlocking("C101"), engine.ErrInvalidStateTransition)
	assert.ErrorIs(t, s.MarkInUse("C101"), engine.ErrInvalidStateTransition)
	_, err := s.BeginLocking("C101")
	assert.ErrorIs(t, err, engine.ErrInvalidStateTransition)

	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateAvailable, st)
}

func TestConfirmLocked_StaleEpoch(t *testing.T) {
	s := seedStore(t)
	rideTo(t, s, "C101", 7)
	oldEpoch, err := s.BeginLocking("C101")
	require.NoError(t, err)

	// Bounce: the rider pulled the cycle out again during the grace
	// window, then docked it once more.
	require.NoError(t, s.MarkInUse("C101"))
	newEpoch, err := s.BeginLocking("C101")
	require.NoError(t, err)
	require.NotEqual(t, oldEpoch, newEpoch)

	_, err = s.ConfirmLocked("C101", oldEpoch)
	assert.ErrorIs(t, err, engine.ErrStaleConfirmation)
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateLocking, st, "stale confirmation must not mutate state")

	_, err = s.ConfirmLocked("C101", newEpoch)
	assert.NoError(t, err)
}

func TestBeginLocking_DuplicateReportConfirmsOnce(t *testing.T) {
	s := seedStore(t)
	rideTo(t, s, "C101", 7)

	first, err := s.BeginLocking("C101")
	require.NoError(t, err)
	second, err := s.BeginLocking("C101")
	require.NoError(t, err)
	assert.Equal(t, first, second, "duplicate report must not bump the epoch")

	_, err = s.ConfirmLocked("C101", first)
	require.NoError(t, err)
	_, err = s.ConfirmLocked("C101", second)
	assert.ErrorIs(t, err, engine.ErrStaleConfirmation)
}

func TestReleaseStale(t *testing.T) {
	s := seedStore(t)

	_, err := s.ReleaseStale("C101")
	assert.ErrorIs(t, err, engine.ErrInvalidStateTransition, "AVAILABLE cycles cannot be released")

	require.NoError(t, s.TryReserve("C101", 7))
	rel, err := s.ReleaseStale("C101")
	require.NoError(t, err)
	assert.Equal(t, engine.StateReserved, rel.From)
	assert.Equal(t, uint64(7), rel.Ride.UserID)
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateAvailable, st)
	_, ok := s.UserStatus(7)
	assert.False(t, ok)
}

func TestReleaseExpired(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.TryReserve("C101", 7)) // stuck in RESERVED
	rideTo(t, s, "C102", 8)                     // active ride

	// Nothing is old enough yet.
	rel := s.ReleaseExpired(time.Now().UTC(), 2*time.Minute, 0)
	assert.Empty(t, rel)

	// Three minutes later the reservation expires; the ride is kept
	// because the ride timeout is disabled.
	rel = s.ReleaseExpired(time.Now().UTC().Add(3*time.Minute), 2*time.Minute, 0)
	require.Len(t, rel, 1)
	assert.Equal(t, "C101", rel[0].Ride.CycleID)
	assert.Equal(t, engine.StateReserved, rel[0].From)
	st, _ := s.CycleState("C102")
	assert.Equal(t, engine.StateInUse, st)

	// With a ride timeout the ride expires too.
	rel = s.ReleaseExpired(time.Now().UTC().Add(5*time.Hour), 2*time.Minute, 4*time.Hour)
	require.Len(t, rel, 1)
	assert.Equal(t, "C102", rel[0].Ride.CycleID)
	assert.Equal(t, engine.StateInUse, rel[0].From)
}

func TestListAvailable(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.TryReserve("C102", 7))

	cycles, err := s.ListAvailable("stand-01")
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "C101", cycles[0].ID)

	_, err = s.ListAvailable("stand-99")
	assert.ErrorIs(t, err, engine.ErrStandNotFound)
}

func TestStandsSummary(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.TryReserve("C101", 7))

	stands := s.Stands()
	require.Len(t, stands, 2)
	assert.Equal(t, "stand-01", stands[0].ID)
	assert.Equal(t, 2, stands[0].Total)
	assert.Equal(t, 1, stands[0].Available)
	assert.Equal(t, "stand-02", stands[1].ID)
	assert.Equal(t, 1, stands[1].Available)
}
