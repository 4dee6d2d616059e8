package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
)

// dispatcherStub reports each dispatched cycle on a channel so tests can
// observe the background send.
type dispatcherStub struct {
	sent chan string
	err  error
}

func newDispatcherStub() *dispatcherStub {
	return &dispatcherStub{sent: make(chan string, 4)}
}

func (d *dispatcherStub) DispatchUnlock(_ context.Context, cycleID string) error {
	d.sent <- cycleID
	return d.err
}

func (d *dispatcherStub) waitForDispatch(t *testing.T) string {
	t.Helper()
	select {
	case id := <-d.sent:
		return id
	case <-time.After(time.Second):
		t.Fatal("unlock command was never dispatched")
		return ""
	}
}

func TestReserve_DispatchesUnlock(t *testing.T) {
	s := seedStore(t)
	d := newDispatcherStub()
	o := engine.NewOrchestrator(s, d)

	err := o.Reserve(context.Background(), 7, "C101")

	require.NoError(t, err)
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateUnlocking, st)
	assert.Equal(t, "C101", d.waitForDispatch(t))
}

func TestReserve_ConflictDispatchesNothing(t *testing.T) {
	s := seedStore(t)
	d := newDispatcherStub()
	o := engine.NewOrchestrator(s, d)
	require.NoError(t, o.Reserve(context.Background(), 7, "C101"))
	d.waitForDispatch(t)

	err := o.Reserve(context.Background(), 8, "C101")

	assert.ErrorIs(t, err, engine.ErrAlreadyReserved)
	select {
	case id := <-d.sent:
		t.Fatalf("unexpected dispatch for cycle %s", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReserve_UserAlreadyHolding(t *testing.T) {
	s := seedStore(t)
	d := newDispatcherStub()
	o := engine.NewOrchestrator(s, d)
	require.NoError(t, o.Reserve(context.Background(), 7, "C101"))
	d.waitForDispatch(t)

	err := o.Reserve(context.Background(), 7, "C102")

	assert.ErrorIs(t, err, engine.ErrUserAlreadyHolding)
	st, _ := s.CycleState("C102")
	assert.Equal(t, engine.StateAvailable, st)
}

func TestReserve_UnknownCycle(t *testing.T) {
	s := seedStore(t)
	o := engine.NewOrchestrator(s, newDispatcherStub())

	err := o.Reserve(context.Background(), 7, "C999")

	assert.ErrorIs(t, err, engine.ErrCycleNotFound)
}

func TestReserve_DispatchFailureKeepsReservation(t *testing.T) {
	s := seedStore(t)
	d := newDispatcherStub()
	d.err = errors.New("broker down")
	o := engine.NewOrchestrator(s, d)

	err := o.Reserve(context.Background(), 7, "C101")

	require.NoError(t, err, "reservation means granted, not physically completed")
	d.waitForDispatch(t)
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateUnlocking, st)
	_, holding := s.UserStatus(7)
	assert.True(t, holding)
}
