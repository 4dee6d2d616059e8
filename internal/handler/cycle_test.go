package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
	"github.com/iliyamo/cycle-stand-reservation/internal/handler"
)

// noopDispatcher satisfies the unlock channel without a broker.
type noopDispatcher struct{}

func (noopDispatcher) DispatchUnlock(context.Context, string) error { return nil }

func unlockRequest(e *echo.Echo, cycleID string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/cycles/:id/unlock")
	c.SetParamNames("id")
	c.SetParamValues(cycleID)
	c.Set("user_id", userID)
	return c, rec
}

func TestUnlock(t *testing.T) {
	s := seededStore(t)
	h := handler.NewCycleHandler(engine.NewOrchestrator(s, noopDispatcher{}), s)
	e := echo.New()
	c, rec := unlockRequest(e, "C101", 7)

	require.NoError(t, h.Unlock(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateUnlocking, st)
}

func TestUnlock_CycleUnavailable(t *testing.T) {
	s := seededStore(t)
	h := handler.NewCycleHandler(engine.NewOrchestrator(s, noopDispatcher{}), s)
	e := echo.New()
	c, _ := unlockRequest(e, "C101", 7)
	require.NoError(t, h.Unlock(c))

	c, rec := unlockRequest(e, "C101", 8)
	require.NoError(t, h.Unlock(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"status":"conflict","reason":"cycle_unavailable"}`, rec.Body.String())
}

func TestUnlock_UserAlreadyHolding(t *testing.T) {
	s := seededStore(t)
	h := handler.NewCycleHandler(engine.NewOrchestrator(s, noopDispatcher{}), s)
	e := echo.New()
	c, _ := unlockRequest(e, "C101", 7)
	require.NoError(t, h.Unlock(c))

	c, rec := unlockRequest(e, "C102", 7)
	require.NoError(t, h.Unlock(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"status":"conflict","reason":"user_already_holding"}`, rec.Body.String())
}

func TestUnlock_UnknownCycle(t *testing.T) {
	s := seededStore(t)
	h := handler.NewCycleHandler(engine.NewOrchestrator(s, noopDispatcher{}), s)
	e := echo.New()
	c, rec := unlockRequest(e, "C999", 7)

	require.NoError(t, h.Unlock(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnlock_MissingIdentity(t *testing.T) {
	s := seededStore(t)
	h := handler.NewCycleHandler(engine.NewOrchestrator(s, noopDispatcher{}), s)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/cycles/:id/unlock")
	c.SetParamNames("id")
	c.SetParamValues("C101")

	require.NoError(t, h.Unlock(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForceRelease(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.TryReserve("C101", 7))
	h := handler.NewCycleHandler(engine.NewOrchestrator(s, noopDispatcher{}), s)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/admin/cycles/:id/release")
	c.SetParamNames("id")
	c.SetParamValues("C101")

	require.NoError(t, h.ForceRelease(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"released":true,"from":"RESERVED","user_id":7}`, rec.Body.String())
	st, _ := s.CycleState("C101")
	assert.Equal(t, engine.StateAvailable, st)
}

func TestForceRelease_NotCheckedOut(t *testing.T) {
	s := seededStore(t)
	h := handler.NewCycleHandler(engine.NewOrchestrator(s, noopDispatcher{}), s)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/admin/cycles/:id/release")
	c.SetParamNames("id")
	c.SetParamValues("C101")

	require.NoError(t, h.ForceRelease(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
