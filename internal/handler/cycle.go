package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
)

// CycleHandler serves the unlock request path and the admin release
// escape hatch.  Unlock reports success as soon as the store accepted
// the reservation; the physical unlock confirmation arrives later over
// the change feed and is never waited on here.
type CycleHandler struct {
	Orchestrator *engine.Orchestrator
	Store        *engine.Store
}

// NewCycleHandler constructs a CycleHandler.  Both dependencies must be
// non-nil.
func NewCycleHandler(orch *engine.Orchestrator, store *engine.Store) *CycleHandler {
	if orch == nil || store == nil {
		panic("nil dependency passed to NewCycleHandler")
	}
	return &CycleHandler{Orchestrator: orch, Store: store}
}

// Unlock handles POST /v1/cycles/:id/unlock.  It reserves the cycle for
// the authenticated user and dispatches the unlock command.  Conflicts
// are reported precisely: 409 with reason "cycle_unavailable" when
// someone else got the cycle, "user_already_holding" when the rider
// already has an active reservation.
func (h *CycleHandler) Unlock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cycleID := c.Param("id")
	if cycleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cycle id"})
	}
	err = h.Orchestrator.Reserve(c.Request().Context(), userID, cycleID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	case errors.Is(err, engine.ErrCycleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cycle not found"})
	case errors.Is(err, engine.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"status": "conflict", "reason": "cycle_unavailable"})
	case errors.Is(err, engine.ErrUserAlreadyHolding):
		return c.JSON(http.StatusConflict, echo.Map{"status": "conflict", "reason": "user_already_holding"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}
}

// ForceRelease handles POST /v1/admin/cycles/:id/release.  It returns a
// stuck cycle to AVAILABLE from any other state.  This is the manual
// staleness escape hatch for hardware that never reported back; the
// RequireRole middleware restricts it to ADMIN users.
func (h *CycleHandler) ForceRelease(c echo.Context) error {
	cycleID := c.Param("id")
	if cycleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cycle id"})
	}
	rel, err := h.Store.ReleaseStale(cycleID)
	if err != nil {
		if errors.Is(err, engine.ErrCycleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cycle not found"})
		}
		if errors.Is(err, engine.ErrInvalidStateTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "cycle is not checked out"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"released": true,
		"from":     rel.From,
		"user_id":  rel.Ride.UserID,
	})
}
