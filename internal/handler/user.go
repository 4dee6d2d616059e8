package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
	"github.com/iliyamo/cycle-stand-reservation/internal/repository"
)

// UserHandler serves the rider's own view: current reservation status
// from the engine store and ride history from MySQL.
type UserHandler struct {
	Store *engine.Store
	Usage *repository.UsageRepo
}

// NewUserHandler constructs a UserHandler.  Both dependencies must be
// non-nil.
func NewUserHandler(store *engine.Store, usage *repository.UsageRepo) *UserHandler {
	if store == nil || usage == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Store: store, Usage: usage}
}

// Status handles GET /v1/me/status.  It reports whether the rider
// currently holds a cycle and, if so, which one and for how long.
func (h *UserHandler) Status(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	held, ok := h.Store.UserStatus(userID)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"in_use": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"in_use":          true,
		"cycle_id":        held.CycleID,
		"stand_id":        held.StandID,
		"since":           held.Since.UTC().Format(time.RFC3339),
		"elapsed_seconds": int64(time.Since(held.Since) / time.Second),
	})
}

// History handles GET /v1/me/history.  It returns the rider's completed
// rides, newest first.  When no rides exist, it returns an empty array.
func (h *UserHandler) History(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Usage.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load history"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
	})
}
