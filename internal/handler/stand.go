package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
)

// StandHandler exposes read-only availability projections over the
// engine store.  All methods assume JWT authentication has already been
// performed by middleware.
type StandHandler struct {
	Store *engine.Store
}

// NewStandHandler constructs a StandHandler.  The store must be non-nil.
func NewStandHandler(store *engine.Store) *StandHandler {
	if store == nil {
		panic("nil store passed to NewStandHandler")
	}
	return &StandHandler{Store: store}
}

// GetStands handles GET /v1/stands.  It returns every stand with its
// total and currently available cycle counts, ordered by stand ID.
func (h *StandHandler) GetStands(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"items": h.Store.Stands(),
	})
}

// GetStandAvailability handles GET /v1/stands/:id.  It returns the
// number of AVAILABLE cycles at the stand and a cycleID -> display name
// mapping for the rider to pick from.  An unknown stand yields 404.
func (h *StandHandler) GetStandAvailability(c echo.Context) error {
	standID := c.Param("id")
	if standID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id"})
	}
	cycles, err := h.Store.ListAvailable(standID)
	if err != nil {
		if errors.Is(err, engine.ErrStandNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stand not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to query availability"})
	}
	names := make(map[string]string, len(cycles))
	for _, cy := range cycles {
		names[cy.ID] = cy.Name
	}
	resp := echo.Map{
		"available": len(cycles),
		"cycles":    names,
	}
	if len(cycles) == 0 {
		resp["message"] = "No cycles available at this stand."
	}
	return c.JSON(http.StatusOK, resp)
}
