package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cycle-stand-reservation/internal/engine"
	"github.com/iliyamo/cycle-stand-reservation/internal/handler"
	"github.com/iliyamo/cycle-stand-reservation/internal/model"
)

func seededStore(t *testing.T) *engine.Store {
	t.Helper()
	s := engine.NewStore()
	err := s.Seed(
		[]model.Stand{{ID: "stand-01", Name: "Library"}},
		[]model.Cycle{
			{ID: "C101", StandID: "stand-01", Name: "101"},
			{ID: "C102", StandID: "stand-01", Name: "102"},
		},
	)
	require.NoError(t, err)
	return s
}

func TestGetStands(t *testing.T) {
	s := seededStore(t)
	h := handler.NewStandHandler(s)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/stands", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.GetStands(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"id":"stand-01","name":"Library","total":2,"available":2}]}`, rec.Body.String())
}

func TestGetStandAvailability(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.TryReserve("C101", 7))
	h := handler.NewStandHandler(s)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/stands/:id")
	c.SetParamNames("id")
	c.SetParamValues("stand-01")

	require.NoError(t, h.GetStandAvailability(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":1,"cycles":{"C102":"102"}}`, rec.Body.String())
}

func TestGetStandAvailability_Empty(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.TryReserve("C101", 7))
	require.NoError(t, s.TryReserve("C102", 8))
	h := handler.NewStandHandler(s)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/stands/:id")
	c.SetParamNames("id")
	c.SetParamValues("stand-01")

	require.NoError(t, h.GetStandAvailability(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":0,"cycles":{},"message":"No cycles available at this stand."}`, rec.Body.String())
}

func TestGetStandAvailability_NotFound(t *testing.T) {
	h := handler.NewStandHandler(seededStore(t))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/stands/:id")
	c.SetParamNames("id")
	c.SetParamValues("stand-99")

	require.NoError(t, h.GetStandAvailability(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
