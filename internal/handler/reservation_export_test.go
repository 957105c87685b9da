package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/okoskine/resbook/internal/export"
	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

func TestRenderReservationsXLSX(t *testing.T) {
	h := &ReservationHandler{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/reservations?format=xlsx", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	details := []repository.ReservationDetail{*sampleDetail()}
	staff := model.Actor{User: &model.User{ID: 9, IsStaff: true}}
	require.NoError(t, h.renderReservationsXLSX(c, details, staff, "reservations.xlsx"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename=reservations.xlsx`, rec.Header().Get(echo.HeaderContentDisposition))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Reservations")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "owner@example.org", rows[1][6], "staff viewer sees the owner email")
}

func TestRenderReservationsXLSXRedactsPerRow(t *testing.T) {
	h := &ReservationHandler{}
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	details := []repository.ReservationDetail{*sampleDetail()}
	other := model.Actor{User: &model.User{ID: 8}}
	require.NoError(t, h.renderReservationsXLSX(c, details, other, "reservations.xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Reservations")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	if len(rows[1]) > 6 {
		assert.Equal(t, "", rows[1][6], "non-admin viewer gets no owner email")
	}
}

func TestValidatePipeline(t *testing.T) {
	h := &ReservationHandler{}
	now := time.Now().UTC()
	user := model.Actor{User: &model.User{ID: 1}}
	staff := model.Actor{User: &model.User{ID: 2, IsStaff: true}}
	res := &model.Resource{ID: 2, UnitID: 5, Reservable: true, Authentication: model.AuthenticationNone}

	plain := &reservationRequest{}
	ok := &model.Reservation{Begin: now.Add(time.Hour), End: now.Add(2 * time.Hour)}
	status, _ := h.validate(user, res, plain, ok)
	assert.Zero(t, status)

	status, body := h.validate(model.Actor{}, res, plain, ok)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "permission denied", body["error"])

	past := &model.Reservation{Begin: now.Add(-2 * time.Hour), End: now.Add(-time.Hour)}
	status, body = h.validate(user, res, plain, past)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot make a reservation in the past", body["error"])

	inverted := &model.Reservation{Begin: now.Add(2 * time.Hour), End: now.Add(time.Hour)}
	status, body = h.validate(user, res, plain, inverted)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation failed", body["error"])

	comments := "noted"
	withComments := &reservationRequest{Comments: &comments}
	candidate := &model.Reservation{Begin: now.Add(time.Hour), End: now.Add(2 * time.Hour), Comments: &comments}
	status, body = h.validate(user, res, withComments, candidate)
	assert.Equal(t, http.StatusBadRequest, status)
	fields := body["fields"].(map[string]string)
	assert.Contains(t, fields, "comments")

	// A stored administrator comment carried over on an update the owner
	// makes without touching it must not trip the rule.
	status, _ = h.validate(user, res, plain, candidate)
	assert.Zero(t, status)

	// Administrators may set comments.
	status, _ = h.validate(staff, res, withComments, candidate)
	assert.Zero(t, status)
}
