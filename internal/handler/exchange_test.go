package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okoskine/resbook/internal/repository"
)

var exchangeCols = []string{
	"item_id_hash", "item_id", "change_key", "reservation_id", "resource_id",
	"created_at", "updated_at",
}

func newExchangeTestHandler(t *testing.T) (*ExchangeHandler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewExchangeHandler(repository.NewExchangeRepo(db), repository.NewReservationRepo(db)), mock
}

func exchangeContext(method, path, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestGetReservationItem(t *testing.T) {
	h, mock := newExchangeTestHandler(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM exchange_reservations WHERE reservation_id=").
		WillReturnRows(sqlmock.NewRows(exchangeCols).
			AddRow("a1b2c3", "AAMkAGI2", "CQAAABYA", 3, 2, now, now))

	c, rec := exchangeContext(http.MethodGet, "/v1/reservations/3/exchange", "3")
	require.NoError(t, h.GetReservationItem(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"item_id_hash":"a1b2c3"`)
	assert.Contains(t, rec.Body.String(), `"reservation":3`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReservationItemNotLinked(t *testing.T) {
	h, mock := newExchangeTestHandler(t)
	mock.ExpectQuery("SELECT .+ FROM exchange_reservations WHERE reservation_id=").
		WillReturnError(sql.ErrNoRows)

	c, rec := exchangeContext(http.MethodGet, "/v1/reservations/3/exchange", "3")
	require.NoError(t, h.GetReservationItem(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReservationItemBadID(t *testing.T) {
	h, _ := newExchangeTestHandler(t)
	c, rec := exchangeContext(http.MethodGet, "/v1/reservations/abc/exchange", "abc")
	require.NoError(t, h.GetReservationItem(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
