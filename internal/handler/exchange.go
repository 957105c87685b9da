package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/ews"
	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

// ExchangeHandler serves the calendar sync endpoints that link
// reservations to Exchange calendar items. The routes sit behind the
// staff role middleware; the sync worker authenticates as a staff
// service account.
type ExchangeHandler struct {
	ExchangeRepo    *repository.ExchangeRepo
	ReservationRepo *repository.ReservationRepo
}

func NewExchangeHandler(x *repository.ExchangeRepo, r *repository.ReservationRepo) *ExchangeHandler {
	return &ExchangeHandler{ExchangeRepo: x, ReservationRepo: r}
}

func representExchange(m *model.ExchangeReservation) echo.Map {
	return echo.Map{
		"item_id_hash": m.ItemIDHash,
		"item_id":      m.ItemID,
		"change_key":   m.ChangeKey,
		"reservation":  m.ReservationID,
		"resource":     m.ResourceID,
	}
}

// maxItemIDBody bounds the accepted XML payload. Exchange item ids are
// a few hundred bytes; anything larger is rejected unread.
const maxItemIDBody = 64 << 10

// AttachItemID handles PUT /v1/reservations/:id/exchange. The body is
// the EWS XML fragment carrying the ItemId of the mirrored calendar
// item. Re-attaching the same item refreshes its change key.
func (h *ExchangeHandler) AttachItemID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxItemIDBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read body"})
	}
	itemID, err := ews.ParseItemID(body)
	if err != nil {
		if errors.Is(err, ews.ErrNoItemID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no ItemId element in document"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid xml body"})
	}

	ctx := c.Request().Context()
	detail, err := h.ReservationRepo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}

	link := &model.ExchangeReservation{
		ItemIDHash:    itemID.Hash(),
		ItemID:        itemID.ID(),
		ChangeKey:     itemID.ChangeKey(),
		ReservationID: detail.ID,
		ResourceID:    detail.ResourceID,
	}
	if err := h.ExchangeRepo.Upsert(ctx, link); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store item link"})
	}
	return c.JSON(http.StatusOK, representExchange(link))
}

// GetReservationItem handles GET /v1/reservations/:id/exchange and
// returns the calendar item linked to the reservation, if any.
func (h *ExchangeHandler) GetReservationItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	link, err := h.ExchangeRepo.GetByReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch item link"})
	}
	return c.JSON(http.StatusOK, representExchange(link))
}

// GetItem handles GET /v1/exchange/items/:hash.
func (h *ExchangeHandler) GetItem(c echo.Context) error {
	hash := c.Param("hash")
	link, err := h.ExchangeRepo.GetByHash(c.Request().Context(), hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch item link"})
	}
	return c.JSON(http.StatusOK, representExchange(link))
}

// DeleteItem handles DELETE /v1/exchange/items/:hash, used when the
// calendar item disappeared from Exchange.
func (h *ExchangeHandler) DeleteItem(c echo.Context) error {
	hash := c.Param("hash")
	if err := h.ExchangeRepo.DeleteByHash(c.Request().Context(), hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete item link"})
	}
	return c.NoContent(http.StatusNoContent)
}
