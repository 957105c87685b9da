// This file defines handlers for the public browsing API. These routes
// let unauthenticated users discover units and the resources they offer.
// Timestamps and administrative settings are filtered from responses.

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

// BrowseHandler aggregates repositories needed for unauthenticated
// browsing. It produces sanitized responses suitable for public
// consumption.
type BrowseHandler struct {
	UnitRepo     *repository.UnitRepo
	ResourceRepo *repository.ResourceRepo
}

func NewBrowseHandler(u *repository.UnitRepo, r *repository.ResourceRepo) *BrowseHandler {
	return &BrowseHandler{UnitRepo: u, ResourceRepo: r}
}

func publicUnit(u *model.Unit) echo.Map {
	return echo.Map{
		"id":        u.ID,
		"name":      u.Name,
		"time_zone": u.TimeZone,
	}
}

func publicResource(r *model.Resource) echo.Map {
	return echo.Map{
		"id":                        r.ID,
		"unit":                      r.UnitID,
		"name":                      r.Name,
		"authentication":            r.Authentication,
		"reservable":                r.Reservable,
		"need_manual_confirmation":  r.NeedManualConfirmation,
		"max_reservations_per_user": r.MaxReservationsPerUser,
		"min_period_seconds":        int(r.MinPeriod.Seconds()),
		"max_period_seconds":        int(r.MaxPeriod.Seconds()),
	}
}

// ListUnits handles GET /v1/units.
func (h *BrowseHandler) ListUnits(c echo.Context) error {
	units, err := h.UnitRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load units"})
	}
	out := make([]echo.Map, 0, len(units))
	for i := range units {
		out = append(out, publicUnit(&units[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "results": out})
}

// GetUnit handles GET /v1/units/:id.
func (h *BrowseHandler) GetUnit(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit id"})
	}
	u, err := h.UnitRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load unit"})
	}
	return c.JSON(http.StatusOK, publicUnit(u))
}

// ListResources handles GET /v1/resources with an optional unit filter.
func (h *BrowseHandler) ListResources(c echo.Context) error {
	var unitID uint64
	if raw := c.QueryParam("unit"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid value in filter unit"})
		}
		unitID = id
	}
	resources, err := h.ResourceRepo.List(c.Request().Context(), unitID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resources"})
	}
	out := make([]echo.Map, 0, len(resources))
	for i := range resources {
		out = append(out, publicResource(&resources[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "results": out})
}

// GetResource handles GET /v1/resources/:id.
func (h *BrowseHandler) GetResource(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	r, err := h.ResourceRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}
	return c.JSON(http.StatusOK, publicResource(r))
}
