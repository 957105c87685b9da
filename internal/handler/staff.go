package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

// StaffHandler bundles the repositories behind the staff management
// API. Routes using it sit behind the staff role middleware, so the
// handlers only deal with input validation and persistence.
type StaffHandler struct {
	UnitRepo     *repository.UnitRepo
	ResourceRepo *repository.ResourceRepo
	UserRepo     *repository.UserRepo
}

func NewStaffHandler(u *repository.UnitRepo, r *repository.ResourceRepo, users *repository.UserRepo) *StaffHandler {
	return &StaffHandler{UnitRepo: u, ResourceRepo: r, UserRepo: users}
}

type unitBody struct {
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
}

func (b *unitBody) validate() (string, string, bool) {
	name := strings.TrimSpace(b.Name)
	tz := strings.TrimSpace(b.TimeZone)
	if tz == "" {
		tz = "UTC"
	}
	if name == "" {
		return "", "", false
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", "", false
	}
	return name, tz, true
}

// CreateUnit handles POST /v1/staff/units.
func (h *StaffHandler) CreateUnit(c echo.Context) error {
	var body unitBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name, tz, ok := body.validate()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a valid time_zone are required"})
	}
	unit := &model.Unit{Name: name, TimeZone: tz}
	if err := h.UnitRepo.Create(c.Request().Context(), unit); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create unit"})
	}
	return c.JSON(http.StatusCreated, publicUnit(unit))
}

// UpdateUnit handles PUT /v1/staff/units/:id.
func (h *StaffHandler) UpdateUnit(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit id"})
	}
	var body unitBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name, tz, ok := body.validate()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a valid time_zone are required"})
	}
	unit := &model.Unit{ID: id, Name: name, TimeZone: tz}
	if err := h.UnitRepo.Update(c.Request().Context(), unit); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, publicUnit(unit))
}

// DeleteUnit handles DELETE /v1/staff/units/:id. A unit that still has
// resources cannot be removed.
func (h *StaffHandler) DeleteUnit(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit id"})
	}
	if err := h.UnitRepo.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "unit still has resources"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

type resourceBody struct {
	Unit                   uint64 `json:"unit"`
	Name                   string `json:"name"`
	Authentication         string `json:"authentication"`
	Reservable             *bool  `json:"reservable"`
	NeedManualConfirmation bool   `json:"need_manual_confirmation"`
	MaxReservationsPerUser int    `json:"max_reservations_per_user"`
	MinPeriodSeconds       int    `json:"min_period_seconds"`
	MaxPeriodSeconds       int    `json:"max_period_seconds"`
}

func (b *resourceBody) toModel() (*model.Resource, string) {
	name := strings.TrimSpace(b.Name)
	if b.Unit == 0 || name == "" {
		return nil, "unit and name are required"
	}
	auth := strings.TrimSpace(b.Authentication)
	if auth == "" {
		auth = model.AuthenticationNone
	}
	if auth != model.AuthenticationNone && auth != model.AuthenticationStaff {
		return nil, "invalid authentication policy"
	}
	if b.MinPeriodSeconds < 0 || b.MaxPeriodSeconds < 0 ||
		(b.MaxPeriodSeconds > 0 && b.MaxPeriodSeconds < b.MinPeriodSeconds) {
		return nil, "invalid reservation period limits"
	}
	reservable := true
	if b.Reservable != nil {
		reservable = *b.Reservable
	}
	return &model.Resource{
		UnitID:                 b.Unit,
		Name:                   name,
		Authentication:         auth,
		Reservable:             reservable,
		NeedManualConfirmation: b.NeedManualConfirmation,
		MaxReservationsPerUser: b.MaxReservationsPerUser,
		MinPeriod:              time.Duration(b.MinPeriodSeconds) * time.Second,
		MaxPeriod:              time.Duration(b.MaxPeriodSeconds) * time.Second,
	}, ""
}

// CreateResource handles POST /v1/staff/resources.
func (h *StaffHandler) CreateResource(c echo.Context) error {
	var body resourceBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, msg := body.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.UnitRepo.GetByID(ctx, res.UnitID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.ResourceRepo.Create(ctx, res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create resource"})
	}
	return c.JSON(http.StatusCreated, publicResource(res))
}

// UpdateResource handles PUT /v1/staff/resources/:id.
func (h *StaffHandler) UpdateResource(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	var body resourceBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, msg := body.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	res.ID = id
	if err := h.ResourceRepo.Update(c.Request().Context(), res); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, publicResource(res))
}

// DeleteResource handles DELETE /v1/staff/resources/:id. A resource
// with reservations cannot be removed; cancel the reservations first.
func (h *StaffHandler) DeleteResource(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	if err := h.ResourceRepo.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "resource has reservations"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

type unitStaffBody struct {
	UserID uint64 `json:"user_id"`
}

// AddUnitStaff handles POST /v1/staff/units/:id/staff. Members gain the
// administrator role for every resource in the unit.
func (h *StaffHandler) AddUnitStaff(c echo.Context) error {
	unitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || unitID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit id"})
	}
	var body unitStaffBody
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	ctx := c.Request().Context()
	if _, err := h.UnitRepo.GetByID(ctx, unitID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if _, err := h.UserRepo.GetByID(ctx, body.UserID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user does not exist"})
	}
	if err := h.UserRepo.AddUnitStaff(ctx, unitID, body.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add unit staff"})
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveUnitStaff handles DELETE /v1/staff/units/:id/staff/:userID.
func (h *StaffHandler) RemoveUnitStaff(c echo.Context) error {
	unitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || unitID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit id"})
	}
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.UserRepo.RemoveUnitStaff(c.Request().Context(), unitID, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove unit staff"})
	}
	return c.NoContent(http.StatusNoContent)
}
