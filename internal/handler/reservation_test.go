package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okoskine/resbook/internal/config"
	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

func TestParseBoolToken(t *testing.T) {
	for _, s := range []string{"true", "True", "TRUE", "t", "yes", "y", "1"} {
		v, err := parseBoolToken(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"false", "False", "f", "no", "n", "0"} {
		v, err := parseBoolToken(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	for _, s := range []string{"", "2", "maybe", "tru"} {
		_, err := parseBoolToken(s)
		assert.Error(t, err, s)
	}
}

func sampleDetail() *repository.ReservationDetail {
	comments := "approved by phone"
	name := "A. Person"
	d := &repository.ReservationDetail{
		Reservation: model.Reservation{
			ID:           3,
			ResourceID:   2,
			UserID:       7,
			Begin:        time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			End:          time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
			State:        model.StateConfirmed,
			Comments:     &comments,
			ReserverName: &name,
		},
		ResourceName:    "Meeting room",
		UnitID:          5,
		UnitName:        "Main library",
		UserUUID:        "8f9ac6e2-9f33-4d3d-b9b2-1a6d7c3c0f42",
		UserEmail:       "owner@example.org",
		UserDisplayName: "Owner Person",
	}
	return d
}

func TestRepresentReservationRedaction(t *testing.T) {
	cfg := config.Config{UserIDAttribute: config.UserKeyUUID}
	d := sampleDetail()

	anon := representReservation(cfg, d, model.Actor{})
	assert.Equal(t, uint64(3), anon["id"])
	assert.Equal(t, model.StateConfirmed, anon["state"])
	assert.Equal(t, false, anon["is_own"])
	assert.NotContains(t, anon, "comments")
	assert.NotContains(t, anon, "user")
	assert.NotContains(t, anon, "reserver_name")

	owner := representReservation(cfg, d, model.Actor{User: &model.User{ID: 7}})
	assert.Equal(t, true, owner["is_own"])
	assert.NotContains(t, owner, "comments", "comments are admin only even for the owner")
	assert.NotContains(t, owner, "user")
	assert.Contains(t, owner, "reserver_name", "owner sees extra fields")

	staff := representReservation(cfg, d, model.Actor{User: &model.User{ID: 9, IsStaff: true}})
	assert.Contains(t, staff, "comments")
	assert.Contains(t, staff, "reserver_name")
	userBlock, ok := staff["user"].(echo.Map)
	require.True(t, ok)
	assert.Equal(t, d.UserUUID, userBlock["id"])
	assert.Equal(t, "owner@example.org", userBlock["email"])
}

func TestRepresentReservationUserKeyAttribute(t *testing.T) {
	d := sampleDetail()
	staff := model.Actor{User: &model.User{ID: 9, IsStaff: true}}

	byUUID := representReservation(config.Config{UserIDAttribute: config.UserKeyUUID}, d, staff)
	userBlock := byUUID["user"].(echo.Map)
	assert.Equal(t, d.UserUUID, userBlock["id"])

	byID := representReservation(config.Config{UserIDAttribute: config.UserKeyID}, d, staff)
	userBlock = byID["user"].(echo.Map)
	assert.Equal(t, uint64(7), userBlock["id"])
}

func TestVisibleTo(t *testing.T) {
	h := &ReservationHandler{}
	d := sampleDetail()

	owner := model.Actor{User: &model.User{ID: 7}}
	other := model.Actor{User: &model.User{ID: 8}}
	staff := model.Actor{User: &model.User{ID: 9, IsStaff: true}}

	d.State = model.StateConfirmed
	assert.True(t, h.visibleTo(d, model.Actor{}))
	assert.True(t, h.visibleTo(d, other))

	d.State = model.StateCancelled
	assert.False(t, h.visibleTo(d, model.Actor{}))
	assert.False(t, h.visibleTo(d, other))
	assert.True(t, h.visibleTo(d, owner))
	assert.True(t, h.visibleTo(d, staff))

	d.State = model.StateDenied
	assert.False(t, h.visibleTo(d, other))
	assert.True(t, h.visibleTo(d, owner))
}

func TestMayWrite(t *testing.T) {
	h := &ReservationHandler{}
	d := sampleDetail()
	res := &model.Resource{ID: d.ResourceID, UnitID: d.UnitID}

	owner := model.Actor{User: &model.User{ID: 7}}
	other := model.Actor{User: &model.User{ID: 8}}
	staff := model.Actor{User: &model.User{ID: 9, IsStaff: true}}
	unitAdmin := model.Actor{User: &model.User{ID: 10}, AdminUnits: map[uint64]struct{}{d.UnitID: {}}}

	d.NeedManualConfirmation = false
	d.State = model.StateConfirmed
	assert.True(t, h.mayWrite(d, res, owner))
	assert.False(t, h.mayWrite(d, res, other))
	assert.True(t, h.mayWrite(d, res, staff))
	assert.True(t, h.mayWrite(d, res, unitAdmin))

	// A confirmed reservation on a manually confirmed resource is locked
	// for everyone without approve capability, including the owner.
	d.NeedManualConfirmation = true
	assert.False(t, h.mayWrite(d, res, owner))
	assert.True(t, h.mayWrite(d, res, staff))
	assert.True(t, h.mayWrite(d, res, unitAdmin))

	d.State = model.StateRequested
	assert.True(t, h.mayWrite(d, res, owner), "requested rows stay editable by the owner")
}

func TestApplyLeavesOmittedFieldsUntouched(t *testing.T) {
	comments := "approved by facilities"
	name := "A. Person"
	begin := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := begin.Add(time.Hour)
	original := model.Reservation{
		ResourceID:   2,
		Begin:        begin,
		End:          end,
		Comments:     &comments,
		ReserverName: &name,
	}

	// A request that only moves the period must not clear the stored
	// comment or the extra fields.
	newEnd := end.Add(time.Hour)
	req := reservationRequest{Resource: 2, Begin: &begin, End: &newEnd}
	rv := original
	req.apply(&rv)
	require.NotNil(t, rv.Comments)
	assert.Equal(t, comments, *rv.Comments)
	require.NotNil(t, rv.ReserverName)
	assert.Equal(t, name, *rv.ReserverName)
	assert.Equal(t, newEnd, rv.End)

	// Fields that are present overwrite.
	updated := "rebooked"
	req.Comments = &updated
	rv = original
	req.apply(&rv)
	assert.Equal(t, updated, *rv.Comments)
}

func TestApproveCapability(t *testing.T) {
	currentRes := &model.Resource{ID: 1, UnitID: 5}
	targetRes := &model.Resource{ID: 2, UnitID: 6}

	staff := model.Actor{User: &model.User{ID: 1, IsStaff: true}}
	assert.True(t, approveCapability(currentRes, targetRes, staff))

	currentAdmin := model.Actor{User: &model.User{ID: 2}, AdminUnits: map[uint64]struct{}{5: {}}}
	assert.True(t, approveCapability(currentRes, currentRes, currentAdmin))
	assert.False(t, approveCapability(currentRes, targetRes, currentAdmin),
		"moving to a foreign resource needs capability there too")

	// Administering only the target unit must not grant approval on a
	// reservation that currently sits elsewhere.
	targetAdmin := model.Actor{User: &model.User{ID: 3}, AdminUnits: map[uint64]struct{}{6: {}}}
	assert.False(t, approveCapability(currentRes, targetRes, targetAdmin))

	bothAdmin := model.Actor{User: &model.User{ID: 4}, AdminUnits: map[uint64]struct{}{5: {}, 6: {}}}
	assert.True(t, approveCapability(currentRes, targetRes, bothAdmin))

	plain := model.Actor{User: &model.User{ID: 5}}
	assert.False(t, approveCapability(currentRes, currentRes, plain))
}

func TestFilterTarget(t *testing.T) {
	target, err := filterTarget(7, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), *target)

	// Unknown users match nothing instead of failing the listing.
	target, err = filterTarget(0, sql.ErrNoRows)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), *target)

	_, err = filterTarget(0, errors.New("connection lost"))
	assert.Error(t, err)
}

func TestLookupFilterUserParse(t *testing.T) {
	ctx := context.Background()

	byID := &ReservationHandler{Cfg: config.Config{UserIDAttribute: config.UserKeyID}}
	target, err := byID.lookupFilterUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), *target)
	_, err = byID.lookupFilterUser(ctx, "not-a-number")
	assert.Error(t, err)

	// In uuid mode a malformed value fails before any user lookup.
	byUUID := &ReservationHandler{Cfg: config.Config{UserIDAttribute: config.UserKeyUUID}}
	_, err = byUUID.lookupFilterUser(ctx, "not-a-uuid")
	assert.Error(t, err)
}

func TestListReservationsRejectsBadUserFilter(t *testing.T) {
	h := &ReservationHandler{Cfg: config.Config{UserIDAttribute: config.UserKeyUUID}}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/reservations?user=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.ListReservations(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid value in filter user")
}
