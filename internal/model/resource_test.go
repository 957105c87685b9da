package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceIsAdmin(t *testing.T) {
	res := &Resource{ID: 1, UnitID: 5}

	assert.False(t, res.IsAdmin(Actor{}))
	assert.False(t, res.IsAdmin(Actor{User: &User{ID: 1}}))
	assert.True(t, res.IsAdmin(Actor{User: &User{ID: 1, IsStaff: true}}))
	assert.True(t, res.IsAdmin(Actor{User: &User{ID: 1}, AdminUnits: map[uint64]struct{}{5: {}}}))
	assert.False(t, res.IsAdmin(Actor{User: &User{ID: 1}, AdminUnits: map[uint64]struct{}{6: {}}}))
}

func TestCanMakeReservations(t *testing.T) {
	user := Actor{User: &User{ID: 1}}
	staff := Actor{User: &User{ID: 2, IsStaff: true}}

	open := &Resource{Reservable: true, Authentication: AuthenticationNone}
	assert.False(t, open.CanMakeReservations(Actor{}), "anonymous")
	assert.True(t, open.CanMakeReservations(user))
	assert.True(t, open.CanMakeReservations(staff))

	closed := &Resource{Reservable: false, Authentication: AuthenticationNone}
	assert.False(t, closed.CanMakeReservations(user))
	assert.True(t, closed.CanMakeReservations(staff), "admins bypass reservable")

	staffOnly := &Resource{Reservable: true, Authentication: AuthenticationStaff}
	assert.False(t, staffOnly.CanMakeReservations(user))
	assert.True(t, staffOnly.CanMakeReservations(staff))
}

func TestValidateReservationPeriod(t *testing.T) {
	begin := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	res := &Resource{MinPeriod: 30 * time.Minute, MaxPeriod: 2 * time.Hour}

	require.ErrorIs(t, res.ValidateReservationPeriod(begin, begin), ErrBeginAfterEnd)
	require.ErrorIs(t, res.ValidateReservationPeriod(begin, begin.Add(-time.Hour)), ErrBeginAfterEnd)

	assert.Error(t, res.ValidateReservationPeriod(begin, begin.Add(10*time.Minute)), "too short")
	assert.Error(t, res.ValidateReservationPeriod(begin, begin.Add(3*time.Hour)), "too long")
	assert.NoError(t, res.ValidateReservationPeriod(begin, begin.Add(30*time.Minute)))
	assert.NoError(t, res.ValidateReservationPeriod(begin, begin.Add(2*time.Hour)))

	unbounded := &Resource{}
	assert.NoError(t, unbounded.ValidateReservationPeriod(begin, begin.Add(100*time.Hour)))
	assert.NoError(t, unbounded.ValidateReservationPeriod(begin, begin.Add(time.Second)))
}
