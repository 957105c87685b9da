package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialState(t *testing.T) {
	assert.Equal(t, StateRequested, InitialState(true))
	assert.Equal(t, StateConfirmed, InitialState(false))
}

func TestValidState(t *testing.T) {
	for _, s := range States {
		assert.True(t, ValidState(s), s)
	}
	assert.False(t, ValidState("pending"))
	assert.False(t, ValidState(""))
	assert.False(t, ValidState("CONFIRMED"))
}

func TestStateTransitionAllowed(t *testing.T) {
	cases := []struct {
		name       string
		old, next  string
		canApprove bool
		want       bool
	}{
		{"same state without approve", StateConfirmed, StateConfirmed, false, true},
		{"same state cancelled", StateCancelled, StateCancelled, false, true},
		{"approve requested to confirmed", StateRequested, StateConfirmed, true, true},
		{"approve requested to denied", StateRequested, StateDenied, true, true},
		{"approve denied back to requested", StateDenied, StateRequested, true, true},
		{"approve confirmed to denied", StateConfirmed, StateDenied, true, true},
		{"change without approve", StateRequested, StateConfirmed, false, false},
		{"cancel via update denied", StateConfirmed, StateCancelled, true, false},
		{"resurrect cancelled denied", StateCancelled, StateConfirmed, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StateTransitionAllowed(tc.old, tc.next, tc.canApprove))
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	rv := &Reservation{Begin: base, End: base.Add(time.Hour)}

	assert.True(t, rv.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.True(t, rv.Overlaps(base.Add(-30*time.Minute), base.Add(30*time.Minute)))
	assert.True(t, rv.Overlaps(base.Add(-time.Hour), base.Add(2*time.Hour)))
	assert.True(t, rv.Overlaps(base.Add(10*time.Minute), base.Add(20*time.Minute)))

	// Touching endpoints do not conflict.
	assert.False(t, rv.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.False(t, rv.Overlaps(base.Add(-time.Hour), base))
	assert.False(t, rv.Overlaps(base.Add(2*time.Hour), base.Add(3*time.Hour)))
}

func TestIsOwn(t *testing.T) {
	rv := &Reservation{UserID: 7}
	assert.False(t, rv.IsOwn(Actor{}))
	assert.False(t, rv.IsOwn(Actor{User: &User{ID: 8}}))
	assert.True(t, rv.IsOwn(Actor{User: &User{ID: 7}}))
}

func TestAreExtraFieldsVisible(t *testing.T) {
	res := &Resource{ID: 1, UnitID: 5}
	rv := &Reservation{UserID: 7}

	assert.False(t, rv.AreExtraFieldsVisible(res, Actor{}))
	assert.False(t, rv.AreExtraFieldsVisible(res, Actor{User: &User{ID: 8}}))
	assert.True(t, rv.AreExtraFieldsVisible(res, Actor{User: &User{ID: 7}}), "owner")
	assert.True(t, rv.AreExtraFieldsVisible(res, Actor{User: &User{ID: 8, IsStaff: true}}), "global staff")
	unitAdmin := Actor{User: &User{ID: 8}, AdminUnits: map[uint64]struct{}{5: {}}}
	assert.True(t, rv.AreExtraFieldsVisible(res, unitAdmin), "unit staff")
}

func TestRequiredExtraFieldsMissing(t *testing.T) {
	str := func(s string) *string { return &s }
	n := 4

	relaxed := &Resource{NeedManualConfirmation: false}
	strict := &Resource{NeedManualConfirmation: true}

	empty := &Reservation{}
	assert.Nil(t, empty.RequiredExtraFieldsMissing(relaxed))
	assert.Equal(t, ExtraFieldNames, empty.RequiredExtraFieldsMissing(strict))

	partial := &Reservation{
		ReserverName:         str("A. Person"),
		ReserverPhone:        str(""),
		ReserverEmailAddress: str("a@example.org"),
		NumberOfParticipants: &n,
	}
	assert.Equal(t,
		[]string{"reserver_phone", "event_description"},
		partial.RequiredExtraFieldsMissing(strict))

	zero := 0
	full := &Reservation{
		ReserverName:         str("A. Person"),
		ReserverPhone:        str("+358501234567"),
		ReserverEmailAddress: str("a@example.org"),
		EventDescription:     str("weekly sync"),
		NumberOfParticipants: &n,
	}
	assert.Empty(t, full.RequiredExtraFieldsMissing(strict))

	full.NumberOfParticipants = &zero
	assert.Equal(t, []string{"number_of_participants"}, full.RequiredExtraFieldsMissing(strict))
}
