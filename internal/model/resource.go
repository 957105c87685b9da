package model

import (
	"errors"
	"fmt"
	"time"
)

// Authentication levels accepted in the resources.authentication column.
// "none" resources can be reserved by any signed-in user, "staff"
// resources only by administrators.
const (
	AuthenticationNone  = "none"
	AuthenticationStaff = "staff"
)

// Resource is a bookable entity (room, device) with its own booking
// policy. The policy predicates consumed by the reservation validator
// and state machine are methods on this type; they are pure and operate
// on an Actor assembled once per request.
//
// Fields:
//
//	ID                      – primary key identifier.
//	UnitID                  – unit the resource belongs to.
//	Name                    – display name.
//	Authentication          – required authentication level (see constants).
//	Reservable              – whether reservations are accepted at all.
//	NeedManualConfirmation  – new reservations start as requested and must
//	                          be approved by an administrator.
//	MaxReservationsPerUser  – active-reservation quota per user, 0 = no limit.
//	MinPeriod, MaxPeriod    – bounds for a single reservation's duration,
//	                          zero values disable the respective bound.
type Resource struct {
	ID                     uint64
	UnitID                 uint64
	Name                   string
	Authentication         string
	Reservable             bool
	NeedManualConfirmation bool
	MaxReservationsPerUser int
	MinPeriod              time.Duration
	MaxPeriod              time.Duration
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsAdmin reports whether the actor administers this resource: global
// staff administer everything, unit staff administer the resources of
// their units.
func (r *Resource) IsAdmin(a Actor) bool {
	return a.IsStaff() || a.AdministersUnit(r.UnitID)
}

// CanApproveReservations reports whether the actor may move reservations
// of this resource between the requested/confirmed/denied states.
func (r *Resource) CanApproveReservations(a Actor) bool {
	return r.IsAdmin(a)
}

// CanMakeReservations reports whether the actor may create reservations
// on this resource. Administrators bypass the reservable flag and the
// authentication requirement.
func (r *Resource) CanMakeReservations(a Actor) bool {
	if !a.Authenticated() {
		return false
	}
	if r.IsAdmin(a) {
		return true
	}
	if !r.Reservable {
		return false
	}
	return r.Authentication != AuthenticationStaff
}

// Period validation errors returned by ValidateReservationPeriod.
var (
	ErrBeginAfterEnd = errors.New("reservation must end after it begins")
)

// ValidateReservationPeriod checks a candidate period against the
// resource's duration bounds. It does not consult other reservations;
// overlap and quota checks run inside the critical section.
func (r *Resource) ValidateReservationPeriod(begin, end time.Time) error {
	if !end.After(begin) {
		return ErrBeginAfterEnd
	}
	d := end.Sub(begin)
	if r.MinPeriod > 0 && d < r.MinPeriod {
		return fmt.Errorf("reservation is shorter than the minimum period %s", r.MinPeriod)
	}
	if r.MaxPeriod > 0 && d > r.MaxPeriod {
		return fmt.Errorf("reservation is longer than the maximum period %s", r.MaxPeriod)
	}
	return nil
}
