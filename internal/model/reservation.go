package model

import "time"

// Reservation states form a closed enumeration. A reservation starts as
// requested or confirmed depending on the resource's confirmation policy,
// may be moved between requested/confirmed/denied by approvers, and ends
// up cancelled when it is "deleted". Rows are never removed.
const (
	StateRequested = "requested"
	StateConfirmed = "confirmed"
	StateDenied    = "denied"
	StateCancelled = "cancelled"
)

// States lists every valid reservation state.
var States = []string{StateRequested, StateConfirmed, StateDenied, StateCancelled}

// ValidState reports whether s is a member of the state enumeration.
func ValidState(s string) bool {
	for _, st := range States {
		if st == s {
			return true
		}
	}
	return false
}

// InitialState returns the state a freshly created reservation gets:
// requested when the resource needs manual confirmation, confirmed otherwise.
func InitialState(needManualConfirmation bool) string {
	if needManualConfirmation {
		return StateRequested
	}
	return StateConfirmed
}

// approvable is the set of states an approver may move a reservation
// between. Cancelled is deliberately absent: cancellation happens only
// through the delete operation, never through an update.
var approvable = map[string]bool{
	StateRequested: true,
	StateConfirmed: true,
	StateDenied:    true,
}

// StateTransitionAllowed implements the reservation state machine.
// Re-asserting the current state is always a no-op and therefore allowed.
// Any actual change requires approve capability on the resource and both
// endpoints of the transition to be within requested/confirmed/denied.
func StateTransitionAllowed(old, next string, canApprove bool) bool {
	if old == next {
		return true
	}
	if !canApprove {
		return false
	}
	return approvable[old] && approvable[next]
}

// ExtraFieldNames lists the resource-defined supplementary reservation
// attributes. They become mandatory on input and visible on output only
// under the conditions checked by RequiredExtraFieldsMissing and
// Reservation.AreExtraFieldsVisible.
var ExtraFieldNames = []string{
	"reserver_name",
	"reserver_phone",
	"reserver_email_address",
	"event_description",
	"number_of_participants",
}

// Reservation is a booking of a resource for a period of time.
//
// Fields:
//
//	ID           – primary key identifier.
//	ResourceID   – resource being reserved.
//	UserID       – owner of the reservation.
//	Begin, End   – reserved period, stored in UTC.
//	State        – one of the state constants above.
//	Comments     – staff-only free text (nullable).
//	Reserver*    – extra fields, required when the resource needs
//	               manual confirmation.
//	CreatedBy,
//	ModifiedBy   – audit references, set by the server only.
type Reservation struct {
	ID                   uint64
	ResourceID           uint64
	UserID               uint64
	Begin                time.Time
	End                  time.Time
	State                string
	Comments             *string
	ReserverName         *string
	ReserverPhone        *string
	ReserverEmailAddress *string
	EventDescription     *string
	NumberOfParticipants *int
	CreatedBy            uint64
	ModifiedBy           uint64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsOwn reports whether the reservation belongs to the acting user.
func (rv *Reservation) IsOwn(a Actor) bool {
	return a.Authenticated() && rv.UserID == a.User.ID
}

// Overlaps reports whether the reservation's period intersects the
// half-open interval [begin, end). Touching endpoints do not conflict.
func (rv *Reservation) Overlaps(begin, end time.Time) bool {
	return rv.Begin.Before(end) && begin.Before(rv.End)
}

// AreExtraFieldsVisible reports whether the acting user may see the
// reservation's extra fields: resource administrators and the owner may.
func (rv *Reservation) AreExtraFieldsVisible(res *Resource, a Actor) bool {
	return res.IsAdmin(a) || rv.IsOwn(a)
}

// RequiredExtraFieldsMissing returns the names of extra fields that are
// absent from the reservation even though the resource requires manual
// confirmation. An empty result means the reservation satisfies the
// resource's extra-field policy.
func (rv *Reservation) RequiredExtraFieldsMissing(res *Resource) []string {
	if !res.NeedManualConfirmation {
		return nil
	}
	var missing []string
	if rv.ReserverName == nil || *rv.ReserverName == "" {
		missing = append(missing, "reserver_name")
	}
	if rv.ReserverPhone == nil || *rv.ReserverPhone == "" {
		missing = append(missing, "reserver_phone")
	}
	if rv.ReserverEmailAddress == nil || *rv.ReserverEmailAddress == "" {
		missing = append(missing, "reserver_email_address")
	}
	if rv.EventDescription == nil || *rv.EventDescription == "" {
		missing = append(missing, "event_description")
	}
	if rv.NumberOfParticipants == nil || *rv.NumberOfParticipants <= 0 {
		missing = append(missing, "number_of_participants")
	}
	return missing
}
