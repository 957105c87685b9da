package handler

// reservation_repr.go holds the wire representation of reservations:
// the inbound request shape shared by create and update, field-level
// redaction for outbound JSON, and the resolution of the user block an
// administrator may use to book on somebody else's behalf.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/config"
	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

// reservationRequest is the JSON body accepted by create and update.
// Begin and end are RFC3339 timestamps. The user block is honored only
// for resource administrators; for everyone else it is silently dropped
// and the reservation is owned by the caller. State is consulted only
// on update, creates derive it from the resource.
type reservationRequest struct {
	Resource             uint64           `json:"resource"`
	Begin                *time.Time       `json:"begin"`
	End                  *time.Time       `json:"end"`
	State                string           `json:"state,omitempty"`
	Comments             *string          `json:"comments,omitempty"`
	User                 *reservationUser `json:"user,omitempty"`
	ReserverName         *string          `json:"reserver_name,omitempty"`
	ReserverPhone        *string          `json:"reserver_phone,omitempty"`
	ReserverEmailAddress *string          `json:"reserver_email_address,omitempty"`
	EventDescription     *string          `json:"event_description,omitempty"`
	NumberOfParticipants *int             `json:"number_of_participants,omitempty"`
}

// reservationUser identifies a user in request bodies. The id is the
// attribute selected by USER_ID_ATTRIBUTE: a UUID string or a numeric
// id, hence the untyped field.
type reservationUser struct {
	ID any `json:"id"`
}

// resolveUser turns a request user block into a user record using the
// configured id attribute. The returned error is suitable for a
// field-scoped 400.
func resolveUser(ctx context.Context, cfg config.Config, users *repository.UserRepo, ru *reservationUser) (*model.User, error) {
	if ru == nil || ru.ID == nil {
		return nil, errors.New("id is required")
	}
	var (
		u   model.User
		err error
	)
	if cfg.UserIDAttribute == config.UserKeyID {
		var id uint64
		switch v := ru.ID.(type) {
		case float64:
			id = uint64(v)
		case string:
			id, err = strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", v)
			}
		default:
			return nil, fmt.Errorf("invalid id %v", ru.ID)
		}
		u, err = users.GetByID(ctx, id)
	} else {
		s, ok := ru.ID.(string)
		if !ok {
			return nil, fmt.Errorf("invalid id %v", ru.ID)
		}
		u, err = users.GetByUUID(ctx, s)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invalid id %v - user does not exist", ru.ID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// apply copies the request fields onto a reservation. Optional fields
// absent from the request leave the current value untouched, so an
// update that omits comments does not clear an administrator-set
// comment. Ownership, state and audit columns are decided by the
// caller.
func (req *reservationRequest) apply(rv *model.Reservation) {
	rv.ResourceID = req.Resource
	if req.Begin != nil {
		rv.Begin = req.Begin.UTC()
	}
	if req.End != nil {
		rv.End = req.End.UTC()
	}
	if req.Comments != nil {
		rv.Comments = req.Comments
	}
	if req.ReserverName != nil {
		rv.ReserverName = req.ReserverName
	}
	if req.ReserverPhone != nil {
		rv.ReserverPhone = req.ReserverPhone
	}
	if req.ReserverEmailAddress != nil {
		rv.ReserverEmailAddress = req.ReserverEmailAddress
	}
	if req.EventDescription != nil {
		rv.EventDescription = req.EventDescription
	}
	if req.NumberOfParticipants != nil {
		rv.NumberOfParticipants = req.NumberOfParticipants
	}
}

// userKey returns the value exposed as the user id for the configured
// id attribute.
func userKey(cfg config.Config, d *repository.ReservationDetail) any {
	if cfg.UserIDAttribute == config.UserKeyID {
		return d.UserID
	}
	return d.UserUUID
}

// representReservation builds the outbound JSON for one reservation,
// applying the per-viewer redaction rules: comments and the user block
// are shown only to administrators of the row's resource, extra fields
// only to administrators and the owner.
func representReservation(cfg config.Config, d *repository.ReservationDetail, a model.Actor) echo.Map {
	res := model.Resource{ID: d.ResourceID, UnitID: d.UnitID}
	isAdmin := res.IsAdmin(a)

	out := echo.Map{
		"id":                       d.ID,
		"resource":                 d.ResourceID,
		"begin":                    d.Begin.Format(time.RFC3339),
		"end":                      d.End.Format(time.RFC3339),
		"state":                    d.State,
		"is_own":                   d.IsOwn(a),
		"need_manual_confirmation": d.NeedManualConfirmation,
	}
	if isAdmin {
		out["comments"] = d.Comments
		out["user"] = echo.Map{
			"id":           userKey(cfg, d),
			"display_name": d.UserDisplayName,
			"email":        d.UserEmail,
		}
	}
	if d.AreExtraFieldsVisible(&res, a) {
		out["reserver_name"] = d.ReserverName
		out["reserver_phone"] = d.ReserverPhone
		out["reserver_email_address"] = d.ReserverEmailAddress
		out["event_description"] = d.EventDescription
		out["number_of_participants"] = d.NumberOfParticipants
	}
	return out
}
