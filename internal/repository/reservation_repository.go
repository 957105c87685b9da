package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/okoskine/resbook/internal/model"
)

// ReservationRepo provides persistence for reservations. The quota and
// overlap checks have ...Tx variants because they must run inside the
// transaction that holds the resource row lock; running them outside it
// would let concurrent requests validate against stale reads.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationColumns = `r.id, r.resource_id, r.user_id, r.begin, r.end, r.state,
	r.comments, r.reserver_name, r.reserver_phone, r.reserver_email_address,
	r.event_description, r.number_of_participants,
	r.created_by, r.modified_by, r.created_at, r.updated_at`

// ReservationDetail is a reservation joined with the resource, unit and
// owner columns the API and the xlsx export need. Redaction of the
// owner and comments happens in the handler because it depends on the
// viewer's relationship to each row's resource.
type ReservationDetail struct {
	model.Reservation
	ResourceName           string
	UnitID                 uint64
	UnitName               string
	UserUUID               string
	UserEmail              string
	UserDisplayName        string
	NeedManualConfirmation bool
}

func scanDetail(scan func(dest ...any) error) (*ReservationDetail, error) {
	var d ReservationDetail
	err := scan(
		&d.ID, &d.ResourceID, &d.UserID, &d.Begin, &d.End, &d.State,
		&d.Comments, &d.ReserverName, &d.ReserverPhone, &d.ReserverEmailAddress,
		&d.EventDescription, &d.NumberOfParticipants,
		&d.CreatedBy, &d.ModifiedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.ResourceName, &d.NeedManualConfirmation, &d.UnitID, &d.UnitName,
		&d.UserUUID, &d.UserEmail, &d.UserDisplayName,
	)
	if err != nil {
		return nil, err
	}
	d.Begin = d.Begin.UTC()
	d.End = d.End.UTC()
	return &d, nil
}

const detailSelect = `SELECT ` + reservationColumns + `,
	res.name, res.need_manual_confirmation, u.id, u.name,
	usr.uuid, usr.email, usr.display_name
	FROM reservations r
	JOIN resources res ON res.id = r.resource_id
	JOIN units u ON u.id = res.unit_id
	JOIN users usr ON usr.id = r.user_id`

// ListQuery narrows and scopes the reservation listing. Viewer fields
// implement the visibility rules: staff see everything, authenticated
// users see their own rows plus public-state rows, anonymous viewers see
// public-state rows only. The pointer fields are optional filters.
type ListQuery struct {
	ViewerID      uint64 // 0 when anonymous
	ViewerIsStaff bool
	FilterUserID  *uint64 // rows owned by this user
	IsOwn         *bool   // restrict to (or exclude) the viewer's rows
	ResourceID    *uint64
	IncludePast   bool // when false, rows with end < now are dropped
	Now           time.Time
}

// List returns reservation details matching the query, newest first.
func (r *ReservationRepo) List(ctx context.Context, q ListQuery) ([]ReservationDetail, error) {
	var where []string
	var args []any

	if !q.ViewerIsStaff {
		if q.ViewerID != 0 {
			where = append(where, "(r.state IN (?,?) OR r.user_id = ?)")
			args = append(args, model.StateConfirmed, model.StateRequested, q.ViewerID)
		} else {
			where = append(where, "r.state IN (?,?)")
			args = append(args, model.StateConfirmed, model.StateRequested)
		}
	}
	if q.FilterUserID != nil {
		where = append(where, "r.user_id = ?")
		args = append(args, *q.FilterUserID)
	}
	if q.IsOwn != nil && q.ViewerID != 0 {
		if *q.IsOwn {
			where = append(where, "r.user_id = ?")
		} else {
			where = append(where, "r.user_id <> ?")
		}
		args = append(args, q.ViewerID)
	}
	if q.ResourceID != nil {
		where = append(where, "r.resource_id = ?")
		args = append(args, *q.ResourceID)
	}
	if !q.IncludePast {
		where = append(where, "r.end >= ?")
		args = append(args, q.Now.UTC())
	}

	query := detailSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.begin DESC, r.id DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}

// GetDetailByID returns a single reservation with its joined columns.
func (r *ReservationRepo) GetDetailByID(ctx context.Context, id uint64) (*ReservationDetail, error) {
	row := r.DB.QueryRowContext(ctx, detailSelect+" WHERE r.id = ?", id)
	d, err := scanDetail(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// GetByIDTx loads the bare reservation row inside a transaction.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	var rv model.Reservation
	err := tx.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations r WHERE r.id = ?", id).Scan(
		&rv.ID, &rv.ResourceID, &rv.UserID, &rv.Begin, &rv.End, &rv.State,
		&rv.Comments, &rv.ReserverName, &rv.ReserverPhone, &rv.ReserverEmailAddress,
		&rv.EventDescription, &rv.NumberOfParticipants,
		&rv.CreatedBy, &rv.ModifiedBy, &rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rv.Begin = rv.Begin.UTC()
	rv.End = rv.End.UTC()
	return &rv, nil
}

// CreateTx inserts a reservation within the scope of an existing
// transaction and populates the generated id. The caller must hold the
// resource row lock and commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rv *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (resource_id, user_id, `begin`, `end`, state,"+`
			comments, reserver_name, reserver_phone, reserver_email_address,
			event_description, number_of_participants, created_by, modified_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rv.ResourceID, rv.UserID, rv.Begin.UTC(), rv.End.UTC(), rv.State,
		rv.Comments, rv.ReserverName, rv.ReserverPhone, rv.ReserverEmailAddress,
		rv.EventDescription, rv.NumberOfParticipants, rv.CreatedBy, rv.ModifiedBy)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// UpdateTx rewrites the mutable columns of an existing reservation
// within a transaction. State is written as-is; the handler has already
// run the state machine.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rv *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE reservations SET resource_id=?, user_id=?, `begin`=?, `end`=?, state=?,"+`
			comments=?, reserver_name=?, reserver_phone=?, reserver_email_address=?,
			event_description=?, number_of_participants=?, modified_by=?
		 WHERE id=?`,
		rv.ResourceID, rv.UserID, rv.Begin.UTC(), rv.End.UTC(), rv.State,
		rv.Comments, rv.ReserverName, rv.ReserverPhone, rv.ReserverEmailAddress,
		rv.EventDescription, rv.NumberOfParticipants, rv.ModifiedBy, rv.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetState updates only the state and audit columns. Used by the delete
// operation, which is a logical transition to cancelled.
func (r *ReservationRepo) SetState(ctx context.Context, id uint64, state string, modifiedBy uint64) error {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET state=?, modified_by=? WHERE id=?",
		state, modifiedBy, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveTx counts the user's active reservations on a resource.
// Active means requested or confirmed and not yet ended. Must run under
// the resource row lock so the quota decision is race free.
func (r *ReservationRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, resourceID, userID uint64, now time.Time) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations"+
			" WHERE resource_id=? AND user_id=? AND state IN (?,?) AND `end` >= ?",
		resourceID, userID, model.StateRequested, model.StateConfirmed, now.UTC()).Scan(&n)
	return n, err
}

// OverlapExistsTx reports whether an uncancelled, undenied reservation
// on the resource intersects [begin, end), excluding the reservation
// being modified (excludeID 0 for creates). Must run under the resource
// row lock.
func (r *ReservationRepo) OverlapExistsTx(ctx context.Context, tx *sql.Tx, resourceID uint64, begin, end time.Time, excludeID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations"+
			" WHERE resource_id=? AND id <> ? AND state IN (?,?)"+
			" AND `begin` < ? AND `end` > ?",
		resourceID, excludeID, model.StateRequested, model.StateConfirmed,
		end.UTC(), begin.UTC()).Scan(&n)
	return n > 0, err
}
