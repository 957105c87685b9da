package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/okoskine/resbook/internal/model"
)

// ResourceRepo provides CRUD operations for resources plus the row lock
// that serializes reservation validation per resource.
type ResourceRepo struct{ DB *sql.DB }

func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{DB: db} }

const resourceColumns = `id, unit_id, name, authentication, reservable,
	need_manual_confirmation, max_reservations_per_user,
	min_period_seconds, max_period_seconds, created_at, updated_at`

func scanResource(scan func(dest ...any) error) (*model.Resource, error) {
	var res model.Resource
	var minSec, maxSec int64
	err := scan(&res.ID, &res.UnitID, &res.Name, &res.Authentication, &res.Reservable,
		&res.NeedManualConfirmation, &res.MaxReservationsPerUser,
		&minSec, &maxSec, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.MinPeriod = time.Duration(minSec) * time.Second
	res.MaxPeriod = time.Duration(maxSec) * time.Second
	return &res, nil
}

// Create inserts a resource and populates the generated id.
func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	result, err := r.DB.ExecContext(ctx,
		`INSERT INTO resources (unit_id, name, authentication, reservable,
			need_manual_confirmation, max_reservations_per_user,
			min_period_seconds, max_period_seconds)
		 VALUES (?,?,?,?,?,?,?,?)`,
		res.UnitID, res.Name, res.Authentication, res.Reservable,
		res.NeedManualConfirmation, res.MaxReservationsPerUser,
		int64(res.MinPeriod/time.Second), int64(res.MaxPeriod/time.Second))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	loaded, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return err
	}
	*res = *loaded
	return nil
}

// GetByID fetches a resource, returning ErrNotFound for unknown ids.
func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+resourceColumns+" FROM resources WHERE id=?", id)
	res, err := scanResource(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// List returns resources, optionally restricted to a unit (unitID > 0).
func (r *ResourceRepo) List(ctx context.Context, unitID uint64) ([]model.Resource, error) {
	q := "SELECT " + resourceColumns + " FROM resources"
	args := []any{}
	if unitID > 0 {
		q += " WHERE unit_id=?"
		args = append(args, unitID)
	}
	q += " ORDER BY name"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a resource.
func (r *ResourceRepo) Update(ctx context.Context, res *model.Resource) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE resources SET unit_id=?, name=?, authentication=?, reservable=?,
			need_manual_confirmation=?, max_reservations_per_user=?,
			min_period_seconds=?, max_period_seconds=?
		 WHERE id=?`,
		res.UnitID, res.Name, res.Authentication, res.Reservable,
		res.NeedManualConfirmation, res.MaxReservationsPerUser,
		int64(res.MinPeriod/time.Second), int64(res.MaxPeriod/time.Second), res.ID)
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

// Delete removes a resource. Resources with reservations cannot be
// removed; the handler maps ErrConflict to a 409 response.
func (r *ResourceRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE resource_id=?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	result, err := r.DB.ExecContext(ctx, "DELETE FROM resources WHERE id=?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LockTx acquires an exclusive row lock on the resource inside the given
// transaction. Concurrent reservation attempts against the same resource
// block here until the holding transaction commits or rolls back, which
// makes the overlap and quota checks that follow observe a consistent
// snapshot. Reservations on other resources proceed in parallel.
func (r *ResourceRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var locked uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM resources WHERE id=? FOR UPDATE", id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
