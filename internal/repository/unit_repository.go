package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/okoskine/resbook/internal/model"
)

// UnitRepo provides CRUD operations for units.
type UnitRepo struct{ DB *sql.DB }

func NewUnitRepo(db *sql.DB) *UnitRepo { return &UnitRepo{DB: db} }

const unitColumns = "id, name, time_zone, created_at, updated_at"

// Create inserts a unit and populates the generated id on the model.
func (r *UnitRepo) Create(ctx context.Context, u *model.Unit) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO units (name, time_zone) VALUES (?,?)", u.Name, u.TimeZone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT "+unitColumns+" FROM units WHERE id=?", u.ID).
		Scan(&u.ID, &u.Name, &u.TimeZone, &u.CreatedAt, &u.UpdatedAt)
}

// GetByID fetches a unit, returning ErrNotFound for unknown ids.
func (r *UnitRepo) GetByID(ctx context.Context, id uint64) (*model.Unit, error) {
	var u model.Unit
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+unitColumns+" FROM units WHERE id=?", id).
		Scan(&u.ID, &u.Name, &u.TimeZone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all units ordered by name.
func (r *UnitRepo) List(ctx context.Context) ([]model.Unit, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+unitColumns+" FROM units ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	units := make([]model.Unit, 0)
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.TimeZone, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// Update modifies a unit's name and time zone.
func (r *UnitRepo) Update(ctx context.Context, u *model.Unit) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE units SET name=?, time_zone=? WHERE id=?", u.Name, u.TimeZone, u.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a unit. It returns ErrConflict when resources still
// belong to the unit and ErrNotFound when the unit does not exist.
func (r *UnitRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM resources WHERE unit_id=?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM units WHERE id=?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
