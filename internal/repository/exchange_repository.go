package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/okoskine/resbook/internal/model"
)

// ExchangeRepo stores the mapping between Exchange calendar items and
// internal reservations, keyed by the item id hash.
type ExchangeRepo struct{ DB *sql.DB }

func NewExchangeRepo(db *sql.DB) *ExchangeRepo { return &ExchangeRepo{DB: db} }

const exchangeColumns = "item_id_hash, item_id, change_key, reservation_id, resource_id, created_at, updated_at"

// Upsert inserts the mapping or refreshes the change key of an existing
// one. Exchange issues a new change key for every item revision, so
// repeated syncs of the same item are expected.
func (r *ExchangeRepo) Upsert(ctx context.Context, m *model.ExchangeReservation) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO exchange_reservations (item_id_hash, item_id, change_key, reservation_id, resource_id)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE change_key=VALUES(change_key),
			reservation_id=VALUES(reservation_id), resource_id=VALUES(resource_id)`,
		m.ItemIDHash, m.ItemID, m.ChangeKey, m.ReservationID, m.ResourceID)
	return err
}

// GetByHash resolves a mapping by item id hash.
func (r *ExchangeRepo) GetByHash(ctx context.Context, hash string) (*model.ExchangeReservation, error) {
	var m model.ExchangeReservation
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+exchangeColumns+" FROM exchange_reservations WHERE item_id_hash=?", hash).
		Scan(&m.ItemIDHash, &m.ItemID, &m.ChangeKey, &m.ReservationID, &m.ResourceID,
			&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByReservation returns the mapping attached to a reservation, if any.
func (r *ExchangeRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.ExchangeReservation, error) {
	var m model.ExchangeReservation
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+exchangeColumns+" FROM exchange_reservations WHERE reservation_id=?", reservationID).
		Scan(&m.ItemIDHash, &m.ItemID, &m.ChangeKey, &m.ReservationID, &m.ResourceID,
			&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteByHash removes a mapping, e.g. when the calendar item vanished.
func (r *ExchangeRepo) DeleteByHash(ctx context.Context, hash string) error {
	result, err := r.DB.ExecContext(ctx,
		"DELETE FROM exchange_reservations WHERE item_id_hash=?", hash)
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
