package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/utils"
)

// UserRepo provides persistence for application users and the unit_staff
// membership table that backs resource administration.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id, uuid, email, display_name, password_hash, role, is_staff, is_active, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.UUID, &u.Email, &u.DisplayName, &u.PasswordHash,
		&u.Role, &u.IsStaff, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user with a freshly generated external UUID and
// returns its ID. The password is hashed with bcrypt before storage.
func (r *UserRepo) Create(ctx context.Context, email, displayName, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (uuid, email, display_name, password_hash, role, is_staff) VALUES (?,?,?,?,?,?)",
		uuid.NewString(), email, displayName, hash, role, role == model.RoleStaff)
	if err != nil {
		// MySQL error 1062 = duplicate key, here only the unique email index
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByUUID fetches a user by external identifier.
func (r *UserRepo) GetByUUID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE uuid=? LIMIT 1", id))
}

// GetActor loads the user together with the set of units they
// administer, producing the Actor consumed by the policy predicates.
func (r *UserRepo) GetActor(ctx context.Context, userID uint64) (model.Actor, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return model.Actor{}, err
	}
	units, err := r.AdminUnitIDs(ctx, userID)
	if err != nil {
		return model.Actor{}, err
	}
	return model.Actor{User: &u, AdminUnits: units}, nil
}

// AdminUnitIDs returns the ids of the units where the user is staff.
func (r *UserRepo) AdminUnitIDs(ctx context.Context, userID uint64) (map[uint64]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT unit_id FROM unit_staff WHERE user_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	units := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		units[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return units, nil
}

// AddUnitStaff grants a user staff rights on a unit. Adding an existing
// membership is a no-op.
func (r *UserRepo) AddUnitStaff(ctx context.Context, unitID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO unit_staff (unit_id, user_id) VALUES (?,?)", unitID, userID)
	return err
}

// RemoveUnitStaff revokes a user's staff rights on a unit.
func (r *UserRepo) RemoveUnitStaff(ctx context.Context, unitID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM unit_staff WHERE unit_id=? AND user_id=?", unitID, userID)
	return err
}
