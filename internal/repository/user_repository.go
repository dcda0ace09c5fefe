package repository // repository defines read access to the user directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/trip-ticketing/internal/model"
)

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// UserRepo reads display fields from the externally maintained users
// table. This core never writes to it; registration and profile
// management live in the surrounding system.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetSummary retrieves the presentation fields for a user. Returns
// ErrUserNotFound when the user does not exist.
func (r *UserRepo) GetSummary(ctx context.Context, id uint64) (*model.UserSummary, error) {
	const q = `SELECT id, full_name, phone_number FROM users WHERE id = ?`
	var u model.UserSummary
	err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.FullName, &u.PhoneNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
