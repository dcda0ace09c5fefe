package repository // repository defines data access for trips

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/trip-ticketing/internal/model"
)

// ErrTripNotFound is returned when a trip lookup yields no rows.
var ErrTripNotFound = errors.New("trip not found")

// TripRepo provides the minimal trip-directory access this core needs:
// creating a trip together with its seats and resolving a trip id to
// its record. All other trip maintenance is handled elsewhere.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo constructs a TripRepo with the given DB handle.
func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db}
}

// DB exposes the underlying handle so callers can open transactions
// spanning trips and seats.
func (r *TripRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new trip within the scope of an existing
// transaction and populates the generated ID on the provided record.
// The caller must commit or roll back the transaction.
func (r *TripRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Trip) error {
	const q = `INSERT INTO trips (departure_location, arrival_location, departure_time, price_cents, total_seats)
			   VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.DepartureLocation, t.ArrivalLocation, t.DepartureTime, t.PriceCents, t.TotalSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// LockTx takes a row lock on the trip within the transaction so that
// concurrent writers touching the same trip's seat block serialize on
// the trip row. Returns ErrTripNotFound when the trip does not exist.
func (r *TripRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var locked uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM trips WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTripNotFound
	}
	return err
}

// GetByID retrieves a trip by its id. Returns ErrTripNotFound when the
// trip does not exist.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	const q = `SELECT id, departure_location, arrival_location, departure_time, price_cents, total_seats, created_at, updated_at
			   FROM trips WHERE id = ?`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.DepartureLocation, &t.ArrivalLocation, &t.DepartureTime, &t.PriceCents, &t.TotalSeats, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}
