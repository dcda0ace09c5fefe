package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions

	"github.com/iliyamo/trip-ticketing/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides methods to work with seats in the database. The
// is_available column is flipped only through TryClaim and Release so
// that every transition is a single conditional statement.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// DB exposes the underlying handle for callers that need to open
// transactions spanning seats and trips.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// CreateForTripTx inserts totalSeats seat rows for a trip in a single
// statement, numbered 1..totalSeats and all available. It runs within
// the provided transaction so seat creation commits or rolls back
// together with the trip insert. The caller must commit or roll back.
func (r *SeatRepo) CreateForTripTx(ctx context.Context, tx *sql.Tx, tripID uint64, totalSeats uint32) error {
	if totalSeats == 0 {
		return nil
	}
	query := `INSERT INTO seats (trip_id, seat_number, is_available) VALUES `
	args := make([]interface{}, 0, int(totalSeats)*3)
	for n := uint32(1); n <= totalSeats; n++ {
		if n > 1 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, tripID, n, true)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CountByTripTx returns the number of seat rows already created for a
// trip. Used to reject double initialization inside the same
// transaction that would insert the seats.
func (r *SeatRepo) CountByTripTx(ctx context.Context, tx *sql.Tx, tripID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE trip_id = ?`, tripID).Scan(&n)
	return n, err
}

// TryClaim atomically flips a seat from available to unavailable and
// reports whether the claim succeeded. The guard on is_available makes
// the statement a compare-and-set: of any number of concurrent callers
// targeting the same seat, the database lets exactly one update the
// row. A false return means the seat is already held or does not
// exist; the caller must not retry the same seat.
func (r *SeatRepo) TryClaim(ctx context.Context, seatID uint64) (bool, error) {
	const q = `UPDATE seats
			   SET is_available = 0, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ? AND is_available = 1`
	res, err := r.db.ExecContext(ctx, q, seatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release flips a seat back to available. Releasing a seat that is
// already available, or one that does not exist, affects no rows and
// is not an error: release is idempotent so compensating actions can
// be retried safely.
func (r *SeatRepo) Release(ctx context.Context, seatID uint64) error {
	const q = `UPDATE seats
			   SET is_available = 1, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ? AND is_available = 0`
	_, err := r.db.ExecContext(ctx, q, seatID)
	return err
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, trip_id, seat_number, is_available, created_at, updated_at
			   FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.TripID, &s.SeatNumber, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByTrip retrieves all seats of a trip ordered by seat_number.
func (r *SeatRepo) ListByTrip(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	const q = `SELECT id, trip_id, seat_number, is_available, created_at, updated_at
			   FROM seats
			   WHERE trip_id = ?
			   ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.TripID, &s.SeatNumber, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
