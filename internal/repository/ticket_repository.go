package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/trip-ticketing/internal/model"
)

// ErrTicketNotFound is returned when a ticket lookup yields no rows.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo provides CRUD operations for tickets. Status writes go
// through UpdateStatus, which guards on the optimistic version column
// so that a concurrent cancel and payment confirmation on the same
// ticket resolve deterministically: one write wins, the other sees
// ErrConflict and must re-read.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Create inserts a new ticket and populates the generated ID, version
// and timestamps on the provided record.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets (trip_id, seat_id, user_id, status) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.TripID, t.SeatID, t.UserID, string(t.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate version and timestamps.
	const sel = `SELECT id, trip_id, seat_id, user_id, status, version, created_at, updated_at
				 FROM tickets WHERE id = ?`
	var status string
	err = r.db.QueryRowContext(ctx, sel, t.ID).Scan(
		&t.ID, &t.TripID, &t.SeatID, &t.UserID, &status, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if s, ok := model.ParseTicketStatus(status); ok {
		t.Status = s
	}
	return nil
}

// GetByID retrieves a ticket by its id. Returns ErrTicketNotFound when
// the ticket does not exist.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = `SELECT id, trip_id, seat_id, user_id, status, version, created_at, updated_at
			   FROM tickets WHERE id = ?`
	var t model.Ticket
	var status string
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.TripID, &t.SeatID, &t.UserID, &status, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if s, ok := model.ParseTicketStatus(status); ok {
		t.Status = s
	}
	return &t, nil
}

// UpdateStatus writes a new status for the ticket, guarded by the
// version the caller read. The statement increments the version so any
// concurrent writer that read the same version fails its own guard.
// Returns ErrConflict when the guard rejected the write and
// ErrTicketNotFound when the ticket does not exist at all.
func (r *TicketRepo) UpdateStatus(ctx context.Context, id uint64, status model.TicketStatus, version uint32) error {
	const q = `UPDATE tickets
			   SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), id, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a lost race from a missing ticket.
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTicketNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// TicketDetail is a ticket view enriched with trip, seat and user
// summary fields for presentation. The joined fields are not
// authoritative state; tickets/seats remain the source of truth.
type TicketDetail struct {
	ID                uint64  `json:"id"`
	TripID            uint64  `json:"trip_id"`
	SeatID            uint64  `json:"seat_id"`
	UserID            uint64  `json:"user_id"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"created_at"`
	DepartureLocation string  `json:"departure_location"`
	ArrivalLocation   string  `json:"arrival_location"`
	PriceCents        uint32  `json:"price_cents"`
	SeatNumber        uint32  `json:"seat_number"`
	UserFullName      *string `json:"user_full_name,omitempty"`
	UserPhone         *string `json:"user_phone,omitempty"`
}

const ticketDetailSelect = `SELECT t.id, t.trip_id, t.seat_id, t.user_id, t.status, t.created_at,
								   tr.departure_location, tr.arrival_location, tr.price_cents,
								   se.seat_number, u.full_name, u.phone_number
							FROM tickets t
							JOIN trips tr ON tr.id = t.trip_id
							JOIN seats se ON se.id = t.seat_id
							LEFT JOIN users u ON u.id = t.user_id`

// scanTicketDetail reads one joined row into a TicketDetail.
func scanTicketDetail(scan func(dest ...interface{}) error) (*TicketDetail, error) {
	var d TicketDetail
	var fullName, phone sql.NullString
	if err := scan(
		&d.ID, &d.TripID, &d.SeatID, &d.UserID, &d.Status, &d.CreatedAt,
		&d.DepartureLocation, &d.ArrivalLocation, &d.PriceCents,
		&d.SeatNumber, &fullName, &phone,
	); err != nil {
		return nil, err
	}
	if fullName.Valid {
		v := fullName.String
		d.UserFullName = &v
	}
	if phone.Valid {
		v := phone.String
		d.UserPhone = &v
	}
	return &d, nil
}

// GetDetail returns a single enriched ticket view. Returns
// ErrTicketNotFound when the ticket does not exist.
func (r *TicketRepo) GetDetail(ctx context.Context, id uint64) (*TicketDetail, error) {
	row := r.db.QueryRowContext(ctx, ticketDetailSelect+` WHERE t.id = ?`, id)
	d, err := scanTicketDetail(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByUser returns all enriched ticket views for a user, newest
// first. When the user has no tickets an empty slice is returned.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	return r.listDetails(ctx, ticketDetailSelect+` WHERE t.user_id = ? ORDER BY t.created_at DESC`, userID)
}

// ListAll returns enriched ticket views for every ticket, newest first.
func (r *TicketRepo) ListAll(ctx context.Context) ([]TicketDetail, error) {
	return r.listDetails(ctx, ticketDetailSelect+` ORDER BY t.created_at DESC`)
}

func (r *TicketRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]TicketDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]TicketDetail, 0)
	for rows.Next() {
		d, err := scanTicketDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// CountActiveByTrip returns the number of BOOKED or COMPLETED tickets
// for a trip. Useful for auditing the conservation invariant: it must
// always equal the number of unavailable seats on the trip.
func (r *TicketRepo) CountActiveByTrip(ctx context.Context, tripID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM tickets WHERE trip_id = ? AND status IN ('BOOKED','COMPLETED')`
	var n int
	err := r.db.QueryRowContext(ctx, q, tripID).Scan(&n)
	return n, err
}
