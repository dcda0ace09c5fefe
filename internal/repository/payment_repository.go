package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/trip-ticketing/internal/model"
)

// ErrPaymentNotFound is returned when a payment lookup yields no rows.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo provides data access to the payments table. Rows are
// never deleted; the table is the settlement audit trail. Terminal
// transitions go through Settle, which guards on PENDING so a payment
// can settle at most once no matter how often a gateway callback is
// retried.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a new payment and populates the generated ID and
// creation timestamp on the provided record. PaidAt is set by Settle;
// here it stays NULL even for rows created in a terminal status so the
// settlement time is only ever written by the settle statement.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (ticket_id, user_id, amount_cents, method, status, external_ref)
			   VALUES (?, ?, ?, ?, ?, ?)`
	var ref sql.NullString
	if p.ExternalRef != nil {
		ref = sql.NullString{String: *p.ExternalRef, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q, p.TicketID, p.UserID, p.AmountCents, string(p.Method), string(p.Status), ref)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT created_at FROM payments WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// GetByID retrieves a payment by its id. Returns ErrPaymentNotFound
// when the payment does not exist.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	const q = `SELECT id, ticket_id, user_id, amount_cents, method, status, external_ref, receipt_no, paid_at, created_at
			   FROM payments WHERE id = ?`
	return r.scanPayment(r.db.QueryRowContext(ctx, q, id))
}

func (r *PaymentRepo) scanPayment(row *sql.Row) (*model.Payment, error) {
	var p model.Payment
	var method, status string
	var ref, receipt sql.NullString
	var paidAt sql.NullTime
	err := row.Scan(&p.ID, &p.TicketID, &p.UserID, &p.AmountCents, &method, &status, &ref, &receipt, &paidAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if m, ok := model.ParsePaymentMethod(method); ok {
		p.Method = m
	}
	if s, ok := model.ParsePaymentStatus(status); ok {
		p.Status = s
	}
	if ref.Valid {
		v := ref.String
		p.ExternalRef = &v
	}
	if receipt.Valid {
		p.ReceiptNo = receipt.String
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return &p, nil
}

// Settle moves a PENDING payment to a terminal status, stamping the
// receipt number and settlement time in the same statement. The guard
// on PENDING makes the write idempotent under retried callbacks: the
// first caller settles the row, later callers see false and must read
// the current state to decide whether the outcome matches. Returns
// false with a nil error when the guard rejected the write.
func (r *PaymentRepo) Settle(ctx context.Context, id uint64, status model.PaymentStatus, receiptNo string) (bool, error) {
	const q = `UPDATE payments
			   SET status = ?, receipt_no = ?, paid_at = UTC_TIMESTAMP()
			   WHERE id = ? AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, q, string(status), receiptNo, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RefundCompletedByTicket marks the COMPLETED payment of a ticket as
// REFUNDED. At most one payment per ticket is ever COMPLETED, so the
// statement touches at most one row; touching none (no completed
// payment, or already refunded) is a no-op, keeping the operation
// retry-safe.
func (r *PaymentRepo) RefundCompletedByTicket(ctx context.Context, ticketID uint64) error {
	const q = `UPDATE payments
			   SET status = 'REFUNDED'
			   WHERE ticket_id = ? AND status = 'COMPLETED'`
	_, err := r.db.ExecContext(ctx, q, ticketID)
	return err
}

// PaymentDetail is a payment view enriched with user and trip summary
// fields, mirroring what the tickets the payments settle look like.
type PaymentDetail struct {
	ID                uint64  `json:"id"`
	TicketID          uint64  `json:"ticket_id"`
	UserID            uint64  `json:"user_id"`
	AmountCents       uint32  `json:"amount_cents"`
	Method            string  `json:"method"`
	Status            string  `json:"status"`
	ExternalRef       *string `json:"external_ref,omitempty"`
	ReceiptNo         *string `json:"receipt_no,omitempty"`
	PaidAt            *string `json:"paid_at,omitempty"`
	UserFullName      *string `json:"user_full_name,omitempty"`
	DepartureLocation string  `json:"departure_location"`
	ArrivalLocation   string  `json:"arrival_location"`
	SeatNumber        uint32  `json:"seat_number"`
}

const paymentDetailSelect = `SELECT p.id, p.ticket_id, p.user_id, p.amount_cents, p.method, p.status,
									p.external_ref, p.receipt_no, p.paid_at,
									u.full_name, tr.departure_location, tr.arrival_location, se.seat_number
							 FROM payments p
							 JOIN tickets t ON t.id = p.ticket_id
							 JOIN trips tr ON tr.id = t.trip_id
							 JOIN seats se ON se.id = t.seat_id
							 LEFT JOIN users u ON u.id = p.user_id`

// ListAll returns enriched views for every payment, newest first.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]PaymentDetail, error) {
	return r.listDetails(ctx, paymentDetailSelect+` ORDER BY p.created_at DESC`)
}

// FindByTicket returns all settlement attempts recorded against a
// ticket, oldest first, so retries read as a history.
func (r *PaymentRepo) FindByTicket(ctx context.Context, ticketID uint64) ([]PaymentDetail, error) {
	return r.listDetails(ctx, paymentDetailSelect+` WHERE p.ticket_id = ? ORDER BY p.created_at`, ticketID)
}

// FindByUser returns all payments made by a user, newest first.
func (r *PaymentRepo) FindByUser(ctx context.Context, userID uint64) ([]PaymentDetail, error) {
	return r.listDetails(ctx, paymentDetailSelect+` WHERE p.user_id = ? ORDER BY p.created_at DESC`, userID)
}

func (r *PaymentRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]PaymentDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]PaymentDetail, 0)
	for rows.Next() {
		var d PaymentDetail
		var ref, receipt, fullName sql.NullString
		var paidAt sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.TicketID, &d.UserID, &d.AmountCents, &d.Method, &d.Status,
			&ref, &receipt, &paidAt,
			&fullName, &d.DepartureLocation, &d.ArrivalLocation, &d.SeatNumber,
		); err != nil {
			return nil, err
		}
		if ref.Valid {
			v := ref.String
			d.ExternalRef = &v
		}
		if receipt.Valid && receipt.String != "" {
			v := receipt.String
			d.ReceiptNo = &v
		}
		if paidAt.Valid {
			v := paidAt.Time.UTC().Format(time.RFC3339)
			d.PaidAt = &v
		}
		if fullName.Valid {
			v := fullName.String
			d.UserFullName = &v
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
