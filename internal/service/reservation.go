package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/repository"
)

// SeatStore is the slice of seat inventory the reservation workflow
// needs: claim, release and a lookup to validate that a seat belongs
// to the trip being booked.
type SeatStore interface {
	GetByID(ctx context.Context, seatID uint64) (*model.Seat, error)
	TryClaim(ctx context.Context, seatID uint64) (bool, error)
	Release(ctx context.Context, seatID uint64) error
}

// TicketStore persists tickets and their enriched views. UpdateStatus
// must guard on the version the caller read and return
// repository.ErrConflict when the guard rejects the write.
type TicketStore interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	UpdateStatus(ctx context.Context, id uint64, status model.TicketStatus, version uint32) error
	GetDetail(ctx context.Context, id uint64) (*repository.TicketDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]repository.TicketDetail, error)
	ListAll(ctx context.Context) ([]repository.TicketDetail, error)
}

// Refunder undoes the completed payment of a ticket when a COMPLETED
// ticket is cancelled. Implemented by the settlement service, which
// owns all payment writes.
type Refunder interface {
	RefundCompleted(ctx context.Context, ticketID uint64) error
}

// ReservationService orchestrates ticket creation and cancellation
// against the seat inventory. It is the only writer of ticket status
// apart from the settlement service's BOOKED to COMPLETED transition.
type ReservationService struct {
	seats   SeatStore
	tickets TicketStore
	refunds Refunder
}

// NewReservationService constructs a ReservationService. The refunder
// may be nil when settlement is wired separately; seats and tickets
// must be non-nil.
func NewReservationService(seats SeatStore, tickets TicketStore, refunds Refunder) *ReservationService {
	if seats == nil || tickets == nil {
		panic("nil store passed to NewReservationService")
	}
	return &ReservationService{seats: seats, tickets: tickets, refunds: refunds}
}

// Book claims the seat and creates a BOOKED ticket for the user.
//
// The claim is the single synchronization point: of N concurrent calls
// for the same seat exactly one passes, the rest fail with
// ErrSeatUnavailable and must pick another seat. If ticket persistence
// fails after the claim, the seat is released again (with retries)
// before the error is surfaced, so a seat can never stay unavailable
// without an owning ticket beyond the retry window.
func (s *ReservationService) Book(ctx context.Context, tripID, seatID, userID uint64) (*repository.TicketDetail, error) {
	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if seat.TripID != tripID {
		return nil, fmt.Errorf("%w: seat %d does not belong to trip %d", repository.ErrSeatNotFound, seatID, tripID)
	}
	claimed, err := s.seats.TryClaim(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: seat %d", ErrSeatUnavailable, seatID)
	}
	t := &model.Ticket{
		TripID: tripID,
		SeatID: seatID,
		UserID: userID,
		Status: model.TicketBooked,
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		// Compensating action: the claim is durable but no ticket owns
		// it, so the seat must be released before the error surfaces.
		s.releaseWithRetry(ctx, seatID)
		return nil, err
	}
	return s.tickets.GetDetail(ctx, t.ID)
}

// Cancel transitions a ticket to CANCELLED and releases its seat.
// Valid only from BOOKED or COMPLETED; cancelling a COMPLETED ticket
// additionally refunds its completed payment, and the returned flag
// reports whether that refund was issued. The status write is guarded
// by the ticket version, so a cancel racing a payment confirmation
// resolves deterministically: the loser observes repository.ErrConflict
// and the caller retries the whole operation. The seat is released only
// after the status write is durable.
func (s *ReservationService) Cancel(ctx context.Context, ticketID, callerID uint64, admin bool) (*repository.TicketDetail, bool, error) {
	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, false, err
	}
	if !admin && t.UserID != callerID {
		return nil, false, repository.ErrForbidden
	}
	if t.Status == model.TicketCancelled {
		return nil, false, fmt.Errorf("%w: ticket %d is already cancelled", ErrInvalidStateTransition, ticketID)
	}
	wasCompleted := t.Status == model.TicketCompleted
	if err := s.tickets.UpdateStatus(ctx, t.ID, model.TicketCancelled, t.Version); err != nil {
		return nil, false, err
	}
	s.releaseWithRetry(ctx, t.SeatID)
	refunded := false
	if wasCompleted && s.refunds != nil {
		if err := s.refunds.RefundCompleted(ctx, ticketID); err != nil {
			// The refund statement is idempotent; the next cancellation
			// retry or an operator sweep can re-run it.
			log.Printf("reservation: refund for ticket %d failed: %v", ticketID, err)
		} else {
			refunded = true
		}
	}
	d, err := s.tickets.GetDetail(ctx, ticketID)
	return d, refunded, err
}

// Get returns the enriched view of one ticket. Non-admin callers may
// only read their own tickets.
func (s *ReservationService) Get(ctx context.Context, ticketID, callerID uint64, admin bool) (*repository.TicketDetail, error) {
	d, err := s.tickets.GetDetail(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !admin && d.UserID != callerID {
		return nil, repository.ErrForbidden
	}
	return d, nil
}

// ListByUser returns all enriched ticket views for one user.
func (s *ReservationService) ListByUser(ctx context.Context, userID uint64) ([]repository.TicketDetail, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// ListAll returns enriched views for every ticket.
func (s *ReservationService) ListAll(ctx context.Context) ([]repository.TicketDetail, error) {
	return s.tickets.ListAll(ctx)
}

// releaseWithRetry runs the idempotent seat release until it succeeds
// or the attempts run out, backing off between tries.  It is
// detached from the request's cancellation so a client giving up on
// the call cannot strand the seat.
func (s *ReservationService) releaseWithRetry(ctx context.Context, seatID uint64) {
	ctx = context.WithoutCancel(ctx)
	backoff := 100 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := s.seats.Release(ctx, seatID)
		if err == nil {
			return
		}
		if attempt == 8 {
			log.Printf("reservation: giving up releasing seat %d after %d attempts: %v", seatID, attempt, err)
			return
		}
		log.Printf("reservation: release seat %d failed (attempt %d): %v", seatID, attempt, err)
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}
