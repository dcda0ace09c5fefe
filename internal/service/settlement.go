package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/repository"
)

// PaymentStore persists settlement attempts. Settle must move a
// PENDING payment to a terminal status in one guarded statement and
// report false when the payment was no longer pending.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uint64) (*model.Payment, error)
	Settle(ctx context.Context, id uint64, status model.PaymentStatus, receiptNo string) (bool, error)
	RefundCompletedByTicket(ctx context.Context, ticketID uint64) error
	ListAll(ctx context.Context) ([]repository.PaymentDetail, error)
	FindByTicket(ctx context.Context, ticketID uint64) ([]repository.PaymentDetail, error)
	FindByUser(ctx context.Context, userID uint64) ([]repository.PaymentDetail, error)
}

// SettlementService records payment attempts against tickets and
// drives the BOOKED to COMPLETED ticket transition on settlement. It
// is the exclusive writer of payment records.
type SettlementService struct {
	tickets  TicketStore
	payments PaymentStore
}

// NewSettlementService constructs a SettlementService. Both stores
// must be non-nil.
func NewSettlementService(tickets TicketStore, payments PaymentStore) *SettlementService {
	if tickets == nil || payments == nil {
		panic("nil store passed to NewSettlementService")
	}
	return &SettlementService{tickets: tickets, payments: payments}
}

// InitiatePayment records a new settlement attempt for a ticket.
//
// Gateway methods require the gateway's payment reference and settle
// later through Confirm; cash forbids a reference and settles
// synchronously before this call returns. A ticket keeps accepting
// attempts while BOOKED (failed payments may be retried); initiating
// against a COMPLETED or CANCELLED ticket is an invalid transition.
func (s *SettlementService) InitiatePayment(ctx context.Context, ticketID, userID uint64, amountCents uint32, method string, externalRef *string) (*model.Payment, error) {
	m, ok := model.ParsePaymentMethod(method)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if amountCents == 0 {
		return nil, ErrInvalidAmount
	}
	hasRef := externalRef != nil && *externalRef != ""
	if m.RequiresExternalRef() && !hasRef {
		return nil, ErrExternalRefRequired
	}
	if !m.RequiresExternalRef() && hasRef {
		return nil, ErrExternalRefNotAllowed
	}
	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if t.Status != model.TicketBooked {
		return nil, fmt.Errorf("%w: ticket %d is %s", ErrInvalidStateTransition, ticketID, t.Status)
	}
	p := &model.Payment{
		TicketID:    ticketID,
		UserID:      userID,
		AmountCents: amountCents,
		Method:      m,
		Status:      model.PaymentPending,
	}
	if hasRef {
		ref := *externalRef
		p.ExternalRef = &ref
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	if m == model.MethodCash {
		return s.Confirm(ctx, p.ID, model.PaymentCompleted)
	}
	return p, nil
}

// Confirm applies a gateway (or cash) outcome to a pending payment.
//
// On COMPLETED the payment gets a receipt number and the ticket moves
// BOOKED to COMPLETED; the seat stays unavailable since it was claimed
// at booking time. On FAILED the ticket stays BOOKED so the user can
// retry with a new attempt. Confirm is idempotent: repeating a
// confirmation that already took effect returns the settled payment
// without further side effects. When the ticket turns out to be
// CANCELLED (a cancel won the race), the completed payment is refunded
// and ErrInvalidStateTransition is returned so the gateway integration
// can void the charge.
func (s *SettlementService) Confirm(ctx context.Context, paymentID uint64, outcome model.PaymentStatus) (*model.Payment, error) {
	if outcome != model.PaymentCompleted && outcome != model.PaymentFailed {
		return nil, fmt.Errorf("%w: got %q", ErrUnknownOutcome, outcome)
	}
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == outcome {
		// Retried confirmation. Finish the ticket transition in case an
		// earlier call settled the payment but crashed before it.
		if outcome == model.PaymentCompleted {
			if err := s.completeTicket(ctx, p.TicketID); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
	if p.Status.Terminal() {
		return nil, fmt.Errorf("%w: payment %d is %s", ErrInvalidStateTransition, paymentID, p.Status)
	}
	receipt := ""
	if outcome == model.PaymentCompleted {
		receipt = uuid.NewString()
	}
	settled, err := s.payments.Settle(ctx, paymentID, outcome, receipt)
	if err != nil {
		return nil, err
	}
	if !settled {
		// Another confirmation settled the payment between our read and
		// write. Re-read and apply the idempotency rule against the
		// winner's outcome.
		p, err = s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if p.Status != outcome {
			return nil, repository.ErrConflict
		}
	}
	if outcome == model.PaymentCompleted {
		if err := s.completeTicket(ctx, p.TicketID); err != nil {
			return nil, err
		}
	}
	return s.payments.GetByID(ctx, paymentID)
}

// completeTicket drives the associated ticket to COMPLETED, retrying
// around optimistic-version conflicts. A ticket already COMPLETED is a
// no-op. A ticket that is CANCELLED means a cancellation won the race
// after the payment settled: the payment is refunded and the invalid
// transition surfaced.
func (s *SettlementService) completeTicket(ctx context.Context, ticketID uint64) error {
	for attempt := 0; attempt < 3; attempt++ {
		t, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		switch t.Status {
		case model.TicketCompleted:
			return nil
		case model.TicketCancelled:
			if err := s.payments.RefundCompletedByTicket(ctx, ticketID); err != nil {
				return err
			}
			return fmt.Errorf("%w: ticket %d was cancelled; payment refunded", ErrInvalidStateTransition, ticketID)
		}
		err = s.tickets.UpdateStatus(ctx, t.ID, model.TicketCompleted, t.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return repository.ErrConflict
}

// RefundCompleted marks the COMPLETED payment of a ticket as REFUNDED.
// Called by the reservation service when a COMPLETED ticket is
// cancelled; idempotent because the underlying statement only touches
// COMPLETED rows.
func (s *SettlementService) RefundCompleted(ctx context.Context, ticketID uint64) error {
	return s.payments.RefundCompletedByTicket(ctx, ticketID)
}

// ListAll returns enriched views of every payment.
func (s *SettlementService) ListAll(ctx context.Context) ([]repository.PaymentDetail, error) {
	return s.payments.ListAll(ctx)
}

// FindByTicket returns the settlement history of one ticket, oldest
// attempt first. Non-admin callers may only read their own tickets.
func (s *SettlementService) FindByTicket(ctx context.Context, ticketID, callerID uint64, admin bool) ([]repository.PaymentDetail, error) {
	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !admin && t.UserID != callerID {
		return nil, repository.ErrForbidden
	}
	return s.payments.FindByTicket(ctx, ticketID)
}

// FindByUser returns all payments made by one user, newest first.
func (s *SettlementService) FindByUser(ctx context.Context, userID uint64) ([]repository.PaymentDetail, error) {
	return s.payments.FindByUser(ctx, userID)
}
