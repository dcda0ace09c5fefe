package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/repository"
)

func newReservationFixture() (*ReservationService, *fakeSeatStore, *fakeTicketStore, *fakePaymentStore) {
	seats := newFakeSeatStore()
	tickets := newFakeTicketStore()
	payments := newFakePaymentStore()
	settlements := NewSettlementService(tickets, payments)
	return NewReservationService(seats, tickets, settlements), seats, tickets, payments
}

func TestBookExactlyOneWinnerPerSeat(t *testing.T) {
	svc, seats, tickets, _ := newReservationFixture()
	seats.add(1, 100, 1)

	const n = 32
	var wg sync.WaitGroup
	var successes, unavailable int64
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), 100, 1, user)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSeatUnavailable):
				unavailable++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful booking, got %d", successes)
	}
	if unavailable != n-1 {
		t.Fatalf("expected %d seat-unavailable losses, got %d", n-1, unavailable)
	}
	if seats.available(1) {
		t.Error("seat should be unavailable after winning claim")
	}
	if got := tickets.countActive(); got != 1 {
		t.Errorf("expected 1 active ticket, got %d", got)
	}
}

func TestBookReleasesSeatWhenTicketWriteFails(t *testing.T) {
	svc, seats, tickets, _ := newReservationFixture()
	seats.add(1, 100, 1)
	tickets.createErr = errors.New("insert failed")

	if _, err := svc.Book(context.Background(), 100, 1, 7); err == nil {
		t.Fatal("expected booking to fail when the ticket write fails")
	}
	if !seats.available(1) {
		t.Error("seat must be released after the compensating action")
	}
}

func TestBookRetriesCompensatingRelease(t *testing.T) {
	svc, seats, tickets, _ := newReservationFixture()
	seats.add(1, 100, 1)
	tickets.createErr = errors.New("insert failed")
	seats.releaseErrs = 2 // first two release attempts fail

	if _, err := svc.Book(context.Background(), 100, 1, 7); err == nil {
		t.Fatal("expected booking to fail")
	}
	if !seats.available(1) {
		t.Error("release must be retried until it succeeds")
	}
}

func TestBookRejectsSeatOfDifferentTrip(t *testing.T) {
	svc, seats, _, _ := newReservationFixture()
	seats.add(1, 100, 1)

	_, err := svc.Book(context.Background(), 200, 1, 7)
	if !errors.Is(err, repository.ErrSeatNotFound) {
		t.Fatalf("expected ErrSeatNotFound for cross-trip seat, got %v", err)
	}
	if !seats.available(1) {
		t.Error("seat must stay available when validation fails before the claim")
	}
}

func TestCancelReleasesSeatForRebooking(t *testing.T) {
	svc, seats, _, _ := newReservationFixture()
	seats.add(1, 100, 1)
	ctx := context.Background()

	booked, err := svc.Book(ctx, 100, 1, 7)
	if err != nil {
		t.Fatalf("book error: %v", err)
	}
	cancelled, refunded, err := svc.Cancel(ctx, booked.ID, 7, false)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if cancelled.Status != string(model.TicketCancelled) {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if refunded {
		t.Error("cancelling a BOOKED ticket must not report a refund")
	}
	if !seats.available(1) {
		t.Fatal("seat must be available again after cancellation")
	}

	rebooked, err := svc.Book(ctx, 100, 1, 8)
	if err != nil {
		t.Fatalf("rebooking a cancelled seat failed: %v", err)
	}
	if rebooked.UserID != 8 {
		t.Errorf("expected new owner 8, got %d", rebooked.UserID)
	}
}

func TestCancelTwiceRejected(t *testing.T) {
	svc, seats, _, _ := newReservationFixture()
	seats.add(1, 100, 1)
	ctx := context.Background()

	booked, _ := svc.Book(ctx, 100, 1, 7)
	if _, _, err := svc.Cancel(ctx, booked.ID, 7, false); err != nil {
		t.Fatalf("first cancel error: %v", err)
	}
	if _, _, err := svc.Cancel(ctx, booked.ID, 7, false); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on repeated cancel, got %v", err)
	}
}

func TestCancelOwnership(t *testing.T) {
	svc, seats, _, _ := newReservationFixture()
	seats.add(1, 100, 1)
	ctx := context.Background()

	booked, _ := svc.Book(ctx, 100, 1, 7)
	if _, _, err := svc.Cancel(ctx, booked.ID, 9, false); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign caller, got %v", err)
	}
	// Admins may cancel on behalf of any user.
	if _, _, err := svc.Cancel(ctx, booked.ID, 9, true); err != nil {
		t.Fatalf("admin cancel error: %v", err)
	}
}

func TestCancelRefundsCompletedPayment(t *testing.T) {
	svc, seats, tickets, payments := newReservationFixture()
	settlements := NewSettlementService(tickets, payments)
	seats.add(1, 100, 1)
	ctx := context.Background()

	booked, _ := svc.Book(ctx, 100, 1, 7)
	ref := "PAYPAL-REF-1"
	p, err := settlements.InitiatePayment(ctx, booked.ID, 7, 150000, "paypal", &ref)
	if err != nil {
		t.Fatalf("initiate error: %v", err)
	}
	if _, err := settlements.Confirm(ctx, p.ID, model.PaymentCompleted); err != nil {
		t.Fatalf("confirm error: %v", err)
	}

	_, refunded, err := svc.Cancel(ctx, booked.ID, 7, false)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if !refunded {
		t.Error("cancelling a COMPLETED ticket must report the refund")
	}
	rows := payments.byTicket(booked.ID)
	if len(rows) != 1 || rows[0].Status != model.PaymentRefunded {
		t.Fatalf("expected the completed payment to be REFUNDED, got %+v", rows)
	}
	if !seats.available(1) {
		t.Error("seat must be released after cancelling a completed ticket")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, seats, _, _ := newReservationFixture()
	seats.add(1, 100, 1)
	ctx := context.Background()

	booked, _ := svc.Book(ctx, 100, 1, 7)
	if _, err := svc.Get(ctx, booked.ID, 9, false); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, booked.ID, 9, true); err != nil {
		t.Fatalf("admin read error: %v", err)
	}
	if _, err := svc.Get(ctx, booked.ID, 7, false); err != nil {
		t.Fatalf("owner read error: %v", err)
	}
}

// TestTwoSeatTripLifecycle walks a two-seat trip through the full flow:
// user A books seat 1, user B loses the race for seat 1 and takes seat 2,
// A's payment completes, B cancels.
func TestTwoSeatTripLifecycle(t *testing.T) {
	svc, seats, tickets, payments := newReservationFixture()
	settlements := NewSettlementService(tickets, payments)
	seats.add(1, 100, 1)
	seats.add(2, 100, 2)
	ctx := context.Background()

	t1, err := svc.Book(ctx, 100, 1, 7)
	if err != nil {
		t.Fatalf("user A booking seat 1: %v", err)
	}
	if t1.Status != string(model.TicketBooked) || seats.available(1) {
		t.Fatalf("expected BOOKED ticket holding seat 1, got %s (available=%v)", t1.Status, seats.available(1))
	}

	if _, err := svc.Book(ctx, 100, 1, 8); !errors.Is(err, ErrSeatUnavailable) {
		t.Fatalf("expected ErrSeatUnavailable for user B on seat 1, got %v", err)
	}

	t2, err := svc.Book(ctx, 100, 2, 8)
	if err != nil {
		t.Fatalf("user B booking seat 2: %v", err)
	}
	if seats.available(2) {
		t.Fatal("seat 2 must be held after user B's booking")
	}

	ref := "PAYPAL-REF-E2E"
	p, err := settlements.InitiatePayment(ctx, t1.ID, 7, 150000, "paypal", &ref)
	if err != nil {
		t.Fatalf("initiate error: %v", err)
	}
	if _, err := settlements.Confirm(ctx, p.ID, model.PaymentCompleted); err != nil {
		t.Fatalf("confirm error: %v", err)
	}
	done, err := tickets.GetByID(ctx, t1.ID)
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if done.Status != model.TicketCompleted {
		t.Errorf("expected ticket 1 COMPLETED, got %s", done.Status)
	}
	if seats.available(1) {
		t.Error("seat 1 must stay held after payment completes")
	}

	cancelled, refunded, err := svc.Cancel(ctx, t2.ID, 8, false)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if cancelled.Status != string(model.TicketCancelled) {
		t.Errorf("expected ticket 2 CANCELLED, got %s", cancelled.Status)
	}
	if refunded {
		t.Error("cancelling an unpaid ticket must not report a refund")
	}
	if !seats.available(2) {
		t.Error("seat 2 must be released after cancellation")
	}
}

func TestSeatConservation(t *testing.T) {
	svc, seats, tickets, _ := newReservationFixture()
	const seatCount = 10
	for i := uint64(1); i <= seatCount; i++ {
		seats.add(i, 100, uint32(i))
	}
	ctx := context.Background()

	ids := make([]uint64, 0, seatCount)
	for i := uint64(1); i <= seatCount; i++ {
		d, err := svc.Book(ctx, 100, i, i)
		if err != nil {
			t.Fatalf("book seat %d: %v", i, err)
		}
		ids = append(ids, d.ID)
	}
	for i, ticketID := range ids {
		if i%2 == 0 {
			if _, _, err := svc.Cancel(ctx, ticketID, uint64(i+1), false); err != nil {
				t.Fatalf("cancel ticket %d: %v", ticketID, err)
			}
		}
	}

	// Every unavailable seat is held by exactly one active ticket.
	if claimed, active := seats.claimedCount(), tickets.countActive(); claimed != active {
		t.Fatalf("conservation violated: %d seats claimed but %d active tickets", claimed, active)
	}
}
