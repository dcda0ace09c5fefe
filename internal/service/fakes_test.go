package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/repository"
)

// In-memory stores used by the reservation and settlement tests. They
// mirror the guarantees of the SQL layer: TryClaim is a compare-and-set,
// UpdateStatus guards on the version, Settle only touches PENDING rows.

type fakeSeatStore struct {
	mu          sync.Mutex
	seats       map[uint64]*model.Seat
	releaseErrs int // number of Release calls to fail before succeeding
}

func newFakeSeatStore() *fakeSeatStore {
	return &fakeSeatStore{seats: make(map[uint64]*model.Seat)}
}

func (f *fakeSeatStore) add(id, tripID uint64, number uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats[id] = &model.Seat{ID: id, TripID: tripID, SeatNumber: number, IsAvailable: true}
}

func (f *fakeSeatStore) available(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	return ok && s.IsAvailable
}

func (f *fakeSeatStore) GetByID(_ context.Context, id uint64) (*model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSeatStore) TryClaim(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[id]
	if !ok || !s.IsAvailable {
		return false, nil
	}
	s.IsAvailable = false
	return true, nil
}

func (f *fakeSeatStore) Release(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErrs > 0 {
		f.releaseErrs--
		return errors.New("transient release failure")
	}
	if s, ok := f.seats[id]; ok {
		s.IsAvailable = true
	}
	return nil
}

type fakeTicketStore struct {
	mu         sync.Mutex
	tickets    map[uint64]*model.Ticket
	nextID     uint64
	createErr  error
	updateHook func() // runs before UpdateStatus takes effect
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{tickets: make(map[uint64]*model.Ticket), nextID: 1}
}

func (f *fakeTicketStore) Create(_ context.Context, t *model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = f.nextID
	f.nextID++
	t.Version = 0
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	f.tickets[t.ID] = &cp
	return nil
}

func (f *fakeTicketStore) GetByID(_ context.Context, id uint64) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTicketStore) UpdateStatus(_ context.Context, id uint64, status model.TicketStatus, version uint32) error {
	if f.updateHook != nil {
		f.updateHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return repository.ErrTicketNotFound
	}
	if t.Version != version {
		return repository.ErrConflict
	}
	t.Status = status
	t.Version++
	t.UpdatedAt = time.Now()
	return nil
}

func (f *fakeTicketStore) detailLocked(t *model.Ticket) *repository.TicketDetail {
	return &repository.TicketDetail{
		ID:                t.ID,
		TripID:            t.TripID,
		SeatID:            t.SeatID,
		UserID:            t.UserID,
		Status:            string(t.Status),
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
		DepartureLocation: "Jakarta",
		ArrivalLocation:   "Bandung",
		PriceCents:        150000,
		SeatNumber:        uint32(t.SeatID),
	}
}

func (f *fakeTicketStore) GetDetail(_ context.Context, id uint64) (*repository.TicketDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return f.detailLocked(t), nil
}

func (f *fakeTicketStore) ListByUser(_ context.Context, userID uint64) ([]repository.TicketDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.TicketDetail
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, *f.detailLocked(t))
		}
	}
	return out, nil
}

func (f *fakeTicketStore) ListAll(_ context.Context) ([]repository.TicketDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.TicketDetail
	for _, t := range f.tickets {
		out = append(out, *f.detailLocked(t))
	}
	return out, nil
}

// countActive returns how many tickets currently hold a seat.
func (f *fakeTicketStore) countActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickets {
		if t.Status.Active() {
			n++
		}
	}
	return n
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[uint64]*model.Payment
	nextID   uint64
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[uint64]*model.Payment), nextID: 1}
}

func (f *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id uint64) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) Settle(_ context.Context, id uint64, status model.PaymentStatus, receiptNo string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = status
	p.ReceiptNo = receiptNo
	now := time.Now()
	p.PaidAt = &now
	return true, nil
}

func (f *fakePaymentStore) RefundCompletedByTicket(_ context.Context, ticketID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.TicketID == ticketID && p.Status == model.PaymentCompleted {
			p.Status = model.PaymentRefunded
		}
	}
	return nil
}

func (f *fakePaymentStore) detailLocked(p *model.Payment) repository.PaymentDetail {
	d := repository.PaymentDetail{
		ID:          p.ID,
		TicketID:    p.TicketID,
		UserID:      p.UserID,
		AmountCents: p.AmountCents,
		Method:      string(p.Method),
		Status:      string(p.Status),
		ExternalRef: p.ExternalRef,
	}
	if p.ReceiptNo != "" {
		rc := p.ReceiptNo
		d.ReceiptNo = &rc
	}
	if p.PaidAt != nil {
		at := p.PaidAt.Format(time.RFC3339)
		d.PaidAt = &at
	}
	return d
}

func (f *fakePaymentStore) ListAll(_ context.Context) ([]repository.PaymentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.PaymentDetail
	for _, p := range f.payments {
		out = append(out, f.detailLocked(p))
	}
	return out, nil
}

func (f *fakePaymentStore) FindByTicket(_ context.Context, ticketID uint64) ([]repository.PaymentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.PaymentDetail
	for _, p := range f.payments {
		if p.TicketID == ticketID {
			out = append(out, f.detailLocked(p))
		}
	}
	return out, nil
}

func (f *fakePaymentStore) FindByUser(_ context.Context, userID uint64) ([]repository.PaymentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.PaymentDetail
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, f.detailLocked(p))
		}
	}
	return out, nil
}

// byTicket returns the payment rows recorded for a ticket.
func (f *fakePaymentStore) byTicket(ticketID uint64) []model.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Payment
	for _, p := range f.payments {
		if p.TicketID == ticketID {
			out = append(out, *p)
		}
	}
	return out
}

// claimedCount returns how many seats are currently unavailable.
func (f *fakeSeatStore) claimedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.seats {
		if !s.IsAvailable {
			n++
		}
	}
	return n
}

var _ SeatStore = (*fakeSeatStore)(nil)
var _ TicketStore = (*fakeTicketStore)(nil)
var _ PaymentStore = (*fakePaymentStore)(nil)
