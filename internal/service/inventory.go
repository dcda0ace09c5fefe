package service

import (
	"context"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/repository"
)

// SeatInventory owns per-trip seat records and their availability flag.
// It is the single source of truth for whether a seat is bookable right
// now. Claim and release delegate to single-statement conditional
// updates in the repository; initialization runs in one transaction so
// either all seats of a trip exist or none do.
type SeatInventory struct {
	trips *repository.TripRepo
	seats *repository.SeatRepo
}

// NewSeatInventory constructs a SeatInventory. Both repositories must
// be non-nil.
func NewSeatInventory(trips *repository.TripRepo, seats *repository.SeatRepo) *SeatInventory {
	if trips == nil || seats == nil {
		panic("nil repository passed to NewSeatInventory")
	}
	return &SeatInventory{trips: trips, seats: seats}
}

// CreateTripWithSeats inserts a trip and its full seat block in a
// single transaction. The trip record's ID is populated on success.
// Fails with ErrInvalidSeatCount when the trip declares no seats.
func (s *SeatInventory) CreateTripWithSeats(ctx context.Context, trip *model.Trip) error {
	if trip.TotalSeats == 0 {
		return ErrInvalidSeatCount
	}
	tx, err := s.trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.trips.CreateTx(ctx, tx, trip); err != nil {
		return err
	}
	if err := s.seats.CreateForTripTx(ctx, tx, trip.ID, trip.TotalSeats); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// InitializeSeats creates totalSeats seat records numbered
// 1..totalSeats for an existing trip, all available. Fails with
// ErrInvalidSeatCount when totalSeats is zero, ErrTripNotFound when the
// trip does not exist and ErrSeatsAlreadyInitialized when seats were
// already created. The trip row is locked for the duration of the
// transaction so two concurrent backfills for the same trip cannot both
// pass the emptiness check; the insert is all seats or none.
func (s *SeatInventory) InitializeSeats(ctx context.Context, tripID uint64, totalSeats uint32) error {
	if totalSeats == 0 {
		return ErrInvalidSeatCount
	}
	tx, err := s.seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.trips.LockTx(ctx, tx, tripID); err != nil {
		return err
	}
	n, err := s.seats.CountByTripTx(ctx, tx, tripID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrSeatsAlreadyInitialized
	}
	if err := s.seats.CreateForTripTx(ctx, tx, tripID, totalSeats); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// TryClaim atomically flips a seat from available to unavailable and
// reports whether the claim succeeded. False means the seat is held or
// does not exist.
func (s *SeatInventory) TryClaim(ctx context.Context, seatID uint64) (bool, error) {
	return s.seats.TryClaim(ctx, seatID)
}

// Release flips a seat back to available. Idempotent.
func (s *SeatInventory) Release(ctx context.Context, seatID uint64) error {
	return s.seats.Release(ctx, seatID)
}

// Get returns a single seat record.
func (s *SeatInventory) Get(ctx context.Context, seatID uint64) (*model.Seat, error) {
	return s.seats.GetByID(ctx, seatID)
}

// ListByTrip returns all seats of a trip ordered by seat number.
func (s *SeatInventory) ListByTrip(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	return s.seats.ListByTrip(ctx, tripID)
}
