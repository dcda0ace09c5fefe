package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/repository"
)

func newInventoryWithMock(t *testing.T) (*SeatInventory, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	inv := NewSeatInventory(repository.NewTripRepo(db), repository.NewSeatRepo(db))
	return inv, mock, func() { _ = db.Close() }
}

func TestCreateTripWithSeatsAtomic(t *testing.T) {
	inv, mock, closeDB := newInventoryWithMock(t)
	defer closeDB()

	departure := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trips").
		WithArgs("Jakarta", "Bandung", departure, uint32(150000), uint32(3)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO seats").
		WithArgs(uint64(42), uint32(1), true, uint64(42), uint32(2), true, uint64(42), uint32(3), true).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	trip := &model.Trip{
		DepartureLocation: "Jakarta",
		ArrivalLocation:   "Bandung",
		DepartureTime:     departure,
		PriceCents:        150000,
		TotalSeats:        3,
	}
	if err := inv.CreateTripWithSeats(context.Background(), trip); err != nil {
		t.Fatalf("CreateTripWithSeats error: %v", err)
	}
	if trip.ID != 42 {
		t.Errorf("expected generated trip id 42, got %d", trip.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTripWithSeatsRollsBackOnSeatFailure(t *testing.T) {
	inv, mock, closeDB := newInventoryWithMock(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trips").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO seats").
		WillReturnError(errors.New("seat insert failed"))
	mock.ExpectRollback()

	trip := &model.Trip{
		DepartureLocation: "Jakarta",
		ArrivalLocation:   "Bandung",
		DepartureTime:     time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		TotalSeats:        2,
	}
	if err := inv.CreateTripWithSeats(context.Background(), trip); err == nil {
		t.Fatal("expected error when the seat insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected rollback, got unmet expectations: %v", err)
	}
}

func TestCreateTripWithSeatsRejectsZeroSeats(t *testing.T) {
	inv, _, closeDB := newInventoryWithMock(t)
	defer closeDB()

	trip := &model.Trip{DepartureLocation: "A", ArrivalLocation: "B"}
	if err := inv.CreateTripWithSeats(context.Background(), trip); !errors.Is(err, ErrInvalidSeatCount) {
		t.Fatalf("expected ErrInvalidSeatCount, got %v", err)
	}
}

func TestInitializeSeatsRejectsDoubleInitialization(t *testing.T) {
	inv, mock, closeDB := newInventoryWithMock(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM trips WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectRollback()

	err := inv.InitializeSeats(context.Background(), 5, 4)
	if !errors.Is(err, ErrSeatsAlreadyInitialized) {
		t.Fatalf("expected ErrSeatsAlreadyInitialized, got %v", err)
	}
}

func TestInventoryClaimReleaseRoundTrip(t *testing.T) {
	inv, mock, closeDB := newInventoryWithMock(t)
	defer closeDB()

	mock.ExpectExec("UPDATE seats").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE seats").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := inv.TryClaim(context.Background(), 3)
	if err != nil || !claimed {
		t.Fatalf("TryClaim = (%v, %v), want (true, nil)", claimed, err)
	}
	if err := inv.Release(context.Background(), 3); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInitializeSeatsUnknownTrip(t *testing.T) {
	inv, mock, closeDB := newInventoryWithMock(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM trips WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := inv.InitializeSeats(context.Background(), 404, 4)
	if !errors.Is(err, repository.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestInitializeSeatsLocksTripBeforeCounting(t *testing.T) {
	inv, mock, closeDB := newInventoryWithMock(t)
	defer closeDB()

	// Expectations are ordered: the trip row lock must be taken inside
	// the transaction before the emptiness check, so a concurrent
	// backfill blocks on the lock instead of also seeing zero seats.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM trips WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO seats").
		WithArgs(uint64(5), uint32(1), true, uint64(5), uint32(2), true).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := inv.InitializeSeats(context.Background(), 5, 2); err != nil {
		t.Fatalf("InitializeSeats error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
