package model

import "time"

// Seat is one numbered seat on a trip.  Seats are created in bulk when
// the trip is created (numbered 1..total_seats) and are never deleted
// while the trip exists.  IsAvailable is the single source of truth for
// whether the seat can be booked right now: it is false exactly while
// one BOOKED or COMPLETED ticket references the seat.
//
// Fields:
//  ID          – primary key identifier.
//  TripID      – trip to which this seat belongs.
//  SeatNumber  – position within the trip (1-based, unique per trip).
//  IsAvailable – availability flag flipped only by claim/release.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Seat struct {
	ID          uint64    `json:"id"`           // seats.id
	TripID      uint64    `json:"trip_id"`      // seats.trip_id
	SeatNumber  uint32    `json:"seat_number"`  // seats.seat_number
	IsAvailable bool      `json:"is_available"` // seats.is_available
	CreatedAt   time.Time `json:"created_at"`   // seats.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // seats.updated_at
}
