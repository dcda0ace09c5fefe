package model

import (
	"strings"
	"time"
)

// TicketStatus is the closed set of states a ticket can be in.  The
// values are stored verbatim in the database; incoming strings are
// normalized through ParseTicketStatus so that case-inconsistent input
// never leaks into storage.
type TicketStatus string

const (
	TicketBooked    TicketStatus = "BOOKED"    // seat claimed, payment outstanding
	TicketCompleted TicketStatus = "COMPLETED" // payment settled, seat kept
	TicketCancelled TicketStatus = "CANCELLED" // terminal, seat released
)

// ParseTicketStatus normalizes a raw status string to one of the
// TicketStatus constants.  The second return value reports whether the
// input named a known status.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case TicketBooked:
		return TicketBooked, true
	case TicketCompleted:
		return TicketCompleted, true
	case TicketCancelled:
		return TicketCancelled, true
	}
	return "", false
}

// Active reports whether the status holds its seat.  BOOKED and
// COMPLETED tickets keep the seat unavailable; CANCELLED does not.
func (s TicketStatus) Active() bool {
	return s == TicketBooked || s == TicketCompleted
}

// Ticket records one booking attempt binding a user to a seat on a
// trip.  Version implements optimistic locking: every status write
// increments it, and concurrent writers guard on the value they read.
//
// Fields:
//  ID        – primary key identifier.
//  TripID    – trip the ticket is for.
//  SeatID    – seat held by this ticket while active.
//  UserID    – opaque reference into the external user directory.
//  Status    – current state, see TicketStatus.
//  Version   – optimistic-lock counter, incremented per status write.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Ticket struct {
	ID        uint64       `json:"id"`         // tickets.id
	TripID    uint64       `json:"trip_id"`    // tickets.trip_id
	SeatID    uint64       `json:"seat_id"`    // tickets.seat_id
	UserID    uint64       `json:"user_id"`    // tickets.user_id
	Status    TicketStatus `json:"status"`     // tickets.status
	Version   uint32       `json:"version"`    // tickets.version
	CreatedAt time.Time    `json:"created_at"` // tickets.created_at
	UpdatedAt time.Time    `json:"updated_at"` // tickets.updated_at
}
