package model

import "time"

// Trip describes one scheduled departure.  Trip maintenance beyond
// creation lives in the surrounding system; this core only needs the
// trip's existence, its seat count and a few display fields for
// enriched ticket views.
//
// Fields:
//  ID                – primary key identifier.
//  DepartureLocation – human readable origin.
//  ArrivalLocation   – human readable destination.
//  DepartureTime     – scheduled departure in UTC.
//  PriceCents        – fare per seat in cents.
//  TotalSeats        – number of seats created for this trip.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Trip struct {
	ID                uint64    `json:"id"`                 // trips.id
	DepartureLocation string    `json:"departure_location"` // trips.departure_location
	ArrivalLocation   string    `json:"arrival_location"`   // trips.arrival_location
	DepartureTime     time.Time `json:"departure_time"`     // trips.departure_time
	PriceCents        uint32    `json:"price_cents"`        // trips.price_cents
	TotalSeats        uint32    `json:"total_seats"`        // trips.total_seats
	CreatedAt         time.Time `json:"created_at"`         // trips.created_at
	UpdatedAt         time.Time `json:"updated_at"`         // trips.updated_at
}
