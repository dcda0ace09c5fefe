// Package queue defines message payloads exchanged over the message broker
// and the background consumer that audits them.
package queue

// TicketConfirmedEvent is published when a payment settles and its ticket
// reaches COMPLETED. It carries enough context for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type TicketConfirmedEvent struct {
	TicketID          uint64 `json:"ticket_id"`
	PaymentID         uint64 `json:"payment_id"`
	UserID            uint64 `json:"user_id"`
	TripID            uint64 `json:"trip_id"`
	SeatNumber        uint32 `json:"seat_number"`
	DepartureLocation string `json:"departure_location"`
	ArrivalLocation   string `json:"arrival_location"`
	AmountCents       uint32 `json:"amount_cents"`
	ReceiptNo         string `json:"receipt_no"`
	ConfirmedAt       string `json:"confirmed_at"`
}

// TicketCancelledEvent is published when a ticket is cancelled and its seat
// released. Refunded indicates that the ticket had a completed payment that
// was marked REFUNDED as part of the cancellation.
type TicketCancelledEvent struct {
	TicketID    uint64 `json:"ticket_id"`
	UserID      uint64 `json:"user_id"`
	TripID      uint64 `json:"trip_id"`
	SeatID      uint64 `json:"seat_id"`
	Refunded    bool   `json:"refunded"`
	CancelledAt string `json:"cancelled_at"`
}
