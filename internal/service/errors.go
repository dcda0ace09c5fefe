// Package service implements the seat-reservation and settlement core:
// seat inventory, the reservation workflow and the payment settlement
// state machine. Handlers translate the sentinel errors defined here
// (plus the repository sentinels) into HTTP responses.
package service

import "errors"

// ErrSeatUnavailable is returned when a seat claim failed because
// another ticket already holds the seat. This is an expected outcome
// under contention and is never retried internally; the caller must
// pick another seat.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrInvalidStateTransition is returned when a requested ticket or
// payment transition is not legal from the current state, e.g.
// cancelling an already cancelled ticket or confirming a payment that
// settled with a different outcome.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrInvalidSeatCount is returned when seat initialization is requested
// with a non-positive seat count.
var ErrInvalidSeatCount = errors.New("total seats must be positive")

// ErrSeatsAlreadyInitialized is returned when seats were already
// created for the trip.
var ErrSeatsAlreadyInitialized = errors.New("seats already initialized for trip")

// ErrUnknownMethod is returned when a payment is initiated with a
// method outside the supported set.
var ErrUnknownMethod = errors.New("unknown payment method")

// ErrUnknownOutcome is returned when a payment confirmation names an
// outcome other than COMPLETED or FAILED.
var ErrUnknownOutcome = errors.New("confirmation outcome must be COMPLETED or FAILED")

// ErrExternalRefRequired is returned when a gateway method is initiated
// without the gateway's payment reference.
var ErrExternalRefRequired = errors.New("external payment reference required for this method")

// ErrExternalRefNotAllowed is returned when a cash payment carries an
// external reference.
var ErrExternalRefNotAllowed = errors.New("cash payments must not carry an external reference")

// ErrInvalidAmount is returned when a payment is initiated with a zero
// amount.
var ErrInvalidAmount = errors.New("amount must be positive")
