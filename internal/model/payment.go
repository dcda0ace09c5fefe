package model

import (
	"strings"
	"time"
)

// PaymentStatus is the closed set of states for a settlement attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"   // awaiting gateway or cash confirmation
	PaymentCompleted PaymentStatus = "COMPLETED" // settled successfully
	PaymentFailed    PaymentStatus = "FAILED"    // gateway declined; ticket keeps its hold
	PaymentRefunded  PaymentStatus = "REFUNDED"  // completed payment undone by cancellation
)

// ParsePaymentStatus normalizes a raw status string to one of the
// PaymentStatus constants.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case PaymentPending:
		return PaymentPending, true
	case PaymentCompleted:
		return PaymentCompleted, true
	case PaymentFailed:
		return PaymentFailed, true
	case PaymentRefunded:
		return PaymentRefunded, true
	}
	return "", false
}

// Terminal reports whether no further settlement transition is legal
// from this status.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}

// PaymentMethod identifies how a payment is made.  PayPal settles
// asynchronously through a gateway callback and carries the gateway's
// payment id as an external reference; cash settles synchronously at a
// counter and must not carry one.
type PaymentMethod string

const (
	MethodPayPal PaymentMethod = "paypal"
	MethodCash   PaymentMethod = "cash"
)

// ParsePaymentMethod normalizes a raw method string to one of the
// PaymentMethod constants.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodPayPal:
		return MethodPayPal, true
	case MethodCash:
		return MethodCash, true
	}
	return "", false
}

// RequiresExternalRef reports whether the method must carry a gateway
// reference.  Cash is the only method that settles without one.
func (m PaymentMethod) RequiresExternalRef() bool {
	return m != MethodCash
}

// Payment is one settlement attempt against a ticket.  A ticket may
// accumulate several payments across retries but at most one of them
// is ever COMPLETED.  Payments are never deleted; they form the audit
// trail of the settlement history.
//
// Fields:
//  ID          – primary key identifier.
//  TicketID    – ticket being settled.
//  UserID      – opaque reference to the paying user.
//  AmountCents – amount in cents.
//  Method      – payment method, see PaymentMethod.
//  Status      – current state, see PaymentStatus.
//  ExternalRef – gateway payment id; nil for cash.
//  ReceiptNo   – receipt number assigned when the payment settles.
//  PaidAt      – settlement timestamp; nil while pending.
//  CreatedAt   – creation timestamp.
type Payment struct {
	ID          uint64        `json:"id"`                     // payments.id
	TicketID    uint64        `json:"ticket_id"`              // payments.ticket_id
	UserID      uint64        `json:"user_id"`                // payments.user_id
	AmountCents uint32        `json:"amount_cents"`           // payments.amount_cents
	Method      PaymentMethod `json:"method"`                 // payments.method
	Status      PaymentStatus `json:"status"`                 // payments.status
	ExternalRef *string       `json:"external_ref,omitempty"` // payments.external_ref (nullable)
	ReceiptNo   string        `json:"receipt_no,omitempty"`   // payments.receipt_no (empty until settled)
	PaidAt      *time.Time    `json:"paid_at,omitempty"`      // payments.paid_at (nullable)
	CreatedAt   time.Time     `json:"created_at"`             // payments.created_at
}
