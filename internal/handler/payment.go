package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/queue"
	"github.com/iliyamo/trip-ticketing/internal/repository"
	"github.com/iliyamo/trip-ticketing/internal/service"
)

// PaymentHandler exposes settlement endpoints.  TicketRepo is used only to
// enrich confirmation events with trip and seat fields; all state changes go
// through the settlement service.
type PaymentHandler struct {
	Settlements *service.SettlementService
	Tickets     *repository.TicketRepo
}

// NewPaymentHandler constructs a PaymentHandler.  All dependencies must be
// non-nil.
func NewPaymentHandler(settlements *service.SettlementService, tickets *repository.TicketRepo) *PaymentHandler {
	if settlements == nil || tickets == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Settlements: settlements, Tickets: tickets}
}

// Initiate handles POST /v1/payments.  PayPal payments require an external
// reference and stay PENDING until confirmed; cash payments settle
// synchronously and come back COMPLETED.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		TicketID    uint64  `json:"ticket_id"`
		AmountCents uint32  `json:"amount_cents"`
		Method      string  `json:"method"`
		ExternalRef *string `json:"external_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TicketID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id is required"})
	}

	ctx := c.Request().Context()
	payment, err := h.Settlements.InitiatePayment(ctx, body.TicketID, userID, body.AmountCents, body.Method, body.ExternalRef)
	if err != nil {
		return respondError(c, err)
	}
	if payment.Status == model.PaymentCompleted {
		h.publishConfirmed(c, payment)
	}
	return c.JSON(http.StatusCreated, payment)
}

// Confirm handles POST /v1/payments/:id/confirm with an "outcome" of
// COMPLETED or FAILED.  Repeating the same outcome is idempotent; changing a
// settled outcome is rejected.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	var body struct {
		Outcome string `json:"outcome"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	outcome, ok := model.ParsePaymentStatus(body.Outcome)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "outcome must be COMPLETED or FAILED"})
	}

	payment, err := h.Settlements.Confirm(c.Request().Context(), id, outcome)
	if err != nil {
		return respondError(c, err)
	}
	if payment.Status == model.PaymentCompleted {
		h.publishConfirmed(c, payment)
	}
	return c.JSON(http.StatusOK, payment)
}

// publishConfirmed emits a confirmation event enriched with trip and seat
// fields.  Best effort; a broker outage never fails the settlement.
func (h *PaymentHandler) publishConfirmed(c echo.Context, p *model.Payment) {
	ctx := c.Request().Context()
	detail, err := h.Tickets.GetDetail(ctx, p.TicketID)
	if err != nil {
		return
	}
	confirmedAt := time.Now().UTC()
	if p.PaidAt != nil {
		confirmedAt = p.PaidAt.UTC()
	}
	_ = queue.PublishTicketConfirmed(ctx, queue.TicketConfirmedEvent{
		TicketID:          detail.ID,
		PaymentID:         p.ID,
		UserID:            detail.UserID,
		TripID:            detail.TripID,
		SeatNumber:        detail.SeatNumber,
		DepartureLocation: detail.DepartureLocation,
		ArrivalLocation:   detail.ArrivalLocation,
		AmountCents:       p.AmountCents,
		ReceiptNo:         p.ReceiptNo,
		ConfirmedAt:       confirmedAt.Format(time.RFC3339),
	})
}

// ListMine handles GET /v1/payments, returning the caller's settlement
// history enriched with route and seat fields.
func (h *PaymentHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Settlements.FindByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": details})
}

// ByTicket handles GET /v1/tickets/:id/payments.  Customers can inspect
// settlement attempts only for their own tickets.
func (h *PaymentHandler) ByTicket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	details, err := h.Settlements.FindByTicket(c.Request().Context(), id, userID, isAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": id, "payments": details})
}

// ListAll handles GET /v1/admin/payments.  Route middleware restricts this
// to admins.
func (h *PaymentHandler) ListAll(c echo.Context) error {
	details, err := h.Settlements.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": details})
}
