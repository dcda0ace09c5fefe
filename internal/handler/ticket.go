package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/trip-ticketing/internal/queue"
	"github.com/iliyamo/trip-ticketing/internal/service"
	"github.com/iliyamo/trip-ticketing/internal/utils"
)

// TicketHandler exposes booking and cancellation endpoints.  All methods
// assume JWT authentication ran first; ownership checks happen in the
// service layer so the handler only extracts identity and shapes responses.
type TicketHandler struct {
	Reservations *service.ReservationService
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(reservations *service.ReservationService) *TicketHandler {
	if reservations == nil {
		panic("nil service passed to NewTicketHandler")
	}
	return &TicketHandler{Reservations: reservations}
}

// Book handles POST /v1/tickets.  The seat claim is a conditional update, so
// two concurrent requests for the same seat cannot both succeed; the loser
// receives 409 with a seat-unavailable error.
func (h *TicketHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		TripID uint64 `json:"trip_id"`
		SeatID uint64 `json:"seat_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TripID == 0 || body.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_id and seat_id are required"})
	}

	detail, err := h.Reservations.Book(c.Request().Context(), body.TripID, body.SeatID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// Cancel handles POST /v1/tickets/:id/cancel.  The status flip is durable
// before the seat is released, so a crash can strand a seat unavailable but
// never double-sell it.  A cancellation event is published best effort.
func (h *TicketHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx := c.Request().Context()

	detail, refunded, err := h.Reservations.Cancel(ctx, id, userID, isAdmin(c))
	if err != nil {
		return respondError(c, err)
	}

	_ = queue.PublishTicketCancelled(ctx, queue.TicketCancelledEvent{
		TicketID:    detail.ID,
		UserID:      detail.UserID,
		TripID:      detail.TripID,
		SeatID:      detail.SeatID,
		Refunded:    refunded,
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"ticket": detail, "refunded": refunded})
}

// Get handles GET /v1/tickets/:id.  Customers see only their own tickets;
// admins see any.
func (h *TicketHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	detail, err := h.Reservations.Get(c.Request().Context(), id, userID, isAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// ListMine handles GET /v1/tickets, returning the caller's tickets enriched
// with trip and seat fields, newest first.
func (h *TicketHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": details})
}

// ListAll handles GET /v1/admin/tickets.  Route middleware restricts this to
// admins.
func (h *TicketHandler) ListAll(c echo.Context) error {
	details, err := h.Reservations.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": details})
}

// ExportPDF handles GET /v1/tickets/:id/pdf, rendering a printable e-ticket.
func (h *TicketHandler) ExportPDF(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	detail, err := h.Reservations.Get(c.Request().Context(), id, userID, isAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	pdf, err := utils.TicketPDF(detail)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render ticket"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="ticket-%d.pdf"`, detail.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
