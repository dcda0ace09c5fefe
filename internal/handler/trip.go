package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/trip-ticketing/internal/model"
	"github.com/iliyamo/trip-ticketing/internal/repository"
	"github.com/iliyamo/trip-ticketing/internal/service"
)

// TripHandler exposes trip and seat inventory endpoints.  Creation and
// re-initialization are admin operations; seat browsing is open to any
// authenticated user.
type TripHandler struct {
	Inventory *service.SeatInventory
	Trips     *repository.TripRepo
	Tickets   *repository.TicketRepo
}

// NewTripHandler constructs a TripHandler.  All dependencies must be non-nil.
func NewTripHandler(inventory *service.SeatInventory, trips *repository.TripRepo, tickets *repository.TicketRepo) *TripHandler {
	if inventory == nil || trips == nil || tickets == nil {
		panic("nil dependency passed to NewTripHandler")
	}
	return &TripHandler{Inventory: inventory, Trips: trips, Tickets: tickets}
}

// CreateTrip handles POST /v1/trips.  The trip and its full seat block are
// created atomically, so a trip is never visible without its seats.
func (h *TripHandler) CreateTrip(c echo.Context) error {
	var body struct {
		DepartureLocation string `json:"departure_location"`
		ArrivalLocation   string `json:"arrival_location"`
		DepartureTime     string `json:"departure_time"`
		PriceCents        uint32 `json:"price_cents"`
		TotalSeats        uint32 `json:"total_seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.DepartureLocation == "" || body.ArrivalLocation == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_location and arrival_location are required"})
	}
	departure, err := time.Parse(time.RFC3339, body.DepartureTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be RFC3339"})
	}

	trip := &model.Trip{
		DepartureLocation: body.DepartureLocation,
		ArrivalLocation:   body.ArrivalLocation,
		DepartureTime:     departure.UTC(),
		PriceCents:        body.PriceCents,
		TotalSeats:        body.TotalSeats,
	}
	if err := h.Inventory.CreateTripWithSeats(c.Request().Context(), trip); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, trip)
}

// GetTrip handles GET /v1/trips/:id, returning the trip plus how many
// of its seats are currently held by an active ticket.
func (h *TripHandler) GetTrip(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()
	trip, err := h.Trips.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	booked, err := h.Tickets.CountActiveByTrip(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trip": trip, "booked_seats": booked})
}

// InitializeSeats handles POST /v1/trips/:id/seats.  It backfills the seat
// block for a trip created without one.  The operation is rejected once any
// seat exists for the trip.
func (h *TripHandler) InitializeSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body struct {
		TotalSeats uint32 `json:"total_seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Inventory.InitializeSeats(c.Request().Context(), id, body.TotalSeats); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"trip_id": id, "total_seats": body.TotalSeats})
}

// ListSeats handles GET /v1/trips/:id/seats, returning every seat of the
// trip ordered by seat number.
func (h *TripHandler) ListSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	seats, err := h.Inventory.ListByTrip(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trip_id": id, "seats": seats})
}

// GetSeat handles GET /v1/seats/:id.
func (h *TripHandler) GetSeat(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	seat, err := h.Inventory.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}
