package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/trip-ticketing/internal/config"
	"github.com/iliyamo/trip-ticketing/internal/handler"
	"github.com/iliyamo/trip-ticketing/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI wires the ticketing endpoints under /v1.  Every route in the
// group requires a valid bearer token; admin-only routes additionally pass
// through RequireRole.  Listing endpoints get the Redis response cache, and
// the whole group sits behind the token-bucket limiter.  Both Redis
// middlewares degrade to pass-through when rdb is nil.
func RegisterAPI(
	e *echo.Echo,
	trips *handler.TripHandler,
	tickets *handler.TicketHandler,
	payments *handler.PaymentHandler,
	users *handler.UserHandler,
	jwtSecret string,
	rdb *redis.Client,
) {
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	v1 := e.Group("/v1")
	v1.Use(rl)
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleCustomer))

	v1.GET("/me", users.Me)

	// Trips and seats.  Creation and seat backfill are admin operations.
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)
	v1.POST("/trips", trips.CreateTrip, adminOnly)
	v1.POST("/trips/:id/seats", trips.InitializeSeats, adminOnly)
	v1.GET("/trips/:id", trips.GetTrip, cache)
	v1.GET("/trips/:id/seats", trips.ListSeats, cache)
	v1.GET("/seats/:id", trips.GetSeat)

	// Tickets.
	v1.POST("/tickets", tickets.Book)
	v1.GET("/tickets", tickets.ListMine)
	v1.GET("/tickets/:id", tickets.Get)
	v1.POST("/tickets/:id/cancel", tickets.Cancel)
	v1.GET("/tickets/:id/pdf", tickets.ExportPDF)
	v1.GET("/tickets/:id/payments", payments.ByTicket)

	// Payments.
	v1.POST("/payments", payments.Initiate)
	v1.POST("/payments/:id/confirm", payments.Confirm)
	v1.GET("/payments", payments.ListMine)

	// Admin projections across all users.
	v1.GET("/admin/tickets", tickets.ListAll, adminOnly)
	v1.GET("/admin/payments", payments.ListAll, adminOnly)
}
