package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/trip-ticketing/internal/config"
	"github.com/iliyamo/trip-ticketing/internal/database"
	"github.com/iliyamo/trip-ticketing/internal/handler"
	"github.com/iliyamo/trip-ticketing/internal/queue"
	"github.com/iliyamo/trip-ticketing/internal/repository"
	"github.com/iliyamo/trip-ticketing/internal/router"
	"github.com/iliyamo/trip-ticketing/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DSN(), cfg.DBMaxConns, cfg.DBConnLifetime)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional; rate limiting and response caching degrade to
	// pass-through when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	tripRepo := repository.NewTripRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	userRepo := repository.NewUserRepo(db)

	inventory := service.NewSeatInventory(tripRepo, seatRepo)
	settlements := service.NewSettlementService(ticketRepo, paymentRepo)
	reservations := service.NewReservationService(seatRepo, ticketRepo, settlements)

	tripHandler := handler.NewTripHandler(inventory, tripRepo, ticketRepo)
	ticketHandler := handler.NewTicketHandler(reservations)
	paymentHandler := handler.NewPaymentHandler(settlements, ticketRepo)
	userHandler := handler.NewUserHandler(userRepo)

	// The audit consumer reconnects on its own; a broker outage only
	// pauses the audit trail.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e, tripHandler, ticketHandler, paymentHandler, userHandler, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
