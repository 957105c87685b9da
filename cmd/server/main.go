package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/config"
	"github.com/okoskine/resbook/internal/database"
	"github.com/okoskine/resbook/internal/handler"
	"github.com/okoskine/resbook/internal/middleware"
	"github.com/okoskine/resbook/internal/queue"
	"github.com/okoskine/resbook/internal/repository"
	"github.com/okoskine/resbook/internal/router"
	"github.com/okoskine/resbook/internal/service"
)

func main() {
	// .env is optional; in containers configuration comes from real
	// environment variables.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	units := repository.NewUnitRepo(db)
	resources := repository.NewResourceRepo(db)
	reservations := repository.NewReservationRepo(db)
	exchange := repository.NewExchangeRepo(db)

	notifier := service.NewQueuePublisher()

	authH := handler.NewAuthHandler(cfg, users, tokens)
	browseH := handler.NewBrowseHandler(units, resources)
	reservationH := handler.NewReservationHandler(cfg, users, resources, reservations, notifier)
	staffH := handler.NewStaffHandler(units, resources, users)
	exchangeH := handler.NewExchangeHandler(exchange, reservations)

	e := echo.New()

	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	browseCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, browseH, browseCache)
	router.RegisterReservations(e, reservationH, cfg.JWTSecret)
	router.RegisterStaff(e, staffH, cfg.JWTSecret)
	router.RegisterExchange(e, exchangeH, cfg.JWTSecret)

	// Background consumer that turns reservation change events into
	// owner notifications. Runs its own reconnect loop.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, user id attribute=%s)", addr, cfg.Env, cfg.UserIDAttribute)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
