package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/config"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/database"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/engine"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/geocode"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/handler"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/queue"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/repository"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil disables rate limiting and caching

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	listings := repository.NewListingRepo(db)
	bookings := repository.NewBookingRepo(db)
	eng := engine.New(repository.NewStore(db))
	geocoder := geocode.NewClient(cfg.GeocoderURL)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Browse:  handler.NewBrowseHandler(eng, listings),
		Listing: handler.NewHostListingHandler(eng, listings, bookings, geocoder),
		Host:    handler.NewHostBookingHandler(eng),
		Guest:   handler.NewGuestBookingHandler(eng, bookings),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
