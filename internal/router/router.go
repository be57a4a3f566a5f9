// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/config"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/handler"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/middleware"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth    *handler.AuthHandler
	Browse  *handler.BrowseHandler
	Listing *handler.HostListingHandler
	Host    *handler.HostBookingHandler
	Guest   *handler.GuestBookingHandler
}

// Register sets up the full route table.
//
// Public browse routes get the Redis response cache and the token
// bucket limiter. The address route is registered outside the cached
// group on purpose: its response depends on who is asking, and a cache
// hit there would leak one viewer's disclosure to everyone behind the
// same key.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Auth.
	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public browse, cached.
	pub := e.Group("/v1", limiter, cache)
	pub.GET("/listings", h.Browse.List)
	pub.GET("/listings/:id", h.Browse.Get)

	// Authenticated, either role.
	user := e.Group("/v1", limiter, middleware.JWTAuth(cfg.JWTSecret))
	user.GET("/me", h.Auth.Me)
	// Disclosure-gated; never cached.
	user.GET("/listings/:id/address", h.Browse.Address)

	// Guest reservations.
	guest := user.Group("", middleware.RequireRole(model.RoleGuest, model.RoleHost))
	guest.POST("/listings/:id/reserve", h.Guest.Reserve)
	guest.POST("/bookings/:id/cancel", h.Guest.Cancel)
	guest.GET("/bookings", h.Guest.Mine)

	// Host-only management.
	host := user.Group("/host", middleware.RequireRole(model.RoleHost))
	host.POST("/listings", h.Listing.Create)
	host.GET("/listings", h.Listing.Mine)
	host.PATCH("/listings/:id", h.Listing.Update)
	host.DELETE("/listings/:id", h.Listing.Close) // soft close
	host.GET("/listings/:id/bookings", h.Listing.Bookings)
	host.POST("/bookings/:id/confirm", h.Host.Confirm)
	host.POST("/bookings/:id/complete", h.Host.Complete)
	host.POST("/bookings/:id/no-show", h.Host.MarkNoShow)
	host.POST("/bookings/:id/cancel", h.Host.Cancel)
}
