package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/engine"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/repository"
)

// BrowseHandler serves listing discovery. Every payload it writes is
// sanitized: fuzzed coordinates and the neighborhood label only, never
// the street fields or the real coordinate pair. The one exception is
// Address, which runs the disclosure gate per request.
type BrowseHandler struct {
	Engine   *engine.Engine
	Listings *repository.ListingRepo
}

func NewBrowseHandler(e *engine.Engine, l *repository.ListingRepo) *BrowseHandler {
	return &BrowseHandler{Engine: e, Listings: l}
}

// publicListingView is what any viewer sees about a listing.
type publicListingView struct {
	ID                uint64    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	PriceCents        uint32    `json:"price_cents"`
	Neighborhood      string    `json:"neighborhood"`
	Lat               float64   `json:"lat"` // fuzzed
	Lon               float64   `json:"lon"` // fuzzed
	Remaining         uint32    `json:"remaining"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	PickupWindowStart time.Time `json:"pickup_window_start"`
	PickupWindowEnd   time.Time `json:"pickup_window_end"`
}

func toPublicView(l *model.Listing) publicListingView {
	return publicListingView{
		ID:                l.ID,
		Title:             l.Title,
		Description:       l.Description,
		PriceCents:        l.PriceCents,
		Neighborhood:      l.Neighborhood,
		Lat:               l.PublicLat,
		Lon:               l.PublicLon,
		Remaining:         l.Remaining(),
		ScheduledAt:       l.ScheduledAt,
		PickupWindowStart: l.PickupWindowStart,
		PickupWindowEnd:   l.PickupWindowEnd,
	}
}

// List returns all open listings.
func (h *BrowseHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	listings, err := h.Listings.ListOpen(ctx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]publicListingView, 0, len(listings))
	for i := range listings {
		out = append(out, toPublicView(&listings[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one listing's public detail.
func (h *BrowseHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	l, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}
	return c.JSON(http.StatusOK, toPublicView(l))
}

// addressResp is the gated address payload. Exact is true only when the
// street-level address is included.
type addressResp struct {
	Exact        bool           `json:"exact"`
	Address      *model.Address `json:"address,omitempty"`
	Neighborhood string         `json:"neighborhood,omitempty"`
	Lat          float64        `json:"lat"`
	Lon          float64        `json:"lon"`
}

// Address resolves the pickup location for the caller. The gate is
// evaluated on this request, not at booking time: the host and guests
// holding a CONFIRMED booking get the exact address, everyone else gets
// the same fuzzed pin the public map shows. Denial is silent, a 200
// with the fuzzed payload, so the response shape leaks nothing about
// booking state. This route must never be served from a shared cache.
func (h *BrowseHandler) Address(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	addr, err := h.Engine.GetExactAddress(ctx, id, uid)
	if err == nil {
		return c.JSON(http.StatusOK, addressResp{
			Exact:   true,
			Address: addr,
			Lat:     addr.Lat,
			Lon:     addr.Lon,
		})
	}
	if !errors.Is(err, engine.ErrUnauthorized) {
		return engineError(c, err)
	}

	l, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}
	return c.JSON(http.StatusOK, addressResp{
		Exact:        false,
		Neighborhood: l.Neighborhood,
		Lat:          l.PublicLat,
		Lon:          l.PublicLon,
	})
}
