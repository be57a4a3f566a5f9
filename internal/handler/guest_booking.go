package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/engine"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/queue"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/repository"
)

// GuestBookingHandler serves the guest-side reservation endpoints.
type GuestBookingHandler struct {
	Engine   *engine.Engine
	Bookings *repository.BookingRepo
}

func NewGuestBookingHandler(e *engine.Engine, b *repository.BookingRepo) *GuestBookingHandler {
	return &GuestBookingHandler{Engine: e, Bookings: b}
}

type bookingResp struct {
	ID        uint64              `json:"id"`
	ListingID uint64              `json:"listing_id"`
	Status    model.BookingStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// Reserve takes one portion of the listing for the caller. One live
// booking per guest per listing; a second attempt returns 409.
func (h *GuestBookingHandler) Reserve(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Engine.Reserve(ctx, listingID, guestID)
	if err != nil {
		return engineError(c, err)
	}
	publishAudit(ctx, queue.AuditEvent{
		ActorID:   guestID,
		Action:    model.AuditBookingCreated,
		TargetID:  b.ID,
		ListingID: listingID,
	})
	return c.JSON(http.StatusCreated, bookingResp{
		ID:        b.ID,
		ListingID: b.ListingID,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	})
}

// Cancel releases the caller's booking. Past the grace period, or once
// the pickup window has opened, the portion stays committed and the
// call returns 409.
func (h *GuestBookingHandler) Cancel(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Engine.Cancel(ctx, bookingID, guestID); err != nil {
		return engineError(c, err)
	}
	publishAudit(ctx, queue.AuditEvent{
		ActorID:  guestID,
		Action:   model.AuditBookingCancel,
		TargetID: bookingID,
	})
	return c.NoContent(http.StatusNoContent)
}

// Mine lists the caller's bookings with their listing context.
func (h *GuestBookingHandler) Mine(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	details, err := h.Bookings.ListByGuest(ctx, guestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, details)
}
