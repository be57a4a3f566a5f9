package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/engine"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/queue"
)

// HostBookingHandler serves the host-side booking transitions. Each one
// is idempotent: repeating a transition the booking already took
// returns success without changing anything.
type HostBookingHandler struct {
	Engine *engine.Engine
}

func NewHostBookingHandler(e *engine.Engine) *HostBookingHandler {
	return &HostBookingHandler{Engine: e}
}

// Confirm accepts a pending booking. Confirmation is what unlocks the
// exact address for the guest.
func (h *HostBookingHandler) Confirm(c echo.Context) error {
	return h.transition(c, h.Engine.Confirm, model.AuditBookingConfirm)
}

// Complete records a fulfilled pickup.
func (h *HostBookingHandler) Complete(c echo.Context) error {
	return h.transition(c, h.Engine.Complete, model.AuditBookingDone)
}

// MarkNoShow records that the guest never showed up.
func (h *HostBookingHandler) MarkNoShow(c echo.Context) error {
	return h.transition(c, h.Engine.MarkNoShow, model.AuditBookingNoShow)
}

// Cancel lets the host cancel a live booking at any time; hosts are not
// bound by the guest grace period.
func (h *HostBookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.Engine.Cancel, model.AuditBookingCancel)
}

func (h *HostBookingHandler) transition(c echo.Context, op func(ctx context.Context, bookingID, actorID uint64) error, action string) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := op(ctx, bookingID, hostID); err != nil {
		return engineError(c, err)
	}
	publishAudit(ctx, queue.AuditEvent{
		ActorID:  hostID,
		Action:   action,
		TargetID: bookingID,
	})
	return c.NoContent(http.StatusNoContent)
}
